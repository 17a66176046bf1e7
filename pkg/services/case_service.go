package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/aml-forge/sar-engine/pkg/apperrors"
	"github.com/aml-forge/sar-engine/pkg/database"
	"github.com/aml-forge/sar-engine/pkg/models"
	"github.com/aml-forge/sar-engine/pkg/repositories"
)

// CreateCaseInput carries everything needed to open a case with a generated
// narrative.
type CreateCaseInput struct {
	Customer     *models.CustomerProfile
	Alert        *models.TransactionAlert
	Transactions []models.Transaction
	AnalystID    *uuid.UUID
	Priority     string
}

// CaseService manages the SAR case lifecycle and its immutable narrative
// version history. Every mutating operation pairs the case change with
// exactly one audit append inside a single transaction: either both commit
// or neither does.
type CaseService interface {
	// CreateCase generates a narrative for the inputs and opens a case in
	// IN_REVIEW with version 1 (kind GENERATED).
	CreateCase(ctx context.Context, input CreateCaseInput) (*models.Case, *models.GenerationResult, error)

	// GetCase returns a case by business identifier.
	GetCase(ctx context.Context, caseID string) (*models.Case, error)

	// SaveEdit stores a new edited narrative as the next version. Rejected
	// for cases in a locked status.
	SaveEdit(ctx context.Context, caseID, newText, editor string, userID *uuid.UUID, changeSummary string) (*models.Case, error)

	// Approve freezes the working narrative as final and moves the case to
	// APPROVED, appending an APPROVED version.
	Approve(ctx context.Context, caseID, approver string, userID *uuid.UUID, notes string) (*models.Case, error)

	// Reject moves the case to REJECTED without touching the narrative.
	Reject(ctx context.Context, caseID, rejector string, userID *uuid.UUID, reason string) (*models.Case, error)

	// File marks an APPROVED case as FILED with the regulator reference.
	File(ctx context.Context, caseID, filer string, userID *uuid.UUID, sarReference string) (*models.Case, error)

	// ListVersions returns the full version history for a case.
	ListVersions(ctx context.Context, caseID string) ([]*models.NarrativeVersionEntry, error)
}

type caseService struct {
	db           *database.DB
	caseRepo     repositories.CaseRepository
	customerRepo repositories.CustomerRepository
	alertRepo    repositories.TransactionAlertRepository
	generator    GeneratorService
	audit        AuditService
	alerts       AlertService
	hosting      string
	logger       *zap.Logger
}

// NewCaseService creates a new CaseService.
func NewCaseService(db *database.DB, caseRepo repositories.CaseRepository, customerRepo repositories.CustomerRepository, alertRepo repositories.TransactionAlertRepository, generator GeneratorService, audit AuditService, alerts AlertService, hostingEnv string, logger *zap.Logger) CaseService {
	return &caseService{
		db:           db,
		caseRepo:     caseRepo,
		customerRepo: customerRepo,
		alertRepo:    alertRepo,
		generator:    generator,
		audit:        audit,
		alerts:       alerts,
		hosting:      hostingEnv,
		logger:       logger.Named("case-service"),
	}
}

var _ CaseService = (*caseService)(nil)

// NewCaseID returns a fresh business identifier, e.g. SAR-202608-3FA29C.
func NewCaseID() string {
	return fmt.Sprintf("SAR-%s-%s",
		time.Now().Format("200601"),
		strings.ToUpper(uuid.New().String()[:6]))
}

func (s *caseService) CreateCase(ctx context.Context, input CreateCaseInput) (*models.Case, *models.GenerationResult, error) {
	// Generation happens outside the transaction: it is slow, has no
	// database side effects, and never hard-fails.
	result := s.generator.Generate(ctx, input.Customer, input.Alert, input.Transactions)

	priority := input.Priority
	if priority == "" {
		priority = input.Alert.Severity
	}

	c := &models.Case{
		CaseID:             NewCaseID(),
		AlertID:            &input.Alert.AlertID,
		CustomerID:         input.Customer.CustomerID,
		AnalystID:          input.AnalystID,
		Status:             models.CaseStatusInReview,
		Priority:           priority,
		GeneratedNarrative: result.Narrative,
		NarrativeVersion:   1,
		GenerationMetadata: result.AuditTrail,
		RAGSourcesUsed:     append(result.RAGSources.TemplateIDs, result.RAGSources.RegulationIDs...),
	}

	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		// The case row references the profile and alert by business key, so
		// both are persisted first within the same transaction.
		if err := s.customerRepo.Upsert(ctx, tx, input.Customer); err != nil {
			return err
		}
		if err := s.alertRepo.Upsert(ctx, tx, input.Alert); err != nil {
			return err
		}
		if err := s.caseRepo.Create(ctx, tx, c); err != nil {
			return err
		}
		if err := s.caseRepo.AppendVersion(ctx, tx, &models.NarrativeVersionEntry{
			CaseID:        c.CaseID,
			VersionNumber: 1,
			NarrativeText: result.Narrative,
			ChangeKind:    models.ChangeKindGenerated,
			ChangeSummary: "Initial AI-generated narrative",
			ChangedBy:     result.ModelUsed,
		}); err != nil {
			return err
		}
		if err := s.audit.Log(ctx, tx, models.ActionCaseCreated, LogParams{
			CaseID: &c.CaseID,
			UserID: input.AnalystID,
			Details: map[string]any{
				"customer_id": c.CustomerID,
				"alert_id":    input.Alert.AlertID,
				"priority":    priority,
			},
			Success: true,
		}); err != nil {
			return err
		}
		return s.audit.LogGeneration(ctx, tx, c.CaseID, input.AnalystID, result, s.hosting)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create case: %w", err)
	}

	// Alerting is a side effect outside the atomic boundary: a failed alert
	// must not roll back a created case.
	s.raiseCaseAlerts(ctx, c, input, result)

	s.logger.Info("Case created",
		zap.String("case_id", c.CaseID),
		zap.String("customer_id", c.CustomerID),
		zap.Bool("used_fallback", result.UsedFallback))

	return c, result, nil
}

func (s *caseService) raiseCaseAlerts(ctx context.Context, c *models.Case, input CreateCaseInput, result *models.GenerationResult) {
	s.alerts.Raise(ctx, RaiseInput{
		AlertType:  models.AlertNarrativeGenerated,
		Message:    fmt.Sprintf("SAR narrative generated for case %s (model: %s)", c.CaseID, result.ModelUsed),
		CaseID:     &c.CaseID,
		CustomerID: &c.CustomerID,
	})

	switch input.Alert.Severity {
	case models.SeverityCritical:
		s.alerts.Raise(ctx, RaiseInput{
			AlertType:  models.AlertNewCriticalCase,
			Message:    fmt.Sprintf("Case %s opened from CRITICAL alert %s", c.CaseID, input.Alert.AlertID),
			CaseID:     &c.CaseID,
			CustomerID: &c.CustomerID,
		})
	case models.SeverityHigh:
		s.alerts.Raise(ctx, RaiseInput{
			AlertType:  models.AlertNewHighSeverityCase,
			Message:    fmt.Sprintf("Case %s opened from HIGH alert %s", c.CaseID, input.Alert.AlertID),
			CaseID:     &c.CaseID,
			CustomerID: &c.CustomerID,
		})
	}

	if input.Customer.PEPStatus {
		s.alerts.Raise(ctx, RaiseInput{
			AlertType:  models.AlertPEPActivity,
			Message:    fmt.Sprintf("PEP customer %s flagged in case %s", c.CustomerID, c.CaseID),
			CaseID:     &c.CaseID,
			CustomerID: &c.CustomerID,
		})
	}
}

func (s *caseService) GetCase(ctx context.Context, caseID string) (*models.Case, error) {
	return s.caseRepo.GetByCaseID(ctx, s.db, caseID)
}

func (s *caseService) SaveEdit(ctx context.Context, caseID, newText, editor string, userID *uuid.UUID, changeSummary string) (*models.Case, error) {
	c, err := s.caseRepo.GetByCaseID(ctx, s.db, caseID)
	if err != nil {
		return nil, err
	}
	if c.Status.Locked() {
		return nil, fmt.Errorf("%w: case %s is %s", apperrors.ErrCaseLocked, caseID, c.Status)
	}

	original := c.WorkingNarrative()
	c.EditedNarrative = newText
	c.NarrativeVersion++

	err = s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.caseRepo.Update(ctx, tx, c); err != nil {
			return err
		}
		if err := s.caseRepo.AppendVersion(ctx, tx, &models.NarrativeVersionEntry{
			CaseID:        caseID,
			VersionNumber: c.NarrativeVersion,
			NarrativeText: newText,
			ChangeKind:    models.ChangeKindEdit,
			ChangeSummary: changeSummary,
			ChangedBy:     editor,
		}); err != nil {
			return err
		}
		return s.audit.LogEdit(ctx, tx, caseID, userID, editor, original, newText, changeSummary)
	})
	if err != nil {
		return nil, fmt.Errorf("save edit: %w", err)
	}

	return c, nil
}

func (s *caseService) Approve(ctx context.Context, caseID, approver string, userID *uuid.UUID, notes string) (*models.Case, error) {
	c, err := s.caseRepo.GetByCaseID(ctx, s.db, caseID)
	if err != nil {
		return nil, err
	}
	if !c.Status.CanTransition(models.CaseStatusApproved) {
		return nil, fmt.Errorf("%w: cannot approve case in status %s", apperrors.ErrInvalidTransition, c.Status)
	}

	c.FinalNarrative = c.WorkingNarrative()
	c.Status = models.CaseStatusApproved
	c.ApprovedBy = approver
	c.AnalystNotes = notes
	c.NarrativeVersion++

	err = s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.caseRepo.Update(ctx, tx, c); err != nil {
			return err
		}
		if err := s.caseRepo.AppendVersion(ctx, tx, &models.NarrativeVersionEntry{
			CaseID:        caseID,
			VersionNumber: c.NarrativeVersion,
			NarrativeText: c.FinalNarrative,
			ChangeKind:    models.ChangeKindApproved,
			ChangeSummary: "Narrative approved as final",
			ChangedBy:     approver,
		}); err != nil {
			return err
		}
		return s.audit.LogApproval(ctx, tx, caseID, userID, approver, true, notes)
	})
	if err != nil {
		return nil, fmt.Errorf("approve case: %w", err)
	}

	s.alerts.Raise(ctx, RaiseInput{
		AlertType:  models.AlertSARApproved,
		Message:    fmt.Sprintf("Case %s approved by %s, ready for filing", caseID, approver),
		CaseID:     &caseID,
		CustomerID: &c.CustomerID,
	})

	return c, nil
}

func (s *caseService) Reject(ctx context.Context, caseID, rejector string, userID *uuid.UUID, reason string) (*models.Case, error) {
	c, err := s.caseRepo.GetByCaseID(ctx, s.db, caseID)
	if err != nil {
		return nil, err
	}
	if !c.Status.CanTransition(models.CaseStatusRejected) {
		return nil, fmt.Errorf("%w: cannot reject case in status %s", apperrors.ErrInvalidTransition, c.Status)
	}

	c.Status = models.CaseStatusRejected
	c.RejectionReason = reason

	err = s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.caseRepo.Update(ctx, tx, c); err != nil {
			return err
		}
		return s.audit.LogApproval(ctx, tx, caseID, userID, rejector, false, reason)
	})
	if err != nil {
		return nil, fmt.Errorf("reject case: %w", err)
	}

	s.alerts.Raise(ctx, RaiseInput{
		AlertType:  models.AlertSARRejected,
		Message:    fmt.Sprintf("Case %s rejected by %s: %s", caseID, rejector, reason),
		CaseID:     &caseID,
		CustomerID: &c.CustomerID,
	})

	return c, nil
}

func (s *caseService) File(ctx context.Context, caseID, filer string, userID *uuid.UUID, sarReference string) (*models.Case, error) {
	c, err := s.caseRepo.GetByCaseID(ctx, s.db, caseID)
	if err != nil {
		return nil, err
	}
	if c.Status != models.CaseStatusApproved {
		return nil, fmt.Errorf("%w: case %s must be APPROVED before filing, is %s", apperrors.ErrNotApproved, caseID, c.Status)
	}

	now := time.Now()
	c.Status = models.CaseStatusFiled
	c.SARReference = sarReference
	c.FiledAt = &now

	err = s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.caseRepo.Update(ctx, tx, c); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, models.ActionSARFiled, LogParams{
			CaseID: &caseID,
			UserID: userID,
			Details: map[string]any{
				"filed_by":      filer,
				"sar_reference": sarReference,
			},
			ReasoningTrace: fmt.Sprintf("SAR filed with regulator by %s. Reference: %s", filer, sarReference),
			Success:        true,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("file case: %w", err)
	}

	s.alerts.Raise(ctx, RaiseInput{
		AlertType:  models.AlertSARFiled,
		Message:    fmt.Sprintf("Case %s filed with regulator (reference %s)", caseID, sarReference),
		CaseID:     &caseID,
		CustomerID: &c.CustomerID,
	})

	return c, nil
}

func (s *caseService) ListVersions(ctx context.Context, caseID string) ([]*models.NarrativeVersionEntry, error) {
	return s.caseRepo.ListVersions(ctx, s.db, caseID)
}
