package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aml-forge/sar-engine/pkg/database"
	"github.com/aml-forge/sar-engine/pkg/models"
	"github.com/aml-forge/sar-engine/pkg/repositories"
)

// LogParams carries the optional fields of an audit entry.
type LogParams struct {
	CaseID          *string
	UserID          *uuid.UUID
	Details         map[string]any
	ReasoningTrace  string
	DataSourcesUsed []string
	RulesMatched    []string
	PromptHash      string
	ModelUsed       string
	Success         bool
	ErrorMessage    string
}

// AuditService writes and queries the immutable audit trail. Every action,
// decision, and data access is logged with full context.
type AuditService interface {
	// Log appends one audit entry. The category is derived from the action.
	Log(ctx context.Context, db database.Executor, action string, params LogParams) error

	// LogGeneration appends the generation event with a formatted reasoning
	// trace alongside the structured fields. The trace is stored verbatim;
	// it is not reconstructable from the structured fields alone.
	LogGeneration(ctx context.Context, db database.Executor, caseID string, userID *uuid.UUID, result *models.GenerationResult, hostingEnv string) error

	// LogEdit appends a narrative edit event with a size-delta summary.
	LogEdit(ctx context.Context, db database.Executor, caseID string, userID *uuid.UUID, editor, originalText, editedText, changeSummary string) error

	// LogApproval appends an approval or rejection decision.
	LogApproval(ctx context.Context, db database.Executor, caseID string, userID *uuid.UUID, decidedBy string, approved bool, reason string) error

	// CaseTrail returns the full audit trail for a case, oldest first.
	CaseTrail(ctx context.Context, db database.Executor, caseID string) ([]*models.AuditLogEntry, error)

	// Recent returns recent entries, newest first, optionally filtered by
	// category.
	Recent(ctx context.Context, db database.Executor, limit int, category models.AuditCategory) ([]*models.AuditLogEntry, error)

	// Stats returns aggregate event counts.
	Stats(ctx context.Context, db database.Executor) (*models.AuditStats, error)
}

type auditService struct {
	repo   repositories.AuditRepository
	logger *zap.Logger
}

// NewAuditService creates a new AuditService.
func NewAuditService(repo repositories.AuditRepository, logger *zap.Logger) AuditService {
	return &auditService{
		repo:   repo,
		logger: logger.Named("audit-service"),
	}
}

var _ AuditService = (*auditService)(nil)

func (s *auditService) Log(ctx context.Context, db database.Executor, action string, params LogParams) error {
	entry := &models.AuditLogEntry{
		CaseID:          params.CaseID,
		UserID:          params.UserID,
		Action:          action,
		Category:        models.CategoryForAction(action),
		Details:         params.Details,
		ReasoningTrace:  params.ReasoningTrace,
		DataSourcesUsed: params.DataSourcesUsed,
		RulesMatched:    params.RulesMatched,
		PromptHash:      params.PromptHash,
		ModelUsed:       params.ModelUsed,
		Success:         params.Success,
		ErrorMessage:    params.ErrorMessage,
	}

	if err := s.repo.Create(ctx, db, entry); err != nil {
		s.logger.Error("Failed to write audit log",
			zap.String("action", action),
			zap.Error(err))
		return fmt.Errorf("write audit log: %w", err)
	}

	caseID := ""
	if params.CaseID != nil {
		caseID = *params.CaseID
	}
	s.logger.Info("AUDIT",
		zap.String("category", string(entry.Category)),
		zap.String("action", action),
		zap.String("case_id", caseID))

	return nil
}

func (s *auditService) LogGeneration(ctx context.Context, db database.Executor, caseID string, userID *uuid.UUID, result *models.GenerationResult, hostingEnv string) error {
	trace := formatReasoningTrace(result, hostingEnv)

	return s.Log(ctx, db, models.ActionGenerationCompleted, LogParams{
		CaseID: &caseID,
		UserID: userID,
		Details: map[string]any{
			"model_used":              result.ModelUsed,
			"generation_time_seconds": result.GenerationTime.Seconds(),
			"tokens_used":             result.TokensUsed,
			"confidence_level":        string(result.Confidence),
			"typologies_matched":      result.Typologies,
			"rag_templates_used":      result.RAGSources.TemplateIDs,
			"rag_regulations_used":    result.RAGSources.RegulationIDs,
			"risk_indicators_count":   len(result.RiskIndicators),
			"hosting_environment":     hostingEnv,
			"used_fallback":           result.UsedFallback,
		},
		ReasoningTrace:  trace,
		DataSourcesUsed: result.DataSources,
		RulesMatched:    result.RulesMatched,
		PromptHash:      result.PromptHash,
		ModelUsed:       result.ModelUsed,
		Success:         true,
	})
}

func (s *auditService) LogEdit(ctx context.Context, db database.Executor, caseID string, userID *uuid.UUID, editor, originalText, editedText, changeSummary string) error {
	origLen := len(originalText)
	editLen := len(editedText)
	changePct := math.Abs(float64(editLen-origLen)) / math.Max(float64(origLen), 1) * 100

	if changeSummary == "" {
		changeSummary = fmt.Sprintf("Manual edit: %.1f%% content changed", changePct)
	}

	return s.Log(ctx, db, models.ActionNarrativeEdited, LogParams{
		CaseID: &caseID,
		UserID: userID,
		Details: map[string]any{
			"editor":                editor,
			"original_length_chars": origLen,
			"edited_length_chars":   editLen,
			"change_percentage":     math.Round(changePct*100) / 100,
			"change_summary":        changeSummary,
		},
		ReasoningTrace: fmt.Sprintf(
			"Human analyst %q edited the SAR narrative. Original: %d chars. Edited: %d chars. Change magnitude: %.1f%%",
			editor, origLen, editLen, changePct),
		Success: true,
	})
}

func (s *auditService) LogApproval(ctx context.Context, db database.Executor, caseID string, userID *uuid.UUID, decidedBy string, approved bool, reason string) error {
	action := models.ActionSARApproved
	decision := "APPROVED"
	verb := "approved"
	if !approved {
		action = models.ActionSARRejected
		decision = "REJECTED"
		verb = "rejected"
	}
	if reason == "" {
		reason = "Not provided"
	}

	return s.Log(ctx, db, action, LogParams{
		CaseID: &caseID,
		UserID: userID,
		Details: map[string]any{
			"decision_by": decidedBy,
			"decision":    decision,
			"reason":      reason,
		},
		ReasoningTrace: fmt.Sprintf("SAR %s by %s. Reason: %s", verb, decidedBy, reason),
		Success:        true,
	})
}

func (s *auditService) CaseTrail(ctx context.Context, db database.Executor, caseID string) ([]*models.AuditLogEntry, error) {
	return s.repo.GetByCase(ctx, db, caseID)
}

func (s *auditService) Recent(ctx context.Context, db database.Executor, limit int, category models.AuditCategory) ([]*models.AuditLogEntry, error) {
	return s.repo.GetRecent(ctx, db, limit, category)
}

func (s *auditService) Stats(ctx context.Context, db database.Executor) (*models.AuditStats, error) {
	return s.repo.Stats(ctx, db)
}

// formatReasoningTrace renders the human-readable multi-line trace stored
// verbatim with a generation event.
func formatReasoningTrace(result *models.GenerationResult, hostingEnv string) string {
	lines := []string{
		"=== AI REASONING TRACE ===",
		fmt.Sprintf("Timestamp: %s", time.Now().UTC().Format(time.RFC3339)),
		fmt.Sprintf("Model: %s", result.ModelUsed),
		fmt.Sprintf("Generation time: %.2fs", result.GenerationTime.Seconds()),
		fmt.Sprintf("Tokens used: %s", tokensOrNA(result.TokensUsed)),
		fmt.Sprintf("Hosting environment: %s", hostingEnv),
		"",
		"--- RISK INDICATORS EXTRACTED ---",
	}
	for _, indicator := range result.RiskIndicators {
		lines = append(lines, "  [!] "+indicator)
	}

	lines = append(lines, "", "--- TYPOLOGIES MATCHED ---")
	typologies := result.Typologies
	if len(typologies) == 0 {
		typologies = []string{"Not yet extracted"}
	}
	for _, typology := range typologies {
		lines = append(lines, "  [*] "+typology)
	}

	lines = append(lines, "", fmt.Sprintf("--- CONFIDENCE LEVEL: %s ---", result.Confidence), "")
	lines = append(lines, "--- RAG CONTEXT USED ---")
	lines = append(lines, "  Templates: "+joinOrNone(result.RAGSources.TemplateIDs))
	lines = append(lines, "  Regulations: "+joinOrNone(result.RAGSources.RegulationIDs))

	lines = append(lines, "", "--- DATA SOURCES ---")
	sources := result.DataSources
	if len(sources) == 0 {
		sources = []string{"Customer KYC", "Transaction Alert", "Transaction Data"}
	}
	for _, src := range sources {
		lines = append(lines, "  [>>] "+src)
	}

	return strings.Join(lines, "\n")
}

func tokensOrNA(tokens int) string {
	if tokens == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d", tokens)
}

func joinOrNone(ids []string) string {
	if len(ids) == 0 {
		return "None"
	}
	return strings.Join(ids, ", ")
}
