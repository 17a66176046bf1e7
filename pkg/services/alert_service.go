package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aml-forge/sar-engine/pkg/database"
	"github.com/aml-forge/sar-engine/pkg/models"
	"github.com/aml-forge/sar-engine/pkg/repositories"
)

// RaiseInput describes an alert to raise. Severity defaults from the alert
// type when empty.
type RaiseInput struct {
	AlertType  string
	Message    string
	CaseID     *string
	CustomerID *string
	Severity   string
}

// AlertService raises and manages system alerts. Raising never fails the
// calling operation: persistence errors are logged and swallowed, and email
// dispatch for urgent alerts is best-effort.
type AlertService interface {
	// Raise persists a new alert, emailing for HIGH and CRITICAL severities.
	// It returns the created alert, or nil if persistence failed.
	Raise(ctx context.Context, input RaiseInput) *models.SystemAlert

	// ListUnread returns unread alerts, most urgent first.
	ListUnread(ctx context.Context, limit int) ([]*models.SystemAlert, error)

	// Summary returns unread counts per severity.
	Summary(ctx context.Context) (*models.AlertSummary, error)

	// Resolve marks one alert read and resolved.
	Resolve(ctx context.Context, id uuid.UUID, resolvedBy string) error

	// MarkAllRead marks all unread alerts read, returning the count.
	MarkAllRead(ctx context.Context) (int, error)
}

type alertService struct {
	db     *database.DB
	repo   repositories.SystemAlertRepository
	email  EmailSender
	logger *zap.Logger
}

// NewAlertService creates a new AlertService.
func NewAlertService(db *database.DB, repo repositories.SystemAlertRepository, email EmailSender, logger *zap.Logger) AlertService {
	return &alertService{
		db:     db,
		repo:   repo,
		email:  email,
		logger: logger.Named("alert-service"),
	}
}

var _ AlertService = (*alertService)(nil)

func (s *alertService) Raise(ctx context.Context, input RaiseInput) *models.SystemAlert {
	defaults := models.AlertTypeDefaults(input.AlertType)
	severity := input.Severity
	if severity == "" {
		severity = defaults.Severity
	}

	alert := &models.SystemAlert{
		AlertType:  input.AlertType,
		Severity:   severity,
		Title:      defaults.Title,
		Message:    input.Message,
		CaseID:     input.CaseID,
		CustomerID: input.CustomerID,
	}

	if err := s.repo.Create(ctx, s.db, alert); err != nil {
		s.logger.Error("Failed to persist system alert",
			zap.String("alert_type", input.AlertType),
			zap.Error(err))
		return nil
	}

	s.logger.Info("Alert raised",
		zap.String("alert_type", alert.AlertType),
		zap.String("severity", alert.Severity))

	if severity == models.SeverityHigh || severity == models.SeverityCritical {
		s.dispatchEmail(ctx, alert)
	}

	return alert
}

// dispatchEmail sends a notification for an urgent alert. Failure is logged
// and never fails the alert creation.
func (s *alertService) dispatchEmail(ctx context.Context, alert *models.SystemAlert) {
	body := fmt.Sprintf("Severity: %s\nType: %s\n\n%s", alert.Severity, alert.AlertType, alert.Message)
	if alert.CaseID != nil {
		body += fmt.Sprintf("\n\nCase: %s", *alert.CaseID)
	}

	if err := s.email.Send(fmt.Sprintf("[%s] %s", alert.Severity, alert.Title), body); err != nil {
		s.logger.Warn("Alert email dispatch failed",
			zap.String("alert_type", alert.AlertType),
			zap.Error(err))
		return
	}

	if err := s.repo.MarkEmailSent(ctx, s.db, alert.ID); err != nil {
		s.logger.Warn("Failed to record email dispatch", zap.Error(err))
		return
	}
	alert.SentViaEmail = true
}

func (s *alertService) ListUnread(ctx context.Context, limit int) ([]*models.SystemAlert, error) {
	return s.repo.ListUnread(ctx, s.db, limit)
}

func (s *alertService) Summary(ctx context.Context) (*models.AlertSummary, error) {
	return s.repo.Summary(ctx, s.db)
}

func (s *alertService) Resolve(ctx context.Context, id uuid.UUID, resolvedBy string) error {
	return s.repo.Resolve(ctx, s.db, id, resolvedBy)
}

func (s *alertService) MarkAllRead(ctx context.Context) (int, error) {
	return s.repo.MarkAllRead(ctx, s.db)
}
