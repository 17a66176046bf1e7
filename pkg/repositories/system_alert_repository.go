package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aml-forge/sar-engine/pkg/apperrors"
	"github.com/aml-forge/sar-engine/pkg/database"
	"github.com/aml-forge/sar-engine/pkg/models"
)

// SystemAlertRepository provides data access for system alerts. Alert content
// is immutable; only the read and resolved flags move.
type SystemAlertRepository interface {
	// Create inserts a new alert.
	Create(ctx context.Context, db database.Executor, alert *models.SystemAlert) error

	// GetByID returns one alert.
	GetByID(ctx context.Context, db database.Executor, id uuid.UUID) (*models.SystemAlert, error)

	// ListUnread returns unread alerts, most urgent first then newest first.
	ListUnread(ctx context.Context, db database.Executor, limit int) ([]*models.SystemAlert, error)

	// Summary returns unread counts per severity.
	Summary(ctx context.Context, db database.Executor) (*models.AlertSummary, error)

	// Resolve marks an alert read and resolved.
	Resolve(ctx context.Context, db database.Executor, id uuid.UUID, resolvedBy string) error

	// MarkAllRead marks every unread alert as read and returns how many
	// rows were affected.
	MarkAllRead(ctx context.Context, db database.Executor) (int, error)

	// MarkEmailSent records that an email notification went out.
	MarkEmailSent(ctx context.Context, db database.Executor, id uuid.UUID) error
}

type systemAlertRepository struct{}

// NewSystemAlertRepository creates a new SystemAlertRepository.
func NewSystemAlertRepository() SystemAlertRepository {
	return &systemAlertRepository{}
}

var _ SystemAlertRepository = (*systemAlertRepository)(nil)

const systemAlertColumns = `id, alert_type, severity, title, message, case_id, customer_id,
		is_read, sent_via_email, resolved_at, resolved_by, created_at`

func (r *systemAlertRepository) Create(ctx context.Context, db database.Executor, alert *models.SystemAlert) error {
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	alert.CreatedAt = time.Now()

	query := `
		INSERT INTO system_alerts (` + systemAlertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := db.Exec(ctx, query,
		alert.ID, alert.AlertType, alert.Severity, alert.Title, alert.Message,
		alert.CaseID, alert.CustomerID, alert.IsRead, alert.SentViaEmail,
		alert.ResolvedAt, alert.ResolvedBy, alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: create system alert: %v", apperrors.ErrStorage, err)
	}

	return nil
}

func (r *systemAlertRepository) GetByID(ctx context.Context, db database.Executor, id uuid.UUID) (*models.SystemAlert, error) {
	query := `
		SELECT ` + systemAlertColumns + `
		FROM system_alerts
		WHERE id = $1`

	return scanSystemAlert(db.QueryRow(ctx, query, id))
}

func (r *systemAlertRepository) ListUnread(ctx context.Context, db database.Executor, limit int) ([]*models.SystemAlert, error) {
	query := `
		SELECT ` + systemAlertColumns + `
		FROM system_alerts
		WHERE is_read = FALSE
		ORDER BY
			CASE severity
				WHEN 'CRITICAL' THEN 0
				WHEN 'HIGH' THEN 1
				WHEN 'MEDIUM' THEN 2
				ELSE 3
			END,
			created_at DESC
		LIMIT $1`

	rows, err := db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unread alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.SystemAlert
	for rows.Next() {
		alert, err := scanSystemAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}

	return alerts, nil
}

func (r *systemAlertRepository) Summary(ctx context.Context, db database.Executor) (*models.AlertSummary, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE severity = 'CRITICAL'),
			COUNT(*) FILTER (WHERE severity = 'HIGH'),
			COUNT(*) FILTER (WHERE severity = 'MEDIUM'),
			COUNT(*) FILTER (WHERE severity = 'LOW')
		FROM system_alerts
		WHERE is_read = FALSE`

	var summary models.AlertSummary
	err := db.QueryRow(ctx, query).Scan(
		&summary.Total, &summary.Critical, &summary.High, &summary.Medium, &summary.Low,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute alert summary: %w", err)
	}

	return &summary, nil
}

func (r *systemAlertRepository) Resolve(ctx context.Context, db database.Executor, id uuid.UUID, resolvedBy string) error {
	query := `
		UPDATE system_alerts
		SET is_read = TRUE, resolved_at = $2, resolved_by = $3
		WHERE id = $1`

	tag, err := db.Exec(ctx, query, id, time.Now(), resolvedBy)
	if err != nil {
		return fmt.Errorf("%w: resolve alert: %v", apperrors.ErrStorage, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *systemAlertRepository) MarkAllRead(ctx context.Context, db database.Executor) (int, error) {
	tag, err := db.Exec(ctx, `UPDATE system_alerts SET is_read = TRUE WHERE is_read = FALSE`)
	if err != nil {
		return 0, fmt.Errorf("%w: mark alerts read: %v", apperrors.ErrStorage, err)
	}

	return int(tag.RowsAffected()), nil
}

func (r *systemAlertRepository) MarkEmailSent(ctx context.Context, db database.Executor, id uuid.UUID) error {
	_, err := db.Exec(ctx, `UPDATE system_alerts SET sent_via_email = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: mark email sent: %v", apperrors.ErrStorage, err)
	}

	return nil
}

func scanSystemAlert(row pgx.Row) (*models.SystemAlert, error) {
	var alert models.SystemAlert

	err := row.Scan(
		&alert.ID, &alert.AlertType, &alert.Severity, &alert.Title, &alert.Message,
		&alert.CaseID, &alert.CustomerID, &alert.IsRead, &alert.SentViaEmail,
		&alert.ResolvedAt, &alert.ResolvedBy, &alert.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan system alert: %w", err)
	}

	return &alert, nil
}
