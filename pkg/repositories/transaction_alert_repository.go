package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aml-forge/sar-engine/pkg/apperrors"
	"github.com/aml-forge/sar-engine/pkg/database"
	"github.com/aml-forge/sar-engine/pkg/models"
)

// TransactionAlertRepository provides access to monitoring alerts. Alerts are
// created once by upstream monitoring (or seeding) and read-only afterwards.
type TransactionAlertRepository interface {
	Create(ctx context.Context, db database.Executor, alert *models.TransactionAlert) error

	// Upsert inserts the alert if its alert_id is new and leaves an existing
	// row untouched. Alert facts are immutable once recorded.
	Upsert(ctx context.Context, db database.Executor, alert *models.TransactionAlert) error

	GetByAlertID(ctx context.Context, db database.Executor, alertID string) (*models.TransactionAlert, error)
}

type transactionAlertRepository struct{}

// NewTransactionAlertRepository creates a new TransactionAlertRepository.
func NewTransactionAlertRepository() TransactionAlertRepository {
	return &transactionAlertRepository{}
}

var _ TransactionAlertRepository = (*transactionAlertRepository)(nil)

const transactionAlertColumns = `id, alert_id, customer_id, alert_type, alert_rule, severity,
		total_amount, transaction_count, date_range_start, date_range_end,
		counterparties, jurisdictions_involved, alert_score, triggering_factors, created_at`

func (r *transactionAlertRepository) Create(ctx context.Context, db database.Executor, alert *models.TransactionAlert) error {
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	alert.CreatedAt = time.Now()

	counterpartiesJSON, err := marshalOrNil(alert.Counterparties)
	if err != nil {
		return fmt.Errorf("failed to marshal counterparties: %w", err)
	}
	jurisdictionsJSON, err := marshalOrNil(alert.Jurisdictions)
	if err != nil {
		return fmt.Errorf("failed to marshal jurisdictions: %w", err)
	}
	factorsJSON, err := marshalOrNil(alert.TriggeringFactors)
	if err != nil {
		return fmt.Errorf("failed to marshal triggering_factors: %w", err)
	}

	query := `
		INSERT INTO transaction_alerts (` + transactionAlertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err = db.Exec(ctx, query,
		alert.ID, alert.AlertID, alert.CustomerID, alert.AlertType, alert.AlertRule, alert.Severity,
		alert.TotalAmount, alert.TransactionCount, alert.DateRangeStart, alert.DateRangeEnd,
		counterpartiesJSON, jurisdictionsJSON, alert.AlertScore, factorsJSON, alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: create transaction alert: %v", apperrors.ErrStorage, err)
	}

	return nil
}

func (r *transactionAlertRepository) Upsert(ctx context.Context, db database.Executor, alert *models.TransactionAlert) error {
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}

	counterpartiesJSON, err := marshalOrNil(alert.Counterparties)
	if err != nil {
		return fmt.Errorf("failed to marshal counterparties: %w", err)
	}
	jurisdictionsJSON, err := marshalOrNil(alert.Jurisdictions)
	if err != nil {
		return fmt.Errorf("failed to marshal jurisdictions: %w", err)
	}
	factorsJSON, err := marshalOrNil(alert.TriggeringFactors)
	if err != nil {
		return fmt.Errorf("failed to marshal triggering_factors: %w", err)
	}

	query := `
		INSERT INTO transaction_alerts (` + transactionAlertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (alert_id) DO NOTHING`

	_, err = db.Exec(ctx, query,
		alert.ID, alert.AlertID, alert.CustomerID, alert.AlertType, alert.AlertRule, alert.Severity,
		alert.TotalAmount, alert.TransactionCount, alert.DateRangeStart, alert.DateRangeEnd,
		counterpartiesJSON, jurisdictionsJSON, alert.AlertScore, factorsJSON, alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: upsert transaction alert: %v", apperrors.ErrStorage, err)
	}

	return nil
}

func (r *transactionAlertRepository) GetByAlertID(ctx context.Context, db database.Executor, alertID string) (*models.TransactionAlert, error) {
	query := `
		SELECT ` + transactionAlertColumns + `
		FROM transaction_alerts
		WHERE alert_id = $1`

	var alert models.TransactionAlert
	var counterpartiesJSON, jurisdictionsJSON, factorsJSON []byte

	err := db.QueryRow(ctx, query, alertID).Scan(
		&alert.ID, &alert.AlertID, &alert.CustomerID, &alert.AlertType, &alert.AlertRule, &alert.Severity,
		&alert.TotalAmount, &alert.TransactionCount, &alert.DateRangeStart, &alert.DateRangeEnd,
		&counterpartiesJSON, &jurisdictionsJSON, &alert.AlertScore, &factorsJSON, &alert.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction alert: %w", err)
	}

	if len(counterpartiesJSON) > 0 {
		if err := json.Unmarshal(counterpartiesJSON, &alert.Counterparties); err != nil {
			return nil, fmt.Errorf("failed to unmarshal counterparties: %w", err)
		}
	}
	if len(jurisdictionsJSON) > 0 {
		if err := json.Unmarshal(jurisdictionsJSON, &alert.Jurisdictions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal jurisdictions: %w", err)
		}
	}
	if len(factorsJSON) > 0 {
		if err := json.Unmarshal(factorsJSON, &alert.TriggeringFactors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal triggering_factors: %w", err)
		}
	}

	return &alert, nil
}
