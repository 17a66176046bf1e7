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

// AuditRepository provides data access for the append-only audit trail.
// Entries are write-once: Create is the only mutation, everything else reads.
type AuditRepository interface {
	// Create inserts a new audit log entry.
	Create(ctx context.Context, db database.Executor, entry *models.AuditLogEntry) error

	// GetByCase returns all entries for a case ordered by creation time
	// ascending, for chronological reconstruction.
	GetByCase(ctx context.Context, db database.Executor, caseID string) ([]*models.AuditLogEntry, error)

	// GetRecent returns entries ordered by creation time descending,
	// optionally filtered by category. Pass empty category for all.
	GetRecent(ctx context.Context, db database.Executor, limit int, category models.AuditCategory) ([]*models.AuditLogEntry, error)

	// Stats returns aggregate event counts.
	Stats(ctx context.Context, db database.Executor) (*models.AuditStats, error)
}

type auditRepository struct{}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository() AuditRepository {
	return &auditRepository{}
}

var _ AuditRepository = (*auditRepository)(nil)

const auditColumns = `id, case_id, user_id, action, action_category, details, reasoning_trace,
		data_sources_used, rules_matched, llm_prompt_hash, llm_model_used, success, error_message, created_at`

func (r *auditRepository) Create(ctx context.Context, db database.Executor, entry *models.AuditLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Category == "" {
		entry.Category = models.CategoryForAction(entry.Action)
	}
	entry.CreatedAt = time.Now()

	detailsJSON, err := marshalOrNil(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal details: %w", err)
	}
	sourcesJSON, err := marshalOrNil(entry.DataSourcesUsed)
	if err != nil {
		return fmt.Errorf("failed to marshal data_sources_used: %w", err)
	}
	rulesJSON, err := marshalOrNil(entry.RulesMatched)
	if err != nil {
		return fmt.Errorf("failed to marshal rules_matched: %w", err)
	}

	query := `
		INSERT INTO audit_logs (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = db.Exec(ctx, query,
		entry.ID,
		entry.CaseID,
		entry.UserID,
		entry.Action,
		entry.Category,
		detailsJSON,
		entry.ReasoningTrace,
		sourcesJSON,
		rulesJSON,
		entry.PromptHash,
		entry.ModelUsed,
		entry.Success,
		entry.ErrorMessage,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: create audit log entry: %v", apperrors.ErrStorage, err)
	}

	return nil
}

func (r *auditRepository) GetByCase(ctx context.Context, db database.Executor, caseID string) ([]*models.AuditLogEntry, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM audit_logs
		WHERE case_id = $1
		ORDER BY created_at ASC`

	rows, err := db.Query(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log by case: %w", err)
	}
	defer rows.Close()

	return collectAuditEntries(rows)
}

func (r *auditRepository) GetRecent(ctx context.Context, db database.Executor, limit int, category models.AuditCategory) ([]*models.AuditLogEntry, error) {
	var rows pgx.Rows
	var err error

	if category != "" {
		query := `
			SELECT ` + auditColumns + `
			FROM audit_logs
			WHERE action_category = $1
			ORDER BY created_at DESC
			LIMIT $2`
		rows, err = db.Query(ctx, query, category, limit)
	} else {
		query := `
			SELECT ` + auditColumns + `
			FROM audit_logs
			ORDER BY created_at DESC
			LIMIT $1`
		rows, err = db.Query(ctx, query, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query recent audit log entries: %w", err)
	}
	defer rows.Close()

	return collectAuditEntries(rows)
}

func (r *auditRepository) Stats(ctx context.Context, db database.Executor) (*models.AuditStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE action_category = 'GENERATION'),
			COUNT(*) FILTER (WHERE action = $1),
			COUNT(*) FILTER (WHERE action = $2),
			COUNT(*) FILTER (WHERE action_category = 'EDIT')
		FROM audit_logs`

	var stats models.AuditStats
	err := db.QueryRow(ctx, query, models.ActionSARApproved, models.ActionSARRejected).Scan(
		&stats.TotalEvents,
		&stats.GenerationEvents,
		&stats.ApprovalEvents,
		&stats.RejectionEvents,
		&stats.EditEvents,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute audit stats: %w", err)
	}

	return &stats, nil
}

func collectAuditEntries(rows pgx.Rows) ([]*models.AuditLogEntry, error) {
	var entries []*models.AuditLogEntry
	for rows.Next() {
		entry, err := scanAuditLogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log entries: %w", err)
	}

	return entries, nil
}

func scanAuditLogEntry(row pgx.Row) (*models.AuditLogEntry, error) {
	var entry models.AuditLogEntry
	var detailsJSON, sourcesJSON, rulesJSON []byte

	err := row.Scan(
		&entry.ID,
		&entry.CaseID,
		&entry.UserID,
		&entry.Action,
		&entry.Category,
		&detailsJSON,
		&entry.ReasoningTrace,
		&sourcesJSON,
		&rulesJSON,
		&entry.PromptHash,
		&entry.ModelUsed,
		&entry.Success,
		&entry.ErrorMessage,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan audit log entry: %w", err)
	}

	if len(detailsJSON) > 0 {
		if err := json.Unmarshal(detailsJSON, &entry.Details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal details: %w", err)
		}
	}
	if len(sourcesJSON) > 0 {
		if err := json.Unmarshal(sourcesJSON, &entry.DataSourcesUsed); err != nil {
			return nil, fmt.Errorf("failed to unmarshal data_sources_used: %w", err)
		}
	}
	if len(rulesJSON) > 0 {
		if err := json.Unmarshal(rulesJSON, &entry.RulesMatched); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rules_matched: %w", err)
		}
	}

	return &entry, nil
}

// marshalOrNil renders v as JSONB, or SQL NULL when empty.
func marshalOrNil(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		if len(val) == 0 {
			return nil, nil
		}
	case []string:
		if len(val) == 0 {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
