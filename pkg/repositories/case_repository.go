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

// CaseRepository provides data access for SAR cases and their narrative
// version history. Version rows are append-only; the case row carries the
// mutable pointers (working text, status, version counter).
type CaseRepository interface {
	// Create inserts a new case row.
	Create(ctx context.Context, db database.Executor, c *models.Case) error

	// GetByCaseID returns a case by its business identifier.
	GetByCaseID(ctx context.Context, db database.Executor, caseID string) (*models.Case, error)

	// Update rewrites the mutable case fields (status, narratives, version
	// counter, approval metadata).
	Update(ctx context.Context, db database.Executor, c *models.Case) error

	// AppendVersion inserts an immutable narrative version snapshot.
	AppendVersion(ctx context.Context, db database.Executor, v *models.NarrativeVersionEntry) error

	// ListVersions returns all version snapshots for a case ordered by
	// version number ascending.
	ListVersions(ctx context.Context, db database.Executor, caseID string) ([]*models.NarrativeVersionEntry, error)

	// CountVersions returns the number of version snapshots for a case.
	CountVersions(ctx context.Context, db database.Executor, caseID string) (int, error)

	// ListByStatus returns cases in a given status, newest first.
	ListByStatus(ctx context.Context, db database.Executor, status models.CaseStatus, limit int) ([]*models.Case, error)
}

type caseRepository struct{}

// NewCaseRepository creates a new CaseRepository.
func NewCaseRepository() CaseRepository {
	return &caseRepository{}
}

var _ CaseRepository = (*caseRepository)(nil)

const caseColumns = `id, case_id, alert_id, customer_id, analyst_id, status, priority,
		generated_narrative, edited_narrative, final_narrative, narrative_version,
		suspicion_typology, reporting_entity, filing_jurisdiction, sar_reference,
		generation_metadata, rag_sources_used, analyst_notes, rejection_reason,
		approved_by, filed_at, created_at, updated_at`

func (r *caseRepository) Create(ctx context.Context, db database.Executor, c *models.Case) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	metadataJSON, err := marshalOrNil(c.GenerationMetadata)
	if err != nil {
		return fmt.Errorf("failed to marshal generation_metadata: %w", err)
	}
	sourcesJSON, err := marshalOrNil(c.RAGSourcesUsed)
	if err != nil {
		return fmt.Errorf("failed to marshal rag_sources_used: %w", err)
	}

	query := `
		INSERT INTO sar_cases (` + caseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`

	_, err = db.Exec(ctx, query,
		c.ID, c.CaseID, c.AlertID, c.CustomerID, c.AnalystID, c.Status, c.Priority,
		c.GeneratedNarrative, c.EditedNarrative, c.FinalNarrative, c.NarrativeVersion,
		c.SuspicionTypology, c.ReportingEntity, c.FilingJurisdiction, c.SARReference,
		metadataJSON, sourcesJSON, c.AnalystNotes, c.RejectionReason,
		c.ApprovedBy, c.FiledAt, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: create case: %v", apperrors.ErrStorage, err)
	}

	return nil
}

func (r *caseRepository) GetByCaseID(ctx context.Context, db database.Executor, caseID string) (*models.Case, error) {
	query := `
		SELECT ` + caseColumns + `
		FROM sar_cases
		WHERE case_id = $1`

	return scanCase(db.QueryRow(ctx, query, caseID))
}

func (r *caseRepository) Update(ctx context.Context, db database.Executor, c *models.Case) error {
	c.UpdatedAt = time.Now()

	metadataJSON, err := marshalOrNil(c.GenerationMetadata)
	if err != nil {
		return fmt.Errorf("failed to marshal generation_metadata: %w", err)
	}
	sourcesJSON, err := marshalOrNil(c.RAGSourcesUsed)
	if err != nil {
		return fmt.Errorf("failed to marshal rag_sources_used: %w", err)
	}

	query := `
		UPDATE sar_cases SET
			status = $2,
			generated_narrative = $3,
			edited_narrative = $4,
			final_narrative = $5,
			narrative_version = $6,
			generation_metadata = $7,
			rag_sources_used = $8,
			analyst_notes = $9,
			rejection_reason = $10,
			approved_by = $11,
			sar_reference = $12,
			filed_at = $13,
			updated_at = $14
		WHERE case_id = $1`

	tag, err := db.Exec(ctx, query,
		c.CaseID, c.Status,
		c.GeneratedNarrative, c.EditedNarrative, c.FinalNarrative, c.NarrativeVersion,
		metadataJSON, sourcesJSON, c.AnalystNotes, c.RejectionReason,
		c.ApprovedBy, c.SARReference, c.FiledAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: update case: %v", apperrors.ErrStorage, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *caseRepository) AppendVersion(ctx context.Context, db database.Executor, v *models.NarrativeVersionEntry) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.CreatedAt = time.Now()

	query := `
		INSERT INTO narrative_versions (id, case_id, version_number, narrative_text, change_kind, change_summary, changed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := db.Exec(ctx, query,
		v.ID, v.CaseID, v.VersionNumber, v.NarrativeText, v.ChangeKind, v.ChangeSummary, v.ChangedBy, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: append narrative version: %v", apperrors.ErrStorage, err)
	}

	return nil
}

func (r *caseRepository) ListVersions(ctx context.Context, db database.Executor, caseID string) ([]*models.NarrativeVersionEntry, error) {
	query := `
		SELECT id, case_id, version_number, narrative_text, change_kind, change_summary, changed_by, created_at
		FROM narrative_versions
		WHERE case_id = $1
		ORDER BY version_number ASC`

	rows, err := db.Query(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query narrative versions: %w", err)
	}
	defer rows.Close()

	var versions []*models.NarrativeVersionEntry
	for rows.Next() {
		var v models.NarrativeVersionEntry
		err := rows.Scan(&v.ID, &v.CaseID, &v.VersionNumber, &v.NarrativeText, &v.ChangeKind, &v.ChangeSummary, &v.ChangedBy, &v.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan narrative version: %w", err)
		}
		versions = append(versions, &v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating narrative versions: %w", err)
	}

	return versions, nil
}

func (r *caseRepository) CountVersions(ctx context.Context, db database.Executor, caseID string) (int, error) {
	var count int
	err := db.QueryRow(ctx, `SELECT COUNT(*) FROM narrative_versions WHERE case_id = $1`, caseID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count narrative versions: %w", err)
	}
	return count, nil
}

func (r *caseRepository) ListByStatus(ctx context.Context, db database.Executor, status models.CaseStatus, limit int) ([]*models.Case, error) {
	query := `
		SELECT ` + caseColumns + `
		FROM sar_cases
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := db.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases by status: %w", err)
	}
	defer rows.Close()

	var cases []*models.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cases: %w", err)
	}

	return cases, nil
}

func scanCase(row pgx.Row) (*models.Case, error) {
	var c models.Case
	var metadataJSON, sourcesJSON []byte

	err := row.Scan(
		&c.ID, &c.CaseID, &c.AlertID, &c.CustomerID, &c.AnalystID, &c.Status, &c.Priority,
		&c.GeneratedNarrative, &c.EditedNarrative, &c.FinalNarrative, &c.NarrativeVersion,
		&c.SuspicionTypology, &c.ReportingEntity, &c.FilingJurisdiction, &c.SARReference,
		&metadataJSON, &sourcesJSON, &c.AnalystNotes, &c.RejectionReason,
		&c.ApprovedBy, &c.FiledAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan case: %w", err)
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &c.GenerationMetadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal generation_metadata: %w", err)
		}
	}
	if len(sourcesJSON) > 0 {
		if err := json.Unmarshal(sourcesJSON, &c.RAGSourcesUsed); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rag_sources_used: %w", err)
		}
	}

	return &c, nil
}
