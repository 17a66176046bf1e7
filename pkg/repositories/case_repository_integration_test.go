package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aml-forge/sar-engine/pkg/apperrors"
	"github.com/aml-forge/sar-engine/pkg/models"
	"github.com/aml-forge/sar-engine/pkg/testhelpers"
)

func TestCaseRepository_CreateAndGet(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	ctx := context.Background()
	repo := NewCaseRepository()

	created := seedCase(t, db)

	got, err := repo.GetByCaseID(ctx, db.DB, created.CaseID)
	require.NoError(t, err)
	assert.Equal(t, created.CaseID, got.CaseID)
	assert.Equal(t, created.CustomerID, got.CustomerID)
	assert.Equal(t, models.CaseStatusInReview, got.Status)
	assert.Equal(t, "Generated narrative text", got.GeneratedNarrative)
	assert.Equal(t, 1, got.NarrativeVersion)
	assert.Equal(t, "abc123def4567890", got.GenerationMetadata["prompt_hash"])
	assert.Equal(t, []string{"tmpl-structuring", "reg-poca"}, got.RAGSourcesUsed)
	require.NotNil(t, got.AlertID)
	assert.Equal(t, *created.AlertID, *got.AlertID)
}

func TestCaseRepository_GetNotFound(t *testing.T) {
	db := testhelpers.GetEngineDB(t)

	_, err := NewCaseRepository().GetByCaseID(context.Background(), db.DB, "SAR-000000-NOPE")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCaseRepository_Update(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	ctx := context.Background()
	repo := NewCaseRepository()

	c := seedCase(t, db)
	c.Status = models.CaseStatusApproved
	c.EditedNarrative = "Edited narrative text"
	c.FinalNarrative = "Edited narrative text"
	c.ApprovedBy = "analyst.jones"
	c.NarrativeVersion = 3

	require.NoError(t, repo.Update(ctx, db.DB, c))

	got, err := repo.GetByCaseID(ctx, db.DB, c.CaseID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusApproved, got.Status)
	assert.Equal(t, "Edited narrative text", got.EditedNarrative)
	assert.Equal(t, "Edited narrative text", got.FinalNarrative)
	assert.Equal(t, "analyst.jones", got.ApprovedBy)
	assert.Equal(t, 3, got.NarrativeVersion)
}

func TestCaseRepository_UpdateNotFound(t *testing.T) {
	db := testhelpers.GetEngineDB(t)

	err := NewCaseRepository().Update(context.Background(), db.DB, &models.Case{
		CaseID: "SAR-000000-GONE",
		Status: models.CaseStatusClosed,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCaseRepository_VersionHistory(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	ctx := context.Background()
	repo := NewCaseRepository()

	c := seedCase(t, db)

	for i, kind := range []string{models.ChangeKindGenerated, models.ChangeKindEdit, models.ChangeKindApproved} {
		require.NoError(t, repo.AppendVersion(ctx, db.DB, &models.NarrativeVersionEntry{
			CaseID:        c.CaseID,
			VersionNumber: i + 1,
			NarrativeText: "Narrative revision",
			ChangeKind:    kind,
			ChangedBy:     "analyst.smith",
		}))
	}

	versions, err := repo.ListVersions(ctx, db.DB, c.CaseID)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, models.ChangeKindGenerated, versions[0].ChangeKind)
	assert.Equal(t, models.ChangeKindEdit, versions[1].ChangeKind)
	assert.Equal(t, models.ChangeKindApproved, versions[2].ChangeKind)
	for i, v := range versions {
		assert.Equal(t, i+1, v.VersionNumber)
	}

	count, err := repo.CountVersions(ctx, db.DB, c.CaseID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCaseRepository_AppendVersionDuplicateNumber(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	ctx := context.Background()
	repo := NewCaseRepository()

	c := seedCase(t, db)
	entry := &models.NarrativeVersionEntry{
		CaseID:        c.CaseID,
		VersionNumber: 1,
		NarrativeText: "First",
		ChangeKind:    models.ChangeKindGenerated,
	}
	require.NoError(t, repo.AppendVersion(ctx, db.DB, entry))

	dup := &models.NarrativeVersionEntry{
		CaseID:        c.CaseID,
		VersionNumber: 1,
		NarrativeText: "Conflicting",
		ChangeKind:    models.ChangeKindEdit,
	}
	err := repo.AppendVersion(ctx, db.DB, dup)
	assert.ErrorIs(t, err, apperrors.ErrStorage)
}

func TestCaseRepository_ListByStatus(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	ctx := context.Background()
	repo := NewCaseRepository()

	c := seedCase(t, db)
	c.Status = models.CaseStatusFiled
	require.NoError(t, repo.Update(ctx, db.DB, c))

	filed, err := repo.ListByStatus(ctx, db.DB, models.CaseStatusFiled, 100)
	require.NoError(t, err)

	found := false
	for _, fc := range filed {
		assert.Equal(t, models.CaseStatusFiled, fc.Status)
		if fc.CaseID == c.CaseID {
			found = true
		}
	}
	assert.True(t, found, "expected case %s in FILED listing", c.CaseID)
}
