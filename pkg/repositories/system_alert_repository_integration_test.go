package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aml-forge/sar-engine/pkg/models"
	"github.com/aml-forge/sar-engine/pkg/testhelpers"
)

func clearSystemAlerts(t *testing.T, db *testhelpers.EngineDB) {
	t.Helper()
	_, err := db.DB.Exec(context.Background(), "TRUNCATE system_alerts")
	require.NoError(t, err)
}

func TestSystemAlertRepository_SummaryAndMarkAllRead(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	ctx := context.Background()
	repo := NewSystemAlertRepository()
	clearSystemAlerts(t, db)

	severities := []string{models.SeverityCritical, models.SeverityHigh, models.SeverityHigh}
	for _, severity := range severities {
		require.NoError(t, repo.Create(ctx, db.DB, &models.SystemAlert{
			AlertType: models.AlertNewHighSeverityCase,
			Severity:  severity,
			Title:     "New HIGH Severity Case Requires Review",
			Message:   "integration alert",
		}))
	}

	summary, err := repo.Summary(ctx, db.DB)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Critical)
	assert.Equal(t, 2, summary.High)
	assert.Equal(t, 0, summary.Medium)
	assert.Equal(t, 0, summary.Low)

	marked, err := repo.MarkAllRead(ctx, db.DB)
	require.NoError(t, err)
	assert.Equal(t, 3, marked)

	summary, err = repo.Summary(ctx, db.DB)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, 0, summary.Critical)
	assert.Equal(t, 0, summary.High)
	assert.Equal(t, 0, summary.Medium)
	assert.Equal(t, 0, summary.Low)
}

func TestSystemAlertRepository_ListUnreadSeverityOrder(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	ctx := context.Background()
	repo := NewSystemAlertRepository()
	clearSystemAlerts(t, db)

	// Inserted in reverse urgency order; listing must reorder them.
	for _, severity := range []string{models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityCritical} {
		require.NoError(t, repo.Create(ctx, db.DB, &models.SystemAlert{
			AlertType: models.AlertSystemError,
			Severity:  severity,
			Title:     "System Error - Requires Immediate Attention",
			Message:   "ordering test",
		}))
	}

	unread, err := repo.ListUnread(ctx, db.DB, 10)
	require.NoError(t, err)
	require.Len(t, unread, 4)
	assert.Equal(t, models.SeverityCritical, unread[0].Severity)
	assert.Equal(t, models.SeverityHigh, unread[1].Severity)
	assert.Equal(t, models.SeverityMedium, unread[2].Severity)
	assert.Equal(t, models.SeverityLow, unread[3].Severity)
}

func TestSystemAlertRepository_Resolve(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	ctx := context.Background()
	repo := NewSystemAlertRepository()
	clearSystemAlerts(t, db)

	alert := &models.SystemAlert{
		AlertType: models.AlertSARApproved,
		Severity:  models.SeverityMedium,
		Title:     "SAR Narrative Approved - Ready for Filing",
		Message:   "resolve test",
	}
	require.NoError(t, repo.Create(ctx, db.DB, alert))

	require.NoError(t, repo.Resolve(ctx, db.DB, alert.ID, "analyst.smith"))

	got, err := repo.GetByID(ctx, db.DB, alert.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)
	assert.Equal(t, "analyst.smith", got.ResolvedBy)
	require.NotNil(t, got.ResolvedAt)

	unread, err := repo.ListUnread(ctx, db.DB, 10)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestSystemAlertRepository_MarkEmailSent(t *testing.T) {
	db := testhelpers.GetEngineDB(t)
	ctx := context.Background()
	repo := NewSystemAlertRepository()
	clearSystemAlerts(t, db)

	alert := &models.SystemAlert{
		AlertType: models.AlertNewCriticalCase,
		Severity:  models.SeverityCritical,
		Title:     "CRITICAL: Immediate SAR Action Required",
		Message:   "email test",
	}
	require.NoError(t, repo.Create(ctx, db.DB, alert))
	assert.False(t, alert.SentViaEmail)

	require.NoError(t, repo.MarkEmailSent(ctx, db.DB, alert.ID))

	got, err := repo.GetByID(ctx, db.DB, alert.ID)
	require.NoError(t, err)
	assert.True(t, got.SentViaEmail)
}
