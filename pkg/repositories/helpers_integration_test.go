package repositories

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/aml-forge/sar-engine/pkg/models"
	"github.com/aml-forge/sar-engine/pkg/testhelpers"
)

// uniqueID returns a short unique suffix so tests sharing the database
// container never collide on business identifiers.
func uniqueID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(uuid.New().String()[:8]))
}

func seedCustomer(t *testing.T, db *testhelpers.EngineDB) *models.CustomerProfile {
	t.Helper()
	profile := &models.CustomerProfile{
		CustomerID:   uniqueID("CUST"),
		FullName:     "Test Subject",
		AnnualIncome: decimal.NewFromInt(85000),
		RiskRating:   models.RiskRatingMedium,
		KYCStatus:    models.KYCStatusVerified,
	}
	require.NoError(t, NewCustomerRepository().Create(context.Background(), db.DB, profile))
	return profile
}

func seedTransactionAlert(t *testing.T, db *testhelpers.EngineDB, customerID string) *models.TransactionAlert {
	t.Helper()
	alert := &models.TransactionAlert{
		AlertID:          uniqueID("ALT"),
		CustomerID:       customerID,
		AlertType:        models.AlertTypeStructuring,
		Severity:         models.SeverityHigh,
		TotalAmount:      decimal.NewFromInt(487500),
		TransactionCount: 47,
		Jurisdictions:    []string{"Iran"},
	}
	require.NoError(t, NewTransactionAlertRepository().Create(context.Background(), db.DB, alert))
	return alert
}

func seedCase(t *testing.T, db *testhelpers.EngineDB) *models.Case {
	t.Helper()
	customer := seedCustomer(t, db)
	alert := seedTransactionAlert(t, db, customer.CustomerID)

	c := &models.Case{
		CaseID:             uniqueID("SAR-202608"),
		AlertID:            &alert.AlertID,
		CustomerID:         customer.CustomerID,
		Status:             models.CaseStatusInReview,
		Priority:           models.SeverityHigh,
		GeneratedNarrative: "Generated narrative text",
		NarrativeVersion:   1,
		GenerationMetadata: map[string]any{"prompt_hash": "abc123def4567890"},
		RAGSourcesUsed:     []string{"tmpl-structuring", "reg-poca"},
	}
	require.NoError(t, NewCaseRepository().Create(context.Background(), db.DB, c))
	return c
}
