package risk

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aml-forge/sar-engine/pkg/models"
)

func baseCustomer() *models.CustomerProfile {
	return &models.CustomerProfile{
		CustomerID:   "CUST-001",
		FullName:     "Jordan Example",
		AnnualIncome: decimal.NewFromInt(85000),
		RiskRating:   models.RiskRatingMedium,
		KYCStatus:    models.KYCStatusVerified,
	}
}

func baseAlert() *models.TransactionAlert {
	return &models.TransactionAlert{
		AlertID:          "ALT-001",
		CustomerID:       "CUST-001",
		AlertType:        models.AlertTypeStructuring,
		Severity:         models.SeverityHigh,
		TotalAmount:      decimal.NewFromInt(5000),
		TransactionCount: 3,
	}
}

func TestExtract_Deterministic(t *testing.T) {
	customer := baseCustomer()
	customer.PEPStatus = true
	alert := baseAlert()
	alert.TotalAmount = decimal.NewFromInt(50000)
	alert.TransactionCount = 25
	alert.Jurisdictions = []string{"Iran", "France"}
	alert.TriggeringFactors = []string{"Round amounts", "New counterparties"}
	txns := []models.Transaction{
		{Reference: "T1", Amount: decimal.NewFromInt(9500)},
	}

	first := Extract(customer, alert, txns, DefaultThresholds())
	second := Extract(customer, alert, txns, DefaultThresholds())

	assert.Equal(t, first, second)
}

func TestExtract_StructuringScenario(t *testing.T) {
	customer := baseCustomer() // annual income 85000
	alert := baseAlert()
	alert.TotalAmount = decimal.NewFromInt(487500)
	alert.TransactionCount = 47
	txns := []models.Transaction{
		{Reference: "T1", Amount: decimal.NewFromInt(9200)},
		{Reference: "T2", Amount: decimal.NewFromInt(9600)},
		{Reference: "T3", Amount: decimal.NewFromInt(9950)},
	}

	indicators := Extract(customer, alert, txns, DefaultThresholds())

	require.NotEmpty(t, indicators)
	assert.Contains(t, indicators, "HIGH VALUE: Total transactions of £487,500.00 exceed £10,000 threshold")
	assert.Contains(t, indicators, "HIGH FREQUENCY: 47 transactions detected in monitoring window")
	assert.Contains(t, indicators, "STRUCTURING SUSPECTED: 3 transactions near but below £10,000 reporting threshold")
	// 487500 > 2 * 85000
	assert.Contains(t, indicators, "INCOME DISPARITY: Transaction volume (£487,500) exceeds 2x stated annual income (£85,000)")
}

func TestExtract_RuleOrderPreserved(t *testing.T) {
	customer := baseCustomer()
	customer.PEPStatus = true
	customer.RiskRating = models.RiskRatingHigh
	alert := baseAlert()
	alert.AlertType = models.AlertTypeRapidMovement
	alert.TotalAmount = decimal.NewFromInt(250000)
	alert.TransactionCount = 30
	alert.Jurisdictions = []string{"Syria"}
	alert.Counterparties = make([]string, 12)
	for i := range alert.Counterparties {
		alert.Counterparties[i] = "CP"
	}
	alert.TriggeringFactors = []string{"Verbatim factor"}
	txns := []models.Transaction{{Reference: "T1", Amount: decimal.NewFromInt(9000)}}

	indicators := Extract(customer, alert, txns, DefaultThresholds())

	require.Len(t, indicators, 10)
	prefixes := []string{
		"HIGH VALUE:",
		"HIGH FREQUENCY:",
		"PEP CUSTOMER:",
		"HIGH RISK CUSTOMER:",
		"HIGH RISK JURISDICTION:",
		"STRUCTURING SUSPECTED:",
		"PASS-THROUGH PATTERN:",
		"INCOME DISPARITY:",
		"MULTIPLE COUNTERPARTIES:",
		"Verbatim factor",
	}
	for i, prefix := range prefixes {
		assert.True(t, strings.HasPrefix(indicators[i], prefix),
			"indicator %d = %q, want prefix %q", i, indicators[i], prefix)
	}
}

func TestExtract_NoIndicators(t *testing.T) {
	indicators := Extract(baseCustomer(), baseAlert(), nil, DefaultThresholds())
	assert.Empty(t, indicators)
}

func TestExtract_VeryHighRating(t *testing.T) {
	customer := baseCustomer()
	customer.RiskRating = models.RiskRatingVeryHigh

	indicators := Extract(customer, baseAlert(), nil, DefaultThresholds())
	assert.Contains(t, indicators, "HIGH RISK CUSTOMER: Customer holds VERY HIGH risk rating")
}

func TestExtract_JurisdictionMatchesListed(t *testing.T) {
	alert := baseAlert()
	alert.Jurisdictions = []string{"France", "Iran", "North Korea"}

	indicators := Extract(baseCustomer(), alert, nil, DefaultThresholds())
	assert.Contains(t, indicators, "HIGH RISK JURISDICTION: Transactions linked to Iran, North Korea")
}

func TestExtract_StructuringBandEdges(t *testing.T) {
	txns := []models.Transaction{
		{Amount: decimal.NewFromInt(7999)},                  // below band
		{Amount: decimal.NewFromInt(8000)},                  // band low edge
		{Amount: decimal.RequireFromString("9999.99")},      // band high edge
		{Amount: decimal.NewFromInt(10000)},                 // above band
	}

	indicators := Extract(baseCustomer(), baseAlert(), txns, DefaultThresholds())
	assert.Contains(t, indicators, "STRUCTURING SUSPECTED: 2 transactions near but below £10,000 reporting threshold")
}

func TestExtract_ZeroIncomeSkipsDisparity(t *testing.T) {
	customer := baseCustomer()
	customer.AnnualIncome = decimal.Zero
	alert := baseAlert()
	alert.TotalAmount = decimal.NewFromInt(500000)

	for _, indicator := range Extract(customer, alert, nil, DefaultThresholds()) {
		assert.NotContains(t, indicator, "INCOME DISPARITY")
	}
}
