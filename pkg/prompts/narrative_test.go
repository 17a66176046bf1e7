package prompts

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aml-forge/sar-engine/pkg/models"
	"github.com/aml-forge/sar-engine/pkg/reasoning"
	"github.com/aml-forge/sar-engine/pkg/retrieval"
)

func testInput() PromptInput {
	return PromptInput{
		Customer: &models.CustomerProfile{
			CustomerID:   "CUST-100",
			FullName:     "Alex Sample",
			AnnualIncome: decimal.NewFromInt(60000),
			RiskRating:   models.RiskRatingHigh,
		},
		Alert: &models.TransactionAlert{
			AlertID:          "ALT-100",
			CustomerID:       "CUST-100",
			AlertType:        models.AlertTypeStructuring,
			TotalAmount:      decimal.NewFromInt(95000),
			TransactionCount: 12,
		},
		Transactions: []models.Transaction{
			{Reference: "T1", Amount: decimal.NewFromInt(9500)},
		},
		RiskIndicators: []string{"HIGH FREQUENCY: 12 transactions detected in monitoring window"},
		References: retrieval.Context{
			Templates:   []retrieval.Result{{ID: "tmpl-1", Title: "Structuring Template", Content: "Template body"}},
			Regulations: []retrieval.Result{{ID: "reg-1", Title: "Reporting Guideline", Content: "Guideline body"}},
		},
		HostingEnvironment: "UK sovereign environment",
	}
}

func TestBuildNarrativePrompt_Sections(t *testing.T) {
	prompt := BuildNarrativePrompt(testInput())

	for _, section := range []string{
		"## CASE CONTEXT",
		"### Customer KYC Profile:",
		"### Transaction Alert Details:",
		"### Transaction Data:",
		"### Risk Indicators Identified:",
		"### Hosting Environment:",
		"## RETRIEVED REGULATORY CONTEXT",
		"### Relevant SAR Templates:",
		"### Applicable Regulatory Guidelines:",
		"## TASK",
	} {
		assert.Contains(t, prompt, section)
	}
	assert.Contains(t, prompt, "CUST-100")
	assert.Contains(t, prompt, "Template: Structuring Template")
	assert.Contains(t, prompt, "Regulation: Reporting Guideline")
	assert.Contains(t, prompt, "UK sovereign environment")
	assert.Contains(t, prompt, "AUDIT TRAIL - REASONING LOG")
}

func TestBuildNarrativePrompt_Pure(t *testing.T) {
	first := BuildNarrativePrompt(testInput())
	second := BuildNarrativePrompt(testInput())

	assert.Equal(t, first, second)
	assert.Equal(t, Fingerprint(first), Fingerprint(second))
}

func TestBuildNarrativePrompt_FingerprintSensitivity(t *testing.T) {
	base := Fingerprint(BuildNarrativePrompt(testInput()))

	changed := testInput()
	changed.Alert.TotalAmount = decimal.NewFromInt(95001)
	assert.NotEqual(t, base, Fingerprint(BuildNarrativePrompt(changed)))

	changed = testInput()
	changed.RiskIndicators = append(changed.RiskIndicators, "PEP CUSTOMER: Subject is a Politically Exposed Person")
	assert.NotEqual(t, base, Fingerprint(BuildNarrativePrompt(changed)))

	changed = testInput()
	changed.HostingEnvironment = "EU environment"
	assert.NotEqual(t, base, Fingerprint(BuildNarrativePrompt(changed)))
}

func TestBuildNarrativePrompt_TruncatesTransactions(t *testing.T) {
	in := testInput()
	in.Transactions = nil
	for i := 0; i < 30; i++ {
		in.Transactions = append(in.Transactions, models.Transaction{
			Reference: fmt.Sprintf("TXN-%02d", i),
			Amount:    decimal.NewFromInt(int64(100 + i)),
		})
	}

	prompt := BuildNarrativePrompt(in)

	assert.Contains(t, prompt, "TXN-19")
	assert.NotContains(t, prompt, "TXN-20")
	assert.NotContains(t, prompt, "TXN-29")
}

func TestBuildNarrativePrompt_TruncatesReferences(t *testing.T) {
	in := testInput()
	long := strings.Repeat("x", 2000)
	in.References.Templates = []retrieval.Result{{ID: "tmpl-long", Title: "Long", Content: long}}

	prompt := BuildNarrativePrompt(in)

	assert.Contains(t, prompt, strings.Repeat("x", 1500))
	assert.NotContains(t, prompt, strings.Repeat("x", 1501))
}

func TestBuildNarrativePrompt_EmptyReferences(t *testing.T) {
	in := testInput()
	in.References = retrieval.Context{}

	prompt := BuildNarrativePrompt(in)

	assert.Contains(t, prompt, "No specific templates retrieved.")
	assert.Contains(t, prompt, "No specific regulations retrieved.")
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("some prompt")

	require.Len(t, fp, 16)
	for _, r := range fp {
		assert.Contains(t, "0123456789abcdef", string(r))
	}
	assert.NotEqual(t, fp, Fingerprint("some other prompt"))
}

func TestFallbackNarrative(t *testing.T) {
	customer := &models.CustomerProfile{
		CustomerID: "CUST-200",
		FullName:   "Sam Fallback",
		PEPStatus:  true,
	}
	alert := &models.TransactionAlert{
		AlertID:          "ALT-200",
		AlertType:        models.AlertTypeRapidMovement,
		TotalAmount:      decimal.NewFromInt(42000),
		TransactionCount: 8,
	}

	narrative := FallbackNarrative(customer, alert)

	assert.Contains(t, narrative, FallbackMarker)
	assert.Contains(t, narrative, "HUMAN REVIEW REQUIRED")
	assert.Contains(t, narrative, "Sam Fallback")
	assert.Contains(t, narrative, "RAPID MOVEMENT")
	assert.Contains(t, narrative, "42000.00")
	assert.Contains(t, narrative, "N/A") // no date range supplied

	extraction := reasoning.Extract(narrative)
	assert.Equal(t, models.ConfidenceLow, extraction.Confidence)
	assert.NotEmpty(t, extraction.DataSources)
	assert.NotEmpty(t, extraction.Limitations)
}
