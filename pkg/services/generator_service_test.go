package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aml-forge/sar-engine/pkg/llm"
	"github.com/aml-forge/sar-engine/pkg/logging"
	"github.com/aml-forge/sar-engine/pkg/models"
	"github.com/aml-forge/sar-engine/pkg/prompts"
	"github.com/aml-forge/sar-engine/pkg/retrieval"
	"github.com/aml-forge/sar-engine/pkg/retry"
	"github.com/aml-forge/sar-engine/pkg/risk"
)

const testNarrative = `## SUSPICIOUS ACTIVITY REPORT

### 1. EXECUTIVE SUMMARY
Structured cash deposits inconsistent with stated income.

### AUDIT TRAIL - REASONING LOG
DATA SOURCES USED:
- Customer KYC profile
- Transaction alert data

RULES/TYPOLOGIES MATCHED:
- Structuring

CONFIDENCE ASSESSMENT:
- Overall suspicion confidence: HIGH

LIMITATIONS:
- Counterparty identities unverified
`

func newTestGenerator(t *testing.T, client llm.Client, retryCfg *retry.Config) GeneratorService {
	t.Helper()
	retriever, err := retrieval.NewRetriever(2, 3, zap.NewNop())
	require.NoError(t, err)
	return NewGeneratorService(client, retriever, risk.DefaultThresholds(), GeneratorOptions{
		HostingEnvironment: "UK sovereign environment",
		Timeout:            5 * time.Second,
		RetryConfig:        retryCfg,
	}, zap.NewNop())
}

func generationInputs() (*models.CustomerProfile, *models.TransactionAlert, []models.Transaction) {
	customer := &models.CustomerProfile{
		CustomerID:   "CUST-300",
		FullName:     "Casey Subject",
		AnnualIncome: decimal.NewFromInt(85000),
		RiskRating:   models.RiskRatingMedium,
	}
	alert := &models.TransactionAlert{
		AlertID:          "ALT-300",
		CustomerID:       "CUST-300",
		AlertType:        models.AlertTypeStructuring,
		TotalAmount:      decimal.NewFromInt(487500),
		TransactionCount: 47,
	}
	txns := []models.Transaction{
		{Reference: "T1", Amount: decimal.NewFromInt(9200)},
		{Reference: "T2", Amount: decimal.NewFromInt(9600)},
		{Reference: "T3", Amount: decimal.NewFromInt(9950)},
	}
	return customer, alert, txns
}

func TestGenerate_Success(t *testing.T) {
	mock := llm.NewMockClient()
	mock.GenerateFunc = func(ctx context.Context, systemPrompt, userPrompt string) (*llm.GenerateResult, error) {
		return &llm.GenerateResult{Content: testNarrative, TotalTokens: 1234}, nil
	}
	svc := newTestGenerator(t, mock, nil)

	customer, alert, txns := generationInputs()
	result := svc.Generate(context.Background(), customer, alert, txns)

	require.NotNil(t, result)
	assert.False(t, result.UsedFallback)
	assert.Empty(t, result.BackendError)
	assert.Equal(t, testNarrative, result.Narrative)
	assert.Equal(t, "mock:model", result.ModelUsed)
	assert.Equal(t, 1234, result.TokensUsed)
	assert.Len(t, result.PromptHash, 16)
	assert.Equal(t, models.ConfidenceHigh, result.Confidence)
	assert.Equal(t, []string{"Structuring"}, result.Typologies)
	assert.Contains(t, result.DataSources, "Customer KYC profile")
	assert.Equal(t, 1, mock.GenerateCalls)

	assert.Contains(t, result.RiskIndicators, "HIGH FREQUENCY: 47 transactions detected in monitoring window")
	assert.Equal(t, result.PromptHash, result.AuditTrail["prompt_hash"])
	assert.Equal(t, "UK sovereign environment", result.AuditTrail["hosting_environment"])
}

func TestGenerate_FallbackOnPermanentError(t *testing.T) {
	mock := llm.NewMockClient()
	mock.GenerateFunc = func(ctx context.Context, systemPrompt, userPrompt string) (*llm.GenerateResult, error) {
		return nil, llm.NewError(llm.ErrorTypeAuth, "invalid api key", false, nil)
	}
	svc := newTestGenerator(t, mock, nil)

	customer, alert, txns := generationInputs()
	result := svc.Generate(context.Background(), customer, alert, txns)

	require.NotNil(t, result)
	assert.True(t, result.UsedFallback)
	assert.Contains(t, result.Narrative, prompts.FallbackMarker)
	assert.Equal(t, models.ConfidenceLow, result.Confidence)
	assert.NotEmpty(t, result.BackendError)
	assert.NotEmpty(t, result.PromptHash)
	// Permanent errors are not retried.
	assert.Equal(t, 1, mock.GenerateCalls)
}

func TestGenerate_BackendErrorIsSanitized(t *testing.T) {
	mock := llm.NewMockClient()
	mock.GenerateFunc = func(ctx context.Context, systemPrompt, userPrompt string) (*llm.GenerateResult, error) {
		return nil, llm.NewError(llm.ErrorTypeAuth,
			"Incorrect API key provided: sk-proj-abcdefghij1234567890", false, nil)
	}
	svc := newTestGenerator(t, mock, nil)

	customer, alert, txns := generationInputs()
	result := svc.Generate(context.Background(), customer, alert, txns)

	require.NotNil(t, result)
	assert.True(t, result.UsedFallback)
	assert.NotContains(t, result.BackendError, "sk-proj")
	assert.Contains(t, result.BackendError, logging.Redacted)
}

func TestGenerate_RetriesTransientError(t *testing.T) {
	mock := llm.NewMockClient()
	mock.GenerateFunc = func(ctx context.Context, systemPrompt, userPrompt string) (*llm.GenerateResult, error) {
		if mock.GenerateCalls < 3 {
			return nil, llm.NewError(llm.ErrorTypeEndpoint, "connection refused", true, nil)
		}
		return &llm.GenerateResult{Content: testNarrative, TotalTokens: 100}, nil
	}
	svc := newTestGenerator(t, mock, &retry.Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	})

	customer, alert, txns := generationInputs()
	result := svc.Generate(context.Background(), customer, alert, txns)

	require.NotNil(t, result)
	assert.False(t, result.UsedFallback)
	assert.Equal(t, 3, mock.GenerateCalls)
}

func TestFormatReasoningTrace(t *testing.T) {
	result := &models.GenerationResult{
		ModelUsed:      "mock:model",
		GenerationTime: 2500 * time.Millisecond,
		TokensUsed:     987,
		Confidence:     models.ConfidenceHigh,
		Typologies:     []string{"Structuring"},
		DataSources:    []string{"Customer KYC profile"},
		RiskIndicators: []string{"HIGH FREQUENCY: 47 transactions detected in monitoring window"},
		RAGSources: models.RAGSources{
			TemplateIDs:   []string{"tmpl-structuring"},
			RegulationIDs: []string{"reg-poca"},
		},
	}

	trace := formatReasoningTrace(result, "UK sovereign environment")

	assert.Contains(t, trace, "=== AI REASONING TRACE ===")
	assert.Contains(t, trace, "Model: mock:model")
	assert.Contains(t, trace, "Generation time: 2.50s")
	assert.Contains(t, trace, "Tokens used: 987")
	assert.Contains(t, trace, "Hosting environment: UK sovereign environment")
	assert.Contains(t, trace, "  [!] HIGH FREQUENCY: 47 transactions detected in monitoring window")
	assert.Contains(t, trace, "  [*] Structuring")
	assert.Contains(t, trace, "--- CONFIDENCE LEVEL: HIGH ---")
	assert.Contains(t, trace, "  Templates: tmpl-structuring")
	assert.Contains(t, trace, "  Regulations: reg-poca")
	assert.Contains(t, trace, "  [>>] Customer KYC profile")
}

func TestFormatReasoningTrace_Defaults(t *testing.T) {
	trace := formatReasoningTrace(&models.GenerationResult{
		ModelUsed:  "mock:model",
		Confidence: models.ConfidenceMedium,
	}, "local")

	assert.Contains(t, trace, "Tokens used: N/A")
	assert.Contains(t, trace, "  [*] Not yet extracted")
	assert.Contains(t, trace, "  Templates: None")
	assert.Contains(t, trace, "  Regulations: None")
	for _, src := range []string{"Customer KYC", "Transaction Alert", "Transaction Data"} {
		assert.True(t, strings.Contains(trace, "  [>>] "+src))
	}
}
