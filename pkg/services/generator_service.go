package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aml-forge/sar-engine/pkg/llm"
	"github.com/aml-forge/sar-engine/pkg/logging"
	"github.com/aml-forge/sar-engine/pkg/models"
	"github.com/aml-forge/sar-engine/pkg/prompts"
	"github.com/aml-forge/sar-engine/pkg/reasoning"
	"github.com/aml-forge/sar-engine/pkg/retrieval"
	"github.com/aml-forge/sar-engine/pkg/retry"
	"github.com/aml-forge/sar-engine/pkg/risk"
)

// GeneratorService orchestrates narrative generation: retrieval and risk
// extraction, prompt assembly, the backend call, and reasoning extraction.
// Generate never fails for backend reasons; a backend error produces a
// deterministic fallback narrative instead.
type GeneratorService interface {
	Generate(ctx context.Context, customer *models.CustomerProfile, alert *models.TransactionAlert, txns []models.Transaction) *models.GenerationResult
}

// GeneratorOptions configures the orchestration layer.
type GeneratorOptions struct {
	HostingEnvironment string
	Timeout            time.Duration
	RetryConfig        *retry.Config
}

type generatorService struct {
	client     llm.Client
	retriever  *retrieval.Retriever
	thresholds risk.Thresholds
	opts       GeneratorOptions
	logger     *zap.Logger
}

// NewGeneratorService creates a new GeneratorService.
func NewGeneratorService(client llm.Client, retriever *retrieval.Retriever, thresholds risk.Thresholds, opts GeneratorOptions, logger *zap.Logger) GeneratorService {
	if opts.Timeout == 0 {
		opts.Timeout = 90 * time.Second
	}
	return &generatorService{
		client:     client,
		retriever:  retriever,
		thresholds: thresholds,
		opts:       opts,
		logger:     logger.Named("generator-service"),
	}
}

var _ GeneratorService = (*generatorService)(nil)

func (s *generatorService) Generate(ctx context.Context, customer *models.CustomerProfile, alert *models.TransactionAlert, txns []models.Transaction) *models.GenerationResult {
	start := time.Now()

	// Retrieval and risk extraction are independent and side-effect free,
	// so they run concurrently.
	type retrievalOut struct{ refs retrieval.Context }
	retrievalCh := make(chan retrievalOut, 1)
	indicatorsCh := make(chan []string, 1)

	go func() {
		txSummary := fmt.Sprintf("Total: %s, Count: %d", alert.TotalAmount.String(), alert.TransactionCount)
		retrievalCh <- retrievalOut{refs: s.retriever.Context(alert.AlertType, txSummary)}
	}()
	go func() {
		indicatorsCh <- risk.Extract(customer, alert, txns, s.thresholds)
	}()

	refs := (<-retrievalCh).refs
	indicators := <-indicatorsCh

	userPrompt := prompts.BuildNarrativePrompt(prompts.PromptInput{
		Customer:           customer,
		Alert:              alert,
		Transactions:       txns,
		RiskIndicators:     indicators,
		References:         refs,
		HostingEnvironment: s.opts.HostingEnvironment,
	})
	promptHash := prompts.Fingerprint(userPrompt)

	narrative, tokensUsed, backendErr := s.callBackend(ctx, userPrompt)
	usedFallback := backendErr != nil
	if usedFallback {
		s.logger.Error("Generation failed, using template fallback",
			zap.String("model", s.client.Model()),
			zap.String("error", logging.SanitizeError(backendErr)))
		narrative = prompts.FallbackNarrative(customer, alert)
	}

	extraction := reasoning.Extract(narrative)
	elapsed := time.Since(start)

	systemHash := sha256.Sum256([]byte(prompts.SystemPrompt))

	auditTrail := map[string]any{
		"prompt_hash":               promptHash,
		"model":                     s.client.Model(),
		"generation_time_seconds":   elapsed.Seconds(),
		"tokens_used":               tokensUsed,
		"rag_templates_used":        refs.TemplateIDs(),
		"rag_regulations_used":      refs.RegulationIDs(),
		"risk_indicators_extracted": indicators,
		"hosting_environment":       s.opts.HostingEnvironment,
		"system_prompt_hash":        hex.EncodeToString(systemHash[:])[:16],
	}
	for k, v := range extraction.AuditMap() {
		auditTrail[k] = v
	}

	result := &models.GenerationResult{
		Narrative:  narrative,
		AuditTrail: auditTrail,
		RAGSources: models.RAGSources{
			TemplateIDs:   refs.TemplateIDs(),
			RegulationIDs: refs.RegulationIDs(),
		},
		ModelUsed:      s.client.Model(),
		PromptHash:     promptHash,
		GenerationTime: elapsed,
		TokensUsed:     tokensUsed,
		Confidence:     extraction.Confidence,
		Typologies:     extraction.Typologies,
		DataSources:    extraction.DataSources,
		RulesMatched:   extraction.RulesMatched,
		RiskIndicators: indicators,
		UsedFallback:   usedFallback,
	}
	if backendErr != nil {
		result.BackendError = logging.SanitizeError(backendErr)
	}

	s.logger.Info("Narrative generated",
		zap.String("model", result.ModelUsed),
		zap.String("prompt_hash", promptHash),
		zap.Duration("elapsed", elapsed),
		zap.Bool("used_fallback", usedFallback),
		zap.String("confidence", string(result.Confidence)))

	return result
}

// callBackend invokes the generation backend under the caller-level timeout,
// retrying transient failures before giving up. Permanent failures (auth,
// unknown model) go straight to the fallback path without retrying.
func (s *generatorService) callBackend(ctx context.Context, userPrompt string) (string, int, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	var result *llm.GenerateResult
	err := retry.DoIfRetryable(callCtx, s.opts.RetryConfig, func() error {
		r, genErr := s.client.Generate(callCtx, prompts.SystemPrompt, userPrompt)
		if genErr != nil {
			return genErr
		}
		result = r
		return nil
	})
	if err != nil {
		return "", 0, err
	}

	return result.Content, result.TotalTokens, nil
}
