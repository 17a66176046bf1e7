package models

import "time"

// Confidence is the coarse suspicion strength reported by the generator.
type Confidence string

const (
	ConfidenceLow      Confidence = "LOW"
	ConfidenceMedium   Confidence = "MEDIUM"
	ConfidenceHigh     Confidence = "HIGH"
	ConfidenceCritical Confidence = "CRITICAL"
)

// RAGSources records which reference documents grounded a generation.
type RAGSources struct {
	TemplateIDs   []string `json:"template_ids"`
	RegulationIDs []string `json:"regulation_ids"`
}

// GenerationResult is the outcome of one narrative generation. Generation
// never hard-fails: a backend error produces a result with UsedFallback set
// rather than an error, so the fallback path is visible in the type.
type GenerationResult struct {
	Narrative      string         `json:"narrative"`
	AuditTrail     map[string]any `json:"audit_trail"`
	RAGSources     RAGSources     `json:"rag_sources"`
	ModelUsed      string         `json:"model_used"`
	PromptHash     string         `json:"prompt_hash"`
	GenerationTime time.Duration  `json:"generation_time"`
	TokensUsed     int            `json:"tokens_used,omitempty"`
	Confidence     Confidence     `json:"confidence_level"`
	Typologies     []string       `json:"typologies_matched"`
	DataSources    []string       `json:"data_sources_used"`
	RulesMatched   []string       `json:"rules_matched"`
	RiskIndicators []string       `json:"risk_indicators"`
	UsedFallback   bool           `json:"used_fallback"`
	BackendError   string         `json:"backend_error,omitempty"`
}
