package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		LLM: LLMConfig{Provider: "openai", Model: "gpt-4o"},
		Risk: RiskConfig{
			HighValueThreshold:  "10000",
			StructuringBandLow:  "8000",
			StructuringBandHigh: "9999.99",
		},
	}
}

func TestValidate_AcceptsKnownProviders(t *testing.T) {
	for _, provider := range []string{"openai", "azure", "ollama", "groq", "anthropic", "OpenAI"} {
		cfg := validConfig()
		cfg.LLM.Provider = provider
		if provider == "azure" || provider == "Azure" {
			cfg.LLM.AzureDeployment = "gpt-4o-deploy"
		}
		if err := cfg.validate(); err != nil {
			t.Errorf("provider %q rejected: %v", provider, err)
		}
	}
}

func TestValidate_RejectsUnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Provider = "bedrock"
	err := cfg.validate()
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "bedrock") {
		t.Errorf("error should name the provider, got %v", err)
	}
}

func TestValidate_AzureRequiresDeployment(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Provider = "azure"
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for azure without deployment")
	}

	cfg.LLM.AzureDeployment = "gpt-4o-deploy"
	if err := cfg.validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestValidate_RejectsBadThreshold(t *testing.T) {
	cfg := validConfig()
	cfg.Risk.StructuringBandHigh = "almost ten grand"
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error for non-numeric threshold")
	}
}

func TestApplyRiskDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.applyRiskDefaults()

	if len(cfg.Risk.HighRiskJurisdictions) == 0 {
		t.Error("expected default jurisdiction list")
	}
	if len(cfg.Risk.PassThroughAlertTypes) == 0 {
		t.Error("expected default pass-through alert types")
	}

	// Explicit values are never overwritten.
	cfg.Risk.HighRiskJurisdictions = []string{"Atlantis"}
	cfg.applyRiskDefaults()
	if len(cfg.Risk.HighRiskJurisdictions) != 1 || cfg.Risk.HighRiskJurisdictions[0] != "Atlantis" {
		t.Errorf("defaults overwrote explicit jurisdictions: %v", cfg.Risk.HighRiskJurisdictions)
	}
}

func TestRiskConfig_DecimalAccessors(t *testing.T) {
	cfg := validConfig()
	if got := cfg.Risk.HighValue().String(); got != "10000" {
		t.Errorf("HighValue = %s, want 10000", got)
	}
	low, high := cfg.Risk.StructuringBand()
	if low.String() != "8000" || high.String() != "9999.99" {
		t.Errorf("StructuringBand = [%s, %s], want [8000, 9999.99]", low, high)
	}
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	dc := DatabaseConfig{
		Host: "db.internal", Port: 5433, User: "sar", Password: "secret",
		Database: "sar_engine", SSLMode: "require",
	}
	got := dc.ConnectionString()
	want := "host=db.internal port=5433 user=sar password=secret dbname=sar_engine sslmode=require"
	if got != want {
		t.Errorf("ConnectionString = %q, want %q", got, want)
	}
}
