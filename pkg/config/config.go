package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the SAR engine. Values come from
// config.yaml with environment variable overrides; secrets (passwords, API
// keys) must only come from environment variables.
type Config struct {
	AppName  string `yaml:"app_name" env:"APP_NAME" env-default:"sar-engine"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8443"`
	Version  string `yaml:"-"`

	// HostingEnvironment is surfaced to the prompt so the narrative carries
	// the correct data-residency framing (on-premises, cloud, multi-cloud).
	HostingEnvironment string `yaml:"hosting_environment" env:"HOSTING_ENVIRONMENT" env-default:"on-premises"`

	Database  DatabaseConfig  `yaml:"database"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Risk      RiskConfig      `yaml:"risk"`
	SMTP      SMTPConfig      `yaml:"smtp"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"sar"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"sar_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LLMConfig selects and configures the narrative generation backend.
// Provider is one of: openai, azure, ollama, groq, anthropic.
type LLMConfig struct {
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Model    string `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o"`
	Endpoint string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:""`
	APIKey   string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML

	// AzureDeployment is required when Provider is "azure".
	AzureDeployment string `yaml:"azure_deployment" env:"AZURE_OPENAI_DEPLOYMENT" env-default:""`

	MaxTokens      int     `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"4096"`
	Temperature    float64 `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0.1"`
	TimeoutSeconds int     `yaml:"timeout_seconds" env:"LLM_TIMEOUT_SECONDS" env-default:"90"`
	MaxRetries     int     `yaml:"max_retries" env:"LLM_MAX_RETRIES" env-default:"2"`
}

// RetrievalConfig controls reference document retrieval counts.
type RetrievalConfig struct {
	TemplateResults   int `yaml:"template_results" env:"RETRIEVAL_TEMPLATE_RESULTS" env-default:"2"`
	RegulationResults int `yaml:"regulation_results" env:"RETRIEVAL_REGULATION_RESULTS" env-default:"3"`
}

// RiskConfig externalises the risk rule thresholds. The rule shapes are fixed
// in pkg/risk; only the cutoffs vary by deployment region.
type RiskConfig struct {
	CurrencySymbol        string   `yaml:"currency_symbol" env:"RISK_CURRENCY_SYMBOL" env-default:"£"`
	HighValueThreshold    string   `yaml:"high_value_threshold" env:"RISK_HIGH_VALUE_THRESHOLD" env-default:"10000"`
	HighFrequencyCount    int      `yaml:"high_frequency_count" env:"RISK_HIGH_FREQUENCY_COUNT" env-default:"10"`
	StructuringBandLow    string   `yaml:"structuring_band_low" env:"RISK_STRUCTURING_BAND_LOW" env-default:"8000"`
	StructuringBandHigh   string   `yaml:"structuring_band_high" env:"RISK_STRUCTURING_BAND_HIGH" env-default:"9999.99"`
	IncomeMultiple        int64    `yaml:"income_multiple" env:"RISK_INCOME_MULTIPLE" env-default:"2"`
	CounterpartyCount     int      `yaml:"counterparty_count" env:"RISK_COUNTERPARTY_COUNT" env-default:"10"`
	HighRiskJurisdictions []string `yaml:"high_risk_jurisdictions" env:"RISK_HIGH_RISK_JURISDICTIONS" env-separator:","`
	PassThroughAlertTypes []string `yaml:"pass_through_alert_types" env:"RISK_PASS_THROUGH_ALERT_TYPES" env-separator:","`
}

// SMTPConfig holds email notification settings. Dispatch is best-effort and
// disabled entirely when Username is empty.
type SMTPConfig struct {
	Server    string `yaml:"server" env:"SMTP_SERVER" env-default:"smtp.gmail.com"`
	Port      int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username  string `yaml:"-" env:"SMTP_USERNAME"` // Secret - not in YAML
	Password  string `yaml:"-" env:"SMTP_PASSWORD"` // Secret - not in YAML
	FromEmail string `yaml:"from_email" env:"ALERT_FROM_EMAIL" env-default:"sar-engine@bank.example"`
	ToEmail   string `yaml:"to_email" env:"ALERT_TO_EMAIL" env-default:"compliance@bank.example"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	cfg.applyRiskDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyRiskDefaults() {
	if len(c.Risk.HighRiskJurisdictions) == 0 {
		c.Risk.HighRiskJurisdictions = []string{
			"Iran", "North Korea", "Syria", "Russia", "Afghanistan", "Myanmar",
		}
	}
	if len(c.Risk.PassThroughAlertTypes) == 0 {
		c.Risk.PassThroughAlertTypes = []string{
			"RAPID_MOVEMENT", "ROUND_TRIP", "PASS_THROUGH",
		}
	}
}

func (c *Config) validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "openai", "azure", "ollama", "groq", "anthropic":
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
	if strings.ToLower(c.LLM.Provider) == "azure" && c.LLM.AzureDeployment == "" {
		return fmt.Errorf("azure provider requires azure_deployment")
	}
	for _, v := range []string{
		c.Risk.HighValueThreshold,
		c.Risk.StructuringBandLow,
		c.Risk.StructuringBandHigh,
	} {
		if _, err := decimal.NewFromString(v); err != nil {
			return fmt.Errorf("risk threshold %q is not a valid amount: %w", v, err)
		}
	}
	return nil
}

// HighValue returns the monetary high-value threshold as a decimal.
func (c *RiskConfig) HighValue() decimal.Decimal {
	return mustDecimal(c.HighValueThreshold)
}

// StructuringBand returns the inclusive [low, high] band just under the
// regulatory cash-reporting threshold.
func (c *RiskConfig) StructuringBand() (decimal.Decimal, decimal.Decimal) {
	return mustDecimal(c.StructuringBandLow), mustDecimal(c.StructuringBandHigh)
}

// mustDecimal assumes validate() already checked the string.
func mustDecimal(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}
