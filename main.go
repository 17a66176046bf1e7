package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/aml-forge/sar-engine/pkg/config"
	"github.com/aml-forge/sar-engine/pkg/database"
	"github.com/aml-forge/sar-engine/pkg/handlers"
	"github.com/aml-forge/sar-engine/pkg/llm"
	"github.com/aml-forge/sar-engine/pkg/middleware"
	"github.com/aml-forge/sar-engine/pkg/repositories"
	"github.com/aml-forge/sar-engine/pkg/retrieval"
	"github.com/aml-forge/sar-engine/pkg/retry"
	"github.com/aml-forge/sar-engine/pkg/risk"
	"github.com/aml-forge/sar-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("hosting", cfg.HostingEnvironment),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("database", cfg.Database.Database))

	ctx := context.Background()

	// Run migrations over database/sql, then open the pgx pool
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open database for migrations", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, "migrations", logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Generation backend
	client, err := llm.NewClientFromConfig(&cfg.LLM, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	// Reference corpus indexes
	retriever, err := retrieval.NewRetriever(cfg.Retrieval.TemplateResults, cfg.Retrieval.RegulationResults, logger)
	if err != nil {
		logger.Fatal("Failed to build retrieval indexes", zap.Error(err))
	}

	// Repositories
	caseRepo := repositories.NewCaseRepository()
	customerRepo := repositories.NewCustomerRepository()
	txAlertRepo := repositories.NewTransactionAlertRepository()
	auditRepo := repositories.NewAuditRepository()
	alertRepo := repositories.NewSystemAlertRepository()

	// Services
	var email services.EmailSender = services.NoopSender{}
	if cfg.SMTP.Username != "" {
		email = services.NewSMTPSender(cfg.SMTP, logger)
	}

	auditService := services.NewAuditService(auditRepo, logger)
	alertService := services.NewAlertService(db, alertRepo, email, logger)
	generator := services.NewGeneratorService(client, retriever, riskThresholds(cfg), services.GeneratorOptions{
		HostingEnvironment: cfg.HostingEnvironment,
		Timeout:            time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		RetryConfig: &retry.Config{
			MaxRetries:   cfg.LLM.MaxRetries,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
	}, logger)
	caseService := services.NewCaseService(db, caseRepo, customerRepo, txAlertRepo, generator, auditService, alertService, cfg.HostingEnvironment, logger)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, db, logger)
	healthHandler.RegisterRoutes(mux)

	engineHandler := handlers.NewEngineHandler(db, caseService, auditService, alertService, logger)
	engineHandler.RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting sar-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func riskThresholds(cfg *config.Config) risk.Thresholds {
	low, high := cfg.Risk.StructuringBand()
	return risk.Thresholds{
		CurrencySymbol:        cfg.Risk.CurrencySymbol,
		HighValue:             cfg.Risk.HighValue(),
		HighFrequencyCount:    cfg.Risk.HighFrequencyCount,
		StructuringBandLow:    low,
		StructuringBandHigh:   high,
		IncomeMultiple:        cfg.Risk.IncomeMultiple,
		CounterpartyCount:     cfg.Risk.CounterpartyCount,
		HighRiskJurisdictions: cfg.Risk.HighRiskJurisdictions,
		PassThroughAlertTypes: cfg.Risk.PassThroughAlertTypes,
	}
}
