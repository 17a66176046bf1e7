// seed-demo-data opens a demonstration SAR case against the configured
// database: a structuring scenario with a customer profile, a transaction
// alert, and three sub-threshold deposits. The full pipeline runs, so without
// a reachable LLM backend the case carries the template fallback narrative.
//
// Usage: go run ./scripts/seed-demo-data
//
// Reads config.yaml from the working directory; secrets come from the
// environment (PGPASSWORD, LLM_API_KEY).
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/aml-forge/sar-engine/pkg/config"
	"github.com/aml-forge/sar-engine/pkg/database"
	"github.com/aml-forge/sar-engine/pkg/llm"
	"github.com/aml-forge/sar-engine/pkg/models"
	"github.com/aml-forge/sar-engine/pkg/repositories"
	"github.com/aml-forge/sar-engine/pkg/retrieval"
	"github.com/aml-forge/sar-engine/pkg/risk"
	"github.com/aml-forge/sar-engine/pkg/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed-demo-data: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("seed")
	if err != nil {
		return err
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	if err := database.RunMigrations(sqlDB, "migrations", logger); err != nil {
		return err
	}
	_ = sqlDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := llm.NewClientFromConfig(&cfg.LLM, logger)
	if err != nil {
		return err
	}
	retriever, err := retrieval.NewRetriever(cfg.Retrieval.TemplateResults, cfg.Retrieval.RegulationResults, logger)
	if err != nil {
		return err
	}

	generator := services.NewGeneratorService(client, retriever, risk.DefaultThresholds(), services.GeneratorOptions{
		HostingEnvironment: cfg.HostingEnvironment,
		Timeout:            time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	}, logger)
	auditService := services.NewAuditService(repositories.NewAuditRepository(), logger)
	alertService := services.NewAlertService(db, repositories.NewSystemAlertRepository(), services.NoopSender{}, logger)
	caseService := services.NewCaseService(db,
		repositories.NewCaseRepository(),
		repositories.NewCustomerRepository(),
		repositories.NewTransactionAlertRepository(),
		generator, auditService, alertService, cfg.HostingEnvironment, logger)

	now := time.Now()
	windowStart := now.AddDate(0, -1, 0)

	customer := &models.CustomerProfile{
		CustomerID:   "CUST-DEMO-001",
		FullName:     "Daniel Rivers",
		Occupation:   "Retail shop owner",
		AnnualIncome: decimal.NewFromInt(85000),
		RiskRating:   models.RiskRatingMedium,
		KYCStatus:    models.KYCStatusVerified,
		Country:      "United Kingdom",
	}
	alert := &models.TransactionAlert{
		AlertID:           "ALT-DEMO-001",
		CustomerID:        customer.CustomerID,
		AlertType:         models.AlertTypeStructuring,
		AlertRule:         "CASH_DEPOSITS_BELOW_REPORTING_THRESHOLD",
		Severity:          models.SeverityHigh,
		TotalAmount:       decimal.NewFromInt(487500),
		TransactionCount:  47,
		DateRangeStart:    &windowStart,
		DateRangeEnd:      &now,
		TriggeringFactors: []string{"Repeated cash deposits just under £10,000"},
	}
	txns := []models.Transaction{
		{Reference: "TXN-DEMO-001", Date: now.AddDate(0, 0, -20), Amount: decimal.NewFromInt(9200), Currency: "GBP", Channel: "BRANCH", Direction: "CREDIT"},
		{Reference: "TXN-DEMO-002", Date: now.AddDate(0, 0, -12), Amount: decimal.NewFromInt(9600), Currency: "GBP", Channel: "BRANCH", Direction: "CREDIT"},
		{Reference: "TXN-DEMO-003", Date: now.AddDate(0, 0, -3), Amount: decimal.NewFromInt(9950), Currency: "GBP", Channel: "ATM", Direction: "CREDIT"},
	}

	c, result, err := caseService.CreateCase(ctx, services.CreateCaseInput{
		Customer:     customer,
		Alert:        alert,
		Transactions: txns,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created case %s (status %s)\n", c.CaseID, c.Status)
	fmt.Printf("  model: %s, confidence: %s, fallback: %v\n", result.ModelUsed, result.Confidence, result.UsedFallback)
	fmt.Printf("  risk indicators: %d, prompt hash: %s\n", len(result.RiskIndicators), result.PromptHash)
	return nil
}
