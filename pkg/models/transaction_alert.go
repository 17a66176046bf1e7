package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Alert types raised by upstream transaction monitoring.
const (
	AlertTypeStructuring          = "STRUCTURING"
	AlertTypeRapidMovement        = "RAPID_MOVEMENT"
	AlertTypeRoundTrip            = "ROUND_TRIP"
	AlertTypePassThrough          = "PASS_THROUGH"
	AlertTypeHighRiskJurisdiction = "HIGH_RISK_JURISDICTION"
	AlertTypeUnusualVolume        = "UNUSUAL_VOLUME"
)

// TransactionAlert is a detected pattern created by upstream monitoring.
// Read-only to this core.
type TransactionAlert struct {
	ID                uuid.UUID       `json:"id"`
	AlertID           string          `json:"alert_id"`
	CustomerID        string          `json:"customer_id"`
	AlertType         string          `json:"alert_type"`
	AlertRule         string          `json:"alert_rule,omitempty"`
	Severity          string          `json:"severity"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	TransactionCount  int             `json:"transaction_count"`
	DateRangeStart    *time.Time      `json:"date_range_start,omitempty"`
	DateRangeEnd      *time.Time      `json:"date_range_end,omitempty"`
	Counterparties    []string        `json:"counterparties,omitempty"`
	Jurisdictions     []string        `json:"jurisdictions_involved,omitempty"`
	AlertScore        float64         `json:"alert_score,omitempty"`
	TriggeringFactors []string        `json:"triggering_factors,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Transaction is a single raw transaction supplied alongside an alert.
type Transaction struct {
	Reference    string          `json:"reference"`
	Date         time.Time       `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency,omitempty"`
	Channel      string          `json:"channel,omitempty"`
	Counterparty string          `json:"counterparty,omitempty"`
	Direction    string          `json:"direction,omitempty"` // CREDIT or DEBIT
}
