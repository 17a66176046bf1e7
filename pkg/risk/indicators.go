// Package risk derives machine risk indicators from raw case data. Extraction
// is deterministic: identical inputs always produce an identical, identically
// ordered indicator list.
package risk

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aml-forge/sar-engine/pkg/models"
)

// Thresholds externalises the rule cutoffs. The rule shapes themselves are
// fixed; only these values vary by deployment region.
type Thresholds struct {
	CurrencySymbol        string
	HighValue             decimal.Decimal
	HighFrequencyCount    int
	StructuringBandLow    decimal.Decimal
	StructuringBandHigh   decimal.Decimal
	IncomeMultiple        int64
	CounterpartyCount     int
	HighRiskJurisdictions []string
	PassThroughAlertTypes []string
}

// DefaultThresholds returns the standard rule cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CurrencySymbol:        "£",
		HighValue:             decimal.NewFromInt(10000),
		HighFrequencyCount:    10,
		StructuringBandLow:    decimal.NewFromInt(8000),
		StructuringBandHigh:   decimal.RequireFromString("9999.99"),
		IncomeMultiple:        2,
		CounterpartyCount:     10,
		HighRiskJurisdictions: []string{"Iran", "North Korea", "Syria", "Russia", "Afghanistan", "Myanmar"},
		PassThroughAlertTypes: []string{"RAPID_MOVEMENT", "ROUND_TRIP", "PASS_THROUGH"},
	}
}

// Extract evaluates the fixed rule set against a case's inputs. Every
// applicable rule fires (no short-circuit), each contributing at most one
// indicator string. Output order follows rule declaration order; downstream
// prompt assembly depends on that ordering.
func Extract(customer *models.CustomerProfile, alert *models.TransactionAlert, txns []models.Transaction, t Thresholds) []string {
	var indicators []string
	sym := t.CurrencySymbol

	if alert.TotalAmount.GreaterThan(t.HighValue) {
		indicators = append(indicators, fmt.Sprintf(
			"HIGH VALUE: Total transactions of %s%s exceed %s%s threshold",
			sym, formatAmount(alert.TotalAmount, 2), sym, formatAmount(t.HighValue, 0)))
	}

	if alert.TransactionCount > t.HighFrequencyCount {
		indicators = append(indicators, fmt.Sprintf(
			"HIGH FREQUENCY: %d transactions detected in monitoring window",
			alert.TransactionCount))
	}

	if customer.PEPStatus {
		indicators = append(indicators, "PEP CUSTOMER: Subject is a Politically Exposed Person")
	}

	if customer.RiskRating == models.RiskRatingHigh || customer.RiskRating == models.RiskRatingVeryHigh {
		indicators = append(indicators, fmt.Sprintf(
			"HIGH RISK CUSTOMER: Customer holds %s risk rating", customer.RiskRating))
	}

	if matches := intersect(alert.Jurisdictions, t.HighRiskJurisdictions); len(matches) > 0 {
		indicators = append(indicators, fmt.Sprintf(
			"HIGH RISK JURISDICTION: Transactions linked to %s", strings.Join(matches, ", ")))
	}

	if n := countInBand(txns, t.StructuringBandLow, t.StructuringBandHigh); n > 0 {
		indicators = append(indicators, fmt.Sprintf(
			"STRUCTURING SUSPECTED: %d transactions near but below %s%s reporting threshold",
			n, sym, formatAmount(t.HighValue, 0)))
	}

	if containsFold(t.PassThroughAlertTypes, alert.AlertType) {
		indicators = append(indicators, "PASS-THROUGH PATTERN: Rapid in-out transaction pattern detected")
	}

	if customer.AnnualIncome.IsPositive() {
		limit := customer.AnnualIncome.Mul(decimal.NewFromInt(t.IncomeMultiple))
		if alert.TotalAmount.GreaterThan(limit) {
			indicators = append(indicators, fmt.Sprintf(
				"INCOME DISPARITY: Transaction volume (%s%s) exceeds %dx stated annual income (%s%s)",
				sym, formatAmount(alert.TotalAmount, 0), t.IncomeMultiple,
				sym, formatAmount(customer.AnnualIncome, 0)))
		}
	}

	if len(alert.Counterparties) > t.CounterpartyCount {
		indicators = append(indicators, fmt.Sprintf(
			"MULTIPLE COUNTERPARTIES: %d distinct counterparties involved",
			len(alert.Counterparties)))
	}

	// Upstream triggering factors are appended verbatim, after all rules.
	indicators = append(indicators, alert.TriggeringFactors...)

	return indicators
}

// intersect preserves the order of the first list.
func intersect(values, allowed []string) []string {
	var out []string
	for _, v := range values {
		if containsFold(allowed, v) {
			out = append(out, v)
		}
	}
	return out
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

func countInBand(txns []models.Transaction, low, high decimal.Decimal) int {
	var n int
	for _, tx := range txns {
		if tx.Amount.GreaterThanOrEqual(low) && tx.Amount.LessThanOrEqual(high) {
			n++
		}
	}
	return n
}

// formatAmount renders a decimal with thousands separators and the given
// number of decimal places, e.g. 487500 -> "487,500.00".
func formatAmount(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart := s
	var fracPart string
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString(fracPart)
	return b.String()
}
