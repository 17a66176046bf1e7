package models

import (
	"time"

	"github.com/google/uuid"
)

// Alert severities, ordered from least to most urgent.
const (
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// System alert types raised by pipeline events.
const (
	AlertNewHighSeverityCase = "NEW_HIGH_SEVERITY_CASE"
	AlertNewCriticalCase     = "NEW_CRITICAL_CASE"
	AlertSAROverdue          = "SAR_OVERDUE"
	AlertNarrativeGenerated  = "NARRATIVE_GENERATED"
	AlertSARApproved         = "SAR_APPROVED"
	AlertSARRejected         = "SAR_REJECTED"
	AlertSARFiled            = "SAR_FILED"
	AlertHighRiskCustomer    = "HIGH_RISK_CUSTOMER"
	AlertSanctionsHit        = "SANCTIONS_HIT"
	AlertPEPActivity         = "PEP_ACTIVITY"
	AlertMultipleCases       = "MULTIPLE_CASES_SAME_CUSTOMER"
	AlertSystemError         = "SYSTEM_ERROR"
	AlertBulkComplete        = "BULK_PROCESSING_COMPLETE"
)

// AlertTypeInfo carries the default severity and display title for an alert type.
type AlertTypeInfo struct {
	Severity string
	Title    string
}

var alertTypes = map[string]AlertTypeInfo{
	AlertNewHighSeverityCase: {SeverityHigh, "New HIGH Severity Case Requires Review"},
	AlertNewCriticalCase:     {SeverityCritical, "CRITICAL: Immediate SAR Action Required"},
	AlertSAROverdue:          {SeverityHigh, "SAR Filing Overdue - Regulatory Deadline Approaching"},
	AlertNarrativeGenerated:  {SeverityLow, "SAR Narrative Successfully Generated"},
	AlertSARApproved:         {SeverityMedium, "SAR Narrative Approved - Ready for Filing"},
	AlertSARRejected:         {SeverityMedium, "SAR Narrative Rejected - Revision Required"},
	AlertSARFiled:            {SeverityLow, "SAR Successfully Filed with Regulator"},
	AlertHighRiskCustomer:    {SeverityHigh, "High Risk Customer Activity Detected"},
	AlertSanctionsHit:        {SeverityCritical, "CRITICAL: Potential Sanctions Match Detected"},
	AlertPEPActivity:         {SeverityHigh, "PEP Customer - Suspicious Activity Flagged"},
	AlertMultipleCases:       {SeverityHigh, "Multiple SAR Cases Opened for Same Customer"},
	AlertSystemError:         {SeverityCritical, "System Error - Requires Immediate Attention"},
	AlertBulkComplete:        {SeverityLow, "Bulk SAR Processing Batch Completed"},
}

// AlertTypeDefaults returns the default severity and title for an alert type.
// Unknown types default to MEDIUM severity with the type name as title.
func AlertTypeDefaults(alertType string) AlertTypeInfo {
	if info, ok := alertTypes[alertType]; ok {
		return info
	}
	return AlertTypeInfo{Severity: SeverityMedium, Title: alertType}
}

// SystemAlert is an ephemeral notification. Content is never edited; only the
// read/resolved flags move.
type SystemAlert struct {
	ID           uuid.UUID  `json:"id"`
	AlertType    string     `json:"alert_type"`
	Severity     string     `json:"severity"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	CaseID       *string    `json:"case_id,omitempty"`
	CustomerID   *string    `json:"customer_id,omitempty"`
	IsRead       bool       `json:"is_read"`
	SentViaEmail bool       `json:"sent_via_email"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy   string     `json:"resolved_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// AlertSummary holds unread alert counts per severity.
type AlertSummary struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}
