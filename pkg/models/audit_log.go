package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit action names. The set mirrors the actions the surrounding system can
// perform; unknown actions are still accepted and categorised as GENERAL.
const (
	ActionGenerationStarted   = "SAR_GENERATION_STARTED"
	ActionGenerationCompleted = "SAR_GENERATION_COMPLETED"
	ActionGenerationFailed    = "SAR_GENERATION_FAILED"

	ActionNarrativeEdited = "NARRATIVE_EDITED"
	ActionNarrativeSaved  = "NARRATIVE_SAVED"

	ActionSARApproved  = "SAR_APPROVED"
	ActionSARRejected  = "SAR_REJECTED"
	ActionSARSubmitted = "SAR_SUBMITTED"
	ActionSARFiled     = "SAR_FILED"

	ActionCaseViewed          = "CASE_VIEWED"
	ActionCaseCreated         = "CASE_CREATED"
	ActionCustomerAccessed    = "CUSTOMER_DATA_ACCESSED"
	ActionTransactionAccessed = "TRANSACTION_DATA_ACCESSED"
	ActionAuditLogViewed      = "AUDIT_LOG_VIEWED"

	ActionUserLogin       = "USER_LOGIN"
	ActionUserLogout      = "USER_LOGOUT"
	ActionUserLoginFailed = "USER_LOGIN_FAILED"
	ActionUserCreated     = "USER_CREATED"

	ActionAlertTriggered    = "ALERT_TRIGGERED"
	ActionAlertAcknowledged = "ALERT_ACKNOWLEDGED"
	ActionAlertEscalated    = "ALERT_ESCALATED"

	ActionConfigChanged = "SYSTEM_CONFIG_CHANGED"
	ActionDataExported  = "DATA_EXPORTED"
)

// AuditCategory is the closed set of audit action categories.
type AuditCategory string

const (
	CategoryGeneration AuditCategory = "GENERATION"
	CategoryEdit       AuditCategory = "EDIT"
	CategoryApproval   AuditCategory = "APPROVAL"
	CategoryAccess     AuditCategory = "ACCESS"
	CategoryAuth       AuditCategory = "AUTH"
	CategoryAlert      AuditCategory = "ALERT"
	CategorySystem     AuditCategory = "SYSTEM"
	CategoryGeneral    AuditCategory = "GENERAL"
)

var actionCategories = map[string]AuditCategory{
	ActionGenerationStarted:   CategoryGeneration,
	ActionGenerationCompleted: CategoryGeneration,
	ActionGenerationFailed:    CategoryGeneration,
	ActionNarrativeEdited:     CategoryEdit,
	ActionNarrativeSaved:      CategoryEdit,
	ActionSARApproved:         CategoryApproval,
	ActionSARRejected:         CategoryApproval,
	ActionSARSubmitted:        CategoryApproval,
	ActionSARFiled:            CategoryApproval,
	ActionCaseViewed:          CategoryAccess,
	ActionCaseCreated:         CategoryAccess,
	ActionCustomerAccessed:    CategoryAccess,
	ActionTransactionAccessed: CategoryAccess,
	ActionAuditLogViewed:      CategoryAccess,
	ActionUserLogin:           CategoryAuth,
	ActionUserLogout:          CategoryAuth,
	ActionUserLoginFailed:     CategoryAuth,
	ActionUserCreated:         CategoryAuth,
	ActionAlertTriggered:      CategoryAlert,
	ActionAlertAcknowledged:   CategoryAlert,
	ActionAlertEscalated:      CategoryAlert,
	ActionConfigChanged:       CategorySystem,
	ActionDataExported:        CategorySystem,
}

// CategoryForAction maps an action name to its category. Unmapped actions fall
// into GENERAL rather than erroring.
func CategoryForAction(action string) AuditCategory {
	if c, ok := actionCategories[action]; ok {
		return c
	}
	return CategoryGeneral
}

// AuditLogEntry is one immutable record in the audit trail. Entries are
// write-once: after Create the only permitted operation is a query.
type AuditLogEntry struct {
	ID              uuid.UUID      `json:"id"`
	CaseID          *string        `json:"case_id,omitempty"`
	UserID          *uuid.UUID     `json:"user_id,omitempty"`
	Action          string         `json:"action"`
	Category        AuditCategory  `json:"action_category"`
	Details         map[string]any `json:"details,omitempty"`
	ReasoningTrace  string         `json:"reasoning_trace,omitempty"`
	DataSourcesUsed []string       `json:"data_sources_used,omitempty"`
	RulesMatched    []string       `json:"rules_matched,omitempty"`
	PromptHash      string         `json:"llm_prompt_hash,omitempty"`
	ModelUsed       string         `json:"llm_model_used,omitempty"`
	Success         bool           `json:"success"`
	ErrorMessage    string         `json:"error_message,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// AuditStats aggregates entry counts for reporting.
type AuditStats struct {
	TotalEvents      int `json:"total_events"`
	GenerationEvents int `json:"generation_events"`
	ApprovalEvents   int `json:"approval_events"`
	RejectionEvents  int `json:"rejection_events"`
	EditEvents       int `json:"edit_events"`
}
