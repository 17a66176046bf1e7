package models

import (
	"time"

	"github.com/google/uuid"
)

// CaseStatus is the lifecycle state of a SAR case.
type CaseStatus string

const (
	CaseStatusOpen     CaseStatus = "OPEN"
	CaseStatusInReview CaseStatus = "IN_REVIEW"
	CaseStatusApproved CaseStatus = "APPROVED"
	CaseStatusRejected CaseStatus = "REJECTED"
	CaseStatusFiled    CaseStatus = "FILED"
	CaseStatusClosed   CaseStatus = "CLOSED"
)

// caseTransitions encodes the legal status transitions. REJECTED does not
// transition back to IN_REVIEW directly; re-editing a rejected case happens
// through a new case action.
var caseTransitions = map[CaseStatus][]CaseStatus{
	CaseStatusOpen:     {CaseStatusInReview, CaseStatusClosed},
	CaseStatusInReview: {CaseStatusApproved, CaseStatusRejected, CaseStatusClosed},
	CaseStatusApproved: {CaseStatusFiled, CaseStatusClosed},
	CaseStatusRejected: {CaseStatusClosed},
	CaseStatusFiled:    {CaseStatusClosed},
	CaseStatusClosed:   {},
}

// CanTransition reports whether moving from s to next is a legal lifecycle step.
func (s CaseStatus) CanTransition(next CaseStatus) bool {
	for _, allowed := range caseTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Locked reports whether the case narrative may no longer be edited.
func (s CaseStatus) Locked() bool {
	switch s {
	case CaseStatusApproved, CaseStatusFiled, CaseStatusClosed:
		return true
	}
	return false
}

// Narrative version change kinds.
const (
	ChangeKindGenerated = "GENERATED"
	ChangeKindEdit      = "EDIT"
	ChangeKindApproved  = "APPROVED"
)

// Case is the unit of work: one suspicious-activity investigation with its
// evolving narrative. FinalNarrative is only set once the case is approved.
type Case struct {
	ID                 uuid.UUID      `json:"id"`
	CaseID             string         `json:"case_id"`
	AlertID            *string        `json:"alert_id,omitempty"`
	CustomerID         string         `json:"customer_id"`
	AnalystID          *uuid.UUID     `json:"analyst_id,omitempty"`
	Status             CaseStatus     `json:"status"`
	Priority           string         `json:"priority"`
	GeneratedNarrative string         `json:"generated_narrative,omitempty"`
	EditedNarrative    string         `json:"edited_narrative,omitempty"`
	FinalNarrative     string         `json:"final_narrative,omitempty"`
	NarrativeVersion   int            `json:"narrative_version"`
	SuspicionTypology  string         `json:"suspicion_typology,omitempty"`
	ReportingEntity    string         `json:"reporting_entity,omitempty"`
	FilingJurisdiction string         `json:"filing_jurisdiction,omitempty"`
	SARReference       string         `json:"sar_reference,omitempty"`
	GenerationMetadata map[string]any `json:"generation_metadata,omitempty"`
	RAGSourcesUsed     []string       `json:"rag_sources_used,omitempty"`
	AnalystNotes       string         `json:"analyst_notes,omitempty"`
	RejectionReason    string         `json:"rejection_reason,omitempty"`
	ApprovedBy         string         `json:"approved_by,omitempty"`
	FiledAt            *time.Time     `json:"filed_at,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// WorkingNarrative returns the text an approval would freeze: the latest edit
// if one exists, otherwise the generated narrative.
func (c *Case) WorkingNarrative() string {
	if c.EditedNarrative != "" {
		return c.EditedNarrative
	}
	return c.GeneratedNarrative
}

// NarrativeVersionEntry is an immutable snapshot of the narrative at one
// version number. Entries are append-only and never rewritten.
type NarrativeVersionEntry struct {
	ID            uuid.UUID `json:"id"`
	CaseID        string    `json:"case_id"`
	VersionNumber int       `json:"version_number"`
	NarrativeText string    `json:"narrative_text"`
	ChangeKind    string    `json:"change_kind"` // GENERATED, EDIT or APPROVED
	ChangeSummary string    `json:"change_summary,omitempty"`
	ChangedBy     string    `json:"changed_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
