package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaseStatusCanTransition(t *testing.T) {
	cases := []struct {
		from, to CaseStatus
		ok       bool
	}{
		{CaseStatusOpen, CaseStatusInReview, true},
		{CaseStatusOpen, CaseStatusClosed, true},
		{CaseStatusOpen, CaseStatusApproved, false},
		{CaseStatusOpen, CaseStatusFiled, false},
		{CaseStatusInReview, CaseStatusApproved, true},
		{CaseStatusInReview, CaseStatusRejected, true},
		{CaseStatusInReview, CaseStatusClosed, true},
		{CaseStatusInReview, CaseStatusFiled, false},
		{CaseStatusApproved, CaseStatusFiled, true},
		{CaseStatusApproved, CaseStatusClosed, true},
		{CaseStatusApproved, CaseStatusRejected, false},
		{CaseStatusRejected, CaseStatusClosed, true},
		{CaseStatusRejected, CaseStatusInReview, false},
		{CaseStatusFiled, CaseStatusClosed, true},
		{CaseStatusFiled, CaseStatusOpen, false},
		{CaseStatusClosed, CaseStatusOpen, false},
		{CaseStatusClosed, CaseStatusClosed, false},
		{CaseStatus("BOGUS"), CaseStatusClosed, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCaseStatusLocked(t *testing.T) {
	assert.False(t, CaseStatusOpen.Locked())
	assert.False(t, CaseStatusInReview.Locked())
	assert.False(t, CaseStatusRejected.Locked())
	assert.True(t, CaseStatusApproved.Locked())
	assert.True(t, CaseStatusFiled.Locked())
	assert.True(t, CaseStatusClosed.Locked())
}

func TestWorkingNarrative(t *testing.T) {
	c := &Case{GeneratedNarrative: "generated text"}
	assert.Equal(t, "generated text", c.WorkingNarrative())

	c.EditedNarrative = "edited text"
	assert.Equal(t, "edited text", c.WorkingNarrative())
}
