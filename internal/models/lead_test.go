package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadStatusCanTransition(t *testing.T) {
	tests := []struct {
		from    LeadStatus
		to      LeadStatus
		allowed bool
	}{
		{LeadNew, LeadFollowUp, true},
		{LeadNew, LeadEstimate, true},
		{LeadNew, LeadSold, true},
		{LeadNew, LeadLost, true},
		{LeadNew, LeadConverted, false},
		{LeadFollowUp, LeadFollowUp, true},
		{LeadFollowUp, LeadEstimate, true},
		{LeadFollowUp, LeadSold, true},
		{LeadFollowUp, LeadLost, true},
		{LeadFollowUp, LeadNew, false},
		{LeadEstimate, LeadSold, true},
		{LeadEstimate, LeadLost, true},
		{LeadEstimate, LeadFollowUp, false},
		{LeadSold, LeadConverted, true},
		{LeadSold, LeadLost, false},
		{LeadConverted, LeadSold, false},
		{LeadLost, LeadNew, false},
	}

	for _, tt := range tests {
		got := tt.from.CanTransition(tt.to)
		assert.Equal(t, tt.allowed, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestLeadStatusIsTerminal(t *testing.T) {
	assert.True(t, LeadConverted.IsTerminal())
	assert.True(t, LeadLost.IsTerminal())
	assert.False(t, LeadNew.IsTerminal())
	assert.False(t, LeadSold.IsTerminal())
}

func TestAppendNotes(t *testing.T) {
	assert.Equal(t, "first", AppendNotes("", "first"))
	assert.Equal(t, "first", AppendNotes("first", ""))
	assert.Equal(t, "first\nsecond", AppendNotes("first", "second"))
	assert.Equal(t, "first\nsecond\nthird", AppendNotes(AppendNotes("first", "second"), "third"))
}
