package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketStatusCanTransition(t *testing.T) {
	tests := []struct {
		from    TicketStatus
		to      TicketStatus
		allowed bool
	}{
		{TicketPending, TicketAssigned, true},
		{TicketPending, TicketCancelled, true},
		{TicketPending, TicketInProgress, false},
		{TicketPending, TicketCompleted, false},
		{TicketAssigned, TicketAssigned, true}, // reassignment
		{TicketAssigned, TicketInProgress, true},
		{TicketAssigned, TicketCancelled, true},
		{TicketAssigned, TicketCompleted, false},
		{TicketInProgress, TicketCompleted, true},
		{TicketInProgress, TicketCancelled, false},
		{TicketInProgress, TicketAssigned, false},
		{TicketCompleted, TicketAssigned, false},
		{TicketCompleted, TicketCancelled, false},
		{TicketCancelled, TicketAssigned, false},
		{TicketCancelled, TicketPending, false},
	}

	for _, tt := range tests {
		got := tt.from.CanTransition(tt.to)
		assert.Equal(t, tt.allowed, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestTicketStatusIsTerminal(t *testing.T) {
	assert.False(t, TicketPending.IsTerminal())
	assert.False(t, TicketAssigned.IsTerminal())
	assert.False(t, TicketInProgress.IsTerminal())
	assert.True(t, TicketCompleted.IsTerminal())
	assert.True(t, TicketCancelled.IsTerminal())
}

func TestIsValidTicketStatus(t *testing.T) {
	assert.True(t, IsValidTicketStatus(TicketPending))
	assert.True(t, IsValidTicketStatus(TicketInProgress))
	assert.False(t, IsValidTicketStatus(TicketStatus("Open")))
	assert.False(t, IsValidTicketStatus(TicketStatus("")))
}
