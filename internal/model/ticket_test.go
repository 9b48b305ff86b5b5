package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTicketStatusTerminal(t *testing.T) {
	assert.False(t, TicketPending.Terminal())
	assert.True(t, TicketApproved.Terminal())
	assert.True(t, TicketCancelled.Terminal())
}

func TestTransitionAllowed(t *testing.T) {
	end := time.Date(2026, 7, 10, 23, 0, 0, 0, time.UTC)
	before := end.Add(-time.Hour)
	after := end.Add(time.Hour)

	assert.True(t, TransitionAllowed(TicketPending, before, end))
	assert.False(t, TransitionAllowed(TicketApproved, before, end), "approved is terminal")
	assert.False(t, TransitionAllowed(TicketCancelled, before, end), "cancelled is terminal")
	assert.False(t, TransitionAllowed(TicketPending, after, end), "festival over")
	// The window is half-open, so the exact end instant is already out.
	assert.False(t, TransitionAllowed(TicketPending, end, end))
}

func TestTicketStatusString(t *testing.T) {
	assert.Equal(t, "PENDING", TicketPending.String())
	assert.Equal(t, "APPROVED", TicketApproved.String())
	assert.Equal(t, "CANCELLED", TicketCancelled.String())
}
