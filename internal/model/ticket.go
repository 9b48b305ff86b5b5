package model

import "time"

// TicketStatus encodes the ticket lifecycle state as stored in
// tickets.approved: 0 pending (initial), 1 approved, 2 cancelled.
// Both approved and cancelled are terminal.
type TicketStatus uint8

const (
	TicketPending   TicketStatus = 0
	TicketApproved  TicketStatus = 1
	TicketCancelled TicketStatus = 2
)

// Terminal reports whether no further transitions are permitted.
func (s TicketStatus) Terminal() bool { return s != TicketPending }

// String returns the status name used in API responses.
func (s TicketStatus) String() string {
	switch s {
	case TicketPending:
		return "PENDING"
	case TicketApproved:
		return "APPROVED"
	case TicketCancelled:
		return "CANCELLED"
	}
	return "UNKNOWN"
}

// Ticket mirrors the 'tickets' table. Exactly one identity form is
// populated: UserID for an authenticated reservation, or the
// (HolderName, HolderSurname, ContactEmail) triple for a guest one.
// Tickets are never deleted; they only move through the lifecycle, so
// the full reservation history stays auditable.
//
// Fields:
//  ID            – primary key identifier.
//  FestivalID    – festival the ticket is issued against.
//  UserID        – reserving user, nil for guest reservations.
//  HolderName    – guest given name (empty for authenticated tickets).
//  HolderSurname – guest family name.
//  ContactEmail  – guest contact email, the throttle key for guests.
//  Status        – lifecycle state.
//  Reason        – free text recorded on every transition out of pending.
type Ticket struct {
	ID            uint64
	FestivalID    uint64
	UserID        *uint64
	HolderName    string
	HolderSurname string
	ContactEmail  string
	Status        TicketStatus
	Reason        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TransitionAllowed reports whether a ticket in status s may still be
// approved or cancelled at instant now, given the end of its festival's
// window. Terminal tickets and tickets of ended festivals are frozen.
func TransitionAllowed(s TicketStatus, now, festivalEnd time.Time) bool {
	return s == TicketPending && now.Before(festivalEnd)
}
