package model

import "time"

// Festival lifecycle status values stored in festivals.status.
const (
	FestivalDraft     = "DRAFT"
	FestivalPublished = "PUBLISHED"
	FestivalCancelled = "CANCELLED"
)

// Festival mirrors the 'festivals' table. The window [TimeFrom, TimeTo)
// is half-open and both instants are UTC; all end-time comparisons in
// the engine use full timestamps, never calendar dates.
//
// CurrentTicketCount is mutated only through the capacity ledger
// (FestivalRepo.ReserveCapacityTx / ReleaseCapacityTx) and never
// exceeds MaxCapacity.
//
// Fields:
//  ID                 – primary key identifier.
//  OrganizerID        – owning organizer (users.id).
//  Name               – display name of the festival.
//  Description        – free-text description.
//  Style              – music style label.
//  Address            – venue address.
//  CostCents          – ticket price in cents.
//  AgeRestriction     – minimum visitor age.
//  TimeFrom, TimeTo   – festival window, [from, to) in UTC.
//  MaxCapacity        – upper bound on issued tickets (positive).
//  CurrentTicketCount – tickets currently counted against capacity.
//  Status             – DRAFT, PUBLISHED or CANCELLED.
type Festival struct {
	ID                 uint64
	OrganizerID        uint64
	Name               string
	Description        string
	Style              string
	Address            string
	CostCents          uint32
	AgeRestriction     uint8
	TimeFrom           time.Time
	TimeTo             time.Time
	MaxCapacity        uint32
	CurrentTicketCount uint32
	Status             string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// WindowContains reports whether [from, to) lies fully inside the
// festival's own [TimeFrom, TimeTo) window. Callers must validate the
// interval itself (to > from) first.
func (f *Festival) WindowContains(from, to time.Time) bool {
	return !from.Before(f.TimeFrom) && !to.After(f.TimeTo)
}

// Ended reports whether the festival window is over at the given
// instant. Ticket transitions are refused once the festival has ended.
func (f *Festival) Ended(now time.Time) bool {
	return !now.Before(f.TimeTo)
}

// Stage mirrors the 'stages' table. A stage is immutable once a
// performance references it, except by an admin.
type Stage struct {
	ID        uint64
	Name      string
	Size      uint32 // seating/standing size
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Band mirrors the 'bands' table. DeletedAt marks a soft delete: a
// deleted band cannot be scheduled into new performances, but its
// historical performances stay valid.
type Band struct {
	ID        uint64
	Name      string // unique
	Genre     string
	Tags      string
	Scores    int
	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
