// Package service implements the reservation and scheduling engine:
// permission checks, the reservation flow over the capacity ledger and
// throttle, ticket lifecycle transitions, and stage conflict
// detection. Handlers call into this package and translate its typed
// errors into HTTP responses; the engine itself never formats
// user-facing text beyond these reason values.
package service

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when the acting user lacks the required
// permission. No effect is ever partially applied before this check.
var ErrUnauthorized = errors.New("unauthorized")

// ErrQuotaExceeded is returned when a requester already holds the
// maximum number of pending tickets for the festival. The message
// carries the guidance the requester must follow.
var ErrQuotaExceeded = errors.New(
	"pending reservation quota exceeded: pay or cancel existing reservations before reserving more")

// ErrInvalidTransition is returned for a lifecycle transition on a
// ticket that is already terminal, or after its festival has ended.
// State, reason and counters are left untouched.
var ErrInvalidTransition = errors.New("invalid ticket transition")

// ErrInvalidInterval is returned when a proposed performance interval
// is empty or inverted (time_to <= time_from).
var ErrInvalidInterval = errors.New("invalid interval")

// ErrOutOfFestivalWindow is returned when a proposed interval is not
// fully contained in the festival's own window.
var ErrOutOfFestivalWindow = errors.New("interval outside festival window")

// ErrInvalidLevel is returned when a promotion targets a level outside
// the known set.
var ErrInvalidLevel = errors.New("invalid privilege level")

// StageConflictError reports every non-canceled performance on the
// stage whose interval overlaps the proposed one. The check collects
// all conflicts instead of stopping at the first so callers can show
// the full picture.
type StageConflictError struct {
	StageID        uint64
	PerformanceIDs []uint64
}

func (e *StageConflictError) Error() string {
	return fmt.Sprintf("stage %d conflict with performances %v", e.StageID, e.PerformanceIDs)
}
