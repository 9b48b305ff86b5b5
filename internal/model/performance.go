package model

import "time"

// Performance mirrors the 'performances' table: one band playing one
// stage of one festival over the half-open interval [TimeFrom, TimeTo).
// Cancelling only flips the Canceled flag; rows are never deleted so
// the schedule history stays auditable.
type Performance struct {
	ID         uint64
	FestivalID uint64
	StageID    uint64
	BandID     uint64
	TimeFrom   time.Time
	TimeTo     time.Time
	Canceled   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Overlaps reports whether the half-open intervals [aFrom, aTo) and
// [bFrom, bTo) intersect. Touching endpoints do not overlap, so a
// performance may start exactly when the previous one ends.
func Overlaps(aFrom, aTo, bFrom, bTo time.Time) bool {
	return aFrom.Before(bTo) && bFrom.Before(aTo)
}
