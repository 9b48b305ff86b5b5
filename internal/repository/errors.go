// Package repository defines error values shared across repositories.
// These sentinels let the service and handler layers distinguish
// failure scenarios without string matching. ErrCapacityExceeded marks
// a reserve attempt against a full festival, and ErrInvariantViolation
// a data-integrity fault that must be surfaced, never swallowed.
package repository

import "errors"

// ErrConflict is returned when an update cannot proceed because of
// dependent state, such as editing a stage that performances already
// reference. Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrCapacityExceeded is returned by the capacity ledger when a
// festival already holds max_capacity issued tickets. The counter is
// left untouched; the condition is expected and safe to retry once
// tickets are cancelled.
var ErrCapacityExceeded = errors.New("festival capacity exceeded")

// ErrCapacityBusy is returned when the festival's counter row is locked
// by a concurrent reservation and the ledger refuses to queue behind
// it. Callers treat it like capacity exhaustion: fail now, retry later.
var ErrCapacityBusy = errors.New("capacity ledger busy")

// ErrInvariantViolation is returned when a counter mutation would break
// the ledger invariant, e.g. releasing capacity on a festival whose
// count is already zero. It signals a programming or data-integrity
// fault and must be logged, not clamped.
var ErrInvariantViolation = errors.New("capacity invariant violation")

// ErrFestivalNotFound indicates that a festival row does not exist.
var ErrFestivalNotFound = errors.New("festival not found")

// ErrStageNotFound indicates that a stage row does not exist.
var ErrStageNotFound = errors.New("stage not found")

// ErrBandNotFound indicates that a band row does not exist or has been
// soft-deleted.
var ErrBandNotFound = errors.New("band not found")

// ErrTicketNotFound indicates that a ticket row does not exist.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrPerformanceNotFound indicates that a performance row does not exist.
var ErrPerformanceNotFound = errors.New("performance not found")

// ErrUserNotFound indicates that a user row does not exist.
var ErrUserNotFound = errors.New("user not found")
