package service

import (
	"strconv"

	"github.com/iliyamo/festival-reservation/internal/model"
)

// Actor identifies the authenticated caller of an engine operation.
// Identity is threaded explicitly through every call rather than read
// from ambient session state, so operations are authorizable and
// testable in isolation.
type Actor struct {
	ID    uint64
	Level model.Level
}

// Display renders the actor for default transition reasons, e.g.
// "Approved by user 42 (SELLER)".
func (a Actor) Display() string {
	return "user " + strconv.FormatUint(a.ID, 10) + " (" + a.Level.String() + ")"
}

// ContactInfo identifies an unauthenticated requester: reservations
// without an account carry a (name, surname, email) triple and are
// throttled by contact email.
type ContactInfo struct {
	Name    string
	Surname string
	Email   string
}
