package model

import "time"

// Level is the privilege rank of a user. The hierarchy is linear: a
// numerically smaller level holds every capability of the levels above
// it. Exactly one RootAdmin exists; it is seeded at bootstrap and can
// never be produced through registration or promotion.
type Level uint8

const (
	LevelRootAdmin Level = 0 // may create and remove Admin accounts
	LevelAdmin     Level = 1 // may deactivate accounts and promote users
	LevelOrganizer Level = 2 // owns festivals, stages, bands, performances
	LevelSeller    Level = 3 // manages tickets of festivals assigned to them
	LevelUser      Level = 4 // reserves and cancels their own tickets
)

// Valid reports whether l is inside the closed set of known levels.
func (l Level) Valid() bool { return l <= LevelUser }

// AtLeast reports whether l carries at least the privilege of required.
// Privilege grows as the numeric level shrinks.
func (l Level) AtLeast(required Level) bool { return l <= required }

// CanGrant reports whether an actor at level l may assign target to
// another account. Granting is only valid strictly downward: the actor
// must be strictly more privileged than the level being handed out, so
// only the RootAdmin can mint Admins and nobody can self-promote.
func (l Level) CanGrant(target Level) bool { return l < target }

// String returns the conventional name of the level.
func (l Level) String() string {
	switch l {
	case LevelRootAdmin:
		return "ROOT_ADMIN"
	case LevelAdmin:
		return "ADMIN"
	case LevelOrganizer:
		return "ORGANIZER"
	case LevelSeller:
		return "SELLER"
	case LevelUser:
		return "USER"
	}
	return "UNKNOWN"
}

// User mirrors the 'users' table. A single record carries the privilege
// level; level-specific authority (which festivals a seller may manage)
// lives in the seller_assignments association table instead of per-role
// subtype tables.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique email address, stored lower-cased.
//  PasswordHash – bcrypt hashed password.
//  Name         – given name.
//  Surname      – family name.
//  Perms        – privilege level (0 = most privileged, 4 = least).
//  IsActive     – false once deactivated; an inert account cannot
//                 authenticate or act but its history remains.
//  CreatedAt    – timestamp of creation (UTC).
//  UpdatedAt    – timestamp of last update (UTC).
type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	Name         string
	Surname      string
	Perms        Level
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SellerAssignment links a seller account to a festival whose tickets it
// may approve or cancel. Rows are created and removed only by the
// festival's owning organizer or an admin.
type SellerAssignment struct {
	ID         uint64
	SellerID   uint64 // users.id of the assigned seller
	FestivalID uint64
	CreatedAt  time.Time
}
