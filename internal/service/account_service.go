package service

import (
	"context"

	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/repository"
)

// AccountService implements promotion and deactivation under the
// linear privilege chain. Promotion is only valid strictly downward:
// the actor must outrank the level being granted, so an admin can make
// organizers and sellers but only the root admin can mint admins.
type AccountService struct {
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

// NewAccountService constructs an AccountService. Repositories must be
// non-nil.
func NewAccountService(u *repository.UserRepo, t *repository.TokenRepo) *AccountService {
	if u == nil || t == nil {
		panic("nil repository passed to NewAccountService")
	}
	return &AccountService{Users: u, Tokens: t}
}

// Promote sets the target account's privilege level. Requirements:
// the actor is an admin or above, the new level is valid and not
// RootAdmin (the root is seeded once, never granted), and the actor is
// strictly more privileged than both the new level and the target's
// current level. Lateral and self promotion therefore always fail.
func (s *AccountService) Promote(ctx context.Context, actor Actor, targetID uint64, newLevel model.Level) error {
	if !newLevel.Valid() || newLevel == model.LevelRootAdmin {
		return ErrInvalidLevel
	}
	if !actor.Level.AtLeast(model.LevelAdmin) {
		return ErrUnauthorized
	}
	if actor.ID == targetID || !actor.Level.CanGrant(newLevel) {
		return ErrUnauthorized
	}
	target, err := s.Users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	// Demoting or reshaping someone at or above the actor's own level
	// is never allowed.
	if !actor.Level.CanGrant(target.Perms) {
		return ErrUnauthorized
	}
	return s.Users.UpdatePerms(ctx, targetID, newLevel)
}

// Deactivate makes the target account inert: it can no longer
// authenticate or act, but its history remains. All refresh tokens of
// the account are revoked in the same call. The actor must be an admin
// or above and strictly outrank the target.
func (s *AccountService) Deactivate(ctx context.Context, actor Actor, targetID uint64) error {
	if err := s.authorizeAccountChange(ctx, actor, targetID); err != nil {
		return err
	}
	if err := s.Users.SetActive(ctx, targetID, false); err != nil {
		return err
	}
	return s.Tokens.RevokeAllForUser(ctx, targetID)
}

// Reactivate re-enables a previously deactivated account, under the
// same authority rule as Deactivate.
func (s *AccountService) Reactivate(ctx context.Context, actor Actor, targetID uint64) error {
	if err := s.authorizeAccountChange(ctx, actor, targetID); err != nil {
		return err
	}
	return s.Users.SetActive(ctx, targetID, true)
}

func (s *AccountService) authorizeAccountChange(ctx context.Context, actor Actor, targetID uint64) error {
	if !actor.Level.AtLeast(model.LevelAdmin) || actor.ID == targetID {
		return ErrUnauthorized
	}
	target, err := s.Users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if !actor.Level.CanGrant(target.Perms) {
		return ErrUnauthorized
	}
	return nil
}
