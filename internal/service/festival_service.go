package service

import (
	"context"

	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/repository"
)

// FestivalService owns the festival cancellation cascade. Plain CRUD
// on festivals goes straight through the repository from the handlers;
// cancellation lives here because it must atomically cancel pending
// tickets, release their capacity, cancel performances and flip the
// festival status in one transaction.
type FestivalService struct {
	Festivals    *repository.FestivalRepo
	Tickets      *repository.TicketRepo
	Performances *repository.PerformanceRepo
}

// NewFestivalService constructs a FestivalService. All repositories
// must be non-nil.
func NewFestivalService(f *repository.FestivalRepo, t *repository.TicketRepo, p *repository.PerformanceRepo) *FestivalService {
	if f == nil || t == nil || p == nil {
		panic("nil repository passed to NewFestivalService")
	}
	return &FestivalService{Festivals: f, Tickets: t, Performances: p}
}

// Cancel cancels a festival: pending tickets move to cancelled with a
// cascade reason and their capacity slots are released in bulk,
// performances are soft-cancelled, and the festival status becomes
// CANCELLED. Only the owning organizer or an admin may cancel.
func (s *FestivalService) Cancel(ctx context.Context, actor Actor, festivalID uint64) error {
	fest, err := s.Festivals.GetByID(ctx, festivalID)
	if err != nil {
		return err
	}
	if !actor.Level.AtLeast(model.LevelAdmin) &&
		!(actor.Level == model.LevelOrganizer && fest.OrganizerID == actor.ID) {
		return ErrUnauthorized
	}
	if fest.Status == model.FestivalCancelled {
		return nil // already cancelled, idempotent
	}

	tx, err := s.Festivals.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	released, err := s.Tickets.CancelPendingByFestivalTx(ctx, tx, festivalID,
		"Canceled: festival canceled by "+actor.Display())
	if err != nil {
		return err
	}
	if err := s.Festivals.ReleaseCapacityBulkTx(ctx, tx, festivalID, released); err != nil {
		return err
	}
	if err := s.Performances.CancelByFestivalTx(ctx, tx, festivalID); err != nil {
		return err
	}
	if err := s.Festivals.MarkCancelledTx(ctx, tx, festivalID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
