package service

import (
	"context"
	"time"

	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/queue"
	"github.com/iliyamo/festival-reservation/internal/repository"
)

// SchedulingService places band performances onto stages and detects
// time-interval conflicts. The check-then-insert sequence is
// serialized per stage through a row lock, so two concurrent
// non-conflicting checks cannot both pass and then overlap after
// insertion; unrelated stages schedule independently.
type SchedulingService struct {
	Festivals    *repository.FestivalRepo
	Stages       *repository.StageRepo
	Bands        *repository.BandRepo
	Performances *repository.PerformanceRepo
}

// NewSchedulingService constructs a SchedulingService. All
// repositories must be non-nil.
func NewSchedulingService(f *repository.FestivalRepo, st *repository.StageRepo, b *repository.BandRepo, p *repository.PerformanceRepo) *SchedulingService {
	if f == nil || st == nil || b == nil || p == nil {
		panic("nil repository passed to NewSchedulingService")
	}
	return &SchedulingService{Festivals: f, Stages: st, Bands: b, Performances: p}
}

// validateInterval rejects empty or inverted intervals before any
// database work.
func validateInterval(from, to time.Time) error {
	if !to.After(from) {
		return ErrInvalidInterval
	}
	return nil
}

// findConflicts collects the IDs of every existing performance whose
// half-open interval overlaps [from, to). The scan never stops at the
// first hit so the caller can report the complete conflict set.
func findConflicts(existing []model.Performance, from, to time.Time) []uint64 {
	var ids []uint64
	for _, p := range existing {
		if model.Overlaps(from, to, p.TimeFrom, p.TimeTo) {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// Schedule creates a performance of the band on the stage over
// [from, to). Only the festival's owning organizer or an admin may
// schedule. Rejections, in order: invalid interval, unknown or
// soft-deleted band, interval outside the festival window, stage
// conflict listing every overlapping performance.
func (s *SchedulingService) Schedule(ctx context.Context, actor Actor, festivalID, stageID, bandID uint64, from, to time.Time) (*model.Performance, error) {
	if err := validateInterval(from, to); err != nil {
		return nil, err
	}

	fest, err := s.Festivals.GetByID(ctx, festivalID)
	if err != nil {
		return nil, err
	}
	if !s.mayScheduleOn(actor, fest) {
		return nil, ErrUnauthorized
	}
	if fest.Status == model.FestivalCancelled {
		return nil, repository.ErrFestivalNotFound
	}
	if !fest.WindowContains(from, to) {
		return nil, ErrOutOfFestivalWindow
	}
	// A soft-deleted band cannot enter new performances.
	if _, err := s.Bands.GetActiveByID(ctx, bandID); err != nil {
		return nil, err
	}

	tx, err := s.Festivals.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Stage lock: conflict check and insert form one atomic unit per
	// stage.
	if _, err := s.Stages.LockTx(ctx, tx, stageID); err != nil {
		return nil, err
	}
	existing, err := s.Performances.ListActiveByStageTx(ctx, tx, stageID)
	if err != nil {
		return nil, err
	}
	if ids := findConflicts(existing, from, to); len(ids) > 0 {
		return nil, &StageConflictError{StageID: stageID, PerformanceIDs: ids}
	}

	perf := &model.Performance{
		FestivalID: festivalID,
		StageID:    stageID,
		BandID:     bandID,
		TimeFrom:   from,
		TimeTo:     to,
	}
	if err := s.Performances.CreateTx(ctx, tx, perf); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	_ = queue.PublishPerformanceScheduled(ctx, queue.PerformanceScheduledEvent{
		PerformanceID: perf.ID,
		FestivalID:    festivalID,
		StageID:       stageID,
		BandID:        bandID,
		TimeFrom:      from.Format(time.RFC3339),
		TimeTo:        to.Format(time.RFC3339),
		ScheduledAt:   time.Now().UTC().Format(time.RFC3339),
	})

	return perf, nil
}

// CancelPerformance soft-cancels a performance. Only the owning
// organizer or an admin may cancel; the row itself is kept for audit
// and stops counting in future conflict checks.
func (s *SchedulingService) CancelPerformance(ctx context.Context, actor Actor, performanceID uint64) error {
	perf, err := s.Performances.GetByID(ctx, performanceID)
	if err != nil {
		return err
	}
	fest, err := s.Festivals.GetByID(ctx, perf.FestivalID)
	if err != nil {
		return err
	}
	if !s.mayScheduleOn(actor, fest) {
		return ErrUnauthorized
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
	if err := s.Performances.CancelTx(ctx, tx, performanceID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// mayScheduleOn reports whether the actor controls the festival's
// schedule: admins always, organizers only for festivals they own.
func (s *SchedulingService) mayScheduleOn(actor Actor, fest *model.Festival) bool {
	if actor.Level.AtLeast(model.LevelAdmin) {
		return true
	}
	return actor.Level == model.LevelOrganizer && fest.OrganizerID == actor.ID
}
