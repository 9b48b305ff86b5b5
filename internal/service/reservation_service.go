package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/queue"
	"github.com/iliyamo/festival-reservation/internal/repository"
)

// Pending-ticket caps per requester and festival. Authenticated users
// may hold more outstanding reservations than anonymous contacts.
const (
	QuotaAuthenticated   = 5
	QuotaUnauthenticated = 3
)

// ReservationService drives a ticket from reservation through approval
// or cancellation. Every operation is one transaction: the throttle
// check, the capacity ledger mutation and the ticket write commit
// together or not at all, so the counter can never drift from the
// ticket table.
type ReservationService struct {
	Festivals *repository.FestivalRepo
	Tickets   *repository.TicketRepo
	Sellers   *repository.SellerRepo
}

// NewReservationService constructs a ReservationService. All
// repositories must be non-nil.
func NewReservationService(f *repository.FestivalRepo, t *repository.TicketRepo, s *repository.SellerRepo) *ReservationService {
	if f == nil || t == nil || s == nil {
		panic("nil repository passed to NewReservationService")
	}
	return &ReservationService{Festivals: f, Tickets: t, Sellers: s}
}

// pendingQuotaFor returns the pending-ticket cap for a requester kind.
func pendingQuotaFor(authenticated bool) int {
	if authenticated {
		return QuotaAuthenticated
	}
	return QuotaUnauthenticated
}

// Reserve creates a pending ticket against the festival for either the
// given actor or, when actor is nil, the guest contact. The order is
// fixed: throttle first, so a requester over their personal cap never
// consumes shared capacity, then the capacity ledger, then the ticket
// insert; all inside one transaction. A failure anywhere rolls the
// ledger increment back, leaving the counter unchanged end to end.
func (s *ReservationService) Reserve(ctx context.Context, actor *Actor, contact *ContactInfo, festivalID uint64) (*model.Ticket, error) {
	if actor == nil && contact == nil {
		return nil, ErrUnauthorized
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

	// The festival row lock is taken up front so the pending count and
	// the ledger mutation below see a serialized view: two concurrent
	// reserves by the same requester cannot both read the same count
	// and land above the personal cap.
	fest, err := s.Festivals.GetForReserveTx(ctx, tx, festivalID)
	if err != nil {
		return nil, err
	}
	if fest.Status != model.FestivalPublished {
		return nil, repository.ErrFestivalNotFound
	}
	now := time.Now().UTC()
	if fest.Ended(now) {
		return nil, ErrInvalidTransition
	}

	// Throttle: count this requester's pending tickets before touching
	// shared capacity.
	var pending int
	if actor != nil {
		pending, err = s.Tickets.CountPendingByUserTx(ctx, tx, festivalID, actor.ID)
	} else {
		pending, err = s.Tickets.CountPendingByEmailTx(ctx, tx, festivalID, normalizeEmail(contact.Email))
	}
	if err != nil {
		return nil, err
	}
	if pending >= pendingQuotaFor(actor != nil) {
		return nil, ErrQuotaExceeded
	}

	// Capacity ledger: consumes a slot or fails without mutation.
	if err := s.Festivals.ReserveCapacityTx(ctx, tx, festivalID); err != nil {
		return nil, err
	}

	ticket := &model.Ticket{FestivalID: festivalID}
	if actor != nil {
		uid := actor.ID
		ticket.UserID = &uid
	} else {
		ticket.HolderName = strings.TrimSpace(contact.Name)
		ticket.HolderSurname = strings.TrimSpace(contact.Surname)
		ticket.ContactEmail = normalizeEmail(contact.Email)
	}
	if err := s.Tickets.CreateTx(ctx, tx, ticket); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	ev := queue.TicketReservedEvent{
		TicketID:     ticket.ID,
		FestivalID:   fest.ID,
		FestivalName: fest.Name,
		ReservedAt:   now.Format(time.RFC3339),
	}
	if actor != nil {
		ev.UserID = actor.ID
		ev.Holder = actor.Display()
	} else {
		ev.Holder = ticket.HolderName + " " + ticket.HolderSurname
		ev.ContactEmail = ticket.ContactEmail
	}
	// Publishing is best-effort; the reservation has already committed.
	_ = queue.PublishTicketReserved(ctx, ev)

	return ticket, nil
}

// Approve transitions a pending ticket to approved. Only a seller
// assigned to the festival, the owning organizer, or an admin may
// approve, and only before the festival's end time. The capacity
// ledger is not touched: the slot was consumed at reservation.
func (s *ReservationService) Approve(ctx context.Context, actor Actor, ticketID uint64, reason string) error {
	return s.transition(ctx, actor, ticketID, model.TicketApproved, reason)
}

// Cancel transitions a pending ticket to cancelled and releases its
// capacity slot in the same transaction. The ticket holder may cancel
// their own ticket; sellers, the owning organizer and admins may
// cancel any ticket of the festival.
func (s *ReservationService) Cancel(ctx context.Context, actor Actor, ticketID uint64, reason string) error {
	return s.transition(ctx, actor, ticketID, model.TicketCancelled, reason)
}

func (s *ReservationService) transition(ctx context.Context, actor Actor, ticketID uint64, target model.TicketStatus, reason string) error {
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

	// Row lock makes the read-check-write atomic per ticket.
	ticket, err := s.Tickets.GetByIDTx(ctx, tx, ticketID)
	if err != nil {
		return err
	}
	fest, err := s.Festivals.GetByIDTx(ctx, tx, ticket.FestivalID)
	if err != nil {
		return err
	}

	allowed, err := s.mayTransition(ctx, tx, actor, ticket, fest, target)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrUnauthorized
	}

	now := time.Now().UTC()
	if !model.TransitionAllowed(ticket.Status, now, fest.TimeTo) {
		return ErrInvalidTransition
	}

	if reason = strings.TrimSpace(reason); reason == "" {
		switch target {
		case model.TicketApproved:
			reason = "Approved by " + actor.Display()
		case model.TicketCancelled:
			reason = "Canceled by " + actor.Display()
		}
	}

	if target == model.TicketCancelled {
		// Release and status change commit together or not at all.
		if err := s.Festivals.ReleaseCapacityTx(ctx, tx, ticket.FestivalID); err != nil {
			if errors.Is(err, repository.ErrInvariantViolation) {
				log.Printf("reservation: capacity invariant violation on festival %d ticket %d", ticket.FestivalID, ticket.ID)
			}
			return err
		}
	}
	if err := s.Tickets.UpdateStatusTx(ctx, tx, ticket.ID, target, reason); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// mayTransition resolves whether the actor may perform the transition.
// Approval requires management authority; cancellation additionally
// allows the ticket holder themselves.
func (s *ReservationService) mayTransition(ctx context.Context, tx *sql.Tx, actor Actor, ticket *model.Ticket, fest *model.Festival, target model.TicketStatus) (bool, error) {
	if target == model.TicketCancelled && holdsTicket(actor, ticket) {
		return true, nil
	}
	return s.mayManage(ctx, tx, actor, fest)
}

// mayManage reports whether the actor holds management authority over
// the festival's tickets: admin level or above, the owning organizer,
// or a seller with an explicit assignment. Seller authority comes only
// from the seller_assignments row, never from hierarchy adjacency.
func (s *ReservationService) mayManage(ctx context.Context, tx *sql.Tx, actor Actor, fest *model.Festival) (bool, error) {
	if actor.Level.AtLeast(model.LevelAdmin) {
		return true, nil
	}
	if actor.Level == model.LevelOrganizer {
		return fest.OrganizerID == actor.ID, nil
	}
	if actor.Level == model.LevelSeller {
		return s.Sellers.IsAssignedTx(ctx, tx, actor.ID, fest.ID)
	}
	return false, nil
}

// MayManageFestival is the non-transactional form of the management
// check, used by listing endpoints before exposing a festival's
// tickets.
func (s *ReservationService) MayManageFestival(ctx context.Context, actor Actor, fest *model.Festival) (bool, error) {
	if actor.Level.AtLeast(model.LevelAdmin) {
		return true, nil
	}
	if actor.Level == model.LevelOrganizer {
		return fest.OrganizerID == actor.ID, nil
	}
	if actor.Level == model.LevelSeller {
		return s.Sellers.IsAssigned(ctx, actor.ID, fest.ID)
	}
	return false, nil
}

// holdsTicket reports whether the actor is the ticket's own holder.
// Guest tickets have no holder account and always need a manager.
func holdsTicket(actor Actor, ticket *model.Ticket) bool {
	return ticket.UserID != nil && *ticket.UserID == actor.ID
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
