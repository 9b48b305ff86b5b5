package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/repository"
	"github.com/iliyamo/festival-reservation/internal/service"
)

// TicketHandler exposes reservation and ticket lifecycle endpoints for
// authenticated users, anonymous guests and ticket managers. All
// capacity and throttle rules live in the reservation service; the
// handler only binds requests and maps errors onto HTTP statuses.
type TicketHandler struct {
	Reservations *service.ReservationService
	Festivals    *repository.FestivalRepo
	Tickets      *repository.TicketRepo
}

func NewTicketHandler(rs *service.ReservationService, f *repository.FestivalRepo, t *repository.TicketRepo) *TicketHandler {
	if rs == nil || f == nil || t == nil {
		panic("nil dependency passed to NewTicketHandler")
	}
	return &TicketHandler{Reservations: rs, Festivals: f, Tickets: t}
}

type ticketPart struct {
	ID         uint64  `json:"id"`
	FestivalID uint64  `json:"festival_id"`
	UserID     *uint64 `json:"user_id,omitempty"`
	Holder     string  `json:"holder,omitempty"`
	Email      string  `json:"contact_email,omitempty"`
	Status     string  `json:"status"`
	Reason     string  `json:"reason,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

func toTicketPart(t *model.Ticket) ticketPart {
	p := ticketPart{
		ID:         t.ID,
		FestivalID: t.FestivalID,
		UserID:     t.UserID,
		Email:      t.ContactEmail,
		Status:     t.Status.String(),
		Reason:     t.Reason,
		CreatedAt:  t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.UserID == nil {
		p.Holder = strings.TrimSpace(t.HolderName + " " + t.HolderSurname)
	}
	return p
}

// Reserve handles POST /v1/festivals/:id/tickets for authenticated
// users. The body is empty; identity comes from the access token.
func (h *TicketHandler) Reserve(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	festivalID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid festival id"})
	}
	ticket, err := h.Reservations.Reserve(c.Request().Context(), &actor, nil, festivalID)
	if err != nil {
		return reserveError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"ticket": toTicketPart(ticket)})
}

// GuestReserve handles POST /v1/festivals/:id/guest-tickets. Guests
// identify themselves with a name, surname and contact email; the
// email is the throttle key for unauthenticated reservations.
func (h *TicketHandler) GuestReserve(c echo.Context) error {
	festivalID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid festival id"})
	}
	var body struct {
		Name    string `json:"name"`
		Surname string `json:"surname"`
		Email   string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	contact := service.ContactInfo{
		Name:    strings.TrimSpace(body.Name),
		Surname: strings.TrimSpace(body.Surname),
		Email:   strings.ToLower(strings.TrimSpace(body.Email)),
	}
	if contact.Name == "" || contact.Surname == "" || !strings.Contains(contact.Email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, surname and a valid email are required"})
	}
	ticket, err := h.Reservations.Reserve(c.Request().Context(), nil, &contact, festivalID)
	if err != nil {
		return reserveError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"ticket": toTicketPart(ticket)})
}

// MyTickets handles GET /v1/my-tickets for the authenticated user.
func (h *TicketHandler) MyTickets(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tickets, err := h.Tickets.ListByUser(c.Request().Context(), actor.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tickets"})
	}
	items := make([]ticketPart, 0, len(tickets))
	for i := range tickets {
		items = append(items, toTicketPart(&tickets[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Approve handles POST /v1/tickets/:id/approve. Only an assigned
// seller, the owning organizer or an admin passes the service check.
func (h *TicketHandler) Approve(c echo.Context) error {
	return h.transition(c, model.TicketApproved)
}

// Cancel handles POST /v1/tickets/:id/cancel. The ticket holder may
// cancel their own ticket; managers may cancel any ticket of the
// festival. Cancelling releases the capacity slot.
func (h *TicketHandler) Cancel(c echo.Context) error {
	return h.transition(c, model.TicketCancelled)
}

func (h *TicketHandler) transition(c echo.Context, target model.TicketStatus) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ticketID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.Bind(&body)

	ctx := c.Request().Context()
	if target == model.TicketApproved {
		err = h.Reservations.Approve(ctx, actor, ticketID, body.Reason)
	} else {
		err = h.Reservations.Cancel(ctx, actor, ticketID, body.Reason)
	}
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrTicketNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	case errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, service.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "ticket is no longer pending or the festival has ended"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transition failed"})
	}
}

// ListFestivalTickets handles GET /v1/festivals/:id/tickets for ticket
// managers. Authority is checked against the festival, not the route:
// a seller only sees festivals they are assigned to.
func (h *TicketHandler) ListFestivalTickets(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	festivalID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid festival id"})
	}
	ctx := c.Request().Context()
	fest, err := h.Festivals.GetByID(ctx, festivalID)
	if err != nil {
		if errors.Is(err, repository.ErrFestivalNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "festival not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	allowed, err := h.Reservations.MayManageFestival(ctx, actor, fest)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !allowed {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	tickets, err := h.Tickets.ListByFestival(ctx, festivalID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tickets"})
	}
	items := make([]ticketPart, 0, len(tickets))
	for i := range tickets {
		items = append(items, toTicketPart(&tickets[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// reserveError maps reservation failures onto HTTP statuses. Capacity
// contention is surfaced as a retryable conflict rather than an error
// page; the row lock is held only for the duration of one transaction.
func reserveError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrFestivalNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "festival not found"})
	case errors.Is(err, service.ErrQuotaExceeded):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrCapacityExceeded):
		return c.JSON(http.StatusConflict, echo.Map{"error": "festival is sold out"})
	case errors.Is(err, repository.ErrCapacityBusy):
		c.Response().Header().Set("Retry-After", "1")
		return c.JSON(http.StatusConflict, echo.Map{"error": "festival is busy, retry shortly"})
	case errors.Is(err, service.ErrInvalidTransition):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "festival has already ended"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation failed"})
	}
}
