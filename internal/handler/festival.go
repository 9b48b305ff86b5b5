package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/repository"
	"github.com/iliyamo/festival-reservation/internal/service"
)

// FestivalHandler groups organizer-facing festival management: CRUD,
// publication, cancellation and seller assignment. Routes using it are
// mounted behind the organizer privilege level; ownership of the
// specific festival is still checked per request.
type FestivalHandler struct {
	Festivals *repository.FestivalRepo
	Sellers   *repository.SellerRepo
	Users     *repository.UserRepo
	Lifecycle *service.FestivalService
}

func NewFestivalHandler(f *repository.FestivalRepo, s *repository.SellerRepo, u *repository.UserRepo, lc *service.FestivalService) *FestivalHandler {
	if f == nil || s == nil || u == nil || lc == nil {
		panic("nil dependency passed to NewFestivalHandler")
	}
	return &FestivalHandler{Festivals: f, Sellers: s, Users: u, Lifecycle: lc}
}

type festivalReq struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Style          string `json:"style"`
	Address        string `json:"address"`
	CostCents      uint32 `json:"cost_cents"`
	AgeRestriction uint8  `json:"age_restriction"`
	TimeFrom       string `json:"time_from"` // RFC3339
	TimeTo         string `json:"time_to"`   // RFC3339
	MaxCapacity    uint32 `json:"max_capacity"`
}

type festivalPart struct {
	ID             uint64 `json:"id"`
	OrganizerID    uint64 `json:"organizer_id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Style          string `json:"style"`
	Address        string `json:"address"`
	CostCents      uint32 `json:"cost_cents"`
	AgeRestriction uint8  `json:"age_restriction"`
	TimeFrom       string `json:"time_from"`
	TimeTo         string `json:"time_to"`
	MaxCapacity    uint32 `json:"max_capacity"`
	TicketCount    uint32 `json:"current_ticket_count"`
	Status         string `json:"status"`
}

func toFestivalPart(f *model.Festival) festivalPart {
	return festivalPart{
		ID:             f.ID,
		OrganizerID:    f.OrganizerID,
		Name:           f.Name,
		Description:    f.Description,
		Style:          f.Style,
		Address:        f.Address,
		CostCents:      f.CostCents,
		AgeRestriction: f.AgeRestriction,
		TimeFrom:       f.TimeFrom.UTC().Format(time.RFC3339),
		TimeTo:         f.TimeTo.UTC().Format(time.RFC3339),
		MaxCapacity:    f.MaxCapacity,
		TicketCount:    f.CurrentTicketCount,
		Status:         f.Status,
	}
}

// parseWindow validates and parses the festival window from a request.
func parseWindow(fromStr, toStr string) (from, to time.Time, err error) {
	from, err = time.Parse(time.RFC3339, fromStr)
	if err != nil {
		return
	}
	to, err = time.Parse(time.RFC3339, toStr)
	if err != nil {
		return
	}
	if !to.After(from) {
		err = errors.New("time_to must be after time_from")
	}
	return from.UTC(), to.UTC(), err
}

// Create handles POST /v1/festivals. New festivals start in DRAFT and
// are invisible to the public until published.
func (h *FestivalHandler) Create(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req festivalReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if req.MaxCapacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_capacity must be positive"})
	}
	from, to, err := parseWindow(req.TimeFrom, req.TimeTo)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid festival window: " + err.Error()})
	}

	fest := &model.Festival{
		OrganizerID:    actor.ID,
		Name:           req.Name,
		Description:    req.Description,
		Style:          req.Style,
		Address:        req.Address,
		CostCents:      req.CostCents,
		AgeRestriction: req.AgeRestriction,
		TimeFrom:       from,
		TimeTo:         to,
		MaxCapacity:    req.MaxCapacity,
	}
	if err := h.Festivals.Create(c.Request().Context(), fest); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create festival failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"festival": toFestivalPart(fest)})
}

// Update handles PUT /v1/festivals/:id. The status and ticket counter
// are not editable here; publication and cancellation have their own
// endpoints and the counter belongs to the capacity ledger. Shrinking
// max_capacity below the current ticket count is rejected.
func (h *FestivalHandler) Update(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	festivalID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid festival id"})
	}
	var req festivalReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	from, to, err := parseWindow(req.TimeFrom, req.TimeTo)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid festival window: " + err.Error()})
	}

	ctx := c.Request().Context()
	fest, err := h.Festivals.GetByID(ctx, festivalID)
	if err != nil {
		if errors.Is(err, repository.ErrFestivalNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "festival not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if fest.OrganizerID != actor.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if fest.Status == model.FestivalCancelled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "festival is cancelled"})
	}
	if req.MaxCapacity < fest.CurrentTicketCount {
		return c.JSON(http.StatusConflict, echo.Map{"error": "max_capacity below current ticket count"})
	}

	fest.Name = req.Name
	fest.Description = req.Description
	fest.Style = req.Style
	fest.Address = req.Address
	fest.CostCents = req.CostCents
	fest.AgeRestriction = req.AgeRestriction
	fest.TimeFrom = from
	fest.TimeTo = to
	fest.MaxCapacity = req.MaxCapacity
	if err := h.Festivals.UpdateByIDAndOwner(ctx, fest, actor.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "festival not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update festival failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"festival": toFestivalPart(fest)})
}

// Publish handles POST /v1/festivals/:id/publish and moves a DRAFT
// festival into public view.
func (h *FestivalHandler) Publish(c echo.Context) error {
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
	if fest.OrganizerID != actor.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if fest.Status != model.FestivalDraft {
		return c.JSON(http.StatusConflict, echo.Map{"error": "only a draft festival can be published"})
	}
	fest.Status = model.FestivalPublished
	if err := h.Festivals.UpdateByIDAndOwner(ctx, fest, actor.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "publish festival failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"festival": toFestivalPart(fest)})
}

// Cancel handles POST /v1/festivals/:id/cancel. The whole cascade
// (pending tickets, capacity, performances, status) runs in one
// transaction inside the festival service.
func (h *FestivalHandler) Cancel(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	festivalID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid festival id"})
	}
	switch err := h.Lifecycle.Cancel(c.Request().Context(), actor, festivalID); {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrFestivalNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "festival not found"})
	case errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel festival failed"})
	}
}

// Mine handles GET /v1/my-festivals for the owning organizer.
func (h *FestivalHandler) Mine(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	fests, err := h.Festivals.ListByOrganizer(c.Request().Context(), actor.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load festivals"})
	}
	items := make([]festivalPart, 0, len(fests))
	for i := range fests {
		items = append(items, toFestivalPart(&fests[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// AssignSeller handles POST /v1/festivals/:id/sellers. Seller
// authority exists only through this explicit assignment; the target
// account must already hold the seller level.
func (h *FestivalHandler) AssignSeller(c echo.Context) error {
	_, fest, done := h.ownedFestival(c)
	if done {
		return nil
	}
	var body struct {
		SellerID uint64 `json:"seller_id"`
	}
	if err := c.Bind(&body); err != nil || body.SellerID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seller_id is required"})
	}
	ctx := c.Request().Context()
	seller, err := h.Users.GetByID(ctx, body.SellerID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seller not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if seller.Perms != model.LevelSeller || !seller.IsActive {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "target account is not an active seller"})
	}
	if err := h.Sellers.Assign(ctx, seller.ID, fest.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign seller failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveSeller handles DELETE /v1/festivals/:id/sellers/:seller_id.
func (h *FestivalHandler) RemoveSeller(c echo.Context) error {
	_, fest, done := h.ownedFestival(c)
	if done {
		return nil
	}
	sellerID, ok := pathID(c, "seller_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seller id"})
	}
	if err := h.Sellers.Remove(c.Request().Context(), sellerID, fest.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove seller failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListSellers handles GET /v1/festivals/:id/sellers.
func (h *FestivalHandler) ListSellers(c echo.Context) error {
	_, fest, done := h.ownedFestival(c)
	if done {
		return nil
	}
	assignments, err := h.Sellers.ListByFestival(c.Request().Context(), fest.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load sellers"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": assignments})
}

// ownedFestival loads the festival from the :id path parameter and
// enforces that the actor owns it (or is an admin). When done is true
// a response has already been written.
func (h *FestivalHandler) ownedFestival(c echo.Context) (service.Actor, *model.Festival, bool) {
	actor, err := actorFromContext(c)
	if err != nil {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		return service.Actor{}, nil, true
	}
	festivalID, ok := pathID(c, "id")
	if !ok {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid festival id"})
		return actor, nil, true
	}
	fest, err := h.Festivals.GetByID(c.Request().Context(), festivalID)
	if err != nil {
		if errors.Is(err, repository.ErrFestivalNotFound) {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "festival not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		return actor, nil, true
	}
	if !actor.Level.AtLeast(model.LevelAdmin) && fest.OrganizerID != actor.ID {
		_ = c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		return actor, nil, true
	}
	return actor, fest, false
}
