package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/repository"
	"github.com/iliyamo/festival-reservation/internal/service"
)

// ScheduleHandler exposes the performance scheduling endpoints. The
// conflict detection itself lives in the scheduling service under a
// per-stage lock; the handler translates its outcomes, including the
// full list of conflicting performance ids on a stage clash.
type ScheduleHandler struct {
	Scheduling   *service.SchedulingService
	Performances *repository.PerformanceRepo
}

func NewScheduleHandler(s *service.SchedulingService, p *repository.PerformanceRepo) *ScheduleHandler {
	if s == nil || p == nil {
		panic("nil dependency passed to NewScheduleHandler")
	}
	return &ScheduleHandler{Scheduling: s, Performances: p}
}

type performancePart struct {
	ID         uint64 `json:"id"`
	FestivalID uint64 `json:"festival_id"`
	StageID    uint64 `json:"stage_id"`
	BandID     uint64 `json:"band_id"`
	TimeFrom   string `json:"time_from"`
	TimeTo     string `json:"time_to"`
	Canceled   bool   `json:"canceled"`
}

func toPerformancePart(p *model.Performance) performancePart {
	return performancePart{
		ID:         p.ID,
		FestivalID: p.FestivalID,
		StageID:    p.StageID,
		BandID:     p.BandID,
		TimeFrom:   p.TimeFrom.UTC().Format(time.RFC3339),
		TimeTo:     p.TimeTo.UTC().Format(time.RFC3339),
		Canceled:   p.Canceled,
	}
}

// Schedule handles POST /v1/festivals/:id/performances.
func (h *ScheduleHandler) Schedule(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	festivalID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid festival id"})
	}
	var body struct {
		StageID  uint64 `json:"stage_id"`
		BandID   uint64 `json:"band_id"`
		TimeFrom string `json:"time_from"`
		TimeTo   string `json:"time_to"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if body.StageID == 0 || body.BandID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "stage_id and band_id are required"})
	}
	from, errFrom := time.Parse(time.RFC3339, body.TimeFrom)
	to, errTo := time.Parse(time.RFC3339, body.TimeTo)
	if errFrom != nil || errTo != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "time_from and time_to must be RFC3339 timestamps"})
	}

	perf, err := h.Scheduling.Schedule(c.Request().Context(), actor, festivalID, body.StageID, body.BandID, from.UTC(), to.UTC())
	if err != nil {
		var conflict *service.StageConflictError
		switch {
		case errors.As(err, &conflict):
			return c.JSON(http.StatusConflict, echo.Map{
				"error":        "stage conflict",
				"stage_id":     conflict.StageID,
				"conflict_ids": conflict.PerformanceIDs,
			})
		case errors.Is(err, service.ErrInvalidInterval):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "time_to must be after time_from"})
		case errors.Is(err, service.ErrOutOfFestivalWindow):
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "performance outside the festival window"})
		case errors.Is(err, service.ErrUnauthorized):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case errors.Is(err, repository.ErrFestivalNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "festival not found"})
		case errors.Is(err, repository.ErrStageNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "stage not found"})
		case errors.Is(err, repository.ErrBandNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "band not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "schedule failed"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"performance": toPerformancePart(perf)})
}

// Cancel handles POST /v1/performances/:id/cancel. Cancellation is
// soft so the slot opens up while the history remains.
func (h *ScheduleHandler) Cancel(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	performanceID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid performance id"})
	}
	switch err := h.Scheduling.CancelPerformance(c.Request().Context(), actor, performanceID); {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrPerformanceNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "performance not found"})
	case errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
}

// ListByFestival handles GET /v1/festivals/:id/performances for the
// managing side; cancelled performances are included.
func (h *ScheduleHandler) ListByFestival(c echo.Context) error {
	festivalID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid festival id"})
	}
	perfs, err := h.Performances.ListByFestival(c.Request().Context(), festivalID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load performances"})
	}
	items := make([]performancePart, 0, len(perfs))
	for i := range perfs {
		items = append(items, toPerformancePart(&perfs[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
