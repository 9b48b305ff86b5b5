package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/repository"
)

// PublicHandler serves the unauthenticated browse surface: published
// festivals, their schedules and the band catalog. Draft and cancelled
// festivals are invisible here, and guest responses never include the
// ticket holder lists.
type PublicHandler struct {
	Festivals    *repository.FestivalRepo
	Performances *repository.PerformanceRepo
	Bands        *repository.BandRepo
	Stages       *repository.StageRepo
}

func NewPublicHandler(f *repository.FestivalRepo, p *repository.PerformanceRepo, b *repository.BandRepo, s *repository.StageRepo) *PublicHandler {
	if f == nil || p == nil || b == nil || s == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Festivals: f, Performances: p, Bands: b, Stages: s}
}

// GetFestivals handles GET /v1/festivals and lists published festivals
// ordered by start time.
func (h *PublicHandler) GetFestivals(c echo.Context) error {
	fests, err := h.Festivals.ListPublished(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load festivals"})
	}
	items := make([]festivalPart, 0, len(fests))
	for i := range fests {
		items = append(items, toFestivalPart(&fests[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetFestival handles GET /v1/festivals/:id. Unpublished festivals
// respond 404 so their existence does not leak.
func (h *PublicHandler) GetFestival(c echo.Context) error {
	fest, done := h.publishedFestival(c)
	if done {
		return nil
	}
	return c.JSON(http.StatusOK, echo.Map{"festival": toFestivalPart(fest)})
}

// GetFestivalSchedule handles GET /v1/festivals/:id/schedule. Only
// active performances are shown; cancelled slots simply disappear from
// the public view.
func (h *PublicHandler) GetFestivalSchedule(c echo.Context) error {
	fest, done := h.publishedFestival(c)
	if done {
		return nil
	}
	perfs, err := h.Performances.ListByFestival(c.Request().Context(), fest.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load schedule"})
	}
	items := make([]performancePart, 0, len(perfs))
	for i := range perfs {
		if perfs[i].Canceled {
			continue
		}
		items = append(items, toPerformancePart(&perfs[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetBands handles GET /v1/bands for guests; deleted bands are hidden.
func (h *PublicHandler) GetBands(c echo.Context) error {
	bands, err := h.Bands.List(c.Request().Context(), false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bands"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": bands})
}

// GetStages handles GET /v1/stages for guests.
func (h *PublicHandler) GetStages(c echo.Context) error {
	stages, err := h.Stages.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load stages"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": stages})
}

// publishedFestival loads the :id festival and hides anything that is
// not published. When done is true a response was already written.
func (h *PublicHandler) publishedFestival(c echo.Context) (*model.Festival, bool) {
	festivalID, ok := pathID(c, "id")
	if !ok {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid festival id"})
		return nil, true
	}
	fest, err := h.Festivals.GetByID(c.Request().Context(), festivalID)
	if err != nil {
		if errors.Is(err, repository.ErrFestivalNotFound) {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "festival not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		return nil, true
	}
	if fest.Status != model.FestivalPublished {
		_ = c.JSON(http.StatusNotFound, echo.Map{"error": "festival not found"})
		return nil, true
	}
	return fest, false
}
