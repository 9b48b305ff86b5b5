package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/repository"
)

// BandHandler manages the band catalog. Bands are removed by soft
// delete only: a deleted band keeps its past performances but cannot
// be scheduled again.
type BandHandler struct {
	Bands *repository.BandRepo
}

func NewBandHandler(b *repository.BandRepo) *BandHandler {
	if b == nil {
		panic("nil repository passed to NewBandHandler")
	}
	return &BandHandler{Bands: b}
}

type bandReq struct {
	Name   string `json:"name"`
	Genre  string `json:"genre"`
	Tags   string `json:"tags"`
	Scores int    `json:"scores"`
}

// Create handles POST /v1/bands. Band names are globally unique.
func (h *BandHandler) Create(c echo.Context) error {
	var req bandReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	band := &model.Band{Name: req.Name, Genre: req.Genre, Tags: req.Tags, Scores: req.Scores}
	switch err := h.Bands.Create(c.Request().Context(), band); {
	case err == nil:
		return c.JSON(http.StatusCreated, echo.Map{"band": band})
	case errors.Is(err, repository.ErrBandNameExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "band name already exists"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create band failed"})
	}
}

// Delete handles DELETE /v1/bands/:id as a soft delete.
func (h *BandHandler) Delete(c echo.Context) error {
	bandID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid band id"})
	}
	switch err := h.Bands.SoftDelete(c.Request().Context(), bandID); {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrBandNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "band not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete band failed"})
	}
}
