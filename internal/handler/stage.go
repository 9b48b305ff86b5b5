package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/repository"
)

// StageHandler manages the shared stage catalog. Stages are global
// resources, not owned per organizer; once a performance references a
// stage its properties are frozen for everyone below admin.
type StageHandler struct {
	Stages *repository.StageRepo
}

func NewStageHandler(s *repository.StageRepo) *StageHandler {
	if s == nil {
		panic("nil repository passed to NewStageHandler")
	}
	return &StageHandler{Stages: s}
}

type stageReq struct {
	Name string `json:"name"`
	Size uint32 `json:"size"`
}

// Create handles POST /v1/stages.
func (h *StageHandler) Create(c echo.Context) error {
	var req stageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Size == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and a positive size are required"})
	}
	stage := &model.Stage{Name: req.Name, Size: req.Size}
	if err := h.Stages.Create(c.Request().Context(), stage); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create stage failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"stage": stage})
}

// Update handles PUT /v1/stages/:id. A stage referenced by any
// performance may only be changed by an admin.
func (h *StageHandler) Update(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	stageID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid stage id"})
	}
	var req stageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Size == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and a positive size are required"})
	}
	stage := &model.Stage{ID: stageID, Name: req.Name, Size: req.Size}
	adminOverride := actor.Level.AtLeast(model.LevelAdmin)
	switch err := h.Stages.Update(c.Request().Context(), stage, adminOverride); {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"stage": stage})
	case errors.Is(err, repository.ErrStageNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "stage not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "stage is referenced by performances"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update stage failed"})
	}
}
