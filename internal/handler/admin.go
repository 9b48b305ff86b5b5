package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/repository"
	"github.com/iliyamo/festival-reservation/internal/service"
)

// AdminHandler covers the account administration surface: listing
// users, granting privilege levels and toggling account activity. The
// strict-downward granting rule is enforced by the account service, so
// the root admin is the only account that can mint admins.
type AdminHandler struct {
	Users    *repository.UserRepo
	Accounts *service.AccountService
}

func NewAdminHandler(u *repository.UserRepo, a *service.AccountService) *AdminHandler {
	if u == nil || a == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Users: u, Accounts: a}
}

type adminUserPart struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Perms    string `json:"perms"`
	IsActive bool   `json:"is_active"`
}

// ListUsers handles GET /v1/admin/users.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.Users.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load users"})
	}
	items := make([]adminUserPart, 0, len(users))
	for _, u := range users {
		items = append(items, adminUserPart{
			ID: u.ID, Email: u.Email, Name: u.Name, Surname: u.Surname,
			Perms: u.Perms.String(), IsActive: u.IsActive,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Promote handles POST /v1/admin/users/:id/promote with a numeric
// "perms" body field (1 admin, 2 organizer, 3 seller, 4 user).
func (h *AdminHandler) Promote(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	targetID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var body struct {
		Perms uint8 `json:"perms"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	switch err := h.Accounts.Promote(c.Request().Context(), actor, targetID, model.Level(body.Perms)); {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, service.ErrInvalidLevel):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid privilege level"})
	case errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "promote failed"})
	}
}

// Deactivate handles POST /v1/admin/users/:id/deactivate. The target's
// refresh tokens are revoked in the same call so open sessions die
// with the account.
func (h *AdminHandler) Deactivate(c echo.Context) error {
	return h.setActive(c, false)
}

// Reactivate handles POST /v1/admin/users/:id/reactivate.
func (h *AdminHandler) Reactivate(c echo.Context) error {
	return h.setActive(c, true)
}

func (h *AdminHandler) setActive(c echo.Context, active bool) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	targetID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	ctx := c.Request().Context()
	if active {
		err = h.Accounts.Reactivate(ctx, actor, targetID)
	} else {
		err = h.Accounts.Deactivate(ctx, actor, targetID)
	}
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update account failed"})
	}
}
