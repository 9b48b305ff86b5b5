package handler // handler defines http handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/service"
)

// actorFromContext rebuilds the acting user from the context values
// stored by the JWTAuth middleware. It fails when the route was not
// wrapped with authentication.
func actorFromContext(c echo.Context) (service.Actor, error) {
	uid, ok := c.Get("user_id").(uint64)
	if !ok || uid == 0 {
		return service.Actor{}, errors.New("no authenticated user in context")
	}
	perms, ok := c.Get("perms").(model.Level)
	if !ok || !perms.Valid() {
		return service.Actor{}, errors.New("no privilege level in context")
	}
	return service.Actor{ID: uid, Level: perms}, nil
}

// pathID parses a numeric path parameter. Zero is never a valid id.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
