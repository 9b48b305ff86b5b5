package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/festival-reservation/internal/model"
)

// RequireLevel enforces that the authenticated account holds privilege
// level `max` or stronger. Levels are ordered with 0 as the root admin,
// so "at least organizer" means perms <= LevelOrganizer. It assumes
// JWTAuth has already stored "perms" in the context; a missing or
// malformed value is treated as no authority at all.
func RequireLevel(max model.Level) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			perms, ok := c.Get("perms").(model.Level)
			if !ok || !perms.AtLeast(max) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
