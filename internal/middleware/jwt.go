package middleware // reusable HTTP middleware shared by all route groups

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/festival-reservation/internal/model"
)

// JWTAuth validates a Bearer access token and injects the subject and
// privilege level into the request context under "user_id" (uint64)
// and "perms" (model.Level). Protected routes must be wrapped with
// this middleware before RequireLevel.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			uid, ok := claimUint64(claims["sub"])
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
			}
			rawPerms, ok := claimUint64(claims["perms"])
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing perms claim"})
			}
			perms := model.Level(rawPerms)
			if !perms.Valid() {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid perms claim"})
			}

			c.Set("user_id", uid)
			c.Set("perms", perms)
			return next(c)
		}
	}
}

// claimUint64 normalizes a numeric JWT claim. Claims parsed from the
// wire arrive as float64; tokens built in-process may carry the native
// integer type.
func claimUint64(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case uint64:
		return n, true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case uint8:
		return uint64(n), true
	}
	return 0, false
}
