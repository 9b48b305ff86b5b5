package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/festival-reservation/internal/config"
	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/utils"
)

const testSecret = "middleware-test-secret"

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func doRequest(t *testing.T, h echo.HandlerFunc, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	at, err := utils.NewAccessToken(testSecret, 42, model.LevelSeller, 5)
	require.NoError(t, err)

	var gotID uint64
	var gotPerms model.Level
	h := JWTAuth(testSecret)(func(c echo.Context) error {
		gotID = c.Get("user_id").(uint64)
		gotPerms = c.Get("perms").(model.Level)
		return c.NoContent(http.StatusOK)
	})
	rec := doRequest(t, h, "Bearer "+at.Token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(42), gotID)
	assert.Equal(t, model.LevelSeller, gotPerms)
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	h := JWTAuth(testSecret)(okHandler)
	rec := doRequest(t, h, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	at, err := utils.NewAccessToken("other-secret", 42, model.LevelUser, 5)
	require.NoError(t, err)

	h := JWTAuth(testSecret)(okHandler)
	rec := doRequest(t, h, "Bearer "+at.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireLevel(t *testing.T) {
	cases := []struct {
		name  string
		perms model.Level
		max   model.Level
		want  int
	}{
		{"admin passes organizer gate", model.LevelAdmin, model.LevelOrganizer, http.StatusOK},
		{"exact level passes", model.LevelSeller, model.LevelSeller, http.StatusOK},
		{"user blocked from seller gate", model.LevelUser, model.LevelSeller, http.StatusForbidden},
		{"seller blocked from organizer gate", model.LevelSeller, model.LevelOrganizer, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.Set("perms", tc.perms)

			require.NoError(t, RequireLevel(tc.max)(okHandler)(c))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRequireLevelWithoutPerms(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, RequireLevel(model.LevelUser)(okHandler)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBuildRateKeyStrategies(t *testing.T) {
	e := echo.New()
	newCtx := func(uid string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/v1/festivals", nil)
		req.RemoteAddr = "203.0.113.9:4242"
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/v1/festivals")
		if uid != "" {
			c.Set("user_id", uint64(42))
		}
		return c
	}

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user_route"}
	assert.Equal(t, "rl:ip:203.0.113.9:user:42:route:GET /v1/festivals", buildRateKey(cfg, newCtx("42")))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:anon", buildRateKey(cfg, newCtx("")))

	cfg.KeyStrategy = "ip"
	assert.Equal(t, "rl:ip:203.0.113.9", buildRateKey(cfg, newCtx("")))
}

func TestAsInt64ScriptShapes(t *testing.T) {
	assert.Equal(t, int64(3), asInt64(int64(3)))
	assert.Equal(t, int64(3), asInt64("3"))
	assert.Equal(t, int64(3), asInt64(float64(3.7)))
	assert.Equal(t, int64(0), asInt64("nope"))
}

func TestNewTokenBucketDisabledPassesThrough(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/festivals", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil)
	called := false
	err := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)

	require.NoError(t, err)
	assert.True(t, called)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}
