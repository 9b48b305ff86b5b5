package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, Health(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestPathID(t *testing.T) {
	e := echo.New()
	newCtx := func(raw string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(raw)
		return c
	}

	id, ok := pathID(newCtx("42"), "id")
	assert.True(t, ok)
	assert.Equal(t, uint64(42), id)

	_, ok = pathID(newCtx("0"), "id")
	assert.False(t, ok)
	_, ok = pathID(newCtx("abc"), "id")
	assert.False(t, ok)
}

func TestParseWindow(t *testing.T) {
	from, to, err := parseWindow("2026-07-10T12:00:00Z", "2026-07-12T23:00:00Z")
	require.NoError(t, err)
	assert.True(t, to.After(from))

	_, _, err = parseWindow("2026-07-12T23:00:00Z", "2026-07-10T12:00:00Z")
	assert.Error(t, err, "inverted window")
	_, _, err = parseWindow("2026-07-10T12:00:00Z", "2026-07-10T12:00:00Z")
	assert.Error(t, err, "empty window")
	_, _, err = parseWindow("not-a-time", "2026-07-10T12:00:00Z")
	assert.Error(t, err)
}
