package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func festivalWindow() *Festival {
	return &Festival{
		TimeFrom: time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC),
		TimeTo:   time.Date(2026, 7, 12, 23, 0, 0, 0, time.UTC),
	}
}

func TestWindowContains(t *testing.T) {
	f := festivalWindow()

	assert.True(t, f.WindowContains(
		time.Date(2026, 7, 10, 14, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 10, 15, 0, 0, 0, time.UTC)))
	// Borders are inclusive on both ends of the containing check.
	assert.True(t, f.WindowContains(f.TimeFrom, f.TimeTo))
	assert.False(t, f.WindowContains(
		f.TimeFrom.Add(-time.Minute),
		time.Date(2026, 7, 10, 15, 0, 0, 0, time.UTC)), "starts before festival")
	assert.False(t, f.WindowContains(
		time.Date(2026, 7, 12, 22, 0, 0, 0, time.UTC),
		f.TimeTo.Add(time.Minute)), "ends after festival")
}

func TestEnded(t *testing.T) {
	f := festivalWindow()
	assert.False(t, f.Ended(f.TimeTo.Add(-time.Second)))
	assert.True(t, f.Ended(f.TimeTo), "end instant is already outside the half-open window")
	assert.True(t, f.Ended(f.TimeTo.Add(time.Hour)))
}
