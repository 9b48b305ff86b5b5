package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/festival-reservation/internal/model"
)

func slot(h, m int) time.Time {
	return time.Date(2026, 7, 10, h, m, 0, 0, time.UTC)
}

func TestValidateInterval(t *testing.T) {
	assert.NoError(t, validateInterval(slot(10, 0), slot(11, 0)))
	assert.ErrorIs(t, validateInterval(slot(11, 0), slot(10, 0)), ErrInvalidInterval)
	assert.ErrorIs(t, validateInterval(slot(10, 0), slot(10, 0)), ErrInvalidInterval, "zero-length slot")
}

func TestFindConflicts(t *testing.T) {
	existing := []model.Performance{
		{ID: 1, TimeFrom: slot(10, 0), TimeTo: slot(11, 0)},
		{ID: 2, TimeFrom: slot(13, 0), TimeTo: slot(14, 0)},
		{ID: 3, TimeFrom: slot(10, 30), TimeTo: slot(12, 0)},
	}

	t.Run("overlapping slot reports every clashing id", func(t *testing.T) {
		got := findConflicts(existing, slot(10, 30), slot(11, 30))
		assert.ElementsMatch(t, []uint64{1, 3}, got)
	})

	t.Run("abutting slot is free", func(t *testing.T) {
		assert.Empty(t, findConflicts(existing, slot(12, 0), slot(13, 0)))
	})

	t.Run("earlier abutting slot is free", func(t *testing.T) {
		assert.Empty(t, findConflicts(existing, slot(9, 0), slot(10, 0)))
	})

	t.Run("fully clear slot", func(t *testing.T) {
		assert.Empty(t, findConflicts(existing, slot(15, 0), slot(16, 0)))
	})
}

func TestStageConflictError(t *testing.T) {
	err := &StageConflictError{StageID: 7, PerformanceIDs: []uint64{1, 3}}
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage 7")
}
