package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(h, m int) time.Time {
	return time.Date(2026, 7, 10, h, m, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                   string
		aFrom, aTo, bFrom, bTo time.Time
		want                   bool
	}{
		{"partial overlap", at(10, 0), at(11, 0), at(10, 30), at(11, 30), true},
		{"contained", at(10, 0), at(12, 0), at(10, 30), at(11, 0), true},
		{"identical", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"abutting end-start", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"abutting start-end", at(11, 0), at(12, 0), at(10, 0), at(11, 0), false},
		{"disjoint", at(9, 0), at(10, 0), at(11, 0), at(12, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.aFrom, tc.aTo, tc.bFrom, tc.bTo))
			// Overlap is symmetric.
			assert.Equal(t, tc.want, Overlaps(tc.bFrom, tc.bTo, tc.aFrom, tc.aTo))
		})
	}
}
