package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelValid(t *testing.T) {
	assert.True(t, LevelRootAdmin.Valid())
	assert.True(t, LevelUser.Valid())
	assert.False(t, Level(5).Valid())
	assert.False(t, Level(255).Valid())
}

func TestLevelAtLeast(t *testing.T) {
	assert.True(t, LevelRootAdmin.AtLeast(LevelAdmin))
	assert.True(t, LevelAdmin.AtLeast(LevelAdmin))
	assert.True(t, LevelOrganizer.AtLeast(LevelUser))
	assert.False(t, LevelSeller.AtLeast(LevelOrganizer))
	assert.False(t, LevelUser.AtLeast(LevelSeller))
}

func TestLevelCanGrant(t *testing.T) {
	cases := []struct {
		name   string
		actor  Level
		target Level
		want   bool
	}{
		{"root grants admin", LevelRootAdmin, LevelAdmin, true},
		{"root grants user", LevelRootAdmin, LevelUser, true},
		{"admin grants organizer", LevelAdmin, LevelOrganizer, true},
		{"admin grants seller", LevelAdmin, LevelSeller, true},
		{"admin cannot grant admin", LevelAdmin, LevelAdmin, false},
		{"admin cannot grant root", LevelAdmin, LevelRootAdmin, false},
		{"organizer cannot grant organizer", LevelOrganizer, LevelOrganizer, false},
		{"user cannot grant anything", LevelUser, LevelUser, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.actor.CanGrant(tc.target))
		})
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "ROOT_ADMIN", LevelRootAdmin.String())
	assert.Equal(t, "ADMIN", LevelAdmin.String())
	assert.Equal(t, "ORGANIZER", LevelOrganizer.String())
	assert.Equal(t, "SELLER", LevelSeller.String())
	assert.Equal(t, "USER", LevelUser.String())
	assert.Equal(t, "UNKNOWN", Level(9).String())
}
