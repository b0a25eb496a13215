package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevel(t *testing.T) {
	e := NewEngine(DefaultConfig())

	tests := []struct {
		hearts int
		level  int
	}{
		{0, 0},
		{1, 1},
		{3, 1},
		{4, 2},
		{6, 2},
		{7, 3},
		{24, 8},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, e.Level(tt.hearts), "hearts=%d", tt.hearts)
	}
}

func TestCorrectAwardsBaseAndTierBonus(t *testing.T) {
	e := NewEngine(DefaultConfig())

	// Within tier 1: base points only.
	out := e.Correct(1)
	assert.Equal(t, 2, out.Hearts)
	assert.Equal(t, 1000, out.Points)
	assert.True(t, out.GainedHeart)
	assert.False(t, out.LeveledUp)

	// Crossing from tier 1 into tier 2 pays one bonus step.
	out = e.Correct(3)
	assert.Equal(t, 4, out.Hearts)
	assert.Equal(t, 1010, out.Points)
	assert.True(t, out.LeveledUp)

	// Crossing into tier 3 pays two steps.
	out = e.Correct(6)
	assert.Equal(t, 7, out.Hearts)
	assert.Equal(t, 1020, out.Points)
	assert.True(t, out.LeveledUp)
}

func TestCorrectAtHeartCap(t *testing.T) {
	e := NewEngine(DefaultConfig())

	out := e.Correct(24)
	assert.Equal(t, 24, out.Hearts)
	assert.Equal(t, 1000, out.Points)
	assert.False(t, out.GainedHeart)
	assert.False(t, out.LeveledUp)
}

func TestIncorrectLosesHeart(t *testing.T) {
	e := NewEngine(DefaultConfig())

	out := e.Incorrect(5)
	assert.Equal(t, 4, out.Hearts)
	assert.Zero(t, out.Points)
	assert.False(t, out.Broke)
}

func TestIncorrectBreakResetsHearts(t *testing.T) {
	e := NewEngine(DefaultConfig())

	out := e.Incorrect(1)
	assert.True(t, out.Broke)
	assert.Equal(t, 3, out.Hearts)
	assert.Zero(t, out.Points)
}

func TestBonusOncePerCrossing(t *testing.T) {
	e := NewEngine(DefaultConfig())

	// Climb 3 -> 4 (bonus), 4 -> 5 and 5 -> 6 (no bonus), 6 -> 7 (bonus).
	hearts := 3
	total := 0
	for i := 0; i < 4; i++ {
		out := e.Correct(hearts)
		hearts = out.Hearts
		total += out.Points
	}
	assert.Equal(t, 7, hearts)
	assert.Equal(t, 4*1000+10+20, total)
}
