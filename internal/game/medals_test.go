package game

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedalAward(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	medals := NewMedals(env.store, zerolog.Nop())

	require.NoError(t, medals.Award(ctx, "uid-1", false, "Fractions", 1))
	require.NoError(t, medals.Award(ctx, "uid-1", false, "Algebra", 3))

	list, err := medals.List(ctx, "uid-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "🥉", list[0].Emoji)
	assert.Equal(t, "🥇", list[1].Emoji)
	assert.Equal(t, 3, list[0].Rank)
}

func TestMedalAwardedAtEveryRank(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	medals := NewMedals(env.store, zerolog.Nop())

	require.NoError(t, medals.Award(ctx, "uid-1", false, "Fractions", 4))
	require.NoError(t, medals.Award(ctx, "uid-1", false, "Algebra", 41))

	list, err := medals.List(ctx, "uid-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 41, list[0].Rank)
	assert.Equal(t, "P41", list[0].Emoji)
	assert.Equal(t, 4, list[1].Rank)

	require.NoError(t, medals.Award(ctx, "uid-1", false, "Geometry", 0))
	list, err = medals.List(ctx, "uid-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestMedalNotAwardedToGuests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	medals := NewMedals(env.store, zerolog.Nop())

	require.NoError(t, medals.Award(ctx, "guest-uid", true, "Fractions", 1))

	list, err := medals.List(ctx, "guest-uid")
	require.NoError(t, err)
	assert.Empty(t, list)
}
