package game

import (
	"context"

	"github.com/rs/zerolog"

	"aulaquiz/internal/store"
)

// Medals persists final-ranking finishes for signed-in students. Guests have
// no stable identity across games, so their finishes are never recorded.
type Medals struct {
	store  *store.Store
	logger zerolog.Logger
}

func NewMedals(st *store.Store, logger zerolog.Logger) *Medals {
	return &Medals{
		store:  st,
		logger: logger.With().Str("component", "medals").Logger(),
	}
}

// Award records a medal for the player's final rank (1-based), whatever that
// rank is. Called once per player when their game-over view is built.
func (m *Medals) Award(ctx context.Context, uid string, guest bool, quizTitle string, rank int) error {
	if guest || rank < 1 {
		return nil
	}
	medal := store.Medal{
		Emoji:     RankVisual(rank - 1).Emoji,
		QuizTitle: quizTitle,
		Rank:      rank,
	}
	if err := m.store.Medals().Append(ctx, uid, medal); err != nil {
		return err
	}
	m.logger.Info().Str("uid", uid).Int("rank", rank).Str("quiz", quizTitle).Msg("medal awarded")
	return nil
}

// List returns a student's medal collection, newest first.
func (m *Medals) List(ctx context.Context, uid string) ([]store.Medal, error) {
	return m.store.Medals().List(ctx, uid)
}
