package game

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"aulaquiz/internal/store"
)

// Admin drives the classroom-side game lifecycle: starting and stopping games,
// removing players and following the live scoreboard.
type Admin struct {
	store   *store.Store
	quizzes quizLookup
	metrics *Metrics
	logger  zerolog.Logger
}

func NewAdmin(st *store.Store, quizzes quizLookup, metrics *Metrics, logger zerolog.Logger) *Admin {
	return &Admin{
		store:   st,
		quizzes: quizzes,
		metrics: metrics,
		logger:  logger.With().Str("component", "admin").Logger(),
	}
}

// newJoinCode draws a 4-digit code, re-rolling while it collides with the
// code already in use so a stopped-and-restarted game never hands stale
// sessions to fresh joiners.
func newJoinCode(current string) string {
	for {
		code := fmt.Sprintf("%d", 1000+rand.Intn(9000))
		if code != current {
			return code
		}
	}
}

// StartQuiz activates a quiz under a fresh join code. Starting while another
// game runs replaces it; players of the old game see it end through the
// quiz state watch.
func (a *Admin) StartQuiz(ctx context.Context, quizID uuid.UUID, mode string) (store.QuizState, error) {
	if _, err := ParseMode(mode); err != nil {
		return store.QuizState{}, err
	}
	quiz, err := a.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return store.QuizState{}, err
	}

	current, _, err := a.store.QuizState().Get(ctx, store.SlotActive)
	if err != nil {
		return store.QuizState{}, err
	}

	st := store.QuizState{
		IsActive:  true,
		Code:      newJoinCode(current.Code),
		QuizID:    quiz.ID.String(),
		QuizTitle: quiz.Title,
		GameMode:  mode,
	}
	if err := a.store.QuizState().Set(ctx, store.SlotActive, st); err != nil {
		return store.QuizState{}, err
	}

	a.metrics.GameStarted(mode)
	a.logger.Info().Str("code", st.Code).Str("quiz_id", st.QuizID).Str("mode", mode).Msg("game started")
	return st, nil
}

// StopQuiz ends the active game. The closing game's identity moves to the
// last slot in the same batch that deactivates the active one, so podium
// views opened after the stop still resolve the right game.
func (a *Admin) StopQuiz(ctx context.Context) error {
	current, ok, err := a.store.QuizState().Get(ctx, store.SlotActive)
	if err != nil {
		return err
	}
	if !ok || !current.IsActive {
		return ErrGameNotActive
	}

	err = a.store.QuizState().SetBoth(ctx,
		store.QuizState{IsActive: false},
		store.QuizState{
			Code:      current.Code,
			QuizID:    current.QuizID,
			QuizTitle: current.QuizTitle,
			GameMode:  current.GameMode,
		},
	)
	if err != nil {
		return err
	}

	a.metrics.GameStopped()
	a.logger.Info().Str("code", current.Code).Msg("game stopped")
	return nil
}

// LastGame resolves the most recently stopped game for late podium views.
func (a *Admin) LastGame(ctx context.Context) (store.QuizState, error) {
	st, ok, err := a.store.QuizState().Get(ctx, store.SlotLast)
	if err != nil {
		return store.QuizState{}, err
	}
	if !ok {
		return store.QuizState{}, ErrGameNotActive
	}
	return st, nil
}

// RemoveStudent deletes a player's session and ranking documents. The
// player's own session watch turns the deletion into a forced exit.
func (a *Admin) RemoveStudent(ctx context.Context, code, studentID string) error {
	if err := a.store.DeleteStudent(ctx, code, studentID); err != nil {
		return err
	}
	a.logger.Info().Str("code", code).Str("student_id", studentID).Msg("student removed")
	return nil
}

// WatchRanking follows a game's scoreboard, delivering podium-ordered
// snapshots on every change. The returned func cancels the watch.
func (a *Admin) WatchRanking(ctx context.Context, code string, mode Mode, total int, cb func([]store.StudentRanking)) func() {
	return a.store.Rankings().Watch(ctx, code, func(entries []store.StudentRanking) {
		mode.Sort(entries, total)
		cb(entries)
	})
}
