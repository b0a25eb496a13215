package game

import (
	"context"

	"github.com/rs/zerolog"
)

// AntiCheat turns client cheat signals into penalties. A signal arrives when
// the student's quiz view loses focus mid-question; the penalty is a forced
// wrong answer on whatever question they face, charged through the exact
// same guarded path as a real submission so it can never double-fire against
// an in-flight answer.
type AntiCheat struct {
	coord  *Coordinator
	logger zerolog.Logger
}

func NewAntiCheat(coord *Coordinator, logger zerolog.Logger) *AntiCheat {
	return &AntiCheat{
		coord:  coord,
		logger: logger.With().Str("component", "anticheat").Logger(),
	}
}

// HandleSignal applies the penalty for one cheat signal. Signals racing a
// real submission lose to the submission guard and are dropped; the student
// already paid for that question one way or the other.
func (a *AntiCheat) HandleSignal(ctx context.Context, g Game, studentID, reason string) (Answer, error) {
	a.logger.Warn().
		Str("code", g.Code).
		Str("student_id", studentID).
		Str("reason", reason).
		Msg("cheat signal received")

	return a.coord.ForceIncorrect(ctx, g, studentID)
}
