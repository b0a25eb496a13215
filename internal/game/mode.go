package game

import (
	"fmt"

	"aulaquiz/internal/game/scoring"
	"aulaquiz/internal/store"
)

// Mode identifiers as stored in the quiz state document.
const (
	ModeClassic = "classic"
	ModeMastery = "mastery_peak"
)

// AnswerResult is what one processed answer means for the player, regardless
// of mode.
type AnswerResult struct {
	Correct      bool
	Points       int
	Hearts       int
	HeartsGained bool
	Broke        bool
}

// Mode encapsulates everything that differs between classic and mastery
// play. It is resolved once when a game starts or a player joins; nothing
// downstream branches on the mode string again.
type Mode interface {
	ID() string

	// NewSession builds the initial session document for a quiz of the
	// given length.
	NewSession(total int) store.Session

	// Current returns the question index the player faces, or false when
	// the session has run out of questions.
	Current(sess store.Session, total int) (int, bool)

	// Advance moves the session past the current question.
	Advance(sess store.Session, correct bool) store.Session

	// Finished reports whether the session has no questions left.
	Finished(sess store.Session, total int) bool

	// ApplyAnswer folds an answer into the player's ranking document.
	ApplyAnswer(r store.StudentRanking, correct bool, eng *scoring.Engine) (store.StudentRanking, AnswerResult)

	// Sort orders a scoreboard in podium order.
	Sort(entries []store.StudentRanking, total int)
}

// ParseMode resolves a mode string from the quiz state document.
func ParseMode(s string) (Mode, error) {
	switch s {
	case ModeClassic:
		return classicMode{}, nil
	case ModeMastery:
		return masteryMode{}, nil
	default:
		return nil, fmt.Errorf("unknown game mode %q", s)
	}
}

// classicMode walks the quiz front to back. Hearts and score move on every
// answer and the game ends after the last question.
type classicMode struct{}

func (classicMode) ID() string { return ModeClassic }

func (classicMode) NewSession(int) store.Session {
	return store.Session{QuestionIndex: 0}
}

func (classicMode) Current(sess store.Session, total int) (int, bool) {
	if sess.QuestionIndex >= total {
		return 0, false
	}
	return sess.QuestionIndex, true
}

func (classicMode) Advance(sess store.Session, _ bool) store.Session {
	sess.QuestionIndex++
	return sess
}

func (classicMode) Finished(sess store.Session, total int) bool {
	return sess.QuestionIndex >= total
}

func (classicMode) ApplyAnswer(r store.StudentRanking, correct bool, eng *scoring.Engine) (store.StudentRanking, AnswerResult) {
	res := AnswerResult{Correct: correct}
	if correct {
		out := eng.Correct(r.Hearts)
		r.Score += out.Points
		r.Correct++
		r.Hearts = out.Hearts
		res.Points = out.Points
		res.HeartsGained = out.GainedHeart
	} else {
		out := eng.Incorrect(r.Hearts)
		r.Incorrect++
		r.Hearts = out.Hearts
		res.Broke = out.Broke
	}
	res.Hearts = r.Hearts
	return r, res
}

func (classicMode) Sort(entries []store.StudentRanking, _ int) {
	SortClassic(entries)
}

// masteryMode keeps a retry queue: missed questions rotate to the back and
// come around again. Progress only moves on correct answers and the game
// ends when the queue drains.
type masteryMode struct{}

func (masteryMode) ID() string { return ModeMastery }

func (masteryMode) NewSession(total int) store.Session {
	queue := make([]int, total)
	for i := range queue {
		queue[i] = i
	}
	return store.Session{QuestionQueue: queue}
}

func (masteryMode) Current(sess store.Session, _ int) (int, bool) {
	if len(sess.QuestionQueue) == 0 {
		return 0, false
	}
	return sess.QuestionQueue[0], true
}

func (masteryMode) Advance(sess store.Session, correct bool) store.Session {
	if len(sess.QuestionQueue) == 0 {
		return sess
	}
	if correct {
		sess.QuestionQueue = sess.QuestionQueue[1:]
	} else {
		sess.QuestionQueue = append(sess.QuestionQueue[1:], sess.QuestionQueue[0])
	}
	return sess
}

func (masteryMode) Finished(sess store.Session, _ int) bool {
	return len(sess.QuestionQueue) == 0
}

func (masteryMode) ApplyAnswer(r store.StudentRanking, correct bool, _ *scoring.Engine) (store.StudentRanking, AnswerResult) {
	res := AnswerResult{Correct: correct}
	if correct {
		r.Correct++
		r.ProgressCount++
	} else {
		r.Incorrect++
	}
	res.Hearts = r.Hearts
	return r, res
}

func (masteryMode) Sort(entries []store.StudentRanking, total int) {
	SortMastery(entries, total)
}
