package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"aulaquiz/internal/catalog"
	"aulaquiz/internal/game/scoring"
	"aulaquiz/internal/store"
)

// Coordinator sentinel errors.
var (
	ErrGameNotActive     = errors.New("game: no active game")
	ErrSubmissionPending = errors.New("game: previous submission still in flight")
	ErrAlreadyFinished   = errors.New("game: session already finished")
	ErrStaleQuestion     = errors.New("game: answer targets a stale question")
	ErrPlayerRemoved     = errors.New("game: player was removed")
)

// quizLookup is the slice of the catalog the coordinator needs.
type quizLookup interface {
	GetQuiz(ctx context.Context, id uuid.UUID) (catalog.Quiz, error)
}

// Coordinator drives a student's whole game: joining, the answer loop and
// completion. All game state lives in the document store; the coordinator
// holds only the per-player submission guards.
type Coordinator struct {
	store   *store.Store
	quizzes quizLookup
	engine  *scoring.Engine
	metrics *Metrics
	logger  zerolog.Logger

	inFlight sync.Map // studentID -> *atomic.Bool
}

func NewCoordinator(st *store.Store, quizzes quizLookup, engine *scoring.Engine, metrics *Metrics, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		store:   st,
		quizzes: quizzes,
		engine:  engine,
		metrics: metrics,
		logger:  logger.With().Str("component", "coordinator").Logger(),
	}
}

// Game describes the running game a player is attached to.
type Game struct {
	Code  string
	Mode  Mode
	Quiz  catalog.Quiz
	Total int
}

// JoinResult is what a student gets back from joining.
type JoinResult struct {
	Game    Game
	Resumed bool
}

// ActiveGame resolves the currently active game, loading its quiz through
// the catalog cache.
func (c *Coordinator) ActiveGame(ctx context.Context) (Game, error) {
	st, ok, err := c.store.QuizState().Get(ctx, store.SlotActive)
	if err != nil {
		return Game{}, err
	}
	if !ok || !st.IsActive {
		return Game{}, ErrGameNotActive
	}

	quizID, err := uuid.Parse(st.QuizID)
	if err != nil {
		return Game{}, fmt.Errorf("active game has bad quiz id %q: %w", st.QuizID, err)
	}
	quiz, err := c.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return Game{}, err
	}
	mode, err := ParseMode(st.GameMode)
	if err != nil {
		return Game{}, err
	}

	return Game{Code: st.Code, Mode: mode, Quiz: quiz, Total: len(quiz.Questions)}, nil
}

// Join attaches a student to the active game. A student who already has a
// session for this code resumes it in place, keeping hearts, score and
// progress from before the reconnect.
func (c *Coordinator) Join(ctx context.Context, code, studentID, name, playerEmoji string) (JoinResult, error) {
	g, err := c.ActiveGame(ctx)
	if err != nil {
		return JoinResult{}, err
	}
	if g.Code != code {
		return JoinResult{}, ErrGameNotActive
	}

	_, exists, err := c.store.Sessions().Get(ctx, code, studentID)
	if err != nil {
		return JoinResult{}, err
	}
	if exists {
		// Display fields may have changed since the first join; progress,
		// hearts and score stay untouched.
		err := c.store.Rankings().Update(ctx, code, studentID, func(r store.StudentRanking) (store.StudentRanking, error) {
			r.Name = name
			r.PlayerEmoji = playerEmoji
			return r, nil
		})
		if err != nil && !errors.Is(err, store.ErrRankingNotFound) {
			return JoinResult{}, err
		}
		c.logger.Info().Str("code", code).Str("student_id", studentID).Msg("student resumed")
		return JoinResult{Game: g, Resumed: true}, nil
	}

	if err := c.store.Sessions().Create(ctx, code, studentID, g.Mode.NewSession(g.Total)); err != nil {
		return JoinResult{}, err
	}
	if err := c.store.Rankings().Create(ctx, code, store.StudentRanking{
		StudentID:   studentID,
		Name:        name,
		PlayerEmoji: playerEmoji,
		Hearts:      c.engine.StartingHearts(),
	}); err != nil {
		return JoinResult{}, err
	}

	c.metrics.PlayerJoined(g.Mode.ID())
	c.logger.Info().Str("code", code).Str("student_id", studentID).Str("name", name).Msg("student joined")
	return JoinResult{Game: g}, nil
}

// View is the player's current position in the game.
type View struct {
	Finished      bool
	QuestionIndex int
	Question      catalog.Question
	Hearts        int
	HeartsLevel   int
	Score         int
	ProgressCount int
}

// CurrentView reads the player's session and ranking and resolves the
// question they face. ErrPlayerRemoved means the admin deleted the player.
func (c *Coordinator) CurrentView(ctx context.Context, g Game, studentID string) (View, error) {
	sess, ok, err := c.store.Sessions().Get(ctx, g.Code, studentID)
	if err != nil {
		return View{}, err
	}
	if !ok {
		return View{}, ErrPlayerRemoved
	}
	r, ok, err := c.store.Rankings().Get(ctx, g.Code, studentID)
	if err != nil {
		return View{}, err
	}
	if !ok {
		return View{}, ErrPlayerRemoved
	}

	v := View{
		Hearts:        r.Hearts,
		HeartsLevel:   c.engine.Level(r.Hearts),
		Score:         r.Score,
		ProgressCount: r.ProgressCount,
	}
	idx, ok := g.Mode.Current(sess, g.Total)
	if !ok {
		v.Finished = true
		return v, nil
	}
	v.QuestionIndex = idx
	v.Question = g.Quiz.Questions[idx]
	return v, nil
}

// Answer is a processed submission.
type Answer struct {
	Result    AnswerResult
	Finished  bool
	Penalized bool
}

// SubmitAnswer checks a selected option against the current question and
// applies the outcome. Only one submission per player may be in flight; a
// second call while the first runs fails with ErrSubmissionPending instead
// of double-charging hearts. The game is re-validated against the active
// slot so answers against a stopped game bounce with ErrGameNotActive.
func (c *Coordinator) SubmitAnswer(ctx context.Context, g Game, studentID string, questionIndex, selectedOption int) (Answer, error) {
	release, err := c.acquire(studentID)
	if err != nil {
		return Answer{}, err
	}
	defer release()

	if err := c.requireActive(ctx, g.Code); err != nil {
		return Answer{}, err
	}

	sess, ok, err := c.store.Sessions().Get(ctx, g.Code, studentID)
	if err != nil {
		return Answer{}, err
	}
	if !ok {
		return Answer{}, ErrPlayerRemoved
	}
	current, ok := g.Mode.Current(sess, g.Total)
	if !ok {
		return Answer{}, ErrAlreadyFinished
	}
	if current != questionIndex {
		return Answer{}, ErrStaleQuestion
	}

	correct := selectedOption == g.Quiz.Questions[current].Answer
	return c.applyAnswer(ctx, g, studentID, correct, false)
}

// ForceIncorrect charges the player a wrong answer on their current question
// regardless of what they would have picked. This is the anti-cheat penalty
// path; it runs through the same guard and the same state transitions as a
// real submission.
func (c *Coordinator) ForceIncorrect(ctx context.Context, g Game, studentID string) (Answer, error) {
	release, err := c.acquire(studentID)
	if err != nil {
		return Answer{}, err
	}
	defer release()

	if err := c.requireActive(ctx, g.Code); err != nil {
		return Answer{}, err
	}

	sess, ok, err := c.store.Sessions().Get(ctx, g.Code, studentID)
	if err != nil {
		return Answer{}, err
	}
	if !ok {
		return Answer{}, ErrPlayerRemoved
	}
	if _, ok := g.Mode.Current(sess, g.Total); !ok {
		return Answer{}, ErrAlreadyFinished
	}

	c.metrics.PenaltyApplied(g.Mode.ID())
	ans, err := c.applyAnswer(ctx, g, studentID, false, true)
	if err != nil {
		return Answer{}, err
	}
	c.logger.Warn().Str("code", g.Code).Str("student_id", studentID).Msg("cheat penalty applied")
	return ans, nil
}

// applyAnswer folds one answer into the ranking and session documents. The
// ranking update runs in an optimistic transaction so concurrent watchers
// never see a torn score; mastery completion stamps the end time inside the
// same write that reaches full progress.
func (c *Coordinator) applyAnswer(ctx context.Context, g Game, studentID string, correct, penalized bool) (Answer, error) {
	var res AnswerResult
	var completedNow bool

	err := c.store.Rankings().Update(ctx, g.Code, studentID, func(r store.StudentRanking) (store.StudentRanking, error) {
		if g.Total > 0 && r.ProgressCount >= g.Total && g.Mode.ID() == ModeMastery {
			return r, ErrAlreadyFinished
		}
		next, result := g.Mode.ApplyAnswer(r, correct, c.engine)
		res = result
		if g.Mode.ID() == ModeMastery && next.ProgressCount >= g.Total && next.EndTime == nil {
			now := c.store.Now()
			next.EndTime = &now
			next.Status = store.StatusCompleted
			completedNow = true
		}
		return next, nil
	})
	if err != nil {
		if errors.Is(err, store.ErrRankingNotFound) {
			return Answer{}, ErrPlayerRemoved
		}
		return Answer{}, err
	}

	var finished bool
	err = c.store.Sessions().Update(ctx, g.Code, studentID, func(sess store.Session) (store.Session, error) {
		sess = g.Mode.Advance(sess, correct)
		finished = g.Mode.Finished(sess, g.Total)
		return sess, nil
	})
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return Answer{}, ErrPlayerRemoved
		}
		return Answer{}, err
	}

	if finished && !completedNow {
		if err := c.store.Rankings().MarkCompleted(ctx, g.Code, studentID); err != nil {
			return Answer{}, err
		}
	}

	c.metrics.AnswerProcessed(g.Mode.ID(), correct)
	return Answer{Result: res, Finished: finished, Penalized: penalized}, nil
}

// Podium returns the game's scoreboard in final order.
func (c *Coordinator) Podium(ctx context.Context, g Game) ([]store.StudentRanking, error) {
	entries, err := c.store.Rankings().ListByCode(ctx, g.Code)
	if err != nil {
		return nil, err
	}
	g.Mode.Sort(entries, g.Total)
	return entries, nil
}

// WatchSession follows the player's session document; cb fires on the
// initial state and every subsequent change, including the deletion that an
// admin removal produces.
func (c *Coordinator) WatchSession(ctx context.Context, code, studentID string, cb func()) func() {
	return c.store.Sessions().Watch(ctx, code, studentID, cb)
}

// WatchGameEnd follows the quiz state document and fires cb exactly once,
// when the game under code is no longer the active one. Players use it to
// fall through to the final podium when the admin stops the game.
func (c *Coordinator) WatchGameEnd(ctx context.Context, code string, cb func()) func() {
	var fired bool
	return c.store.QuizState().Watch(ctx, func(st store.QuizState, ok bool) {
		if fired {
			return
		}
		if ok && st.IsActive && st.Code == code {
			return
		}
		fired = true
		cb()
	})
}

// requireActive confirms code still names the active game.
func (c *Coordinator) requireActive(ctx context.Context, code string) error {
	st, ok, err := c.store.QuizState().Get(ctx, store.SlotActive)
	if err != nil {
		return err
	}
	if !ok || !st.IsActive || st.Code != code {
		return ErrGameNotActive
	}
	return nil
}

// acquire takes the player's submission slot. The returned release must be
// called once processing ends.
func (c *Coordinator) acquire(studentID string) (func(), error) {
	v, _ := c.inFlight.LoadOrStore(studentID, new(atomic.Bool))
	flag := v.(*atomic.Bool)
	if !flag.CompareAndSwap(false, true) {
		return nil, ErrSubmissionPending
	}
	return func() { flag.Store(false) }, nil
}
