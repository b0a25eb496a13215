package game

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aulaquiz/internal/catalog"
	"aulaquiz/internal/game/scoring"
	"aulaquiz/internal/store"
)

type fakeQuizzes struct {
	quizzes map[uuid.UUID]catalog.Quiz
}

func (f *fakeQuizzes) GetQuiz(_ context.Context, id uuid.UUID) (catalog.Quiz, error) {
	q, ok := f.quizzes[id]
	if !ok {
		return catalog.Quiz{}, catalog.ErrQuizNotFound
	}
	return q, nil
}

func testQuiz(n int) catalog.Quiz {
	q := catalog.Quiz{ID: uuid.New(), Title: "Fractions"}
	for i := 0; i < n; i++ {
		q.Questions = append(q.Questions, catalog.Question{
			Text:    fmt.Sprintf("Question %d", i+1),
			Options: []string{"A", "B", "C", "D"},
			Answer:  i % catalog.OptionCount,
		})
	}
	return q
}

type testEnv struct {
	store  *store.Store
	coord  *Coordinator
	admin  *Admin
	lookup *fakeQuizzes
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	st := store.New(rdb, zerolog.Nop())
	lookup := &fakeQuizzes{quizzes: make(map[uuid.UUID]catalog.Quiz)}
	engine := scoring.NewEngine(scoring.DefaultConfig())

	return &testEnv{
		store:  st,
		coord:  NewCoordinator(st, lookup, engine, nil, zerolog.Nop()),
		admin:  NewAdmin(st, lookup, nil, zerolog.Nop()),
		lookup: lookup,
	}
}

// startGame registers a quiz and activates it in the given mode.
func (e *testEnv) startGame(t *testing.T, quiz catalog.Quiz, mode string) Game {
	t.Helper()
	e.lookup.quizzes[quiz.ID] = quiz

	_, err := e.admin.StartQuiz(context.Background(), quiz.ID, mode)
	require.NoError(t, err)

	g, err := e.coord.ActiveGame(context.Background())
	require.NoError(t, err)
	return g
}

func TestJoinRequiresActiveGame(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.coord.Join(context.Background(), "1234", "stu-1", "Ana", "🦊")
	assert.ErrorIs(t, err, ErrGameNotActive)
}

func TestJoinAndResume(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.startGame(t, testQuiz(3), ModeClassic)

	res, err := env.coord.Join(ctx, g.Code, "stu-1", "Ana", "🦊")
	require.NoError(t, err)
	assert.False(t, res.Resumed)

	// Score a correct answer, then rejoin: progress must survive.
	v, err := env.coord.CurrentView(ctx, g, "stu-1")
	require.NoError(t, err)
	_, err = env.coord.SubmitAnswer(ctx, g, "stu-1", v.QuestionIndex, v.Question.Answer)
	require.NoError(t, err)

	res, err = env.coord.Join(ctx, g.Code, "stu-1", "Ana", "🦊")
	require.NoError(t, err)
	assert.True(t, res.Resumed)

	v, err = env.coord.CurrentView(ctx, g, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 1, v.QuestionIndex)
	assert.Equal(t, 4, v.Hearts)
}

func TestClassicFullGame(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := testQuiz(3)
	g := env.startGame(t, quiz, ModeClassic)

	_, err := env.coord.Join(ctx, g.Code, "stu-1", "Ana", "🦊")
	require.NoError(t, err)

	// First correct answer crosses from hearts 3 to 4, tier 1 to 2.
	ans, err := env.coord.SubmitAnswer(ctx, g, "stu-1", 0, quiz.Questions[0].Answer)
	require.NoError(t, err)
	assert.True(t, ans.Result.Correct)
	assert.Equal(t, 1010, ans.Result.Points)
	assert.Equal(t, 4, ans.Result.Hearts)
	assert.False(t, ans.Finished)

	// A wrong answer still advances the question but costs a heart.
	wrong := (quiz.Questions[1].Answer + 1) % catalog.OptionCount
	ans, err = env.coord.SubmitAnswer(ctx, g, "stu-1", 1, wrong)
	require.NoError(t, err)
	assert.False(t, ans.Result.Correct)
	assert.Equal(t, 3, ans.Result.Hearts)

	// Last question finishes the game and stamps completion. Hearts moved
	// 4 -> 3 on the miss, so this answer crosses back into tier 2 and
	// earns the bonus again.
	ans, err = env.coord.SubmitAnswer(ctx, g, "stu-1", 2, quiz.Questions[2].Answer)
	require.NoError(t, err)
	assert.True(t, ans.Finished)

	r, ok, err := env.store.Rankings().Get(ctx, g.Code, "stu-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, store.StatusCompleted, r.Status)
	require.NotNil(t, r.EndTime)
	assert.Equal(t, 2020, r.Score)
	assert.Equal(t, 2, r.Correct)
	assert.Equal(t, 1, r.Incorrect)

	_, err = env.coord.SubmitAnswer(ctx, g, "stu-1", 3, 0)
	assert.ErrorIs(t, err, ErrAlreadyFinished)
}

func TestClassicHeartBreakResets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := testQuiz(5)
	g := env.startGame(t, quiz, ModeClassic)

	_, err := env.coord.Join(ctx, g.Code, "stu-1", "Ana", "🦊")
	require.NoError(t, err)

	// Three straight misses drain the starting hearts to zero, which
	// resets them to three.
	for i := 0; i < 3; i++ {
		wrong := (quiz.Questions[i].Answer + 1) % catalog.OptionCount
		ans, err := env.coord.SubmitAnswer(ctx, g, "stu-1", i, wrong)
		require.NoError(t, err)
		if i < 2 {
			assert.Equal(t, 2-i, ans.Result.Hearts)
		} else {
			assert.True(t, ans.Result.Broke)
			assert.Equal(t, 3, ans.Result.Hearts)
		}
	}
}

func TestSubmitAnswerStaleIndex(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := testQuiz(3)
	g := env.startGame(t, quiz, ModeClassic)

	_, err := env.coord.Join(ctx, g.Code, "stu-1", "Ana", "🦊")
	require.NoError(t, err)

	_, err = env.coord.SubmitAnswer(ctx, g, "stu-1", 2, 0)
	assert.ErrorIs(t, err, ErrStaleQuestion)
}

func TestSubmissionGuard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := testQuiz(3)
	g := env.startGame(t, quiz, ModeClassic)

	_, err := env.coord.Join(ctx, g.Code, "stu-1", "Ana", "🦊")
	require.NoError(t, err)

	release, err := env.coord.acquire("stu-1")
	require.NoError(t, err)

	_, err = env.coord.SubmitAnswer(ctx, g, "stu-1", 0, quiz.Questions[0].Answer)
	assert.ErrorIs(t, err, ErrSubmissionPending)

	_, err = env.coord.ForceIncorrect(ctx, g, "stu-1")
	assert.ErrorIs(t, err, ErrSubmissionPending)

	release()
	_, err = env.coord.SubmitAnswer(ctx, g, "stu-1", 0, quiz.Questions[0].Answer)
	assert.NoError(t, err)
}

func TestMasteryQueueRotation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := testQuiz(3)
	g := env.startGame(t, quiz, ModeMastery)

	_, err := env.coord.Join(ctx, g.Code, "stu-1", "Ana", "🦊")
	require.NoError(t, err)

	// Miss question 0: it rotates to the back and progress stays put.
	wrong := (quiz.Questions[0].Answer + 1) % catalog.OptionCount
	ans, err := env.coord.SubmitAnswer(ctx, g, "stu-1", 0, wrong)
	require.NoError(t, err)
	assert.False(t, ans.Result.Correct)
	assert.False(t, ans.Finished)

	sess, _, err := env.store.Sessions().Get(ctx, g.Code, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 0}, sess.QuestionQueue)

	r, _, err := env.store.Rankings().Get(ctx, g.Code, "stu-1")
	require.NoError(t, err)
	assert.Zero(t, r.ProgressCount)
	assert.Equal(t, 1, r.Incorrect)

	// Queue length plus progress always covers the whole quiz.
	assert.Equal(t, g.Total, len(sess.QuestionQueue)+r.ProgressCount)
}

func TestMasteryCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := testQuiz(3)
	g := env.startGame(t, quiz, ModeMastery)

	_, err := env.coord.Join(ctx, g.Code, "stu-1", "Ana", "🦊")
	require.NoError(t, err)

	for i := 0; i < g.Total; i++ {
		v, err := env.coord.CurrentView(ctx, g, "stu-1")
		require.NoError(t, err)
		require.False(t, v.Finished)

		ans, err := env.coord.SubmitAnswer(ctx, g, "stu-1", v.QuestionIndex, v.Question.Answer)
		require.NoError(t, err)
		assert.Equal(t, i == g.Total-1, ans.Finished)
	}

	r, _, err := env.store.Rankings().Get(ctx, g.Code, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, g.Total, r.ProgressCount)
	assert.Equal(t, store.StatusCompleted, r.Status)
	require.NotNil(t, r.EndTime)

	// Completion is final: further submissions bounce.
	_, err = env.coord.SubmitAnswer(ctx, g, "stu-1", 0, 0)
	assert.ErrorIs(t, err, ErrAlreadyFinished)
}

func TestForceIncorrectPenalty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := testQuiz(3)
	g := env.startGame(t, quiz, ModeClassic)

	_, err := env.coord.Join(ctx, g.Code, "stu-1", "Ana", "🦊")
	require.NoError(t, err)

	ans, err := env.coord.ForceIncorrect(ctx, g, "stu-1")
	require.NoError(t, err)
	assert.True(t, ans.Penalized)
	assert.False(t, ans.Result.Correct)
	assert.Equal(t, 2, ans.Result.Hearts)

	// The penalty consumed the question, exactly like a wrong answer.
	v, err := env.coord.CurrentView(ctx, g, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 1, v.QuestionIndex)

	r, _, err := env.store.Rankings().Get(ctx, g.Code, "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Incorrect)
	assert.Zero(t, r.Score)
}

func TestRemovedPlayer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := testQuiz(3)
	g := env.startGame(t, quiz, ModeClassic)

	_, err := env.coord.Join(ctx, g.Code, "stu-1", "Ana", "🦊")
	require.NoError(t, err)

	require.NoError(t, env.admin.RemoveStudent(ctx, g.Code, "stu-1"))

	_, err = env.coord.CurrentView(ctx, g, "stu-1")
	assert.ErrorIs(t, err, ErrPlayerRemoved)

	_, err = env.coord.SubmitAnswer(ctx, g, "stu-1", 0, 0)
	assert.ErrorIs(t, err, ErrPlayerRemoved)
}

func TestPodiumOrdering(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := testQuiz(2)
	g := env.startGame(t, quiz, ModeClassic)

	for _, id := range []string{"slow", "fast"} {
		_, err := env.coord.Join(ctx, g.Code, id, id, "")
		require.NoError(t, err)
	}

	// fast clears both questions, slow only the first.
	for i := 0; i < 2; i++ {
		_, err := env.coord.SubmitAnswer(ctx, g, "fast", i, quiz.Questions[i].Answer)
		require.NoError(t, err)
	}
	_, err := env.coord.SubmitAnswer(ctx, g, "slow", 0, quiz.Questions[0].Answer)
	require.NoError(t, err)

	podium, err := env.coord.Podium(ctx, g)
	require.NoError(t, err)
	require.Len(t, podium, 2)
	assert.Equal(t, "fast", podium[0].StudentID)
	assert.Equal(t, "slow", podium[1].StudentID)
}

func TestResumeUpdatesDisplayFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.startGame(t, testQuiz(3), ModeClassic)

	_, err := env.coord.Join(ctx, g.Code, "stu-1", "Ana", "🦊")
	require.NoError(t, err)

	_, err = env.coord.SubmitAnswer(ctx, g, "stu-1", 0, g.Quiz.Questions[0].Answer)
	require.NoError(t, err)

	// Rejoining with a fresh name and emoji rewrites only the display
	// fields; the earned score and hearts stay.
	res, err := env.coord.Join(ctx, g.Code, "stu-1", "Ana Maria", "🐼")
	require.NoError(t, err)
	assert.True(t, res.Resumed)

	r, ok, err := env.store.Rankings().Get(ctx, g.Code, "stu-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ana Maria", r.Name)
	assert.Equal(t, "🐼", r.PlayerEmoji)
	assert.Equal(t, 1010, r.Score)
	assert.Equal(t, 4, r.Hearts)
	assert.Equal(t, 1, r.Correct)
}

func TestSubmitAfterStopRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quiz := testQuiz(3)
	g := env.startGame(t, quiz, ModeClassic)

	_, err := env.coord.Join(ctx, g.Code, "stu-1", "Ana", "🦊")
	require.NoError(t, err)

	require.NoError(t, env.admin.StopQuiz(ctx))

	_, err = env.coord.SubmitAnswer(ctx, g, "stu-1", 0, quiz.Questions[0].Answer)
	assert.ErrorIs(t, err, ErrGameNotActive)
	_, err = env.coord.ForceIncorrect(ctx, g, "stu-1")
	assert.ErrorIs(t, err, ErrGameNotActive)

	// Nothing moved on the scoreboard.
	r, ok, err := env.store.Rankings().Get(ctx, g.Code, "stu-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, r.Score)
	assert.Equal(t, 3, r.Hearts)
	assert.Equal(t, 0, r.Incorrect)
}

func TestWatchGameEndFiresOnStop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.startGame(t, testQuiz(3), ModeClassic)

	ended := make(chan struct{}, 4)
	cancel := env.coord.WatchGameEnd(ctx, g.Code, func() {
		ended <- struct{}{}
	})
	defer cancel()

	// Nothing fires while the game is running.
	select {
	case <-ended:
		t.Fatal("game end reported while still active")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, env.admin.StopQuiz(ctx))

	select {
	case <-ended:
	case <-time.After(2 * time.Second):
		t.Fatal("game end never reported after stop")
	}

	// The watch fires once; later state changes stay quiet.
	env.startGame(t, testQuiz(2), ModeClassic)
	select {
	case <-ended:
		t.Fatal("game end reported twice")
	case <-time.After(100 * time.Millisecond):
	}
}
