package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuestions() []Question {
	return []Question{
		{Text: "2 + 2 = ?", Options: []string{"3", "4", "5", "22"}, Answer: 1},
		{Text: "3 * 3 = ?", Options: []string{"6", "9", "12", "33"}, Answer: 1},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		questions []Question
		wantErr   error
	}{
		{"valid", "Arithmetic", validQuestions(), nil},
		{"empty title", "  ", validQuestions(), ErrEmptyTitle},
		{"no questions", "Arithmetic", nil, ErrNoQuestions},
		{
			"wrong option count", "Arithmetic",
			[]Question{{Text: "q", Options: []string{"a", "b"}, Answer: 0}},
			ErrInvalidQuestion,
		},
		{
			"empty option", "Arithmetic",
			[]Question{{Text: "q", Options: []string{"a", "", "c", "d"}, Answer: 0}},
			ErrInvalidQuestion,
		},
		{
			"answer out of range", "Arithmetic",
			[]Question{{Text: "q", Options: []string{"a", "b", "c", "d"}, Answer: 4}},
			ErrInvalidQuestion,
		},
		{
			"negative answer", "Arithmetic",
			[]Question{{Text: "q", Options: []string{"a", "b", "c", "d"}, Answer: -1}},
			ErrInvalidQuestion,
		},
		{
			"blank text", "Arithmetic",
			[]Question{{Text: " ", Options: []string{"a", "b", "c", "d"}, Answer: 0}},
			ErrInvalidQuestion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.title, tt.questions)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

// fakeStore is an in-memory quizStore for exercising the service without
// Postgres.
type fakeStore struct {
	quizzes map[uuid.UUID]Quiz
	gets    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{quizzes: make(map[uuid.UUID]Quiz)}
}

func (f *fakeStore) Create(_ context.Context, title string, questions []Question) (Quiz, error) {
	q := Quiz{ID: uuid.New(), Title: title, Questions: questions, CreatedAt: time.Now().UTC()}
	f.quizzes[q.ID] = q
	return q, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (Quiz, error) {
	f.gets++
	q, ok := f.quizzes[id]
	if !ok {
		return Quiz{}, ErrQuizNotFound
	}
	return q, nil
}

func (f *fakeStore) List(_ context.Context) ([]Summary, error) {
	out := make([]Summary, 0, len(f.quizzes))
	for _, q := range f.quizzes {
		out = append(out, Summary{ID: q.ID, Title: q.Title, QuestionCount: len(q.Questions), CreatedAt: q.CreatedAt})
	}
	return out, nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.quizzes[id]; !ok {
		return ErrQuizNotFound
	}
	delete(f.quizzes, id)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := newFakeStore()
	return NewService(store, NewCache(rdb, time.Minute), zerolog.Nop()), store
}

func TestServiceCreateRejectsInvalid(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateQuiz(context.Background(), "", validQuestions())
	assert.ErrorIs(t, err, ErrEmptyTitle)
}

func TestServiceGetQuizReadThrough(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateQuiz(ctx, "Arithmetic", validQuestions())
	require.NoError(t, err)

	first, err := svc.GetQuiz(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, first.ID)
	assert.Equal(t, 1, store.gets)

	// Second read must come from the cache.
	second, err := svc.GetQuiz(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, second.Title)
	assert.Len(t, second.Questions, 2)
	assert.Equal(t, 1, store.gets)
}

func TestServiceDeleteInvalidatesCache(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateQuiz(ctx, "Arithmetic", validQuestions())
	require.NoError(t, err)

	_, err = svc.GetQuiz(ctx, created.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteQuiz(ctx, created.ID))

	_, err = svc.GetQuiz(ctx, created.ID)
	assert.ErrorIs(t, err, ErrQuizNotFound)
}

func TestServiceGetQuizUnknown(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetQuiz(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrQuizNotFound)
}
