package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// quizStore is the persistence surface the service needs; satisfied by
// *Repository in production.
type quizStore interface {
	Create(ctx context.Context, title string, questions []Question) (Quiz, error)
	GetByID(ctx context.Context, id uuid.UUID) (Quiz, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// quizCache is the cache surface; satisfied by *Cache.
type quizCache interface {
	Get(ctx context.Context, id uuid.UUID) (*Quiz, error)
	Set(ctx context.Context, q Quiz) error
	Invalidate(ctx context.Context, id uuid.UUID) error
}

// Service is the quiz authoring and lookup facade used by the admin surface
// and the game coordinator.
type Service struct {
	store  quizStore
	cache  quizCache
	logger zerolog.Logger
}

func NewService(store quizStore, cache quizCache, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

// CreateQuiz validates and stores a new quiz.
func (s *Service) CreateQuiz(ctx context.Context, title string, questions []Question) (Quiz, error) {
	if err := Validate(title, questions); err != nil {
		return Quiz{}, err
	}
	q, err := s.store.Create(ctx, title, questions)
	if err != nil {
		return Quiz{}, err
	}
	s.logger.Info().Str("quiz_id", q.ID.String()).Str("title", q.Title).Int("questions", len(q.Questions)).Msg("quiz created")
	return q, nil
}

// GetQuiz returns the full quiz, read through the cache.
func (s *Service) GetQuiz(ctx context.Context, id uuid.UUID) (Quiz, error) {
	if cached, err := s.cache.Get(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("quiz_id", id.String()).Msg("quiz cache read failed")
	} else if cached != nil {
		return *cached, nil
	}

	q, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	if err := s.cache.Set(ctx, q); err != nil {
		s.logger.Warn().Err(err).Str("quiz_id", id.String()).Msg("quiz cache write failed")
	}
	return q, nil
}

// ListQuizzes returns summaries for the admin dashboard.
func (s *Service) ListQuizzes(ctx context.Context) ([]Summary, error) {
	return s.store.List(ctx)
}

// DeleteQuiz removes a quiz and drops its cached copy.
func (s *Service) DeleteQuiz(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("quiz_id", id.String()).Msg("quiz cache invalidation failed")
	}
	s.logger.Info().Str("quiz_id", id.String()).Msg("quiz deleted")
	return nil
}
