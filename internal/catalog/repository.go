package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists quizzes in Postgres. Question bodies are stored as a
// JSONB column; the catalog is small and read-mostly, so no per-question
// table is needed.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new quiz and returns it with its generated id and
// creation timestamp.
func (r *Repository) Create(ctx context.Context, title string, questions []Question) (Quiz, error) {
	data, err := json.Marshal(questions)
	if err != nil {
		return Quiz{}, fmt.Errorf("marshal questions: %w", err)
	}

	q := Quiz{ID: uuid.New(), Title: title, Questions: questions}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO quizzes (id, title, questions) VALUES ($1, $2, $3) RETURNING created_at`,
		q.ID, q.Title, data,
	)
	if err := row.Scan(&q.CreatedAt); err != nil {
		return Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}
	return q, nil
}

// GetByID fetches a full quiz including question bodies.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Quiz, error) {
	var (
		q    Quiz
		data []byte
	)
	row := r.pool.QueryRow(ctx,
		`SELECT id, title, questions, created_at FROM quizzes WHERE id = $1`, id)
	if err := row.Scan(&q.ID, &q.Title, &data, &q.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quiz{}, ErrQuizNotFound
		}
		return Quiz{}, fmt.Errorf("select quiz: %w", err)
	}
	if err := json.Unmarshal(data, &q.Questions); err != nil {
		return Quiz{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	return q, nil
}

// List returns quiz summaries, newest first.
func (r *Repository) List(ctx context.Context) ([]Summary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, jsonb_array_length(questions), created_at
		 FROM quizzes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Title, &s.QuestionCount, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quiz summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a quiz. Deleting an unknown id returns ErrQuizNotFound.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrQuizNotFound
	}
	return nil
}
