package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OptionCount is the fixed number of answer options per question.
const OptionCount = 4

// Validation errors surfaced to the authoring endpoints.
var (
	ErrEmptyTitle      = errors.New("catalog: quiz title is empty")
	ErrNoQuestions     = errors.New("catalog: quiz has no questions")
	ErrQuizNotFound    = errors.New("catalog: quiz not found")
	ErrInvalidQuestion = errors.New("catalog: invalid question")
)

// Question is a single multiple-choice question. Answer is the index of the
// correct option and never leaves the server.
type Question struct {
	Text    string   `json:"text"`
	Image   string   `json:"image,omitempty"`
	Options []string `json:"options"`
	Answer  int      `json:"answer"`
}

// Quiz is an authored question set.
type Quiz struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"created_at"`
}

// Summary is the listing view of a quiz, without question bodies.
type Summary struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// Validate checks a quiz before it is stored. Every question needs a prompt,
// exactly four non-empty options and an answer index inside them.
func Validate(title string, questions []Question) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}
	for i, q := range questions {
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("%w: question %d has no text", ErrInvalidQuestion, i)
		}
		if len(q.Options) != OptionCount {
			return fmt.Errorf("%w: question %d has %d options, want %d", ErrInvalidQuestion, i, len(q.Options), OptionCount)
		}
		for j, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return fmt.Errorf("%w: question %d option %d is empty", ErrInvalidQuestion, i, j)
			}
		}
		if q.Answer < 0 || q.Answer >= OptionCount {
			return fmt.Errorf("%w: question %d answer index %d out of range", ErrInvalidQuestion, i, q.Answer)
		}
	}
	return nil
}
