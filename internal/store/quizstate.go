package store

import (
	"context"
	"encoding/json"
)

// Slots for the singleton quiz state document. The active slot drives joining
// and play; the last slot remembers the most recent game so late podium views
// keep working after the admin stops the quiz.
const (
	SlotActive = "active"
	SlotLast   = "last"
)

const quizStateChannel = "docs:quizstate"

func quizStateKey(slot string) string {
	return "quizstate:" + slot
}

// QuizState is the global document every student client observes to learn
// whether a game is running and which one.
type QuizState struct {
	IsActive  bool   `json:"is_active"`
	Code      string `json:"code,omitempty"`
	QuizID    string `json:"quiz_id,omitempty"`
	QuizTitle string `json:"quiz_title,omitempty"`
	GameMode  string `json:"game_mode,omitempty"`
}

// QuizStateStore manages the active/last quiz state documents.
type QuizStateStore struct {
	s *Store
}

// QuizState returns the quiz state document accessor.
func (s *Store) QuizState() *QuizStateStore {
	return &QuizStateStore{s: s}
}

// Get reads the state document in the given slot. The second return is false
// when the slot has never been written.
func (q *QuizStateStore) Get(ctx context.Context, slot string) (QuizState, bool, error) {
	var st QuizState
	ok, err := q.s.getJSON(ctx, quizStateKey(slot), &st)
	return st, ok, err
}

// Set writes the state document in the given slot and notifies watchers.
func (q *QuizStateStore) Set(ctx context.Context, slot string, st QuizState) error {
	if err := q.s.setJSON(ctx, quizStateKey(slot), st); err != nil {
		return err
	}
	q.s.publish(ctx, quizStateChannel, slot)
	return nil
}

// SetBoth writes the active and last slots in one atomic batch. Stopping a
// quiz archives the closing game into the last slot while deactivating the
// active one, and watchers must never observe the intermediate state.
func (q *QuizStateStore) SetBoth(ctx context.Context, active, last QuizState) error {
	activeData, err := json.Marshal(active)
	if err != nil {
		return err
	}
	lastData, err := json.Marshal(last)
	if err != nil {
		return err
	}

	pipe := q.s.rdb.TxPipeline()
	pipe.Set(ctx, quizStateKey(SlotActive), activeData, 0)
	pipe.Set(ctx, quizStateKey(SlotLast), lastData, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	q.s.publish(ctx, quizStateChannel, SlotActive)
	return nil
}

// Watch invokes cb with the active-slot document immediately and after every
// quiz state change. The returned func cancels the watch.
func (q *QuizStateStore) Watch(ctx context.Context, cb func(QuizState, bool)) func() {
	return q.s.subscribe(ctx, quizStateChannel, func(ctx context.Context, _ string) {
		st, ok, err := q.Get(ctx, SlotActive)
		if err != nil {
			q.s.logger.Error().Err(err).Msg("quiz state watch fetch failed")
			return
		}
		cb(st, ok)
	})
}
