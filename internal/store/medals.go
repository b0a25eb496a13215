package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

func medalsKey(uid string) string {
	return "medals:" + uid
}

// Medal is a podium finish recorded against a signed-in student's stable
// identity. Guests are never awarded medals.
type Medal struct {
	Emoji     string    `json:"emoji"`
	QuizTitle string    `json:"quiz_title"`
	Rank      int       `json:"rank"`
	Date      time.Time `json:"date"`
}

// MedalStore manages per-user medal collections.
type MedalStore struct {
	s *Store
}

// Medals returns the medal accessor.
func (s *Store) Medals() *MedalStore {
	return &MedalStore{s: s}
}

// Append records a medal at the end of the user's collection.
func (ms *MedalStore) Append(ctx context.Context, uid string, m Medal) error {
	if m.Date.IsZero() {
		m.Date = ms.s.Now()
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal medal: %w", err)
	}
	if err := ms.s.rdb.RPush(ctx, medalsKey(uid), data).Err(); err != nil {
		return fmt.Errorf("append medal %s: %w", uid, err)
	}
	return nil
}

// List returns the user's medals, newest first.
func (ms *MedalStore) List(ctx context.Context, uid string) ([]Medal, error) {
	raw, err := ms.s.rdb.LRange(ctx, medalsKey(uid), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list medals %s: %w", uid, err)
	}

	out := make([]Medal, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var m Medal
		if err := json.Unmarshal([]byte(raw[i]), &m); err != nil {
			ms.s.logger.Warn().Err(err).Str("uid", uid).Msg("skipping unreadable medal entry")
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
