package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Ranking status values.
const (
	StatusPlaying   = "playing"
	StatusCompleted = "completed"
)

// ErrRankingNotFound is returned by Update when the ranking document does
// not exist.
var ErrRankingNotFound = errors.New("store: ranking not found")

func rankingKey(code, studentID string) string {
	return "ranking:" + code + ":" + studentID
}

func rankingIndexKey(code string) string {
	return "ranking:" + code + ":ids"
}

func rankingChannel(code string) string {
	return "docs:ranking:" + code
}

// StudentRanking is a student's public scoreboard document for one game.
type StudentRanking struct {
	StudentID     string     `json:"student_id"`
	Name          string     `json:"name"`
	PlayerEmoji   string     `json:"player_emoji,omitempty"`
	Status        string     `json:"status"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	Score         int        `json:"score"`
	Hearts        int        `json:"hearts"`
	Correct       int        `json:"correct"`
	Incorrect     int        `json:"incorrect"`
	ProgressCount int        `json:"progress_count"`
}

// Elapsed returns the start-to-end duration. The second return is false for
// players still in flight; sorts treat those as slower than any finisher.
func (r StudentRanking) Elapsed() (time.Duration, bool) {
	if r.EndTime == nil {
		return 0, false
	}
	return r.EndTime.Sub(r.StartTime), true
}

// Finished reports whether the player has an end time recorded.
func (r StudentRanking) Finished() bool {
	return r.EndTime != nil
}

// RankingStore manages per-student ranking documents and the per-code index
// that makes listing a game's scoreboard cheap.
type RankingStore struct {
	s *Store
}

// Rankings returns the ranking document accessor.
func (s *Store) Rankings() *RankingStore {
	return &RankingStore{s: s}
}

// Get reads one student's ranking document.
func (rs *RankingStore) Get(ctx context.Context, code, studentID string) (StudentRanking, bool, error) {
	var r StudentRanking
	ok, err := rs.s.getJSON(ctx, rankingKey(code, studentID), &r)
	return r, ok, err
}

// Create writes a fresh ranking document, stamps its start time, registers it
// in the per-code index and notifies watchers.
func (rs *RankingStore) Create(ctx context.Context, code string, r StudentRanking) error {
	if r.StartTime.IsZero() {
		r.StartTime = rs.s.Now()
	}
	if r.Status == "" {
		r.Status = StatusPlaying
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal ranking: %w", err)
	}

	pipe := rs.s.rdb.TxPipeline()
	pipe.Set(ctx, rankingKey(code, r.StudentID), data, 0)
	pipe.SAdd(ctx, rankingIndexKey(code), r.StudentID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create ranking %s/%s: %w", code, r.StudentID, err)
	}

	rs.s.publish(ctx, rankingChannel(code), r.StudentID)
	return nil
}

// Update applies fn to the ranking document inside an optimistic transaction.
func (rs *RankingStore) Update(ctx context.Context, code, studentID string, fn func(StudentRanking) (StudentRanking, error)) error {
	key := rankingKey(code, studentID)
	err := rs.s.updateJSON(ctx, key, func(raw []byte) (interface{}, error) {
		if raw == nil {
			return nil, ErrRankingNotFound
		}
		var r StudentRanking
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", key, err)
		}
		next, err := fn(r)
		if err != nil {
			return nil, err
		}
		return next, nil
	})
	if err != nil {
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}
	rs.s.publish(ctx, rankingChannel(code), studentID)
	return nil
}

// MarkCompleted stamps the end time and completed status exactly once. A
// second call for the same player is a no-op, so racing finish paths (last
// answer vs. completion watcher) cannot skew the elapsed time.
func (rs *RankingStore) MarkCompleted(ctx context.Context, code, studentID string) error {
	return rs.Update(ctx, code, studentID, func(r StudentRanking) (StudentRanking, error) {
		if r.EndTime != nil {
			return r, errUnchanged
		}
		now := rs.s.Now()
		r.EndTime = &now
		r.Status = StatusCompleted
		return r, nil
	})
}

// ListByCode returns all ranking documents for a game in index order.
// Documents that went missing between the index read and the fetch are
// skipped rather than failing the whole listing.
func (rs *RankingStore) ListByCode(ctx context.Context, code string) ([]StudentRanking, error) {
	ids, err := rs.s.rdb.SMembers(ctx, rankingIndexKey(code)).Result()
	if err != nil {
		return nil, fmt.Errorf("list rankings %s: %w", code, err)
	}

	out := make([]StudentRanking, 0, len(ids))
	for _, id := range ids {
		r, ok, err := rs.Get(ctx, code, id)
		if err != nil {
			rs.s.logger.Warn().Err(err).Str("code", code).Str("student_id", id).Msg("skipping unreadable ranking document")
			continue
		}
		if !ok {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Watch invokes cb with the full ranking list immediately and after every
// change to any document under this code. The returned func cancels the
// watch.
func (rs *RankingStore) Watch(ctx context.Context, code string, cb func([]StudentRanking)) func() {
	return rs.s.subscribe(ctx, rankingChannel(code), func(ctx context.Context, _ string) {
		list, err := rs.ListByCode(ctx, code)
		if err != nil {
			rs.s.logger.Error().Err(err).Str("code", code).Msg("ranking watch fetch failed")
			return
		}
		cb(list)
	})
}
