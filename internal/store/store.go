package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Store is the Redis-backed document store the game state lives in. Documents
// are JSON blobs addressed by collection-style keys; every mutation publishes
// a change event so subscribers can re-fetch the current result set, mirroring
// a snapshot-listener contract.
type Store struct {
	rdb    *redis.Client
	logger zerolog.Logger
}

// New creates a document store over the given Redis client.
func New(rdb *redis.Client, logger zerolog.Logger) *Store {
	return &Store{
		rdb:    rdb,
		logger: logger.With().Str("component", "store").Logger(),
	}
}

const maxTxRetries = 5

var (
	// ErrTxConflict is returned when an optimistic transaction keeps losing
	// races beyond the retry budget.
	ErrTxConflict = errors.New("store: transaction conflict")

	// errUnchanged signals an update callback that decided not to write.
	errUnchanged = errors.New("store: document unchanged")
)

// Now returns the server-assigned timestamp used for document fields.
func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) getJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) setJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// updateJSON performs an optimistic read-modify-write on a single document.
// fn receives the raw document (nil when absent) and returns the next value,
// or errUnchanged to skip the write. The WATCH/MULTI/EXEC round is retried on
// conflict, which makes single-document counters (hearts, score, progress)
// safe against concurrent writers.
func (s *Store) updateJSON(ctx context.Context, key string, fn func(raw []byte) (interface{}, error)) error {
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			raw = nil
		} else if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}

		next, err := fn(raw)
		if err != nil {
			return err
		}

		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", key, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if err == redis.TxFailedErr {
			continue
		}
		return err
	}
	return ErrTxConflict
}

// publish emits a change event. Best effort: a lost notification only delays
// a subscriber until the next change, it never loses document state.
func (s *Store) publish(ctx context.Context, channel, event string) {
	if err := s.rdb.Publish(ctx, channel, event).Err(); err != nil {
		s.logger.Warn().Err(err).Str("channel", channel).Msg("publish change event failed")
	}
}

// subscribe delivers once immediately and then on every event published to
// channel. The returned func cancels the subscription; callers must invoke it
// when leaving the corresponding view to avoid leaked handlers.
func (s *Store) subscribe(ctx context.Context, channel string, deliver func(ctx context.Context, event string)) func() {
	subCtx, cancel := context.WithCancel(ctx)
	pubsub := s.rdb.Subscribe(subCtx, channel)

	go func() {
		deliver(subCtx, "")

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				deliver(subCtx, msg.Payload)
			}
		}
	}()

	return func() {
		cancel()
		_ = pubsub.Close()
	}
}

// DeleteStudent removes a student's session and ranking documents in one
// atomic batch and notifies both change feeds. Used by the admin "remove
// student" action; the session watcher on the student side turns the deletion
// into a forced exit.
func (s *Store) DeleteStudent(ctx context.Context, code, studentID string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, sessionKey(code, studentID))
	pipe.Del(ctx, rankingKey(code, studentID))
	pipe.SRem(ctx, rankingIndexKey(code), studentID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete student %s/%s: %w", code, studentID, err)
	}

	s.publish(ctx, sessionChannel(code), studentID)
	s.publish(ctx, rankingChannel(code), studentID)
	return nil
}
