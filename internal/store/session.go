package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned by Update when the session document was
// deleted out from under the player, typically by an admin removal.
var ErrSessionNotFound = errors.New("store: session not found")

func sessionKey(code, studentID string) string {
	return "session:" + code + ":" + studentID
}

func sessionChannel(code string) string {
	return "docs:session:" + code
}

// Session is a student's per-game progress document. Classic games advance
// QuestionIndex sequentially; mastery games pop and rotate QuestionQueue.
type Session struct {
	QuestionIndex int   `json:"question_index"`
	QuestionQueue []int `json:"question_queue,omitempty"`
}

// SessionStore manages per-student session documents.
type SessionStore struct {
	s *Store
}

// Sessions returns the session document accessor.
func (s *Store) Sessions() *SessionStore {
	return &SessionStore{s: s}
}

// Get reads a session document. The second return is false when the student
// has no session for this code.
func (ss *SessionStore) Get(ctx context.Context, code, studentID string) (Session, bool, error) {
	var sess Session
	ok, err := ss.s.getJSON(ctx, sessionKey(code, studentID), &sess)
	return sess, ok, err
}

// Create writes a fresh session document and notifies watchers.
func (ss *SessionStore) Create(ctx context.Context, code, studentID string, sess Session) error {
	if err := ss.s.setJSON(ctx, sessionKey(code, studentID), sess); err != nil {
		return err
	}
	ss.s.publish(ctx, sessionChannel(code), studentID)
	return nil
}

// Update applies fn to the session document inside an optimistic transaction.
// fn sees the current session and returns the next one; concurrent writers
// retry rather than clobber each other's progress.
func (ss *SessionStore) Update(ctx context.Context, code, studentID string, fn func(Session) (Session, error)) error {
	key := sessionKey(code, studentID)
	err := ss.s.updateJSON(ctx, key, func(raw []byte) (interface{}, error) {
		if raw == nil {
			return nil, ErrSessionNotFound
		}
		var sess Session
		if err := json.Unmarshal(raw, &sess); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", key, err)
		}
		next, err := fn(sess)
		if err != nil {
			return nil, err
		}
		return next, nil
	})
	if err != nil {
		return err
	}
	ss.s.publish(ctx, sessionChannel(code), studentID)
	return nil
}

// Watch invokes cb whenever this student's session document changes,
// including an initial delivery. Events for other students on the same code
// are filtered out. The returned func cancels the watch.
func (ss *SessionStore) Watch(ctx context.Context, code, studentID string, cb func()) func() {
	return ss.s.subscribe(ctx, sessionChannel(code), func(ctx context.Context, event string) {
		if event != "" && event != studentID {
			return
		}
		cb()
	})
}
