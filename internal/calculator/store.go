package calculator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"countonme/internal/expression"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrTooManySessions   = errors.New("too many sessions")
	ErrExpressionTooLong = errors.New("expression too long")
)

// Session is one remote keypad: an engine plus the notifications it raised
// during the call in progress.
type Session struct {
	ID      string
	Created time.Time

	mu       sync.Mutex
	engine   *expression.Engine
	recorder *expression.Recorder

	lastUsed time.Time // guarded by Store.mu
}

// Outcome is what a single call on a session produced.
type Outcome struct {
	Accepted bool
	State    expression.State
	Events   []expression.Event
	Config   expression.Config
}

// Do runs fn with exclusive access to the engine. A nil fn only takes a
// snapshot and counts as accepted.
func (s *Session) Do(fn func(e *expression.Engine) bool) Outcome {
	out, _ := s.DoChecked(nil, fn)
	return out
}

// DoChecked is Do with a guard evaluated under the same lock. When check
// fails fn is not run and the error is returned.
func (s *Session) DoChecked(check func(e *expression.Engine) error, fn func(e *expression.Engine) bool) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if check != nil {
		if err := check(s.engine); err != nil {
			return Outcome{}, err
		}
	}

	s.recorder.Reset()
	accepted := true
	if fn != nil {
		accepted = fn(s.engine)
	}

	return Outcome{
		Accepted: accepted,
		State:    s.engine.State(),
		Events:   s.recorder.Events(),
		Config:   s.engine.Config(),
	}, nil
}

// Store keeps sessions in memory. Sessions idle for longer than the TTL are
// dropped lazily and by RunJanitor.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	max      int

	now      func() time.Time
	onChange func(active int)
}

// NewStore returns an empty store whose sessions expire after ttl of
// inactivity, holding at most maxSessions at once.
func NewStore(ttl time.Duration, maxSessions int) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		max:      maxSessions,
		now:      time.Now,
		onChange: func(active int) { sessionsActive.Set(float64(active)) },
	}
}

// Create starts a session with a fresh engine configured by cfg.
func (s *Store) Create(cfg expression.Config) (*Session, error) {
	rec := &expression.Recorder{}
	e, err := expression.New(cfg, rec)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	if len(s.sessions) >= s.max {
		return nil, ErrTooManySessions
	}

	sess := &Session{
		ID:       uuid.NewString(),
		Created:  now,
		engine:   e,
		recorder: rec,
		lastUsed: now,
	}
	s.sessions[sess.ID] = sess
	s.onChange(len(s.sessions))

	return sess, nil
}

// Get returns a live session and marks it as used.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	now := s.now()
	if s.expired(sess, now) {
		delete(s.sessions, id)
		s.onChange(len(s.sessions))
		return nil, ErrSessionNotFound
	}

	sess.lastUsed = now
	return sess, nil
}

// Delete removes a session, or returns ErrSessionNotFound.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	s.onChange(len(s.sessions))
	return nil
}

// Len returns the number of stored sessions, expired ones included until
// they are pruned.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Prune drops expired sessions and returns how many were removed.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneLocked(s.now())
}

// RunJanitor prunes every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Prune()
		}
	}
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	return now.Sub(sess.lastUsed) > s.ttl
}

func (s *Store) pruneLocked(now time.Time) int {
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.onChange(len(s.sessions))
	}
	return removed
}
