package calculator

import (
	"errors"
	"testing"
	"time"

	"countonme/internal/expression"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore(ttl time.Duration, maxSessions int) (*Store, *fakeClock, *[]int) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	var counts []int
	s := NewStore(ttl, maxSessions)
	s.now = clock.Now
	s.onChange = func(active int) { counts = append(counts, active) }
	return s, clock, &counts
}

func TestStoreCreateGetDelete(t *testing.T) {
	s, _, counts := newTestStore(time.Minute, 10)

	sess, err := s.Create(expression.DefaultConfig())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("expected a session ID")
	}

	got, err := s.Get(sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != sess {
		t.Fatal("expected the same session back")
	}

	if err := s.Delete(sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}
	if err := s.Delete(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second delete, got %v", err)
	}

	if want := []int{1, 0}; !equalInts(*counts, want) {
		t.Fatalf("expected active counts %v, got %v", want, *counts)
	}
}

func TestStoreRejectsInvalidConfig(t *testing.T) {
	s, _, _ := newTestStore(time.Minute, 10)

	_, err := s.Create(expression.Config{Precision: -1, MaxWholeDigits: 15})
	if !errors.Is(err, expression.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected no session, got %d", s.Len())
	}
}

func TestStoreLimit(t *testing.T) {
	s, clock, _ := newTestStore(time.Minute, 2)

	for i := 0; i < 2; i++ {
		if _, err := s.Create(expression.DefaultConfig()); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	if _, err := s.Create(expression.DefaultConfig()); !errors.Is(err, ErrTooManySessions) {
		t.Fatalf("expected ErrTooManySessions, got %v", err)
	}

	// Expired sessions free their slot.
	clock.Advance(2 * time.Minute)
	if _, err := s.Create(expression.DefaultConfig()); err != nil {
		t.Fatalf("create after expiry: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 live session, got %d", s.Len())
	}
}

func TestStoreExpiry(t *testing.T) {
	s, clock, _ := newTestStore(time.Minute, 10)

	sess, err := s.Create(expression.DefaultConfig())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Use refreshes the idle timer.
	clock.Advance(50 * time.Second)
	if _, err := s.Get(sess.ID); err != nil {
		t.Fatalf("get before expiry: %v", err)
	}
	clock.Advance(50 * time.Second)
	if _, err := s.Get(sess.ID); err != nil {
		t.Fatalf("get after refresh: %v", err)
	}

	clock.Advance(61 * time.Second)
	if _, err := s.Get(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
}

func TestStorePrune(t *testing.T) {
	s, clock, _ := newTestStore(time.Minute, 10)

	old, _ := s.Create(expression.DefaultConfig())
	clock.Advance(45 * time.Second)
	fresh, _ := s.Create(expression.DefaultConfig())
	clock.Advance(30 * time.Second)

	if removed := s.Prune(); removed != 1 {
		t.Fatalf("expected 1 pruned session, got %d", removed)
	}
	if _, err := s.Get(old.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected old session pruned, got %v", err)
	}
	if _, err := s.Get(fresh.ID); err != nil {
		t.Fatalf("expected fresh session kept: %v", err)
	}
}

func TestSessionDoRecordsOnlyCurrentCall(t *testing.T) {
	s, _, _ := newTestStore(time.Minute, 10)
	sess, _ := s.Create(expression.DefaultConfig())

	out := sess.Do(func(e *expression.Engine) bool { return e.AddDigit("4") })
	if !out.Accepted || out.State.Expression != "4" || len(out.Events) != 1 {
		t.Fatalf("unexpected outcome %+v", out)
	}

	out = sess.Do(func(e *expression.Engine) bool { return e.AddOperator(expression.Divide) })
	if !out.Accepted || len(out.Events) != 1 {
		t.Fatalf("expected a single event for the operator, got %+v", out.Events)
	}

	out = sess.Do((*expression.Engine).CalculateExpression)
	if out.Accepted {
		t.Fatal("expected calculate to be rejected")
	}
	kind, ok := lastError(out.Events)
	if !ok || kind != expression.ExpressionCanNotBeCalculated {
		t.Fatalf("expected ExpressionCanNotBeCalculated, got %v (%v)", kind, ok)
	}

	out = sess.Do(nil)
	if !out.Accepted || len(out.Events) != 0 || out.State.Expression != "4 ÷ " {
		t.Fatalf("unexpected snapshot %+v", out)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
