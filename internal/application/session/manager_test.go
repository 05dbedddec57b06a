package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestStartTouchEnd(t *testing.T) {
	m := NewManager(time.Hour)
	defer m.Close()

	var mu sync.Mutex
	var events []EventType
	m.Subscribe(func(ev Event) {
		mu.Lock()
		events = append(events, ev.Type)
		mu.Unlock()
	})

	user := uuid.New()
	id, err := m.Start(user)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got, ok := m.UserID(id); !ok || got != user {
		t.Fatalf("expected session owned by %s", user)
	}
	if err := m.Touch(id); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	if err := m.End(id); err != nil {
		t.Fatalf("End: %v", err)
	}
	if m.Active(id) {
		t.Fatal("session should be gone after End")
	}
	if err := m.Touch(id); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 || events[0] != EventStarted || events[1] != EventEnded {
		t.Fatalf("unexpected events: %v", events)
	}
}

func TestIdleExpiry(t *testing.T) {
	m := NewManager(20 * time.Millisecond)
	defer m.Close()

	expired := make(chan Event, 1)
	m.Subscribe(func(ev Event) {
		if ev.Type == EventExpired {
			expired <- ev
		}
	})

	id, _ := m.Start(uuid.New())

	select {
	case ev := <-expired:
		if ev.SessionID != id {
			t.Fatalf("expired wrong session: %s", ev.SessionID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("session did not expire")
	}

	if m.Active(id) {
		t.Fatal("expired session should not be active")
	}
}

func TestUnsubscribe(t *testing.T) {
	m := NewManager(0)
	defer m.Close()

	calls := 0
	unsubscribe := m.Subscribe(func(Event) { calls++ })
	unsubscribe()

	if _, err := m.Start(uuid.New()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if calls != 0 {
		t.Fatalf("listener called %d times after unsubscribe", calls)
	}
}

func TestCloseRejectsNewSessions(t *testing.T) {
	m := NewManager(time.Minute)
	id, _ := m.Start(uuid.New())
	m.Close()

	if m.Active(id) {
		t.Fatal("Close should end every session")
	}
	if _, err := m.Start(uuid.New()); !errors.Is(err, ErrManagerClosed) {
		t.Fatalf("expected ErrManagerClosed, got %v", err)
	}
}

func TestStaleTimerDoesNotExpireTouchedSession(t *testing.T) {
	m := NewManager(time.Hour)
	defer m.Close()

	expired := make(chan struct{}, 1)
	m.Subscribe(func(ev Event) {
		if ev.Type == EventExpired {
			expired <- struct{}{}
		}
	})

	id, _ := m.Start(uuid.New())
	m.mu.Lock()
	stale := m.sessions[id].gen
	m.mu.Unlock()

	if err := m.Touch(id); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	// a timer that fired before the touch runs with the old generation
	m.expire(id, stale)

	if !m.Active(id) {
		t.Fatal("touched session was expired by a stale timer")
	}
	select {
	case <-expired:
		t.Fatal("unexpected expired event")
	default:
	}

	m.mu.Lock()
	current := m.sessions[id].gen
	m.mu.Unlock()
	m.expire(id, current)
	if m.Active(id) {
		t.Fatal("current timer should expire the session")
	}
}
