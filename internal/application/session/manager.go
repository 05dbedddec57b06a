// Package session tracks logged-in operator sessions and expires them after a
// period of inactivity. Listeners are told when a session starts, ends or
// expires so per-session state (such as a checkout cart) can be discarded.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnknownSession = errors.New("session not found or expired")
	ErrManagerClosed  = errors.New("session manager is closed")
)

type EventType string

const (
	EventStarted EventType = "started"
	EventEnded   EventType = "ended"
	EventExpired EventType = "expired"
)

type Event struct {
	Type      EventType
	SessionID uuid.UUID
	UserID    uuid.UUID
}

type Listener func(Event)

type entry struct {
	userID uuid.UUID
	timer  *time.Timer
	// gen changes on every touch; a timer only expires its own generation
	gen uint64
}

// Manager owns one idle timer per session. Create it with NewManager and
// stop it with Close.
type Manager struct {
	idle time.Duration

	mu        sync.Mutex
	sessions  map[uuid.UUID]*entry
	listeners map[int]Listener
	nextID    int
	closed    bool
}

// NewManager returns a manager that expires sessions idle for longer than idle.
// A non-positive idle disables expiry.
func NewManager(idle time.Duration) *Manager {
	return &Manager{
		idle:      idle,
		sessions:  make(map[uuid.UUID]*entry),
		listeners: make(map[int]Listener),
	}
}

// Start opens a new session for userID and returns its id.
func (m *Manager) Start(userID uuid.UUID) (uuid.UUID, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return uuid.Nil, ErrManagerClosed
	}

	id := uuid.New()
	e := &entry{userID: userID}
	m.arm(id, e)
	m.sessions[id] = e
	m.mu.Unlock()

	m.emit(Event{Type: EventStarted, SessionID: id, UserID: userID})
	return id, nil
}

// Touch resets the idle timer. It fails for unknown or expired sessions.
func (m *Manager) Touch(sessionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[sessionID]
	if !ok {
		return ErrUnknownSession
	}
	m.arm(sessionID, e)
	return nil
}

// arm starts a fresh idle timer for e. Callers hold m.mu.
func (m *Manager) arm(sessionID uuid.UUID, e *entry) {
	if m.idle <= 0 {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.gen++
	gen := e.gen
	e.timer = time.AfterFunc(m.idle, func() { m.expire(sessionID, gen) })
}

// UserID returns the owner of an active session
func (m *Manager) UserID(sessionID uuid.UUID) (uuid.UUID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[sessionID]
	if !ok {
		return uuid.Nil, false
	}
	return e.userID, true
}

// Active reports whether the session exists and has not expired
func (m *Manager) Active(sessionID uuid.UUID) bool {
	_, ok := m.UserID(sessionID)
	return ok
}

// End closes a session explicitly, as on logout.
func (m *Manager) End(sessionID uuid.UUID) error {
	e, ok := m.remove(sessionID)
	if !ok {
		return ErrUnknownSession
	}
	m.emit(Event{Type: EventEnded, SessionID: sessionID, UserID: e.userID})
	return nil
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Subscribe registers fn for session events. Listeners run synchronously on
// the goroutine that raised the event. The returned func removes the listener.
func (m *Manager) Subscribe(fn Listener) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Close stops every idle timer and ends all sessions.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	ended := make([]Event, 0, len(m.sessions))
	for id, e := range m.sessions {
		if e.timer != nil {
			e.timer.Stop()
		}
		ended = append(ended, Event{Type: EventEnded, SessionID: id, UserID: e.userID})
	}
	m.sessions = make(map[uuid.UUID]*entry)
	m.mu.Unlock()

	for _, ev := range ended {
		m.emit(ev)
	}
}

func (m *Manager) expire(sessionID uuid.UUID, gen uint64) {
	m.mu.Lock()
	e, ok := m.sessions[sessionID]
	if !ok || e.gen != gen {
		// ended, or touched after this timer fired
		m.mu.Unlock()
		return
	}
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	m.emit(Event{Type: EventExpired, SessionID: sessionID, UserID: e.userID})
}

func (m *Manager) remove(sessionID uuid.UUID) (*entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[sessionID]
	if !ok {
		return nil, false
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(m.sessions, sessionID)
	return e, true
}

func (m *Manager) emit(ev Event) {
	m.mu.Lock()
	listeners := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}
