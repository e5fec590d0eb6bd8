package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Rech03/CES-sub001/internal/platform"
)

// Manager owns every live gate and session in the process. A student has at
// most one active session at a time; admitting a new one tears the old one
// down once the replacement has initialized (retake semantics: the old
// answer store is discarded whole).
type Manager struct {
	platformAPI Platform
	cache       *StateCache
	log         zerolog.Logger

	newTicker tickerFactory
	launch    func(fn func())
	now       func() time.Time

	mu       sync.Mutex
	gates    map[uuid.UUID]*Gate
	sessions map[int]*Session
}

// NewManager creates a manager with production timing. cache may be nil,
// which disables reload recovery and the reaper's view of this process.
func NewManager(platformAPI Platform, cache *StateCache, log zerolog.Logger) *Manager {
	return &Manager{
		platformAPI: platformAPI,
		cache:       cache,
		log:         log.With().Str("component", "session_manager").Logger(),
		newTicker:   realTicker,
		launch:      func(fn func()) { go fn() },
		now:         time.Now,
		gates:       make(map[uuid.UUID]*Gate),
		sessions:    make(map[int]*Session),
	}
}

// OpenGate fetches the quiz and builds the pre-session gate. The gate is
// always returned: schedule refusals and fetch failures come back as a gate
// already in its terminal unavailable state, which the browser renders with
// a back action.
func (m *Manager) OpenGate(ctx context.Context, token string, studentID int, quizID string) *Gate {
	var g *Gate

	quiz, err := m.platformAPI.GetQuiz(ctx, token, quizID)
	switch {
	case errors.Is(err, platform.ErrNotFound):
		g = newUnavailableGate(studentID, ReasonNotFound, nil)
	case err != nil:
		m.log.Warn().Err(err).Str("quiz_id", quizID).Msg("Quiz fetch failed at gate")
		g = newUnavailableGate(studentID, ReasonUnreachable, nil)
	default:
		if reason := unavailableReason(quiz, m.now()); reason != "" {
			g = newUnavailableGate(studentID, reason, quiz)
		} else {
			g = newGate(studentID, token, *quiz, m.newTicker)
		}
	}

	m.mu.Lock()
	m.gates[g.ID] = g
	m.mu.Unlock()
	return g
}

// Gate looks up a gate, enforcing ownership.
func (m *Manager) Gate(id uuid.UUID, studentID int) (*Gate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.gates[id]
	if !ok || g.studentID != studentID {
		return nil, false
	}
	return g, true
}

// CloseGate aborts a gate (back-navigation). Nothing exists upstream yet, so
// this discards no server state.
func (m *Manager) CloseGate(id uuid.UUID, studentID int) {
	m.mu.Lock()
	g, ok := m.gates[id]
	if ok && g.studentID == studentID {
		delete(m.gates, id)
	}
	m.mu.Unlock()
	if ok {
		g.Abort()
	}
}

// Admit consumes a ready gate and starts the attempt session. This is the
// only path that creates an Attempt upstream. On AttemptInitFailed the gate
// is already consumed; the student goes back and opens a new one.
func (m *Manager) Admit(ctx context.Context, gateID uuid.UUID, studentID int) (*Session, error) {
	g, ok := m.Gate(gateID, studentID)
	if !ok {
		return nil, ErrGateClosed
	}

	quiz, password, err := g.Admit()
	if err != nil {
		// A not-ready gate stays registered so the client can retry once
		// the countdown finishes.
		if !errors.Is(err, ErrGateNotReady) {
			m.mu.Lock()
			delete(m.gates, gateID)
			m.mu.Unlock()
		}
		return nil, err
	}

	m.mu.Lock()
	delete(m.gates, gateID)
	m.mu.Unlock()

	// The previous session, if any, stays live until the replacement has
	// initialized: a failed start must not destroy the old attempt. The
	// new session's recovery record overwrites the old one wholesale, so
	// the replaced session is torn down without clearing the cache.
	sess, err := startSession(ctx, sessionConfig{
		studentID: studentID,
		token:     g.token,
		quiz:      quiz,
		password:  password,
		platform:  m.platformAPI,
		cache:     m.cache,
		log:       m.log,
		newTicker: m.newTicker,
		launch:    m.launch,
		now:       m.now,
	})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	old := m.sessions[studentID]
	m.sessions[studentID] = sess
	m.mu.Unlock()
	if old != nil {
		old.teardown()
	}
	return sess, nil
}

// SweepGates drops gates older than maxAge that were never admitted or
// aborted, abandoned terminal unavailable gates included. Nothing exists
// upstream for a gate, so sweeping discards no server state; the browser's
// next poll sees a closed gate and reopens.
func (m *Manager) SweepGates(maxAge time.Duration) int {
	cutoff := m.now().Add(-maxAge)

	m.mu.Lock()
	var stale []*Gate
	for id, g := range m.gates {
		if g.created.Before(cutoff) {
			stale = append(stale, g)
			delete(m.gates, id)
		}
	}
	m.mu.Unlock()

	for _, g := range stale {
		g.Abort()
	}
	return len(stale)
}

// Active returns the student's running session.
func (m *Manager) Active(studentID int) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[studentID]
	return sess, ok
}

// HasActive reports whether this process owns a live session for the
// student. The reaper uses it to skip sessions whose own clock will handle
// the deadline.
func (m *Manager) HasActive(studentID int) bool {
	_, ok := m.Active(studentID)
	return ok
}

// Leave tears down the student's session and clears its recovery state. It
// is the navigate-away path: pending timers and publishes are cancelled so
// nothing writes after teardown.
func (m *Manager) Leave(ctx context.Context, studentID int) {
	m.mu.Lock()
	sess, ok := m.sessions[studentID]
	delete(m.sessions, studentID)
	m.mu.Unlock()

	if !ok {
		return
	}
	sess.teardown()
	if m.cache != nil {
		if err := m.cache.Clear(ctx, studentID); err != nil {
			m.log.Warn().Err(err).Int("student_id", studentID).Msg("Failed to clear session cache")
		}
	}
}

// Shutdown tears down everything. Live attempts keep their recovery state so
// the reaper can finish them after their deadline.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	gates := make([]*Gate, 0, len(m.gates))
	for id, g := range m.gates {
		gates = append(gates, g)
		delete(m.gates, id)
	}
	sessions := make([]*Session, 0, len(m.sessions))
	for id, sess := range m.sessions {
		sessions = append(sessions, sess)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, g := range gates {
		g.Abort()
	}
	for _, sess := range sessions {
		sess.teardown()
	}
}
