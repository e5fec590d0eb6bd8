package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rech03/CES-sub001/internal/model"
)

// countdownSeconds is the fixed visual countdown before a student is
// admitted to the attempt.
const countdownSeconds = 5

// minProvisionalPasswordLen is the advisory length gate for live quizzes
// whose record carries no password of its own. Not a security boundary: the
// platform re-checks on attempt start.
const minProvisionalPasswordLen = 3

// GateState enumerates the pre-session state machine.
type GateState string

const (
	GateStatePasswordRequired GateState = "password_required"
	GateStateCounting         GateState = "counting"
	GateStateReady            GateState = "ready"
	GateStateUnavailable      GateState = "unavailable"
	GateStateClosed           GateState = "closed"
)

// UnavailableReason explains a terminal gate failure.
type UnavailableReason string

const (
	ReasonExpired     UnavailableReason = "expired"
	ReasonNotStarted  UnavailableReason = "not_started"
	ReasonNotFound    UnavailableReason = "not_found"
	ReasonUnreachable UnavailableReason = "unreachable"
)

// Gate runs the pre-session sequence for one student: quiz metadata check,
// optional password step, fixed countdown, then a single admit. No attempt
// exists upstream until admit succeeds, so aborting a gate discards nothing.
type Gate struct {
	ID        uuid.UUID
	studentID int
	token     string
	created   time.Time

	mu        sync.Mutex
	state     GateState
	reason    UnavailableReason
	quiz      model.Quiz
	countdown int
	password  string

	stopTick func()
	closed   chan struct{}

	newTicker tickerFactory
}

// GateView is the polling snapshot the browser renders.
type GateView struct {
	ID        string            `json:"id"`
	State     GateState         `json:"state"`
	Reason    UnavailableReason `json:"reason,omitempty"`
	Quiz      *model.Quiz       `json:"quiz,omitempty"`
	Countdown *int              `json:"countdown,omitempty"`
}

// newGate builds a gate for an enterable quiz. The initial state is the
// password step when the quiz requires one, otherwise counting starts
// immediately.
func newGate(studentID int, token string, quiz model.Quiz, newTicker tickerFactory) *Gate {
	g := &Gate{
		ID:        uuid.New(),
		studentID: studentID,
		token:     token,
		created:   time.Now(),
		quiz:      quiz,
		closed:    make(chan struct{}),
		newTicker: newTicker,
	}

	if quiz.RequiresPassword() {
		g.state = GateStatePasswordRequired
	} else {
		g.startCountingLocked()
	}
	return g
}

// newUnavailableGate builds a gate already in its terminal failure state.
func newUnavailableGate(studentID int, reason UnavailableReason, quiz *model.Quiz) *Gate {
	g := &Gate{
		ID:        uuid.New(),
		studentID: studentID,
		created:   time.Now(),
		state:     GateStateUnavailable,
		reason:    reason,
		closed:    make(chan struct{}),
	}
	if quiz != nil {
		g.quiz = *quiz
	}
	return g
}

// unavailableReason returns the schedule-based refusal for a quiz, or ""
// when the quiz is enterable now. An expired quiz wins over one that has
// also not reached its scheduled start.
func unavailableReason(quiz *model.Quiz, now time.Time) UnavailableReason {
	if quiz.AvailableAt(now) {
		return ""
	}
	if quiz.DueDate != nil && now.After(*quiz.DueDate) && !quiz.IsLive {
		return ReasonExpired
	}
	return ReasonNotStarted
}

// VerifyPassword runs the advisory password check. A quiz that carries its
// own password requires an exact match; a live quiz without one accepts any
// input of at least minProvisionalPasswordLen characters, leaving the real
// decision to the platform at attempt start. Success moves the gate into
// counting; rejection keeps it in the password step.
func (g *Gate) VerifyPassword(input string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case GateStatePasswordRequired:
	case GateStateCounting, GateStateReady:
		return nil // Already verified.
	case GateStateUnavailable:
		return ErrQuizUnavailable
	default:
		return ErrGateClosed
	}

	if g.quiz.Password != "" {
		if input != g.quiz.Password {
			return ErrPasswordRejected
		}
	} else if len(strings.TrimSpace(input)) < minProvisionalPasswordLen {
		return ErrPasswordRejected
	}

	g.password = input
	g.startCountingLocked()
	return nil
}

// startCountingLocked begins the visible 5→0 countdown. No network activity
// happens during this phase.
func (g *Gate) startCountingLocked() {
	g.state = GateStateCounting
	g.countdown = countdownSeconds

	tick, stop := g.newTicker(time.Second)
	g.stopTick = stop

	go func() {
		for {
			select {
			case <-g.closed:
				return
			case <-tick:
				if g.tickDown() {
					return
				}
			}
		}
	}()
}

// tickDown decrements the counter; returns true when ticking should stop.
func (g *Gate) tickDown() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != GateStateCounting {
		return true
	}
	g.countdown--
	if g.countdown <= 0 {
		g.countdown = 0
		g.state = GateStateReady
		g.stopTickLocked()
		return true
	}
	return false
}

// Admit consumes a ready gate, returning the quiz and the verified password
// for the attempt start. This is the only exit into a session; any other
// state is rejected.
func (g *Gate) Admit() (model.Quiz, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case GateStateReady:
	case GateStateUnavailable:
		return model.Quiz{}, "", ErrQuizUnavailable
	case GateStateClosed:
		return model.Quiz{}, "", ErrGateClosed
	default:
		return model.Quiz{}, "", ErrGateNotReady
	}

	g.closeLocked()
	return g.quiz, g.password, nil
}

// Abort tears the gate down (back-navigation). Safe in any state; no server
// state exists to discard.
func (g *Gate) Abort() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closeLocked()
}

func (g *Gate) closeLocked() {
	if g.state == GateStateClosed {
		return
	}
	g.state = GateStateClosed
	g.stopTickLocked()
	close(g.closed)
}

func (g *Gate) stopTickLocked() {
	if g.stopTick != nil {
		g.stopTick()
		g.stopTick = nil
	}
}

// View returns the current snapshot for rendering.
func (g *Gate) View() GateView {
	g.mu.Lock()
	defer g.mu.Unlock()

	view := GateView{
		ID:     g.ID.String(),
		State:  g.state,
		Reason: g.reason,
	}
	if g.quiz.ID != "" {
		quiz := g.quiz
		view.Quiz = &quiz
	}
	if g.state == GateStateCounting || g.state == GateStateReady {
		countdown := g.countdown
		view.Countdown = &countdown
	}
	return view
}
