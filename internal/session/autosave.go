package session

import (
	"time"

	"github.com/Rech03/CES-sub001/internal/model"
)

const (
	// textDebounce is the quiet period after a free-text edit before the
	// answer is published.
	textDebounce = 750 * time.Millisecond
	// savedWindow and errorWindow are how long the saved/error badges stay
	// visible before auto-reverting to idle.
	savedWindow = 1500 * time.Millisecond
	errorWindow = 2500 * time.Millisecond
)

// AutosaveOptions wires a publisher into its session loop. All callbacks are
// invoked on the loop unless noted.
type AutosaveOptions struct {
	// Publish performs the remote answer write. It runs off-loop (via
	// Launch) and must be safe to call concurrently for different questions.
	Publish func(questionID, value string) error
	// Launch runs fn on its own goroutine in production; tests may run it
	// inline for determinism.
	Launch func(fn func())
	// Schedule runs fn on the session loop after d, returning a cancel func.
	Schedule func(d time.Duration, fn func()) func()
	// Post re-enters the session loop from another goroutine.
	Post func(fn func())
	// OnStatus observes SaveStatus transitions, on the loop.
	OnStatus func(questionID string, status model.SaveStatus)
}

// AutosavePublisher decouples "the student changed an answer" from "the
// network write completed" without ever blocking input. Discrete selections
// dispatch immediately; free text is debounced and flushed eagerly on blur.
//
// Per question, at most one publish is in flight at a time. An edit arriving
// while one is pending supersedes it: the newer value is published when the
// in-flight call returns, and the stale call's outcome is never shown. A
// failed publish is not retried and never rolls back the AnswerStore.
//
// All methods must be called from the owning session's event loop.
type AutosavePublisher struct {
	opts   AutosaveOptions
	states map[string]*publishState
}

type publishState struct {
	// pending is the newest value not yet handed to a publish call.
	pending        *string
	inflight       bool
	cancelDispatch func()
	cancelDebounce func()
	cancelRevert   func()
}

// NewAutosavePublisher creates a publisher wired through opts.
func NewAutosavePublisher(opts AutosaveOptions) *AutosavePublisher {
	return &AutosavePublisher{
		opts:   opts,
		states: make(map[string]*publishState),
	}
}

func (p *AutosavePublisher) state(questionID string) *publishState {
	st, ok := p.states[questionID]
	if !ok {
		st = &publishState{}
		p.states[questionID] = st
	}
	return st
}

// Record accepts a new value for a question. The AnswerStore write has
// already happened by the time this runs; Record only decides when the value
// goes over the wire.
func (p *AutosavePublisher) Record(q model.Question, value string) {
	st := p.state(q.ID)
	st.pending = &value

	if q.Type.Discrete() {
		if st.cancelDebounce != nil {
			st.cancelDebounce()
			st.cancelDebounce = nil
		}
		p.queueDispatch(q.ID)
		return
	}

	// Free text: restart the quiet-period timer.
	if st.cancelDebounce != nil {
		st.cancelDebounce()
	}
	st.cancelDebounce = p.opts.Schedule(textDebounce, func() {
		st.cancelDebounce = nil
		p.dispatch(q.ID)
	})
}

// Flush publishes a debounced value immediately (loss-of-focus path). It is
// a no-op when nothing is pending.
func (p *AutosavePublisher) Flush(questionID string) {
	st, ok := p.states[questionID]
	if !ok {
		return
	}
	if st.cancelDebounce != nil {
		st.cancelDebounce()
		st.cancelDebounce = nil
	}
	if st.cancelDispatch != nil {
		st.cancelDispatch()
		st.cancelDispatch = nil
	}
	p.dispatch(questionID)
}

// Clear drops any value not yet handed to a publish call (the student
// erased the answer). Armed debounce and dispatch timers are cancelled so
// the forgotten draft can never go over the wire; a publish already in
// flight carried the pre-clear value and is left to finish.
func (p *AutosavePublisher) Clear(questionID string) {
	st, ok := p.states[questionID]
	if !ok {
		return
	}
	st.pending = nil
	if st.cancelDebounce != nil {
		st.cancelDebounce()
		st.cancelDebounce = nil
	}
	if st.cancelDispatch != nil {
		st.cancelDispatch()
		st.cancelDispatch = nil
	}
}

// queueDispatch schedules an immediate dispatch as a zero-delay task instead
// of calling straight through. Selections made back to back before the task
// runs collapse into a single publish carrying the newest value.
func (p *AutosavePublisher) queueDispatch(questionID string) {
	st := p.state(questionID)
	if st.cancelDispatch != nil || st.inflight {
		// A dispatch is already queued, or completion will re-dispatch;
		// either way the newest pending value is the one that goes out.
		return
	}
	st.cancelDispatch = p.opts.Schedule(0, func() {
		st.cancelDispatch = nil
		p.dispatch(questionID)
	})
}

// dispatch hands the pending value to a publish call unless one is already
// in flight, in which case completion will re-dispatch.
func (p *AutosavePublisher) dispatch(questionID string) {
	st := p.state(questionID)
	if st.pending == nil || st.inflight {
		return
	}
	if st.cancelRevert != nil {
		st.cancelRevert()
		st.cancelRevert = nil
	}

	value := *st.pending
	st.pending = nil
	st.inflight = true
	p.opts.OnStatus(questionID, model.SaveStatusSaving)

	p.opts.Launch(func() {
		err := p.opts.Publish(questionID, value)
		p.opts.Post(func() {
			p.completed(questionID, err)
		})
	})
}

func (p *AutosavePublisher) completed(questionID string, err error) {
	st := p.state(questionID)
	st.inflight = false

	// A newer value superseded this one while it was in flight; publish it
	// and skip the stale outcome entirely.
	if st.pending != nil {
		p.dispatch(questionID)
		return
	}

	status, window := model.SaveStatusSaved, savedWindow
	if err != nil {
		status, window = model.SaveStatusError, errorWindow
	}
	p.opts.OnStatus(questionID, status)
	st.cancelRevert = p.opts.Schedule(window, func() {
		st.cancelRevert = nil
		p.opts.OnStatus(questionID, model.SaveStatusIdle)
	})
}

// Teardown cancels every dispatch, debounce and revert timer. In-flight
// publish calls complete into a closed loop and are dropped there.
func (p *AutosavePublisher) Teardown() {
	for _, st := range p.states {
		if st.cancelDispatch != nil {
			st.cancelDispatch()
			st.cancelDispatch = nil
		}
		if st.cancelDebounce != nil {
			st.cancelDebounce()
			st.cancelDebounce = nil
		}
		if st.cancelRevert != nil {
			st.cancelRevert()
			st.cancelRevert = nil
		}
	}
}
