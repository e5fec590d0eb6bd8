package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Rech03/CES-sub001/internal/model"
)

const (
	// defaultTimeLimitMinutes applies when the quiz carries no time limit.
	defaultTimeLimitMinutes = 15
	// publishTimeout bounds a single answer write upstream.
	publishTimeout = 10 * time.Second
	// submitTimeout bounds the best-effort attempt-submit notification.
	submitTimeout = 15 * time.Second
)

// Session owns one live attempt from creation to submission. All state is
// mutated on a single goroutine event loop (commands and the 1 Hz tick share
// one select), which gives the source model's cooperative semantics for
// free: answer writes apply in call order, ticks are strictly serialized and
// never block on network I/O, and the forced/manual submit race collapses to
// whichever command the loop sees first.
type Session struct {
	id        uuid.UUID
	studentID int
	token     string
	quiz      model.Quiz
	attempt   model.Attempt
	questions []model.Question
	byID      map[string]model.Question

	store     *AnswerStore
	publisher *AutosavePublisher
	statuses  map[string]model.SaveStatus

	index           int
	limitSeconds    int
	remaining       int
	submitted       bool
	handoff         *model.ResultsHandoff
	publishFailures int

	commands  chan func()
	closed    chan struct{}
	closeOnce sync.Once
	tick      <-chan time.Time
	stopTick  func()

	subscribers map[chan Event]struct{}

	platform Platform
	cache    *StateCache
	launch   func(fn func())
	log      zerolog.Logger
}

// sessionConfig carries everything startSession needs. Tests substitute the
// ticker factory, launch hook and clock for determinism.
type sessionConfig struct {
	studentID int
	token     string
	quiz      model.Quiz
	password  string
	platform  Platform
	cache     *StateCache
	log       zerolog.Logger
	newTicker tickerFactory
	launch    func(fn func())
	now       func() time.Time
}

// startSession creates the remote attempt and fetches the question list,
// then starts the clock and the event loop. Either call failing, or an empty
// question list, is AttemptInitFailed: nothing is registered and no timer
// runs.
func startSession(ctx context.Context, cfg sessionConfig) (*Session, error) {
	var (
		attempt   *model.Attempt
		questions []model.Question
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := cfg.platform.StartAttempt(gctx, cfg.token, cfg.quiz.ID, cfg.password)
		if err != nil {
			return fmt.Errorf("start attempt: %w", err)
		}
		attempt = a
		return nil
	})
	g.Go(func() error {
		qs, err := cfg.platform.GetQuizQuestions(gctx, cfg.token, cfg.quiz.ID)
		if err != nil {
			return fmt.Errorf("fetch questions: %w", err)
		}
		questions = qs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAttemptInitFailed, err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: quiz has no questions", ErrAttemptInitFailed)
	}

	limitMinutes := cfg.quiz.TimeLimitMinutes
	if limitMinutes <= 0 {
		limitMinutes = defaultTimeLimitMinutes
	}
	limitSeconds := limitMinutes * 60

	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	s := &Session{
		id:           uuid.New(),
		studentID:    cfg.studentID,
		token:        cfg.token,
		quiz:         cfg.quiz,
		attempt:      *attempt,
		questions:    questions,
		byID:         byID,
		store:        NewAnswerStore(),
		statuses:     make(map[string]model.SaveStatus),
		limitSeconds: limitSeconds,
		remaining:    limitSeconds,
		commands:     make(chan func(), 64),
		closed:       make(chan struct{}),
		subscribers:  make(map[chan Event]struct{}),
		platform:     cfg.platform,
		cache:        cfg.cache,
		launch:       cfg.launch,
		log: cfg.log.With().
			Str("component", "attempt_session").
			Int("student_id", cfg.studentID).
			Str("attempt_id", attempt.ID).
			Logger(),
	}

	s.publisher = NewAutosavePublisher(AutosaveOptions{
		Publish:  s.publishAnswer,
		Launch:   s.launch,
		Schedule: s.schedule,
		Post:     s.post,
		OnStatus: s.setStatus,
	})

	s.tick, s.stopTick = cfg.newTicker(time.Second)

	// Best-effort recovery record; the reaper needs the deadline even if
	// this process dies mid-attempt.
	if s.cache != nil {
		deadline := cfg.now().Add(time.Duration(limitSeconds) * time.Second)
		meta := SessionMeta{
			StudentID: s.studentID,
			AttemptID: s.attempt.ID,
			QuizID:    s.quiz.ID,
			Token:     s.token,
			Deadline:  deadline,
		}
		s.launch(func() {
			cctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			defer cancel()
			if err := s.cache.SaveMeta(cctx, meta); err != nil {
				s.log.Warn().Err(err).Msg("Failed to cache session meta")
			}
		})
	}

	go s.run()

	s.log.Info().
		Str("quiz_id", s.quiz.ID).
		Int("questions", len(questions)).
		Int("limit_seconds", limitSeconds).
		Msg("Attempt session started")

	return s, nil
}

// run is the session event loop. Everything that touches session state runs
// here.
func (s *Session) run() {
	for {
		select {
		case <-s.closed:
			return
		case fn := <-s.commands:
			fn()
		case <-s.tick:
			s.onTick()
		}
	}
}

// post enqueues fn on the loop without waiting. Used by timers and publish
// completions; a torn-down session silently drops the work.
func (s *Session) post(fn func()) {
	select {
	case s.commands <- fn:
	case <-s.closed:
	}
}

// do enqueues fn and waits for it to run.
func (s *Session) do(fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		fn()
		close(done)
	}

	select {
	case s.commands <- wrapped:
	case <-s.closed:
		return ErrNoActiveSession
	}

	select {
	case <-done:
		return nil
	case <-s.closed:
		// The command may still have run just before teardown.
		select {
		case <-done:
			return nil
		default:
			return ErrNoActiveSession
		}
	}
}

// schedule runs fn on the loop after d. The returned cancel is safe to call
// after firing.
func (s *Session) schedule(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, func() { s.post(fn) })
	return func() { t.Stop() }
}

// ─── Timer ──────────────────────────────────────────────────────────

// onTick decrements the clock and broadcasts it. Ticks after submission are
// skipped; reaching zero is the only non-manual path to submission.
func (s *Session) onTick() {
	if s.submitted {
		return
	}
	s.remaining--
	if s.remaining < 0 {
		s.remaining = 0
	}
	s.broadcast(tickEvent(s.remaining))
	if s.remaining == 0 {
		s.finalize(true)
	}
}

// ─── Answer intake ──────────────────────────────────────────────────

// RecordAnswer normalizes and stores an answer, then schedules its publish.
// The store write is acknowledged before this returns; the publish is
// fire-and-forget and surfaces only through SaveStatus.
func (s *Session) RecordAnswer(questionID string, raw json.RawMessage) error {
	var opErr error
	err := s.do(func() {
		if s.submitted {
			opErr = ErrSessionSubmitted
			return
		}
		q, ok := s.byID[questionID]
		if !ok {
			opErr = ErrQuestionNotFound
			return
		}
		value, err := model.NormalizeAnswerValue(q.Type, raw)
		if err != nil {
			opErr = err
			return
		}
		if q.Type == model.QuestionTypeMultipleChoice && !q.HasChoice(value) {
			opErr = model.ErrValueMismatch
			return
		}

		s.store.Set(questionID, value)
		if value == "" {
			// Cleared answer: drop any draft still waiting to publish
			// and delete the recovery mirror.
			s.publisher.Clear(questionID)
			if s.cache != nil {
				s.launch(func() {
					cctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
					defer cancel()
					if err := s.cache.SaveAnswer(cctx, s.studentID, questionID, ""); err != nil {
						s.log.Warn().Err(err).Str("question_id", questionID).Msg("Failed to clear answer mirror")
					}
				})
			}
			return
		}
		s.publisher.Record(q, value)
	})
	if err != nil {
		return err
	}
	return opErr
}

// FlushAnswer publishes a debounced free-text value immediately (the blur
// path from the browser).
func (s *Session) FlushAnswer(questionID string) error {
	var opErr error
	err := s.do(func() {
		if s.submitted {
			opErr = ErrSessionSubmitted
			return
		}
		if _, ok := s.byID[questionID]; !ok {
			opErr = ErrQuestionNotFound
			return
		}
		s.publisher.Flush(questionID)
	})
	if err != nil {
		return err
	}
	return opErr
}

// publishAnswer is the publisher's remote write. Runs off-loop. A success is
// mirrored into the recovery cache; a failure is returned for the SaveStatus
// path and deliberately not retried.
func (s *Session) publishAnswer(questionID, value string) error {
	q := s.byID[questionID] // immutable after init, safe off-loop

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := s.platform.SubmitAnswer(ctx, s.token, s.attempt.ID, q.Type, questionID, value); err != nil {
		s.log.Warn().Err(err).Str("question_id", questionID).Msg("Answer publish failed")
		return err
	}

	if s.cache != nil {
		if err := s.cache.SaveAnswer(ctx, s.studentID, questionID, value); err != nil {
			s.log.Warn().Err(err).Str("question_id", questionID).Msg("Failed to mirror answer")
		}
	}
	return nil
}

// setStatus records and broadcasts a SaveStatus transition. Runs on the loop.
func (s *Session) setStatus(questionID string, status model.SaveStatus) {
	if status == model.SaveStatusIdle {
		delete(s.statuses, questionID)
	} else {
		s.statuses[questionID] = status
	}
	if status == model.SaveStatusError {
		s.publishFailures++
	}
	s.broadcast(saveStatusEvent(questionID, status))
}

// ─── Navigation ─────────────────────────────────────────────────────

// Navigate moves the question pointer. op is "next", "prev" or "jump" (with
// index). The result is always clamped to the question list; navigation
// never touches answers or the clock.
func (s *Session) Navigate(op string, index int) (int, error) {
	var (
		result int
		opErr  error
	)
	err := s.do(func() {
		switch op {
		case "next":
			s.index = clamp(s.index+1, len(s.questions))
		case "prev":
			s.index = clamp(s.index-1, len(s.questions))
		case "jump":
			s.index = clamp(index, len(s.questions))
		default:
			opErr = fmt.Errorf("unknown navigation op %q", op)
			return
		}
		result = s.index
	})
	if err != nil {
		return 0, err
	}
	return result, opErr
}

func clamp(i, length int) int {
	if i < 0 {
		return 0
	}
	if i > length-1 {
		return length - 1
	}
	return i
}

// ─── Submission ─────────────────────────────────────────────────────

// SubmitPreview is the confirmation payload surfaced before a manual submit.
type SubmitPreview struct {
	TotalQuestions  int      `json:"total_questions"`
	AnsweredCount   int      `json:"answered_count"`
	UnansweredCount int      `json:"unanswered_count"`
	UnansweredIDs   []string `json:"unanswered_ids,omitempty"`
}

// Preview returns the unanswered-question warning for the confirm dialog.
func (s *Session) Preview() (SubmitPreview, error) {
	var preview SubmitPreview
	err := s.do(func() {
		missing := s.store.Unanswered(s.questions)
		preview = SubmitPreview{
			TotalQuestions:  len(s.questions),
			AnsweredCount:   s.store.AnsweredCount(),
			UnansweredCount: len(missing),
			UnansweredIDs:   missing,
		}
	})
	return preview, err
}

// Submit finalizes the attempt manually. Submitting an already-submitted
// session returns the original handoff without a second upstream call.
func (s *Session) Submit() (*model.ResultsHandoff, error) {
	var handoff *model.ResultsHandoff
	err := s.do(func() {
		s.finalize(false)
		handoff = s.handoff
	})
	if err != nil {
		return nil, err
	}
	return handoff, nil
}

// finalize flips the session to submitted exactly once, stops the clock and
// intake, and best-effort notifies the platform. The local boundary has
// already passed by the time the network call runs, so its failure is logged
// and swallowed; the student still sees a successful submission.
func (s *Session) finalize(forced bool) {
	if s.submitted {
		return
	}
	s.submitted = true
	s.attempt.Status = model.AttemptStatusSubmitted

	if s.stopTick != nil {
		s.stopTick()
		s.stopTick = nil
	}
	s.publisher.Teardown()

	answers := s.store.Snapshot()
	s.handoff = &model.ResultsHandoff{
		AttemptID:       s.attempt.ID,
		Quiz:            s.quiz,
		Questions:       s.questions,
		Answers:         answers,
		ElapsedSeconds:  s.limitSeconds - s.remaining,
		UnansweredCount: len(s.store.Unanswered(s.questions)),
		Forced:          forced,
	}

	if s.publishFailures > 0 {
		// Known consistency gap: failed publishes were never retried and
		// are not reconciled here. The results view compares against the
		// server's record.
		s.log.Warn().
			Int("failed_publishes", s.publishFailures).
			Msg("Submitting with answer writes that previously failed")
	}

	s.log.Info().
		Bool("forced", forced).
		Int("answered", len(answers)).
		Msg("Attempt submitted")

	s.broadcast(submittedEvent(forced))

	token, attemptID, studentID := s.token, s.attempt.ID, s.studentID
	s.launch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		if err := s.platform.SubmitAttempt(ctx, token, attemptID); err != nil {
			s.log.Warn().Err(err).Msg("Attempt submit notify failed")
		}
		if s.cache != nil {
			if err := s.cache.Clear(ctx, studentID); err != nil {
				s.log.Warn().Err(err).Msg("Failed to clear session cache")
			}
		}
	})
}

// ─── State & events ─────────────────────────────────────────────────

// View is the full session snapshot, served on page reload.
type View struct {
	SessionID        string                      `json:"session_id"`
	AttemptID        string                      `json:"attempt_id"`
	Quiz             model.Quiz                  `json:"quiz"`
	Questions        []model.Question            `json:"questions"`
	Answers          map[string]string           `json:"answers"`
	SaveStatus       map[string]model.SaveStatus `json:"save_status,omitempty"`
	Index            int                         `json:"index"`
	RemainingSeconds int                         `json:"remaining_seconds"`
	Submitted        bool                        `json:"submitted"`
}

// State returns the current snapshot.
func (s *Session) State() (View, error) {
	var view View
	err := s.do(func() {
		statuses := make(map[string]model.SaveStatus, len(s.statuses))
		for k, v := range s.statuses {
			statuses[k] = v
		}
		view = View{
			SessionID:        s.id.String(),
			AttemptID:        s.attempt.ID,
			Quiz:             s.quiz,
			Questions:        s.questions,
			Answers:          s.store.Snapshot(),
			SaveStatus:       statuses,
			Index:            s.index,
			RemainingSeconds: s.remaining,
			Submitted:        s.submitted,
		}
	})
	return view, err
}

// Subscribe registers an event channel for the WebSocket stream. The cancel
// func must be called to avoid leaks; teardown closes all channels.
func (s *Session) Subscribe() (<-chan Event, func(), error) {
	ch := make(chan Event, 16)
	err := s.do(func() {
		s.subscribers[ch] = struct{}{}
	})
	if err != nil {
		return nil, nil, err
	}
	cancel := func() {
		s.post(func() {
			if _, ok := s.subscribers[ch]; ok {
				delete(s.subscribers, ch)
				close(ch)
			}
		})
	}
	return ch, cancel, nil
}

// broadcast fans an event out without blocking the loop; slow subscribers
// drop events rather than stall the clock.
func (s *Session) broadcast(ev Event) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// teardown cancels the tick, all publisher timers and all subscribers, then
// closes the loop. Pending publish completions are dropped, which is exactly
// the ghost-write guarantee teardown exists for.
func (s *Session) teardown() {
	_ = s.do(func() {
		if s.stopTick != nil {
			s.stopTick()
			s.stopTick = nil
		}
		s.publisher.Teardown()
		for ch := range s.subscribers {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.closeOnce.Do(func() { close(s.closed) })
	})
}

// Submitted reports whether the session has passed its local submission
// boundary.
func (s *Session) Submitted() bool {
	submitted := false
	_ = s.do(func() { submitted = s.submitted })
	return submitted
}
