package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rech03/CES-sub001/internal/model"
)

func newTestPlatform() *fakePlatform {
	quiz := testQuiz()
	return &fakePlatform{quiz: &quiz, questions: testQuestions()}
}

// waitFor polls cond until it holds. Publishes ride a zero-delay timer off
// the loop, so assertions about them cannot be made synchronously.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func TestSessionInitFailsWhenAttemptStartFails(t *testing.T) {
	fp := newTestPlatform()
	fp.attemptErr = errors.New("upstream 500")
	clock := newManualClock()

	_, err := startSession(context.Background(), sessionConfig{
		studentID: 7,
		token:     "token-7",
		quiz:      testQuiz(),
		platform:  fp,
		log:       zerolog.Nop(),
		newTicker: clock.factory,
		launch:    func(fn func()) { fn() },
		now:       time.Now,
	})
	if !errors.Is(err, ErrAttemptInitFailed) {
		t.Fatalf("expected init failure, got %v", err)
	}
}

func TestSessionInitFailsOnEmptyQuestionList(t *testing.T) {
	fp := newTestPlatform()
	fp.questions = nil
	clock := newManualClock()

	_, err := startSession(context.Background(), sessionConfig{
		studentID: 7,
		token:     "token-7",
		quiz:      testQuiz(),
		platform:  fp,
		log:       zerolog.Nop(),
		newTicker: clock.factory,
		launch:    func(fn func()) { fn() },
		now:       time.Now,
	})
	if !errors.Is(err, ErrAttemptInitFailed) {
		t.Fatalf("expected init failure, got %v", err)
	}
}

func TestRecordAnswerStoresAndPublishes(t *testing.T) {
	fp := newTestPlatform()
	sess := newTestSession(t, fp, newManualClock())

	if err := sess.RecordAnswer("q1", json.RawMessage(`"c2"`)); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	view, err := sess.State()
	if err != nil {
		t.Fatalf("state failed: %v", err)
	}
	if view.Answers["q1"] != "c2" {
		t.Fatalf("expected stored c2, got %q", view.Answers["q1"])
	}

	waitFor(t, func() bool { return len(fp.answers()) == 1 }, "autosave publish")
	calls := fp.answers()
	if calls[0].questionID != "q1" || calls[0].value != "c2" {
		t.Fatalf("expected one publish of q1=c2, got %v", calls)
	}
}

func TestRecordAnswerRejectsBadInput(t *testing.T) {
	fp := newTestPlatform()
	sess := newTestSession(t, fp, newManualClock())

	if err := sess.RecordAnswer("nope", json.RawMessage(`"c1"`)); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected unknown question, got %v", err)
	}
	if err := sess.RecordAnswer("q1", json.RawMessage(`"c99"`)); !errors.Is(err, model.ErrValueMismatch) {
		t.Fatalf("expected unknown choice rejected, got %v", err)
	}
	if err := sess.RecordAnswer("q2", json.RawMessage(`"maybe"`)); !errors.Is(err, model.ErrValueMismatch) {
		t.Fatalf("expected non-boolean rejected, got %v", err)
	}
	if len(fp.answers()) != 0 {
		t.Fatalf("rejected answers must not publish, got %v", fp.answers())
	}
}

func TestFailedPublishKeepsLocalAnswer(t *testing.T) {
	fp := newTestPlatform()
	fp.answerErr = errors.New("connection reset")
	sess := newTestSession(t, fp, newManualClock())

	events, cancel, err := sess.Subscribe()
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	if err := sess.RecordAnswer("q2", json.RawMessage(`true`)); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	var seen []model.SaveStatus
	for len(seen) < 2 {
		select {
		case ev := <-events:
			if ev.Type == EventSaveStatus && ev.QuestionID == "q2" {
				seen = append(seen, ev.Status)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for status events, saw %v", seen)
		}
	}
	if seen[0] != model.SaveStatusSaving || seen[1] != model.SaveStatusError {
		t.Fatalf("expected saving then error, got %v", seen)
	}

	// The intake acknowledged the write; the failure surfaces only as a
	// status transition and never rolls the store back.
	view, err := sess.State()
	if err != nil {
		t.Fatalf("state failed: %v", err)
	}
	if view.Answers["q2"] != "true" {
		t.Fatalf("expected local answer retained, got %q", view.Answers["q2"])
	}
	if view.SaveStatus["q2"] != model.SaveStatusError {
		t.Fatalf("expected error status, got %q", view.SaveStatus["q2"])
	}
}

func TestFlushPublishesTextAnswer(t *testing.T) {
	fp := newTestPlatform()
	sess := newTestSession(t, fp, newManualClock())

	if err := sess.RecordAnswer("q3", json.RawMessage(`"garbage collection"`)); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if len(fp.answers()) != 0 {
		t.Fatalf("free text must not publish before the quiet period, got %v", fp.answers())
	}

	if err := sess.FlushAnswer("q3"); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	// Sync with the loop so the inline publish has been processed.
	if _, err := sess.State(); err != nil {
		t.Fatalf("state failed: %v", err)
	}

	calls := fp.answers()
	if len(calls) != 1 || calls[0].value != "garbage collection" {
		t.Fatalf("expected flushed publish, got %v", calls)
	}
}

func TestClearedTextAnswerIsNeverPublished(t *testing.T) {
	fp := newTestPlatform()
	sess := newTestSession(t, fp, newManualClock())

	if err := sess.RecordAnswer("q3", json.RawMessage(`"draft"`)); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if err := sess.RecordAnswer("q3", json.RawMessage(`""`)); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	// Even an explicit blur flush after the clear has nothing to send.
	if err := sess.FlushAnswer("q3"); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	view, err := sess.State()
	if err != nil {
		t.Fatalf("state failed: %v", err)
	}
	if _, ok := view.Answers["q3"]; ok {
		t.Fatalf("expected cleared store, got %v", view.Answers)
	}
	if calls := fp.answers(); len(calls) != 0 {
		t.Fatalf("cleared draft reached the platform: %v", calls)
	}
}

func TestNavigateClampsToQuestionList(t *testing.T) {
	fp := newTestPlatform()
	sess := newTestSession(t, fp, newManualClock())

	if idx, _ := sess.Navigate("prev", 0); idx != 0 {
		t.Fatalf("prev at start should clamp to 0, got %d", idx)
	}
	if idx, _ := sess.Navigate("jump", 99); idx != 2 {
		t.Fatalf("jump past end should clamp to last, got %d", idx)
	}
	if idx, _ := sess.Navigate("next", 0); idx != 2 {
		t.Fatalf("next at end should clamp to last, got %d", idx)
	}
	if idx, _ := sess.Navigate("jump", 1); idx != 1 {
		t.Fatalf("jump should land on 1, got %d", idx)
	}
	if _, err := sess.Navigate("sideways", 0); err == nil {
		t.Fatalf("expected unknown op rejected")
	}
}

func TestPreviewCountsUnanswered(t *testing.T) {
	fp := newTestPlatform()
	sess := newTestSession(t, fp, newManualClock())

	if err := sess.RecordAnswer("q1", json.RawMessage(`"c1"`)); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	preview, err := sess.Preview()
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if preview.TotalQuestions != 3 || preview.AnsweredCount != 1 || preview.UnansweredCount != 2 {
		t.Fatalf("unexpected preview %+v", preview)
	}
	if len(preview.UnansweredIDs) != 2 || preview.UnansweredIDs[0] != "q2" || preview.UnansweredIDs[1] != "q3" {
		t.Fatalf("expected [q2 q3], got %v", preview.UnansweredIDs)
	}
}

func TestFullAttemptRoundTrip(t *testing.T) {
	fp := newTestPlatform()
	sess := newTestSession(t, fp, newManualClock())

	if err := sess.RecordAnswer("q1", json.RawMessage(`"c1"`)); err != nil {
		t.Fatalf("record q1 failed: %v", err)
	}
	if err := sess.RecordAnswer("q2", json.RawMessage(`false`)); err != nil {
		t.Fatalf("record q2 failed: %v", err)
	}
	if err := sess.RecordAnswer("q3", json.RawMessage(`"compile then run"`)); err != nil {
		t.Fatalf("record q3 failed: %v", err)
	}
	if err := sess.FlushAnswer("q3"); err != nil {
		t.Fatalf("flush q3 failed: %v", err)
	}

	preview, err := sess.Preview()
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if preview.UnansweredCount != 0 || len(preview.UnansweredIDs) != 0 {
		t.Fatalf("expected everything answered, got %+v", preview)
	}

	handoff, err := sess.Submit()
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if handoff.Forced || handoff.UnansweredCount != 0 {
		t.Fatalf("unexpected handoff %+v", handoff)
	}
	if len(handoff.Answers) != 3 {
		t.Fatalf("expected 3 answers in handoff, got %v", handoff.Answers)
	}
	if handoff.Answers["q2"] != "false" || handoff.Answers["q3"] != "compile then run" {
		t.Fatalf("handoff answers wrong: %v", handoff.Answers)
	}
	if n := len(fp.submits()); n != 1 {
		t.Fatalf("expected one upstream submit, got %d", n)
	}
}

func TestManualSubmitIsIdempotent(t *testing.T) {
	fp := newTestPlatform()
	sess := newTestSession(t, fp, newManualClock())

	if err := sess.RecordAnswer("q1", json.RawMessage(`"c1"`)); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	first, err := sess.Submit()
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if first.Forced {
		t.Fatalf("manual submit must not be forced")
	}
	if first.UnansweredCount != 2 {
		t.Fatalf("expected 2 unanswered, got %d", first.UnansweredCount)
	}

	second, err := sess.Submit()
	if err != nil {
		t.Fatalf("second submit failed: %v", err)
	}
	if second != first {
		t.Fatalf("expected the original handoff returned")
	}
	if n := len(fp.submits()); n != 1 {
		t.Fatalf("expected exactly one upstream submit, got %d", n)
	}

	if err := sess.RecordAnswer("q2", json.RawMessage(`true`)); !errors.Is(err, ErrSessionSubmitted) {
		t.Fatalf("expected intake closed after submit, got %v", err)
	}
}

func TestClockExpiryForcesSubmitExactlyOnce(t *testing.T) {
	fp := newTestPlatform()
	clock := newManualClock()
	sess := newTestSession(t, fp, clock)

	events, cancel, err := sess.Subscribe()
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	// One-minute limit: the sixtieth tick is the deadline.
	for i := 0; i < 60; i++ {
		clock.tick()
	}

	var submittedEv *Event
	deadline := time.After(2 * time.Second)
	for submittedEv == nil {
		select {
		case ev := <-events:
			if ev.Type == EventSubmitted {
				e := ev
				submittedEv = &e
			}
		case <-deadline:
			t.Fatalf("never saw submitted event")
		}
	}
	if submittedEv.Forced == nil || !*submittedEv.Forced {
		t.Fatalf("expected forced submission, got %+v", submittedEv)
	}

	view, err := sess.State()
	if err != nil {
		t.Fatalf("state failed: %v", err)
	}
	if !view.Submitted || view.RemainingSeconds != 0 {
		t.Fatalf("expected submitted at zero, got %+v", view)
	}
	if n := len(fp.submits()); n != 1 {
		t.Fatalf("expected one upstream submit, got %d", n)
	}

	// The clock is stopped and further ticks change nothing.
	handoff, err := sess.Submit()
	if err != nil {
		t.Fatalf("submit after expiry failed: %v", err)
	}
	if !handoff.Forced || handoff.ElapsedSeconds != 60 {
		t.Fatalf("expected forced handoff after full minute, got %+v", handoff)
	}
	if n := len(fp.submits()); n != 1 {
		t.Fatalf("manual submit after expiry must not re-notify, got %d", n)
	}
}

func TestSubscribersClosedOnTeardown(t *testing.T) {
	fp := newTestPlatform()
	sess := newTestSession(t, fp, newManualClock())

	events, _, err := sess.Subscribe()
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	sess.teardown()

	select {
	case _, open := <-events:
		if open {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("channel never closed")
	}

	if err := sess.RecordAnswer("q1", json.RawMessage(`"c1"`)); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected no-active-session after teardown, got %v", err)
	}
}
