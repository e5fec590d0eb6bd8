package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rech03/CES-sub001/internal/model"
)

// fakePlatform is an in-memory Platform with injectable failures.
type fakePlatform struct {
	mu sync.Mutex

	quiz         *model.Quiz
	quizErr      error
	questions    []model.Question
	questionsErr error
	attemptErr   error
	answerErr    error
	submitErr    error

	attemptsStarted int
	startPasswords  []string
	answerCalls     []answerCall
	submitCalls     []string
}

type answerCall struct {
	questionID string
	value      string
}

func (f *fakePlatform) GetQuiz(ctx context.Context, token, quizID string) (*model.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.quizErr != nil {
		return nil, f.quizErr
	}
	quiz := *f.quiz
	return &quiz, nil
}

func (f *fakePlatform) GetQuizQuestions(ctx context.Context, token, quizID string) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.questionsErr != nil {
		return nil, f.questionsErr
	}
	return f.questions, nil
}

func (f *fakePlatform) StartAttempt(ctx context.Context, token, quizID, password string) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attemptErr != nil {
		return nil, f.attemptErr
	}
	f.attemptsStarted++
	f.startPasswords = append(f.startPasswords, password)
	return &model.Attempt{
		ID:        "attempt-1",
		QuizID:    quizID,
		Status:    model.AttemptStatusInProgress,
		StartedAt: time.Now(),
	}, nil
}

func (f *fakePlatform) SubmitAnswer(ctx context.Context, token, attemptID string, qType model.QuestionType, questionID, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.answerErr != nil {
		return f.answerErr
	}
	f.answerCalls = append(f.answerCalls, answerCall{questionID: questionID, value: value})
	return nil
}

func (f *fakePlatform) SubmitAttempt(ctx context.Context, token, attemptID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitCalls = append(f.submitCalls, attemptID)
	return nil
}

func (f *fakePlatform) started() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attemptsStarted
}

func (f *fakePlatform) answers() []answerCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]answerCall, len(f.answerCalls))
	copy(out, f.answerCalls)
	return out
}

func (f *fakePlatform) submits() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.submitCalls))
	copy(out, f.submitCalls)
	return out
}

// manualClock hands out tick channels the test drives by hand. Each factory
// call gets its own channel so a gate and the session it admits never share
// one; tick drives the most recently created channel.
type manualClock struct {
	mu      sync.Mutex
	chans   []chan time.Time
	stopped int
}

func newManualClock() *manualClock {
	return &manualClock{}
}

func (c *manualClock) factory(d time.Duration) (<-chan time.Time, func()) {
	c.mu.Lock()
	ch := make(chan time.Time)
	c.chans = append(c.chans, ch)
	c.mu.Unlock()
	return ch, func() {
		c.mu.Lock()
		c.stopped++
		c.mu.Unlock()
	}
}

func (c *manualClock) tick() {
	c.mu.Lock()
	ch := c.chans[len(c.chans)-1]
	c.mu.Unlock()
	ch <- time.Time{}
}

func (c *manualClock) stopCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

func testQuestions() []model.Question {
	return []model.Question{
		{
			ID:   "q1",
			Type: model.QuestionTypeMultipleChoice,
			Choices: []model.Choice{
				{ID: "c1", Text: "First"},
				{ID: "c2", Text: "Second"},
			},
			Points:   1,
			Position: 1,
		},
		{ID: "q2", Type: model.QuestionTypeTrueFalse, Points: 1, Position: 2},
		{ID: "q3", Type: model.QuestionTypeShortAnswer, Points: 2, Position: 3},
	}
}

func testQuiz() model.Quiz {
	return model.Quiz{
		ID:               "quiz-1",
		Title:            "Pointers and Slices",
		TimeLimitMinutes: 1,
		TotalQuestions:   3,
	}
}

// newTestSession starts a session with a manual clock and an inline launch so
// publishes and completions run deterministically through the loop.
func newTestSession(t *testing.T, fp *fakePlatform, clock *manualClock) *Session {
	t.Helper()
	sess, err := startSession(context.Background(), sessionConfig{
		studentID: 7,
		token:     "token-7",
		quiz:      testQuiz(),
		platform:  fp,
		log:       zerolog.Nop(),
		newTicker: clock.factory,
		launch:    func(fn func()) { fn() },
		now:       time.Now,
	})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	t.Cleanup(sess.teardown)
	return sess
}
