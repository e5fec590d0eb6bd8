package session

import (
	"context"
	"time"

	"github.com/Rech03/CES-sub001/internal/model"
)

// Platform is the slice of the upstream quiz API the gate and session
// consume. *platform.Client satisfies it; tests substitute fakes.
type Platform interface {
	GetQuiz(ctx context.Context, token, quizID string) (*model.Quiz, error)
	GetQuizQuestions(ctx context.Context, token, quizID string) ([]model.Question, error)
	StartAttempt(ctx context.Context, token, quizID, password string) (*model.Attempt, error)
	SubmitAnswer(ctx context.Context, token, attemptID string, qType model.QuestionType, questionID, value string) error
	SubmitAttempt(ctx context.Context, token, attemptID string) error
}

// tickerFactory abstracts 1 Hz time sources so tests can drive ticks by hand.
type tickerFactory func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}
