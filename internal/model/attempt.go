package model

import "time"

// AttemptStatus enumerates attempt states. An attempt is terminal once
// submitted; the upstream platform accepts no further answer writes for it.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusSubmitted  AttemptStatus = "submitted"
)

// Attempt is one student's timed instance of taking a quiz. The ID is
// assigned by the upstream platform when the attempt is started.
type Attempt struct {
	ID        string        `json:"id"`
	QuizID    string        `json:"quiz_id"`
	Status    AttemptStatus `json:"status"`
	StartedAt time.Time     `json:"started_at"`
}

// ResultsHandoff is the payload handed to the results view after submission.
// Answers reflect the in-memory store at the moment of submission, which may
// be ahead of what actually landed upstream; the results view reconciles
// against the server's recorded truth.
type ResultsHandoff struct {
	AttemptID       string            `json:"attempt_id"`
	Quiz            Quiz              `json:"quiz"`
	Questions       []Question        `json:"questions"`
	Answers         map[string]string `json:"answers"`
	ElapsedSeconds  int               `json:"elapsed_seconds"`
	UnansweredCount int               `json:"unanswered_count"`
	Forced          bool              `json:"forced"`
}
