package model

import "time"

// Quiz is the canonical quiz record for one attempt session. It is built
// once by the platform client's normalization step and is immutable for the
// lifetime of the session.
type Quiz struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	TimeLimitMinutes  int        `json:"time_limit_minutes"`
	TotalQuestions    int        `json:"total_questions"`
	Difficulty        string     `json:"difficulty,omitempty"`
	IsLive            bool       `json:"is_live"`
	PasswordProtected bool       `json:"password_protected"`
	Password          string     `json:"-"`
	ScheduledStart    *time.Time `json:"scheduled_start,omitempty"`
	DueDate           *time.Time `json:"due_date,omitempty"`
}

// RequiresPassword reports whether the countdown gate must run its password
// step before counting. Live quizzes always prompt, even when the quiz record
// carries no password of its own.
func (q *Quiz) RequiresPassword() bool {
	return q.IsLive || q.PasswordProtected
}

// AvailableAt reports whether the quiz can be entered at the given time.
// A quiz whose due date has passed is only enterable while it is live, and a
// scheduled quiz is never enterable before its scheduled start.
func (q *Quiz) AvailableAt(now time.Time) bool {
	if q.DueDate != nil && now.After(*q.DueDate) && !q.IsLive {
		return false
	}
	if q.ScheduledStart != nil && now.Before(*q.ScheduledStart) {
		return false
	}
	return true
}
