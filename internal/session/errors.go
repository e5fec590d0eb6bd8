package session

import "errors"

// Fatal conditions halt the gate or session and leave only back-navigation;
// recoverable ones re-prompt. Autosave and submit-notify failures are never
// errors at this level: the former surfaces as a transient SaveStatus, the
// latter is logged and swallowed.
var (
	// ErrQuizUnavailable is fatal to the gate: schedule or expiry forbids entry.
	ErrQuizUnavailable = errors.New("quiz is not available")
	// ErrPasswordRejected is recoverable: the gate stays in its password step.
	ErrPasswordRejected = errors.New("quiz password rejected")
	// ErrGateNotReady rejects admit before the countdown has finished.
	ErrGateNotReady = errors.New("gate countdown has not finished")
	// ErrGateClosed rejects operations on an aborted or consumed gate.
	ErrGateClosed = errors.New("gate is closed")
	// ErrAttemptInitFailed is fatal to the session: attempt creation or the
	// question fetch failed, or the quiz has no questions. No timer started.
	ErrAttemptInitFailed = errors.New("attempt initialization failed")
	// ErrNoActiveSession indicates the student has no running attempt.
	ErrNoActiveSession = errors.New("no active attempt session")
	// ErrSessionSubmitted rejects intake after the local submission boundary.
	ErrSessionSubmitted = errors.New("attempt already submitted")
	// ErrQuestionNotFound rejects answers for ids outside the question list.
	ErrQuestionNotFound = errors.New("question not part of this attempt")
)
