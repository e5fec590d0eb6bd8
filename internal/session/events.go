package session

import "github.com/Rech03/CES-sub001/internal/model"

// EventType enumerates the events streamed to the browser over the session
// WebSocket.
type EventType string

const (
	// EventTick carries the remaining seconds, once per second.
	EventTick EventType = "tick"
	// EventSaveStatus carries a per-question autosave status transition.
	EventSaveStatus EventType = "save_status"
	// EventSubmitted signals the terminal state, manual or forced.
	EventSubmitted EventType = "submitted"
)

// Event is one server→client stream message.
type Event struct {
	Type             EventType        `json:"event"`
	RemainingSeconds *int             `json:"remaining_seconds,omitempty"`
	QuestionID       string           `json:"question_id,omitempty"`
	Status           model.SaveStatus `json:"status,omitempty"`
	Forced           *bool            `json:"forced,omitempty"`
}

func tickEvent(remaining int) Event {
	return Event{Type: EventTick, RemainingSeconds: &remaining}
}

func saveStatusEvent(questionID string, status model.SaveStatus) Event {
	return Event{Type: EventSaveStatus, QuestionID: questionID, Status: status}
}

func submittedEvent(forced bool) Event {
	return Event{Type: EventSubmitted, Forced: &forced}
}
