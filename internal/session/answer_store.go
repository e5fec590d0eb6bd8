package session

import "github.com/Rech03/CES-sub001/internal/model"

// AnswerStore is the in-memory mapping of question id → answer value for one
// attempt. It is the single source of truth the UI renders from: a write
// lands here before any network publish is even scheduled, and a failed
// publish never rolls it back.
//
// The store is owned exclusively by its session's event loop and carries no
// locking. It lives exactly as long as the attempt and is discarded wholesale
// on teardown.
type AnswerStore struct {
	values map[string]string
}

// NewAnswerStore creates an empty store.
func NewAnswerStore() *AnswerStore {
	return &AnswerStore{values: make(map[string]string)}
}

// Set records the value for a question, replacing any earlier write. An empty
// value clears the answer.
func (s *AnswerStore) Set(questionID, value string) {
	if value == "" {
		delete(s.values, questionID)
		return
	}
	s.values[questionID] = value
}

// Get returns the current value for a question.
func (s *AnswerStore) Get(questionID string) (string, bool) {
	v, ok := s.values[questionID]
	return v, ok
}

// AnsweredCount returns how many questions currently hold an answer.
func (s *AnswerStore) AnsweredCount() int {
	return len(s.values)
}

// Unanswered returns the ids of questions from the given list that hold no
// answer, in list order.
func (s *AnswerStore) Unanswered(questions []model.Question) []string {
	var missing []string
	for _, q := range questions {
		if _, ok := s.values[q.ID]; !ok {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// Snapshot returns a copy of the current answers, safe to hand outside the
// session loop.
func (s *AnswerStore) Snapshot() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
