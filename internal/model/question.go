package model

// QuestionType enumerates the question kinds the session can render.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
)

// Discrete reports whether the answer is a single selection rather than free
// text. Discrete answers are published immediately; free text is debounced.
func (t QuestionType) Discrete() bool {
	return t == QuestionTypeMultipleChoice || t == QuestionTypeTrueFalse
}

// Choice is one selectable option of a multiple-choice question.
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is one question of the quiz, immutable for the session lifetime.
// Choices is populated only for multiple-choice questions.
type Question struct {
	ID       string       `json:"id"`
	Type     QuestionType `json:"type"`
	Prompt   string       `json:"prompt"`
	Choices  []Choice     `json:"choices,omitempty"`
	Points   int          `json:"points"`
	Position int          `json:"position"`
}

// HasChoice reports whether id names one of the question's choices.
func (q *Question) HasChoice(id string) bool {
	for _, c := range q.Choices {
		if c.ID == id {
			return true
		}
	}
	return false
}
