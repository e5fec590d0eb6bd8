package platform

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/Rech03/CES-sub001/internal/model"
)

// The upstream API is not consistent about field names: the same concept is
// spelled differently across endpoints (title/quiz_title, time_limit/
// duration_minutes, is_live/live, ...). Every alternative is decoded here,
// once, into the canonical model types. Nothing outside this file is allowed
// to see a raw upstream payload.

// flexString decodes a JSON string or number into a string, since upstream
// ids appear as both.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	return errors.New("id is neither string nor number")
}

func firstString(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

func firstInt(candidates ...*int) int {
	for _, c := range candidates {
		if c != nil {
			return *c
		}
	}
	return 0
}

func firstBool(candidates ...*bool) bool {
	for _, c := range candidates {
		if c != nil {
			return *c
		}
	}
	return false
}

// parseTime accepts the timestamp layouts observed upstream.
func parseTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

// ─── Quiz ───────────────────────────────────────────────────────────

type quizPayload struct {
	ID             flexString `json:"id"`
	Title          string     `json:"title"`
	QuizTitle      string     `json:"quiz_title"`
	Name           string     `json:"name"`
	TimeLimit      *int       `json:"time_limit"`
	TimeLimitMin   *int       `json:"time_limit_minutes"`
	Duration       *int       `json:"duration_minutes"`
	TotalQuestions *int       `json:"total_questions"`
	QuestionCount  *int       `json:"question_count"`
	Difficulty     string     `json:"difficulty"`
	IsLive         *bool      `json:"is_live"`
	Live           *bool      `json:"live"`
	HasPassword    *bool      `json:"password_protected"`
	RequiresPass   *bool      `json:"requires_password"`
	Password       string     `json:"password"`
	SessionPass    string     `json:"session_password"`
	ScheduledStart string     `json:"scheduled_start"`
	StartTime      string     `json:"start_time"`
	DueDate        string     `json:"due_date"`
	Deadline       string     `json:"deadline"`
}

func (p *quizPayload) normalize() (*model.Quiz, error) {
	if p.ID == "" {
		return nil, errors.New("quiz payload has no id")
	}
	password := firstString(p.Password, p.SessionPass)
	quiz := &model.Quiz{
		ID:                string(p.ID),
		Title:             firstString(p.Title, p.QuizTitle, p.Name),
		TimeLimitMinutes:  firstInt(p.TimeLimit, p.TimeLimitMin, p.Duration),
		TotalQuestions:    firstInt(p.TotalQuestions, p.QuestionCount),
		Difficulty:        p.Difficulty,
		IsLive:            firstBool(p.IsLive, p.Live),
		PasswordProtected: firstBool(p.HasPassword, p.RequiresPass) || password != "",
		Password:          password,
		ScheduledStart:    parseTime(firstString(p.ScheduledStart, p.StartTime)),
		DueDate:           parseTime(firstString(p.DueDate, p.Deadline)),
	}
	return quiz, nil
}

// ─── Question ───────────────────────────────────────────────────────

type choicePayload struct {
	ID   flexString `json:"id"`
	Text string     `json:"text"`
	Body string     `json:"choice_text"`
}

type questionPayload struct {
	ID       flexString      `json:"id"`
	Type     string          `json:"question_type"`
	AltType  string          `json:"type"`
	Prompt   string          `json:"prompt"`
	Text     string          `json:"question_text"`
	Choices  []choicePayload `json:"choices"`
	Options  []choicePayload `json:"options"`
	Points   *int            `json:"points"`
	Marks    *int            `json:"marks"`
	Position *int            `json:"position"`
	Order    *int            `json:"order_num"`
}

// normalizeQuestionType folds the upstream type spellings into the canonical
// enum. Unknown types degrade to short answer so the session stays usable.
func normalizeQuestionType(raw string) model.QuestionType {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), "-", "_")) {
	case "multiple_choice", "mcq", "choice":
		return model.QuestionTypeMultipleChoice
	case "true_false", "tf", "boolean":
		return model.QuestionTypeTrueFalse
	default:
		return model.QuestionTypeShortAnswer
	}
}

func (p *questionPayload) normalize(fallbackPosition int) (model.Question, error) {
	if p.ID == "" {
		return model.Question{}, errors.New("question payload has no id")
	}

	qType := normalizeQuestionType(firstString(p.Type, p.AltType))

	rawChoices := p.Choices
	if len(rawChoices) == 0 {
		rawChoices = p.Options
	}
	var choices []model.Choice
	if qType == model.QuestionTypeMultipleChoice {
		choices = make([]model.Choice, 0, len(rawChoices))
		for _, c := range rawChoices {
			choices = append(choices, model.Choice{
				ID:   string(c.ID),
				Text: firstString(c.Text, c.Body),
			})
		}
	}

	points := firstInt(p.Points, p.Marks)
	if points <= 0 {
		points = 1
	}

	position := fallbackPosition
	if v := firstInt(p.Position, p.Order); v > 0 {
		position = v
	}

	return model.Question{
		ID:       string(p.ID),
		Type:     qType,
		Prompt:   firstString(p.Prompt, p.Text),
		Choices:  choices,
		Points:   points,
		Position: position,
	}, nil
}

// normalizeQuestions converts and orders a full question list.
func normalizeQuestions(payloads []questionPayload) ([]model.Question, error) {
	questions := make([]model.Question, 0, len(payloads))
	for i, p := range payloads {
		q, err := p.normalize(i + 1)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Position < questions[j].Position
	})
	return questions, nil
}

// ─── Attempt ────────────────────────────────────────────────────────

type attemptPayload struct {
	ID        flexString `json:"id"`
	AttemptID flexString `json:"attempt_id"`
	QuizID    flexString `json:"quiz_id"`
	Quiz      flexString `json:"quiz"`
	Status    string     `json:"status"`
	StartedAt string     `json:"started_at"`
	CreatedAt string     `json:"created_at"`
}

func (p *attemptPayload) normalize(now time.Time) (*model.Attempt, error) {
	id := firstString(string(p.ID), string(p.AttemptID))
	if id == "" {
		return nil, errors.New("attempt payload has no id")
	}

	status := model.AttemptStatusInProgress
	if strings.EqualFold(strings.TrimSpace(p.Status), "submitted") {
		status = model.AttemptStatusSubmitted
	}

	startedAt := now
	if t := parseTime(firstString(p.StartedAt, p.CreatedAt)); t != nil {
		startedAt = *t
	}

	return &model.Attempt{
		ID:        id,
		QuizID:    firstString(string(p.QuizID), string(p.Quiz)),
		Status:    status,
		StartedAt: startedAt,
	}, nil
}
