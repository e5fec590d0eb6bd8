package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rech03/CES-sub001/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second, zerolog.Nop())
}

func TestGetQuizNormalizesAlternateSpellings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quizzes/42/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-7" {
			t.Errorf("unexpected auth header %q", got)
		}
		// Numeric id, quiz_title spelling, duration_minutes spelling.
		w.Write([]byte(`{
			"id": 42,
			"quiz_title": "Concurrency Basics",
			"duration_minutes": 20,
			"question_count": 5,
			"live": true,
			"session_password": "hunter2"
		}`))
	})

	quiz, err := client.GetQuiz(context.Background(), "token-7", "42")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if quiz.ID != "42" || quiz.Title != "Concurrency Basics" {
		t.Fatalf("unexpected quiz %+v", quiz)
	}
	if quiz.TimeLimitMinutes != 20 || quiz.TotalQuestions != 5 {
		t.Fatalf("unexpected limits %+v", quiz)
	}
	if !quiz.IsLive || !quiz.PasswordProtected || quiz.Password != "hunter2" {
		t.Fatalf("unexpected password fields %+v", quiz)
	}
}

func TestGetQuizQuestionsNormalizesAndOrders(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quizzes/42/questions/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		// Out of order, mixed type spellings, options instead of choices.
		w.Write([]byte(`[
			{"id": "q2", "type": "TF", "question_text": "Slices are reference types", "order_num": 2},
			{"id": "q1", "question_type": "mcq", "prompt": "Pick one",
			 "options": [{"id": 1, "choice_text": "A"}, {"id": 2, "choice_text": "B"}],
			 "marks": 3, "position": 1}
		]`))
	})

	questions, err := client.GetQuizQuestions(context.Background(), "token-7", "42")
	if err != nil {
		t.Fatalf("get questions: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}

	first := questions[0]
	if first.ID != "q1" || first.Type != model.QuestionTypeMultipleChoice {
		t.Fatalf("unexpected first question %+v", first)
	}
	if len(first.Choices) != 2 || first.Choices[0].ID != "1" || first.Choices[0].Text != "A" {
		t.Fatalf("unexpected choices %+v", first.Choices)
	}
	if first.Points != 3 {
		t.Fatalf("expected marks mapped to points, got %d", first.Points)
	}

	second := questions[1]
	if second.Type != model.QuestionTypeTrueFalse || second.Prompt != "Slices are reference types" {
		t.Fatalf("unexpected second question %+v", second)
	}
}

func TestStartAttemptForwardsPassword(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/quizzes/42/attempts/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"attempt_id": 901, "quiz": 42, "status": "in_progress"}`))
	})

	attempt, err := client.StartAttempt(context.Background(), "token-7", "42", "hunter2")
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	if body["password"] != "hunter2" {
		t.Fatalf("expected password forwarded, got %v", body)
	}
	if attempt.ID != "901" || attempt.QuizID != "42" || attempt.Status != model.AttemptStatusInProgress {
		t.Fatalf("unexpected attempt %+v", attempt)
	}
}

func TestSubmitAnswerEncodesTrueFalseAsBoolean(t *testing.T) {
	var bodies []map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		bodies = append(bodies, body)
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	if err := client.SubmitAnswer(ctx, "token-7", "901", model.QuestionTypeTrueFalse, "q2", "false"); err != nil {
		t.Fatalf("submit tf answer: %v", err)
	}
	if err := client.SubmitAnswer(ctx, "token-7", "901", model.QuestionTypeShortAnswer, "q3", "false"); err != nil {
		t.Fatalf("submit text answer: %v", err)
	}

	if v, ok := bodies[0]["value"].(bool); !ok || v {
		t.Fatalf("expected JSON boolean false for true_false, got %T %v", bodies[0]["value"], bodies[0]["value"])
	}
	if v, ok := bodies[1]["value"].(string); !ok || v != "false" {
		t.Fatalf("expected literal string for short answer, got %T %v", bodies[1]["value"], bodies[1]["value"])
	}
}

func TestStatusCodesMapToErrorTaxonomy(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusConflict, ErrConflict},
		{http.StatusInternalServerError, ErrUnavailable},
		{http.StatusBadGateway, ErrUnavailable},
	}

	for _, tc := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, err := client.GetQuiz(context.Background(), "token-7", "42")
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}
}

func TestUnreachableHostIsUnavailable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 200*time.Millisecond, zerolog.Nop())

	_, err := client.GetQuiz(context.Background(), "token-7", "42")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
