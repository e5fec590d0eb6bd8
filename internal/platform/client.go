package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Rech03/CES-sub001/internal/model"
)

// Client talks to the quiz platform's REST API. Authentication tokens are
// minted by the platform's auth service; the client only attaches the bearer
// token it is handed per call.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a platform API client. baseURL is the API root without a
// trailing slash (e.g. https://ces.example.com/api).
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "platform_client").Logger(),
	}
}

// GetQuiz fetches and normalizes a quiz record.
func (c *Client) GetQuiz(ctx context.Context, token, quizID string) (*model.Quiz, error) {
	var payload quizPayload
	endpoint := fmt.Sprintf("/quizzes/%s/", quizID)
	if err := c.doJSON(ctx, http.MethodGet, endpoint, token, nil, &payload); err != nil {
		return nil, err
	}
	return payload.normalize()
}

// GetQuizQuestions fetches the quiz's ordered question list. An empty list is
// returned as-is; rejecting it is the caller's decision.
func (c *Client) GetQuizQuestions(ctx context.Context, token, quizID string) ([]model.Question, error) {
	var payloads []questionPayload
	endpoint := fmt.Sprintf("/quizzes/%s/questions/", quizID)
	if err := c.doJSON(ctx, http.MethodGet, endpoint, token, nil, &payloads); err != nil {
		return nil, err
	}
	return normalizeQuestions(payloads)
}

// StartAttempt creates a new attempt for the quiz. password is forwarded
// when non-empty; the platform is the real authority on whether it is
// required or correct.
func (c *Client) StartAttempt(ctx context.Context, token, quizID, password string) (*model.Attempt, error) {
	body := map[string]any{}
	if password != "" {
		body["password"] = password
	}

	var payload attemptPayload
	endpoint := fmt.Sprintf("/quizzes/%s/attempts/", quizID)
	if err := c.doJSON(ctx, http.MethodPost, endpoint, token, body, &payload); err != nil {
		return nil, err
	}
	return payload.normalize(time.Now())
}

// SubmitAnswer writes one answer to the attempt record. True/false values
// are re-encoded as JSON booleans on the wire; everything else goes as a
// string. The caller does not retry on failure.
func (c *Client) SubmitAnswer(ctx context.Context, token, attemptID string, qType model.QuestionType, questionID, value string) error {
	body := map[string]any{"question_id": questionID}
	if qType == model.QuestionTypeTrueFalse {
		body["value"] = value == "true"
	} else {
		body["value"] = value
	}

	endpoint := fmt.Sprintf("/attempts/%s/answers/", attemptID)
	return c.doJSON(ctx, http.MethodPost, endpoint, token, body, nil)
}

// SubmitAttempt finalizes the attempt upstream.
func (c *Client) SubmitAttempt(ctx context.Context, token, attemptID string) error {
	endpoint := fmt.Sprintf("/attempts/%s/submit/", attemptID)
	return c.doJSON(ctx, http.MethodPost, endpoint, token, map[string]any{}, nil)
}

// doJSON performs one request/response cycle: marshal, send with bearer
// token, map the status to the error taxonomy, decode into out when given.
func (c *Client) doJSON(ctx context.Context, method, endpoint, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("platform: marshal %s body: %w", endpoint, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("platform: build %s request: %w", endpoint, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return statusError(endpoint, resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("platform: decode %s response: %w", endpoint, err)
	}
	return nil
}
