package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rech03/CES-sub001/internal/middleware"
	"github.com/Rech03/CES-sub001/internal/model"
	"github.com/Rech03/CES-sub001/internal/response"
	"github.com/Rech03/CES-sub001/internal/session"
	"github.com/Rech03/CES-sub001/internal/validator"
)

// SessionHandler drives the student's live attempt session.
type SessionHandler struct {
	manager *session.Manager
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(manager *session.Manager) *SessionHandler {
	return &SessionHandler{manager: manager}
}

// active resolves the caller's running session or writes the error response.
func (h *SessionHandler) active(c *gin.Context) (*session.Session, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, false
	}
	sess, ok := h.manager.Active(claims.UserID)
	if !ok {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
		return nil, false
	}
	return sess, true
}

// GetState godoc
// GET /api/v1/attempt/session
// Returns the full session snapshot. This is the page-reload path: the
// browser recovers questions, answers, remaining time and the pointer.
func (h *SessionHandler) GetState(c *gin.Context) {
	sess, ok := h.active(c)
	if !ok {
		return
	}
	view, err := sess.State()
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// RecordAnswer godoc
// POST /api/v1/attempt/session/answers
// Stores the answer and schedules its publish. The response acknowledges
// the local write only; publish outcomes arrive as save_status events.
func (h *SessionHandler) RecordAnswer(c *gin.Context) {
	sess, ok := h.active(c)
	if !ok {
		return
	}

	var req model.RecordAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := sess.RecordAnswer(req.QuestionID, req.Value); err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question_id": req.QuestionID, "recorded": true})
}

// FlushAnswer godoc
// POST /api/v1/attempt/session/answers/:question_id/flush
// Publishes a debounced free-text answer immediately (loss of focus).
func (h *SessionHandler) FlushAnswer(c *gin.Context) {
	sess, ok := h.active(c)
	if !ok {
		return
	}

	questionID := c.Param("question_id")
	if questionID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := sess.FlushAnswer(questionID); err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question_id": questionID, "flushed": true})
}

// Navigate godoc
// POST /api/v1/attempt/session/navigate
// Moves the question pointer; the result is always clamped to the list.
func (h *SessionHandler) Navigate(c *gin.Context) {
	sess, ok := h.active(c)
	if !ok {
		return
	}

	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	index, err := sess.Navigate(req.Op, req.Index)
	if err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"index": index})
}

// SubmitPreview godoc
// GET /api/v1/attempt/session/submit-preview
// Returns the unanswered-question warning for the confirm dialog.
func (h *SessionHandler) SubmitPreview(c *gin.Context) {
	sess, ok := h.active(c)
	if !ok {
		return
	}
	preview, err := sess.Preview()
	if err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"preview": preview})
}

// Submit godoc
// POST /api/v1/attempt/session/submit
// Finalizes the attempt. The platform notification is best-effort; the
// student always gets the success outcome once the local boundary passes.
func (h *SessionHandler) Submit(c *gin.Context) {
	sess, ok := h.active(c)
	if !ok {
		return
	}

	handoff, err := sess.Submit()
	if err != nil {
		h.failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"message": "Quiz submitted successfully",
		"handoff": handoff,
	})
}

// Leave godoc
// DELETE /api/v1/attempt/session
// Navigate-away teardown: cancels timers and pending publishes.
func (h *SessionHandler) Leave(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	h.manager.Leave(c.Request.Context(), claims.UserID)
	response.Success(c, http.StatusOK, gin.H{"left": true})
}

func (h *SessionHandler) failSession(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrSessionSubmitted):
		response.Fail(c, http.StatusConflict, response.ErrSessionSubmitted)
	case errors.Is(err, session.ErrQuestionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrQuestionNotFound)
	case errors.Is(err, model.ErrValueMismatch):
		response.Fail(c, http.StatusBadRequest, response.ErrAnswerMismatch)
	case errors.Is(err, session.ErrNoActiveSession):
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
	default:
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	}
}
