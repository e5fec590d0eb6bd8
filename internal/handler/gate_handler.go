package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Rech03/CES-sub001/internal/middleware"
	"github.com/Rech03/CES-sub001/internal/model"
	"github.com/Rech03/CES-sub001/internal/response"
	"github.com/Rech03/CES-sub001/internal/session"
	"github.com/Rech03/CES-sub001/internal/validator"
)

// GateHandler drives the pre-session countdown gate.
type GateHandler struct {
	manager *session.Manager
}

// NewGateHandler creates a new GateHandler.
func NewGateHandler(manager *session.Manager) *GateHandler {
	return &GateHandler{manager: manager}
}

// OpenGate godoc
// POST /api/v1/attempt/gates
// Fetches the quiz and opens the gate. Schedule refusals come back as a
// gate already in its unavailable state, not as an HTTP error, so the
// browser renders the reason with a back action.
func (h *GateHandler) OpenGate(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.OpenGateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	gate := h.manager.OpenGate(c.Request.Context(), middleware.GetToken(c), claims.UserID, req.QuizID)
	response.Success(c, http.StatusCreated, gin.H{"gate": gate.View()})
}

// GetGate godoc
// GET /api/v1/attempt/gates/:gate_id
// Returns the gate snapshot; the browser polls this during the countdown.
func (h *GateHandler) GetGate(c *gin.Context) {
	gate, ok := h.lookupGate(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{"gate": gate.View()})
}

// VerifyPassword godoc
// POST /api/v1/attempt/gates/:gate_id/password
// Runs the advisory password check; success starts the countdown.
func (h *GateHandler) VerifyPassword(c *gin.Context) {
	gate, ok := h.lookupGate(c)
	if !ok {
		return
	}

	var req model.GatePasswordRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := gate.VerifyPassword(req.Password); err != nil {
		switch {
		case errors.Is(err, session.ErrPasswordRejected):
			response.Fail(c, http.StatusBadRequest, response.ErrPasswordRejected)
		case errors.Is(err, session.ErrQuizUnavailable):
			response.Fail(c, http.StatusConflict, response.ErrQuizUnavailable)
		default:
			response.Fail(c, http.StatusNotFound, response.ErrGateClosed)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"gate": gate.View()})
}

// Admit godoc
// POST /api/v1/attempt/gates/:gate_id/admit
// Consumes a ready gate and starts the attempt session. This is the only
// point at which an attempt is created upstream.
func (h *GateHandler) Admit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	gateID, err := uuid.Parse(c.Param("gate_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	sess, err := h.manager.Admit(c.Request.Context(), gateID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrGateNotReady):
			response.Fail(c, http.StatusConflict, response.ErrGateNotReady)
		case errors.Is(err, session.ErrQuizUnavailable):
			response.Fail(c, http.StatusConflict, response.ErrQuizUnavailable)
		case errors.Is(err, session.ErrGateClosed):
			response.Fail(c, http.StatusNotFound, response.ErrGateClosed)
		case errors.Is(err, session.ErrAttemptInitFailed):
			response.Fail(c, http.StatusBadGateway, response.ErrAttemptInitFailed)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	view, err := sess.State()
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"session": view})
}

// AbortGate godoc
// DELETE /api/v1/attempt/gates/:gate_id
// Back-navigation: tears the gate down. No attempt exists yet, so nothing
// upstream is discarded.
func (h *GateHandler) AbortGate(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	gateID, err := uuid.Parse(c.Param("gate_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	h.manager.CloseGate(gateID, claims.UserID)
	response.Success(c, http.StatusOK, gin.H{"closed": true})
}

func (h *GateHandler) lookupGate(c *gin.Context) (*session.Gate, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, false
	}

	gateID, err := uuid.Parse(c.Param("gate_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, false
	}

	gate, ok := h.manager.Gate(gateID, claims.UserID)
	if !ok {
		response.Fail(c, http.StatusNotFound, response.ErrGateClosed)
		return nil, false
	}
	return gate, true
}
