package model

import "encoding/json"

// OpenGateRequest is the payload for opening a countdown gate.
type OpenGateRequest struct {
	QuizID string `json:"quiz_id" binding:"required,min=1,max=64"`
}

// GatePasswordRequest is the payload for the gate's password step.
type GatePasswordRequest struct {
	Password string `json:"password" binding:"required,max=128"`
}

// RecordAnswerRequest is the payload for one answer write. Value is raw JSON
// because its shape depends on the question type (choice id, boolean, or
// text); normalization happens inside the session.
type RecordAnswerRequest struct {
	QuestionID string          `json:"question_id" binding:"required,min=1,max=64"`
	Value      json.RawMessage `json:"value" binding:"required"`
}

// NavigateRequest moves the session's question pointer.
type NavigateRequest struct {
	Op    string `json:"op" binding:"required,oneof=next prev jump"`
	Index int    `json:"index" binding:"omitempty,min=0"`
}
