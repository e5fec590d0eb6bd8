package model

import (
	"encoding/json"
	"errors"
	"strings"
)

// SaveStatus is the transient per-answer autosave indicator. It is purely
// observational: never persisted, reset on the next edit.
type SaveStatus string

const (
	SaveStatusIdle   SaveStatus = "idle"
	SaveStatusSaving SaveStatus = "saving"
	SaveStatusSaved  SaveStatus = "saved"
	SaveStatusError  SaveStatus = "error"
)

// ErrValueMismatch indicates an answer value that does not fit the question
// type (wrong JSON kind, or an empty selection).
var ErrValueMismatch = errors.New("answer value does not match question type")

// NormalizeAnswerValue converts a raw browser-supplied answer value into the
// canonical string form stored by the session:
//
//   - multiple_choice: the selected choice id
//   - true_false:      "true" or "false" (a JSON boolean or its string form)
//   - short_answer:    the text as typed (empty clears the answer)
//
// This is the only place inbound answer shapes are interpreted; everything
// past it deals in canonical strings.
func NormalizeAnswerValue(t QuestionType, raw json.RawMessage) (string, error) {
	switch t {
	case QuestionTypeMultipleChoice:
		var choiceID string
		if err := json.Unmarshal(raw, &choiceID); err != nil || choiceID == "" {
			return "", ErrValueMismatch
		}
		return choiceID, nil

	case QuestionTypeTrueFalse:
		var flag bool
		if err := json.Unmarshal(raw, &flag); err == nil {
			if flag {
				return "true", nil
			}
			return "false", nil
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			switch strings.ToLower(strings.TrimSpace(s)) {
			case "true":
				return "true", nil
			case "false":
				return "false", nil
			}
		}
		return "", ErrValueMismatch

	case QuestionTypeShortAnswer:
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return "", ErrValueMismatch
		}
		return text, nil

	default:
		return "", ErrValueMismatch
	}
}
