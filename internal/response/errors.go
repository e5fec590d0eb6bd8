package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Gate ──────────────────────────────────────────────────────────
	ErrQuizUnavailable  ErrCode = "QUIZ_UNAVAILABLE"
	ErrPasswordRejected ErrCode = "PASSWORD_REJECTED"
	ErrGateNotReady     ErrCode = "GATE_NOT_READY"
	ErrGateClosed       ErrCode = "GATE_CLOSED"

	// ─── Session ───────────────────────────────────────────────────────
	ErrAttemptInitFailed ErrCode = "ATTEMPT_INIT_FAILED"
	ErrNoActiveSession   ErrCode = "NO_ACTIVE_SESSION"
	ErrSessionSubmitted  ErrCode = "SESSION_SUBMITTED"
	ErrQuestionNotFound  ErrCode = "QUESTION_NOT_FOUND"
	ErrAnswerMismatch    ErrCode = "ANSWER_MISMATCH"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is not valid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The identifier format is not valid."
	case ErrInvalidPayload:
		return "The request payload is not valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The resource was not found."

	// ─── Gate ──────────────────────────────────────────────────────────
	case ErrQuizUnavailable:
		return "This quiz is not available right now."
	case ErrPasswordRejected:
		return "The quiz password was not accepted."
	case ErrGateNotReady:
		return "The countdown has not finished yet."
	case ErrGateClosed:
		return "This quiz entry has expired. Open the quiz again."

	// ─── Session ───────────────────────────────────────────────────────
	case ErrAttemptInitFailed:
		return "The attempt could not be started. Please go back and try again."
	case ErrNoActiveSession:
		return "You have no quiz attempt in progress."
	case ErrSessionSubmitted:
		return "This attempt has already been submitted."
	case ErrQuestionNotFound:
		return "That question is not part of this attempt."
	case ErrAnswerMismatch:
		return "The answer does not fit this question type."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
