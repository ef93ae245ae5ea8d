package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrResourceNotFound ErrCode = "RESOURCE_NOT_FOUND"
	ErrSessionNotFound  ErrCode = "SESSION_NOT_FOUND"

	// ─── Quiz ──────────────────────────────────────────────────────────
	ErrWrongPhase     ErrCode = "WRONG_PHASE"
	ErrNoPrevious     ErrCode = "NO_PREVIOUS"
	ErrUnknownOption  ErrCode = "UNKNOWN_OPTION"
	ErrNoQuestions    ErrCode = "NO_QUESTIONS"
	ErrInvalidQuiz    ErrCode = "INVALID_QUIZ"
	ErrQuizNotCreated ErrCode = "QUIZ_NOT_CREATED"

	// ─── Assistant ─────────────────────────────────────────────────────
	ErrEmptyInput     ErrCode = "EMPTY_INPUT"
	ErrSessionClosed  ErrCode = "SESSION_CLOSED"
	ErrUnknownTask    ErrCode = "UNKNOWN_TASK"
	ErrGatewayFailure ErrCode = "GATEWAY_FAILURE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal    ErrCode = "INTERNAL_ERROR"
	ErrUnavailable ErrCode = "SERVICE_UNAVAILABLE"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Not found."
	case ErrResourceNotFound:
		return "This resource could not be found. It may have been removed."
	case ErrSessionNotFound:
		return "Session not found or expired. Please reopen the page."

	// ─── Quiz ──────────────────────────────────────────────────────────
	case ErrWrongPhase:
		return "This action is not available at this stage of the quiz."
	case ErrNoPrevious:
		return "You are already at the first question."
	case ErrUnknownOption:
		return "The selected answer is not one of the options."
	case ErrNoQuestions:
		return "The quiz has no questions."
	case ErrInvalidQuiz:
		return "The generated quiz is malformed."
	case ErrQuizNotCreated:
		return "The quiz could not be generated. Please try again."

	// ─── Assistant ─────────────────────────────────────────────────────
	case ErrEmptyInput:
		return "Nothing to send."
	case ErrSessionClosed:
		return "This assistant session has ended."
	case ErrUnknownTask:
		return "Unknown assistant task."
	case ErrGatewayFailure:
		return "Something went wrong while processing your request."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	case ErrUnavailable:
		return "Service temporarily unavailable."
	default:
		return "An unexpected error occurred."
	}
}
