package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeForbidden              = "forbidden"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest  = "invalid_request"
	ErrCodeValidationError = "validation_error"
	ErrCodeMissingField    = "missing_field"

	// Resource errors
	ErrCodeNotFound      = "not_found"
	ErrCodeAlreadyExists = "already_exists"

	// Authoring errors
	ErrCodeQuizCreationFailed = "quiz_creation_failed"
	ErrCodeQuizUpdateFailed   = "quiz_update_failed"
	ErrCodeQuizDeleteFailed   = "quiz_delete_failed"
	ErrCodeQuestionSaveFailed = "question_save_failed"
	ErrCodeAnswerSaveFailed   = "answer_save_failed"

	// Session errors
	ErrCodeSessionNotFound = "session_not_found"
	ErrCodeInvalidPayload  = "invalid_payload"
	ErrCodeUnknownEvent    = "unknown_event_type"

	// Rate limiting
	ErrCodeRateLimited = "rate_limited"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"
)
