package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeInvalidToken = "invalid_token"
	ErrCodeTokenExpired = "token_expired"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"

	// Resource errors
	ErrCodeNotFound      = "not_found"
	ErrCodeAlreadyExists = "already_exists"
	ErrCodeConflict      = "conflict"

	// Join/game errors
	ErrCodeInvalidJoinCode   = "invalid_join_code"
	ErrCodeGameNotActive     = "game_not_active"
	ErrCodeQuizNotFound      = "quiz_not_found"
	ErrCodeJoinFailed        = "join_failed"
	ErrCodeSubmitFailed      = "submit_failed"
	ErrCodeGameStartFailed   = "game_start_failed"
	ErrCodeGameStopFailed    = "game_stop_failed"
	ErrCodeSubmissionPending = "submission_pending"

	// Catalog errors
	ErrCodeQuizCreationFailed = "quiz_creation_failed"
	ErrCodeQuizDeleteFailed   = "quiz_delete_failed"
	ErrCodeQuizListFailed     = "quiz_list_failed"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"
	ErrCodeConnectionError    = "connection_error"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"

	// OAuth errors
	ErrCodeOAuthNotConfigured  = "oauth_not_configured"
	ErrCodeOAuthStartFailed    = "oauth_start_failed"
	ErrCodeOAuthCallbackFailed = "oauth_callback_failed"
	ErrCodeOAuthMissingCode    = "missing_code"
	ErrCodeOAuthInvalidState   = "invalid_state"

	// Guest errors
	ErrCodeGuestCreationFailed = "guest_creation_failed"
	ErrCodeLoginFailed         = "login_failed"
)
