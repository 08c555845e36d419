package apperrors

// ErrorCode identifies an error class independently of the HTTP status it maps to.
type ErrorCode string

const (
	// System and unknown failures
	CodeInternalError ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError ErrorCode = "DATABASE_ERROR"

	// Generic business errors
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeAlreadyExists    ErrorCode = "ALREADY_EXISTS"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeConflict         ErrorCode = "CONFLICT"

	// Authentication and authorization
	CodeUnauthenticated  ErrorCode = "UNAUTHENTICATED"
	CodeForbidden        ErrorCode = "FORBIDDEN"
	CodeTokenInvalidated ErrorCode = "TOKEN_INVALIDATED"

	// Email verification
	CodeAlreadyVerified ErrorCode = "ALREADY_VERIFIED"
	CodeNoActiveRequest ErrorCode = "NO_ACTIVE_REQUEST"
	CodeCodeExpired     ErrorCode = "CODE_EXPIRED"
	CodeInvalidCode     ErrorCode = "INVALID_CODE"
	CodeResendCooldown  ErrorCode = "RESEND_COOLDOWN"
)
