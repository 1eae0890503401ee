package apperrors

// ErrorCode identifies a class of failure in API responses.
type ErrorCode string

const (
	// System failures
	CodeInternalError    ErrorCode = "INTERNAL_ERROR"
	CodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"

	// Request failures
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeNotFound         ErrorCode = "NOT_FOUND"

	// Chat-specific failures
	CodeRateLimited   ErrorCode = "RATE_LIMITED"
	CodeWindowExpired ErrorCode = "WINDOW_EXPIRED"

	// Authentication and authorization
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"
)
