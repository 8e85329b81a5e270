package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Authentication & Authorization
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"

	// Validation
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeMissingRequired ErrorCode = "MISSING_REQUIRED"

	// Resource
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	ErrCodeConflict ErrorCode = "CONFLICT"

	// Session lifecycle
	ErrCodeSelfSession            ErrorCode = "SELF_SESSION"
	ErrCodeNotApprovedContact     ErrorCode = "NOT_APPROVED_CONTACT"
	ErrCodeInvalidStateTransition ErrorCode = "INVALID_STATE_TRANSITION"
	ErrCodeNotReadyYet            ErrorCode = "NOT_READY_YET"

	// Join tokens
	ErrCodeTokenExpired     ErrorCode = "TOKEN_EXPIRED"
	ErrCodeTokenAlreadyUsed ErrorCode = "TOKEN_ALREADY_USED"

	// External collaborators
	ErrCodeProvisioningFailed ErrorCode = "PROVISIONING_FAILED"

	// Rate Limiting
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Internal
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
)

// AppError is a structured error that can be returned to clients
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause to the error
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common error constructors

func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message)
}

func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func ValidationError(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func InvalidInput(field string, reason string) *AppError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("Invalid %s: %s", field, reason))
}

func MissingRequired(field string) *AppError {
	return New(ErrCodeMissingRequired, fmt.Sprintf("%s is required", field))
}

func SelfSession() *AppError {
	return New(ErrCodeSelfSession, "Cannot create a session with yourself")
}

func NotApprovedContact() *AppError {
	return New(ErrCodeNotApprovedContact, "You can only create sessions with approved contacts")
}

func NotParticipant() *AppError {
	return New(ErrCodeForbidden, "You are not a participant in this session")
}

func InvalidStateTransition(from string, op string) *AppError {
	return New(ErrCodeInvalidStateTransition, fmt.Sprintf("Cannot %s a session with status %q", op, from))
}

func NotReadyYet() *AppError {
	return New(ErrCodeNotReadyYet, "The other participant has not confirmed they are ready yet")
}

func TokenExpired() *AppError {
	return New(ErrCodeTokenExpired, "Join token has expired")
}

func TokenAlreadyUsed() *AppError {
	return New(ErrCodeTokenAlreadyUsed, "Join token has already been used")
}

func ProvisioningFailed(cause error) *AppError {
	return Wrap(ErrCodeProvisioningFailed, "Failed to create the meeting, please try again", cause)
}

func RateLimitExceeded() *AppError {
	return New(ErrCodeRateLimitExceeded, "Rate limit exceeded")
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func Database(operation string, cause error) *AppError {
	return Wrap(ErrCodeDatabase, fmt.Sprintf("Database operation failed: %s", operation), cause)
}

// AsAppError attempts to extract an AppError from an error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err carries the given ErrorCode
func IsCode(err error, code ErrorCode) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}
