package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("Error returns formatted string", func(t *testing.T) {
		err := New(ErrCodeNotFound, "Session not found")
		assert.Equal(t, "NOT_FOUND: Session not found", err.Error())
	})

	t.Run("Error with cause includes cause", func(t *testing.T) {
		cause := errors.New("database connection failed")
		err := Wrap(ErrCodeDatabase, "Database error", cause)
		assert.Contains(t, err.Error(), "DATABASE_ERROR")
		assert.Contains(t, err.Error(), "Database error")
		assert.Contains(t, err.Error(), "database connection failed")
	})

	t.Run("WithCause adds cause to error", func(t *testing.T) {
		cause := errors.New("original error")
		err := New(ErrCodeInternal, "Something went wrong").WithCause(cause)
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("WithDetails adds details to error", func(t *testing.T) {
		details := map[string]string{"field": "participantId", "reason": "unknown user"}
		err := New(ErrCodeValidation, "Validation failed").WithDetails(details)
		assert.Equal(t, details, err.Details)
	})
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name         string
		constructor  func() *AppError
		expectedCode ErrorCode
	}{
		{"Unauthorized", func() *AppError { return Unauthorized("test") }, ErrCodeUnauthorized},
		{"Forbidden", func() *AppError { return Forbidden("test") }, ErrCodeForbidden},
		{"NotFound", func() *AppError { return NotFound("Session") }, ErrCodeNotFound},
		{"ValidationError", func() *AppError { return ValidationError("test") }, ErrCodeValidation},
		{"InvalidInput", func() *AppError { return InvalidInput("participantId", "unknown") }, ErrCodeInvalidInput},
		{"MissingRequired", func() *AppError { return MissingRequired("participantId") }, ErrCodeMissingRequired},
		{"SelfSession", func() *AppError { return SelfSession() }, ErrCodeSelfSession},
		{"NotApprovedContact", func() *AppError { return NotApprovedContact() }, ErrCodeNotApprovedContact},
		{"NotParticipant", func() *AppError { return NotParticipant() }, ErrCodeForbidden},
		{"InvalidStateTransition", func() *AppError { return InvalidStateTransition("completed", "start") }, ErrCodeInvalidStateTransition},
		{"NotReadyYet", func() *AppError { return NotReadyYet() }, ErrCodeNotReadyYet},
		{"TokenExpired", func() *AppError { return TokenExpired() }, ErrCodeTokenExpired},
		{"TokenAlreadyUsed", func() *AppError { return TokenAlreadyUsed() }, ErrCodeTokenAlreadyUsed},
		{"ProvisioningFailed", func() *AppError { return ProvisioningFailed(errors.New("timeout")) }, ErrCodeProvisioningFailed},
		{"RateLimitExceeded", func() *AppError { return RateLimitExceeded() }, ErrCodeRateLimitExceeded},
		{"Internal", func() *AppError { return Internal("test") }, ErrCodeInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.constructor()
			assert.Equal(t, tc.expectedCode, err.Code)
			assert.NotEmpty(t, err.Message)
		})
	}
}

func TestInvalidStateTransition(t *testing.T) {
	t.Run("message names status and operation", func(t *testing.T) {
		err := InvalidStateTransition("pending", "end")
		assert.Contains(t, err.Message, "pending")
		assert.Contains(t, err.Message, "end")
	})
}

func TestDatabase(t *testing.T) {
	t.Run("wraps database error", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Database("find session", cause)
		assert.Equal(t, ErrCodeDatabase, err.Code)
		assert.Equal(t, cause, err.Unwrap())
	})
}

func TestAsAppError(t *testing.T) {
	t.Run("extracts AppError", func(t *testing.T) {
		original := New(ErrCodeNotFound, "Session not found")
		extracted, ok := AsAppError(original)
		assert.True(t, ok)
		assert.Equal(t, original, extracted)
	})

	t.Run("extracts AppError through wrapping", func(t *testing.T) {
		original := TokenExpired()
		wrapped := fmt.Errorf("validate token: %w", original)
		extracted, ok := AsAppError(wrapped)
		assert.True(t, ok)
		assert.Equal(t, ErrCodeTokenExpired, extracted.Code)
	})

	t.Run("returns false for non-AppError", func(t *testing.T) {
		err := errors.New("standard error")
		extracted, ok := AsAppError(err)
		assert.False(t, ok)
		assert.Nil(t, extracted)
	})
}

func TestIsCode(t *testing.T) {
	t.Run("matches code", func(t *testing.T) {
		assert.True(t, IsCode(TokenAlreadyUsed(), ErrCodeTokenAlreadyUsed))
	})

	t.Run("does not match different code", func(t *testing.T) {
		assert.False(t, IsCode(TokenExpired(), ErrCodeTokenAlreadyUsed))
	})

	t.Run("false for plain error", func(t *testing.T) {
		assert.False(t, IsCode(errors.New("nope"), ErrCodeNotFound))
	})
}
