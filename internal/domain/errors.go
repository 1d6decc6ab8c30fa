package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrValidation marks malformed input. Surfaced as 400.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateIdentity is returned when the email is already registered. Surfaced as 409.
	ErrDuplicateIdentity = errors.New("identity already taken")

	// ErrInvalidCredentials covers unknown identity, wrong password and inactive account alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized is returned for a refresh token that is missing, forged or names an unknown user.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRefreshExpired is returned for a well-formed refresh token past its expiry.
	ErrRefreshExpired = errors.New("refresh token expired")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInternal wraps store and connectivity failures. Callers only ever see a generic message.
	ErrInternal = errors.New("internal error")
)

// ValidationError carries field-level messages.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// FailureCause classifies why a registration did not commit.
type FailureCause string

const (
	CauseValidation   FailureCause = "validation"
	CauseDuplicateKey FailureCause = "duplicate-key"
	CauseCast         FailureCause = "cast"
	CauseUnknown      FailureCause = "unknown"
)

// RegistrationError is the only error kind the registration transaction returns.
type RegistrationError struct {
	Cause FailureCause
	Err   error
}

func (e *RegistrationError) Error() string {
	if e.Err == nil {
		return "registration failed (" + string(e.Cause) + ")"
	}
	return "registration failed (" + string(e.Cause) + "): " + e.Err.Error()
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// Is maps the cause onto the public taxonomy so handlers can rely on errors.Is alone.
func (e *RegistrationError) Is(target error) bool {
	switch e.Cause {
	case CauseDuplicateKey:
		return target == ErrDuplicateIdentity
	case CauseValidation:
		return target == ErrValidation
	default:
		return target == ErrInternal
	}
}
