package application

import (
	"errors"
	"sort"
	"strings"

	"github.com/example/monthly-attendance/internal/attendance"
)

var (
	// ErrUnauthorized is returned when the caller has no valid session or lacks access to a resource.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when an account with the same email is already registered.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when the identity provider rejects the supplied credentials.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a session token is past its expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session token was signed out.
	ErrSessionRevoked = errors.New("application: session revoked")
	// ErrInvalidResetToken is returned when a password reset token is malformed, expired or already used.
	ErrInvalidResetToken = errors.New("application: invalid password reset token")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// fieldValidationError converts editor field errors.
func fieldValidationError(errs attendance.FieldErrors) *ValidationError {
	vErr := &ValidationError{}
	for field, msg := range errs {
		vErr.add(string(field), msg)
	}
	return vErr
}
