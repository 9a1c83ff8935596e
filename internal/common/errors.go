// Package common defines shared sentinel errors and helpers used across the
// access service. Callers should match sentinels with errors.Is.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed access token).
	ErrInvalidToken = errors.New("invalid token")
)

// PolicyError is a terminal access denial carrying a stable machine-readable
// code for clients and moderation tooling. Policy errors map to HTTP 403.
type PolicyError struct {
	Code    string
	Message string
}

func (e *PolicyError) Error() string { return e.Message }

// ValidationError is a malformed-request failure with a stable code.
// Validation errors map to HTTP 400.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Access-policy denials. These are pointer sentinels: errors.Is comparisons
// work because the same instance is always returned.
var (
	ErrAccessBanned   = &PolicyError{Code: "NOTE_ACCESS_BANNED", Message: "access to this note is banned"}
	ErrPremiumLocked  = &PolicyError{Code: "NOTE_PREMIUM_LOCKED", Message: "premium subscription required"}
	ErrSessionLimit   = &PolicyError{Code: "NOTE_SESSION_LIMIT", Message: "too many concurrent view sessions"}
	ErrSessionInvalid = &PolicyError{Code: "NOTE_SESSION_INVALID", Message: "view session is invalid or expired"}
	ErrRateLimited    = &PolicyError{Code: "NOTE_RATE_LIMIT", Message: "too many content requests"}
)

// Request-validation failures.
var (
	ErrTokenMissing = &ValidationError{Code: "NOTE_TOKEN_MISSING", Message: "view token is required"}
	ErrRangeInvalid = &ValidationError{Code: "NOTE_RANGE_INVALID", Message: "malformed or unsatisfiable range"}
)
