// Package common defines shared constants and sentinel errors used across
// paykeeper components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Auth errors (rejected credentials, malformed or stale tokens).
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Transport-level errors.
	ErrUnavailable = errors.New("server unavailable")

	// Multi-user context errors.
	ErrNoActiveUser     = errors.New("no active user")
	ErrSwitchInProgress = errors.New("user switch already in progress")

	// Order errors.
	ErrAmountTooLow = errors.New("amount below minimum")
)
