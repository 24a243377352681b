package rag

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidInput is returned for empty or malformed queries before any tool call.
	ErrInvalidInput = errors.New("invalid input")
	// ErrToolTransient marks a tool failure that may succeed on retry.
	ErrToolTransient = errors.New("tool transient failure")
	// ErrToolFatal marks a tool failure that must not be retried (auth, permission).
	ErrToolFatal = errors.New("tool fatal failure")
	// ErrTimeout is returned when the request deadline is exceeded.
	ErrTimeout = errors.New("search timed out")
	// ErrConcurrentTurnConflict is returned when a thread already has a turn in flight.
	ErrConcurrentTurnConflict = errors.New("concurrent turn on thread")
	// ErrUpstreamUnavailable is returned when the intent could not be determined.
	ErrUpstreamUnavailable = errors.New("upstream model unavailable")
)

var nonRetryableMarkers = []string{"authentication", "permission", "unauthorized", "forbidden"}

// IsNonRetryable reports whether err describes an auth/permission class failure.
func IsNonRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrToolFatal) || errors.Is(err, ErrInvalidInput) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range nonRetryableMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
