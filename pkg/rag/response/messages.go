package response

import (
	"errors"

	"heritage-archive-be/pkg/rag"
)

const (
	NoResultsMessage   = "No matching archives found"
	TimeoutMessage     = "The search took too long to complete. Please try again."
	FailureMessage     = "The archive search is unavailable right now. Please try again later."
	UpstreamMessage    = "The assistant could not understand the request right now. Please try again later."
	ConflictMessage    = "Another search is still running in this conversation."
	QueueFullMessage   = "Too many searches are queued on this connection. Wait for the current one to finish."
	InvalidQueryPrefix = "Invalid query"
)

// UserMessage turns a turn-level error into text that is safe to show to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, rag.ErrInvalidInput):
		return InvalidQueryPrefix + ": " + err.Error()
	case errors.Is(err, rag.ErrTimeout):
		return TimeoutMessage
	case errors.Is(err, rag.ErrUpstreamUnavailable):
		return UpstreamMessage
	case errors.Is(err, rag.ErrConcurrentTurnConflict):
		return ConflictMessage
	default:
		return FailureMessage
	}
}
