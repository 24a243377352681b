package store

import "heritage-archive-be/pkg/rag"

// ConversationRepository keeps conversation state per thread for the lifetime of the process.
// Implementations must be safe for concurrent use across threads.
type ConversationRepository interface {
	Get(threadID string) (*rag.ConversationState, bool)
	Save(state *rag.ConversationState)
	Delete(threadID string)
}
