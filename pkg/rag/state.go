package rag

import (
	"heritage-archive-be/pkg/rag/message"
)

// ConversationState is owned by one thread. Only the executor and the aggregator mutate it.
type ConversationState struct {
	ThreadID      string
	QueriesMade   []string
	TurnCount     int
	ToolCallCount int
	Transcript    []message.Message

	// archives_found: keys unique, iteration in discovery order.
	foundIndex map[string]int
	found      []ArchiveRecord
}

// NewConversationState returns an empty state for threadID.
func NewConversationState(threadID string) *ConversationState {
	if threadID == "" {
		threadID = DefaultThreadID
	}
	return &ConversationState{
		ThreadID:   threadID,
		foundIndex: make(map[string]int),
	}
}

// RecordQuery appends one attempted query or filter. Never deduplicated.
func (s *ConversationState) RecordQuery(q string) {
	s.QueriesMade = append(s.QueriesMade, q)
}

// HasArchive reports whether id is already in archives_found.
func (s *ConversationState) HasArchive(id string) bool {
	_, ok := s.foundIndex[id]
	return ok
}

// AddArchive inserts rec if its identity is new. Re-adding is a no-op.
func (s *ConversationState) AddArchive(rec ArchiveRecord) bool {
	if s.foundIndex == nil {
		s.foundIndex = make(map[string]int)
	}
	if _, ok := s.foundIndex[rec.ID]; ok {
		return false
	}
	s.foundIndex[rec.ID] = len(s.found)
	s.found = append(s.found, rec)
	return true
}

// Archives returns archives_found in discovery order.
func (s *ConversationState) Archives() []ArchiveRecord {
	out := make([]ArchiveRecord, len(s.found))
	copy(out, s.found)
	return out
}

// ArchiveCount is len(archives_found).
func (s *ConversationState) ArchiveCount() int {
	return len(s.found)
}

// Clone returns a deep enough copy that the original can keep being mutated.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	c := &ConversationState{
		ThreadID:      s.ThreadID,
		QueriesMade:   append([]string(nil), s.QueriesMade...),
		TurnCount:     s.TurnCount,
		ToolCallCount: s.ToolCallCount,
		Transcript:    append([]message.Message(nil), s.Transcript...),
		foundIndex:    make(map[string]int, len(s.foundIndex)),
		found:         append([]ArchiveRecord(nil), s.found...),
	}
	for k, v := range s.foundIndex {
		c.foundIndex[k] = v
	}
	return c
}

// Snapshot is the serializable view of a thread.
type Snapshot struct {
	ThreadID      string          `json:"thread_id"`
	QueriesMade   []string        `json:"queries_made"`
	TurnCount     int             `json:"turn_count"`
	ToolCallCount int             `json:"tool_call_count"`
	Archives      []ArchiveRecord `json:"archives"`
}

func (s *ConversationState) Snapshot() Snapshot {
	queries := append([]string{}, s.QueriesMade...)
	return Snapshot{
		ThreadID:      s.ThreadID,
		QueriesMade:   queries,
		TurnCount:     s.TurnCount,
		ToolCallCount: s.ToolCallCount,
		Archives:      s.Archives(),
	}
}
