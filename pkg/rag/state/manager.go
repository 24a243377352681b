package state

import (
	"strings"

	"heritage-archive-be/internal/pkg/logger"
	"heritage-archive-be/pkg/rag"
	"heritage-archive-be/pkg/store"
)

// Manager loads and stores conversation state. Callers always work on a private copy,
// so a reader never shares maps with a turn that is still running.
type Manager struct {
	repo   store.ConversationRepository
	logger logger.ILogger
}

func NewManager(repo store.ConversationRepository, log logger.ILogger) *Manager {
	return &Manager{repo: repo, logger: log}
}

// ThreadID normalizes a caller-supplied id. Blank ids share the default thread.
func ThreadID(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" {
		return rag.DefaultThreadID
	}
	return id
}

// Load returns a copy of the thread's state, or a fresh state for a new thread.
func (m *Manager) Load(threadID string) *rag.ConversationState {
	threadID = ThreadID(threadID)
	if existing, found := m.repo.Get(threadID); found {
		return existing.Clone()
	}
	m.logger.Debug("STATE", "New conversation thread", map[string]interface{}{
		"thread_id": threadID,
	})
	return rag.NewConversationState(threadID)
}

// Save stores a copy of state.
func (m *Manager) Save(state *rag.ConversationState) {
	m.repo.Save(state.Clone())
}

// Snapshot returns the thread's serializable view without creating the thread.
func (m *Manager) Snapshot(threadID string) (rag.Snapshot, bool) {
	existing, found := m.repo.Get(ThreadID(threadID))
	if !found {
		return rag.Snapshot{}, false
	}
	return existing.Clone().Snapshot(), true
}

// Reset forgets everything the thread has accumulated.
func (m *Manager) Reset(threadID string) {
	threadID = ThreadID(threadID)
	m.repo.Delete(threadID)
	m.logger.Info("STATE", "Conversation thread reset", map[string]interface{}{
		"thread_id": threadID,
	})
}
