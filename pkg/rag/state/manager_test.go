package state

import (
	"testing"
	"time"

	"heritage-archive-be/internal/pkg/logger"
	"heritage-archive-be/internal/repository/memory"
	"heritage-archive-be/pkg/rag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager() *Manager {
	return NewManager(memory.NewConversationRepository(time.Hour), logger.NewNopLogger())
}

func TestLoadSaveRoundTrip(t *testing.T) {
	m := newManager()

	s := m.Load("  ")
	assert.Equal(t, rag.DefaultThreadID, s.ThreadID)

	s.RecordQuery("batik")
	s.AddArchive(rag.ArchiveRecord{ID: "a"}.WithSimilarity(0.9))
	m.Save(s)

	// mutating after save does not leak into the stored copy
	s.RecordQuery("after save")

	loaded := m.Load("default")
	assert.Equal(t, []string{"batik"}, loaded.QueriesMade)
	assert.True(t, loaded.HasArchive("a"))
}

func TestSnapshotAndReset(t *testing.T) {
	m := newManager()

	_, found := m.Snapshot("t")
	assert.False(t, found)

	s := m.Load("t")
	s.TurnCount = 2
	m.Save(s)

	snap, found := m.Snapshot("t")
	require.True(t, found)
	assert.Equal(t, 2, snap.TurnCount)

	m.Reset("t")
	_, found = m.Snapshot("t")
	assert.False(t, found)
}
