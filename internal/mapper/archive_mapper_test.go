package mapper

import (
	"testing"
	"time"

	"heritage-archive-be/internal/entity"
	"heritage-archive-be/pkg/rag"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveMapperRoundTrip(t *testing.T) {
	m := NewArchiveMapper()
	desc := "Hand-drawn batik"
	e := &entity.Archive{
		Id:          uuid.New(),
		Title:       "Batik of Kelantan",
		Description: &desc,
		Embedding:   []float32{0.1, 0.2},
		MediaTypes:  []string{"image"},
		Dates:       []time.Time{time.Date(1965, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	back := m.ToEntity(m.ToModel(e))

	assert.Equal(t, e.Id, back.Id)
	assert.Equal(t, e.Embedding, back.Embedding)
	assert.Equal(t, []string{}, back.Tags)
	require.Len(t, back.Dates, 1)
	assert.True(t, e.Dates[0].Equal(back.Dates[0]))
}

func TestToRecordSource(t *testing.T) {
	m := NewArchiveMapper()
	e := &entity.Archive{Id: uuid.New(), Title: "Keris"}

	score := 0.82
	scored := m.ToRecord(e, &score)
	assert.Equal(t, rag.SourceSimilarity, scored.Source)
	got, ok := scored.Score()
	require.True(t, ok)
	assert.Equal(t, 0.82, got)

	plain := m.ToRecord(e, nil)
	assert.Equal(t, rag.SourceFilter, plain.Source)
	_, ok = plain.Score()
	assert.False(t, ok)
}

func TestParseDate(t *testing.T) {
	_, err := ParseDate("1965-03-01")
	assert.NoError(t, err)
	_, err = ParseDate("1965-03-01T10:00:00Z")
	assert.NoError(t, err)
	_, err = ParseDate("March 1965")
	assert.Error(t, err)
}
