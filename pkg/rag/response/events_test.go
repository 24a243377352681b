package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"heritage-archive-be/pkg/rag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []Event
}

func (r *recorder) emit(e Event) error {
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []EventType {
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func views(n int) []ArchiveView {
	out := make([]ArchiveView, n)
	for i := range out {
		out[i] = ArchiveView{ID: fmt.Sprintf("a%d", i)}
	}
	return out
}

func TestSequencerSearchTurn(t *testing.T) {
	rec := &recorder{}
	seq := NewSequencer(rec.emit, nil)

	require.NoError(t, seq.Searching("batik", "t"))
	sent, err := seq.Results(views(2))
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = seq.Results(views(2))
	require.NoError(t, err)
	assert.False(t, sent, "equal total is not re-emitted")

	sent, err = seq.Results(views(3))
	require.NoError(t, err)
	assert.True(t, sent)

	require.NoError(t, seq.Done("batik", views(3), ""))

	assert.Equal(t, []EventType{EventSearching, EventResults, EventResults, EventDone}, rec.types())
	assert.True(t, seq.Closed())
}

func TestSequencerRejectsOutOfOrder(t *testing.T) {
	t.Run("nothing before searching", func(t *testing.T) {
		seq := NewSequencer((&recorder{}).emit, nil)
		assert.ErrorIs(t, seq.Message("hi"), ErrOutOfOrder)
		_, err := seq.Results(views(1))
		assert.ErrorIs(t, err, ErrOutOfOrder)
		assert.ErrorIs(t, seq.Done("q", nil, ""), ErrOutOfOrder)
	})

	t.Run("message and results are exclusive", func(t *testing.T) {
		seq := NewSequencer((&recorder{}).emit, nil)
		require.NoError(t, seq.Searching("hello", "t"))
		require.NoError(t, seq.Message("hi"))
		_, err := seq.Results(views(1))
		assert.ErrorIs(t, err, ErrOutOfOrder)
	})

	t.Run("single terminal event", func(t *testing.T) {
		rec := &recorder{}
		seq := NewSequencer(rec.emit, nil)
		require.NoError(t, seq.Searching("batik", "t"))
		require.NoError(t, seq.Error("boom"))
		assert.ErrorIs(t, seq.Done("batik", nil, ""), ErrStreamClosed)
		assert.ErrorIs(t, seq.Error("again"), ErrStreamClosed)
		assert.Equal(t, []EventType{EventSearching, EventError}, rec.types())
	})

	t.Run("searching only once", func(t *testing.T) {
		seq := NewSequencer((&recorder{}).emit, nil)
		require.NoError(t, seq.Searching("batik", "t"))
		assert.ErrorIs(t, seq.Searching("batik", "t"), ErrOutOfOrder)
	})
}

func TestSequencerObserves(t *testing.T) {
	var seen []EventType
	seq := NewSequencer((&recorder{}).emit, func(e EventType) { seen = append(seen, e) })
	require.NoError(t, seq.Searching("hello", "t"))
	require.NoError(t, seq.Message("hi"))
	require.NoError(t, seq.Done("hello", nil, ""))
	assert.Equal(t, []EventType{EventSearching, EventMessage, EventDone}, seen)
}

func TestEventWireFormat(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"searching", Event{Type: EventSearching, Query: "batik", ThreadID: "default"}, `{"query":"batik","thread_id":"default","type":"searching"}`},
		{"message", Event{Type: EventMessage, Text: "hello"}, `{"message":"hello","type":"message"}`},
		{"empty results", Event{Type: EventResults}, `{"archives":[],"total":0,"type":"results"}`},
		{"done with message", Event{Type: EventDone, Query: "batik", Message: NoResultsMessage}, `{"archives":[],"message":"No matching archives found","query":"batik","total":0,"type":"done"}`},
		{"error", Event{Type: EventError, Message: "boom"}, `{"message":"boom","type":"error"}`},
		{"step", Event{Type: EventStep, Text: "tag"}, `{"label":"tag","type":"step"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.event)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestWriteSSE(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"data frame", Event{Type: EventError, Message: "boom"}, "data: {\"message\":\"boom\",\"type\":\"error\"}\n\n"},
		{"step comment", Event{Type: EventStep, Text: "similarity"}, ": step similarity\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteSSE(&buf, tt.event))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestSequencerStep(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*Sequencer)
		wantErr error
	}{
		{"before searching", func(*Sequencer) {}, ErrOutOfOrder},
		{"after searching", func(s *Sequencer) { _ = s.Searching("batik", "t") }, nil},
		{"between results", func(s *Sequencer) {
			_ = s.Searching("batik", "t")
			_, _ = s.Results(views(1))
		}, nil},
		{"after a message", func(s *Sequencer) {
			_ = s.Searching("hello", "t")
			_ = s.Message("hi")
		}, ErrOutOfOrder},
		{"after done", func(s *Sequencer) {
			_ = s.Searching("batik", "t")
			_ = s.Done("batik", nil, "")
		}, ErrStreamClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen []EventType
			seq := NewSequencer((&recorder{}).emit, func(e EventType) { seen = append(seen, e) })
			tt.setup(seq)
			before := len(seen)

			err := seq.Step("tag")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, seen, before, "steps are not observed")
			sent, err := seq.Results(views(2))
			require.NoError(t, err)
			assert.True(t, sent, "a step leaves the results order untouched")
		})
	}
}

func TestNewArchiveView(t *testing.T) {
	scored := rag.ArchiveRecord{ID: "a", Title: "Batik", Source: rag.SourceSimilarity}.WithSimilarity(0.42)
	v := NewArchiveView(scored)
	require.NotNil(t, v.Similarity)
	assert.Equal(t, "good", v.Relevance)
	assert.Equal(t, []string{}, v.Tags)

	filtered := rag.ArchiveRecord{ID: "b", Source: rag.SourceFilter}.WithSimilarity(0.9)
	assert.Nil(t, NewArchiveView(filtered).Similarity)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, TimeoutMessage, UserMessage(fmt.Errorf("wrap: %w", rag.ErrTimeout)))
	assert.Equal(t, FailureMessage, UserMessage(rag.ErrToolFatal))
	assert.Contains(t, UserMessage(rag.ErrInvalidInput), InvalidQueryPrefix)
	assert.Empty(t, UserMessage(nil))
}
