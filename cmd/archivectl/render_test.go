package main

import (
	"bytes"
	"testing"

	"heritage-archive-be/pkg/rag/response"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEvent(t *testing.T) {
	color.NoColor = true
	score := 0.82

	tests := []struct {
		name  string
		event response.Event
		want  []string
	}{
		{"searching", response.Event{Type: response.EventSearching, Query: "wau", ThreadID: "kites"}, []string{`searching "wau"`, "(thread kites)"}},
		{"message", response.Event{Type: response.EventMessage, Text: "Hello!"}, []string{"message Hello!"}},
		{"results", response.Event{Type: response.EventResults, Total: 2, Archives: []response.ArchiveView{
			{Title: "Wau Bulan", Similarity: &score, Relevance: "excellent"},
			{Title: "Kite festival"},
		}}, []string{"results 2 so far", "Wau Bulan [0.82 excellent]", "Kite festival [filter]"}},
		{"done", response.Event{Type: response.EventDone, Total: 0, Message: response.NoResultsMessage}, []string{"done 0 archives No matching archives found"}},
		{"error", response.Event{Type: response.EventError, Message: response.TimeoutMessage}, []string{"error " + response.TimeoutMessage}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, renderEvent(&buf, tt.event))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestRootRegistersCommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"search", "stream", "ingest", "migrate"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}
