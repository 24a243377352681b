package message

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantKind Kind
		wantTool string
		wantText string
	}{
		{name: "plain text", raw: "  Hello there  ", wantKind: KindTextReply, wantText: "Hello there"},
		{name: "tool key", raw: `{"tool":"search_archives_db","args":{"queries":["batik"]}}`, wantKind: KindToolInvocation, wantTool: "search_archives_db"},
		{name: "name key wrapped in prose", raw: "Sure: {\"name\":\"read_archives_data\"} done", wantKind: KindToolInvocation, wantTool: "read_archives_data"},
		{name: "json without tool", raw: `{"intent":"SEARCH"}`, wantKind: KindTextReply, wantText: `{"intent":"SEARCH"}`},
		{name: "broken json", raw: `{"tool": `, wantKind: KindTextReply, wantText: `{"tool":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Normalize(tt.raw)
			require.Equal(t, tt.wantKind, msg.Kind())
			switch m := msg.(type) {
			case ToolInvocation:
				assert.Equal(t, tt.wantTool, m.Tool)
				assert.NotNil(t, m.Args)
			case TextReply:
				assert.Equal(t, tt.wantText, m.Text)
			default:
				t.Fatalf("unexpected variant %T", msg)
			}
		})
	}
}

func TestAppendTrimsOldest(t *testing.T) {
	var transcript []Message
	for i := 0; i < TranscriptLimit+5; i++ {
		transcript = Append(transcript, Reply(fmt.Sprintf("m%d", i)))
	}

	require.Len(t, transcript, TranscriptLimit)
	assert.Equal(t, TextReply{Text: "m5"}, transcript[0])
	assert.Equal(t, TextReply{Text: fmt.Sprintf("m%d", TranscriptLimit+4)}, transcript[TranscriptLimit-1])
}

func TestResultCarriesError(t *testing.T) {
	msg := Result("search_archives_db", []string{"a", "b"}, 3, errors.New("permission denied"))

	res, ok := msg.(ToolResult)
	require.True(t, ok)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, "permission denied", res.Error)
}
