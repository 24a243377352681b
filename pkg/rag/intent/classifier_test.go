package intent

import (
	"context"
	"errors"
	"testing"

	"heritage-archive-be/pkg/llm"
	"heritage-archive-be/pkg/rag"
	"heritage-archive-be/pkg/rag/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleClassifier(t *testing.T) {
	c := NewRuleClassifier()
	ctx := context.Background()

	tests := []struct {
		text string
		want rag.IntentKind
	}{
		{"hello", rag.IntentConversational},
		{"Hi there!", rag.IntentConversational},
		{"good morning", rag.IntentConversational},
		{"hello, how are you?", rag.IntentConversational},
		{"what can you do?", rag.IntentConversational},
		{"thanks for the batik", rag.IntentConversational},
		{"terima kasih", rag.IntentConversational},
		{"ok", rag.IntentConversational},
		{"what's the weather in Sabah", rag.IntentUnrelated},
		{"what is 2 + 2", rag.IntentUnrelated},
		{"tell me a joke", rag.IntentUnrelated},
		{"bitcoin price today", rag.IntentUnrelated},
		{"Iban weather rituals", rag.IntentSearch},
		{"old football photographs from colonial Penang", rag.IntentSearch},
		{"Kelantan folk joke storytelling recordings", rag.IntentSearch},
		{"what time is it in the wayang kulit performance video", rag.IntentSearch},
		{"something interesting", rag.IntentClarification},
		{"show me anything", rag.IntentClarification},
		{"that one", rag.IntentClarification},
		{"surprise me", rag.IntentClarification},
		{"batik from Kelantan", rag.IntentSearch},
		{"show me all videos", rag.IntentSearch},
		{"hi, I'm looking for songket from Terengganu", rag.IntentSearch},
		{"photographs from 1950-1960", rag.IntentSearch},
		{"help me find wayang kulit performances", rag.IntentSearch},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := c.Classify(ctx, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Kind())
			if tt.want == rag.IntentSearch {
				assert.Equal(t, tt.text, got.(rag.SearchIntent).Query)
				assert.Empty(t, got.Reply())
			} else {
				assert.NotEmpty(t, got.Reply())
			}
		})
	}
}

func TestRuleClassifierRejectsEmpty(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := NewRuleClassifier().Classify(context.Background(), text)
		assert.ErrorIs(t, err, rag.ErrInvalidInput)
	}
}

type stubLLM struct {
	out    string
	err    error
	calls  int
	prompt string
}

func (s *stubLLM) Chat(ctx context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	return s.Generate(ctx, "")
}

func (s *stubLLM) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	s.calls++
	s.prompt = prompt
	return s.out, s.err
}

func TestModelClassifier(t *testing.T) {
	ctx := context.Background()

	t.Run("rules short-circuit the model", func(t *testing.T) {
		model := &stubLLM{}
		got, err := NewModelClassifier(model, 0).Classify(ctx, "hello")
		require.NoError(t, err)
		assert.Equal(t, rag.IntentConversational, got.Kind())
		assert.Zero(t, model.calls)
	})

	t.Run("model verdict", func(t *testing.T) {
		model := &stubLLM{out: "Sure: {\"intent\": \"unrelated\", \"reply\": \"Only heritage, sorry.\"}"}
		got, err := NewModelClassifier(model, 0).Classify(ctx, "recommend a laptop")
		require.NoError(t, err)
		assert.Equal(t, rag.IntentUnrelated, got.Kind())
		assert.Equal(t, "Only heritage, sorry.", got.Reply())
	})

	t.Run("tool call means search", func(t *testing.T) {
		model := &stubLLM{out: `{"tool": "search_archives_db", "args": {"queries": ["batik"]}}`}
		got, err := NewModelClassifier(model, 0).Classify(ctx, "batik motifs")
		require.NoError(t, err)
		assert.Equal(t, rag.SearchIntent{Query: "batik motifs"}, got)
	})

	t.Run("unreadable verdict means search", func(t *testing.T) {
		model := &stubLLM{out: "I think they want batik"}
		got, err := NewModelClassifier(model, 0).Classify(ctx, "batik motifs")
		require.NoError(t, err)
		assert.Equal(t, rag.IntentSearch, got.Kind())
	})

	t.Run("provider failure", func(t *testing.T) {
		model := &stubLLM{err: errors.New("503")}
		_, err := NewModelClassifier(model, 0).Classify(ctx, "batik motifs")
		assert.ErrorIs(t, err, rag.ErrUpstreamUnavailable)
	})
}

func TestModelReformulator(t *testing.T) {
	ctx := context.Background()

	t.Run("first line only", func(t *testing.T) {
		r := NewModelReformulator(&stubLLM{out: "\"batik textile Kelantan\"\nThis covers the topic."}, 0)
		got, err := r.Reformulate(ctx, "batik from Kelantan", rag.History{})
		require.NoError(t, err)
		assert.Equal(t, "batik textile Kelantan", got)
	})

	t.Run("empty output uses keywords", func(t *testing.T) {
		r := NewModelReformulator(&stubLLM{out: "  "}, 0)
		got, err := r.Reformulate(ctx, "batik", rag.History{})
		require.NoError(t, err)
		assert.Equal(t, "batik textile hand-dyed fabric", got)
	})

	t.Run("prompt carries the thread history", func(t *testing.T) {
		model := &stubLLM{out: "keris video footage"}
		history := rag.History{
			Queries: []string{"keris"},
			Transcript: []message.Message{
				message.Invocation("search_archives_db", map[string]interface{}{"queries": []string{"keris"}}),
				message.Result("search_archives_db", []string{"k1", "k2"}, 1, nil),
				message.Result("read_archives_data", nil, 3, errors.New("down")),
			},
		}

		got, err := NewModelReformulator(model, 0).Reformulate(ctx, "what about videos", history)
		require.NoError(t, err)
		assert.Equal(t, "keris video footage", got)
		assert.Contains(t, model.prompt, "1. keris")
		assert.Contains(t, model.prompt, "<recent_activity>")
		assert.Contains(t, model.prompt, "search_archives_db returned 2 archives")
		assert.Contains(t, model.prompt, "read_archives_data failed after 3 attempts")
	})

	t.Run("provider failure surfaces", func(t *testing.T) {
		r := NewModelReformulator(&stubLLM{err: errors.New("down")}, 0)
		_, err := r.Reformulate(ctx, "batik", rag.History{})
		assert.Error(t, err)
	})
}
