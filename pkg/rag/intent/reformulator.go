package intent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"heritage-archive-be/pkg/llm"
	"heritage-archive-be/pkg/rag"
	"heritage-archive-be/pkg/rag/message"
)

// ModelReformulator asks the model for one comprehensive search query.
// The planner falls back to the raw text when it errors.
type ModelReformulator struct {
	llmProvider llm.LLMProvider
	timeout     time.Duration
	fallback    rag.Reformulator
}

func NewModelReformulator(llmProvider llm.LLMProvider, timeout time.Duration) *ModelReformulator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ModelReformulator{
		llmProvider: llmProvider,
		timeout:     timeout,
		fallback:    rag.KeywordReformulator{},
	}
}

func (r *ModelReformulator) Reformulate(ctx context.Context, userText string, history rag.History) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.llmProvider.Generate(callCtx, buildReformulationPrompt(userText, history), llm.WithTemperature(0.2))
	if err != nil {
		return "", fmt.Errorf("%w: reformulation model: %v", rag.ErrUpstreamUnavailable, err)
	}

	text, ok := message.Normalize(raw).(message.TextReply)
	if !ok {
		return r.fallback.Reformulate(ctx, userText, history)
	}
	query := strings.TrimSpace(text.Text)
	// keep only the first line; models like to explain themselves
	if idx := strings.IndexByte(query, '\n'); idx >= 0 {
		query = query[:idx]
	}
	query = strings.TrimSpace(strings.Trim(strings.TrimSpace(query), "\"'`"))
	if query == "" {
		return r.fallback.Reformulate(ctx, userText, history)
	}
	return query, nil
}

func buildReformulationPrompt(userText string, history rag.History) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You rewrite a user's request into ONE search query for a Malaysian heritage archive.\n")
	prompt.WriteString("Fold in the topic, the region or culture, and any media format (video, photograph, document, audio).\n")
	prompt.WriteString("</system>\n\n")

	if len(history.Queries) > 0 {
		prompt.WriteString("<previous_queries>\n")
		for i, q := range history.Queries {
			prompt.WriteString(fmt.Sprintf("%d. %s\n", i+1, q))
		}
		prompt.WriteString("</previous_queries>\n\n")
	}

	if len(history.Transcript) > 0 {
		prompt.WriteString("<recent_activity>\n")
		for _, m := range history.Transcript {
			if line := describeMessage(m); line != "" {
				prompt.WriteString("- " + line + "\n")
			}
		}
		prompt.WriteString("</recent_activity>\n\n")
	}

	prompt.WriteString("<user_message>\n")
	prompt.WriteString(userText)
	prompt.WriteString("\n</user_message>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY the query text on a single line. No quotes, no explanation.\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

// describeMessage renders one transcript entry as a single prompt line.
func describeMessage(m message.Message) string {
	switch v := m.(type) {
	case message.TextReply:
		return "assistant said: " + v.Text
	case message.ToolInvocation:
		return fmt.Sprintf("searched with %s %v", v.Tool, v.Args)
	case message.ToolResult:
		if v.Error != "" {
			return fmt.Sprintf("%s failed after %d attempts", v.Tool, v.Attempts)
		}
		return fmt.Sprintf("%s returned %d archives", v.Tool, v.Count)
	}
	return ""
}
