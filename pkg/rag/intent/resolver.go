package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"heritage-archive-be/pkg/llm"
	"heritage-archive-be/pkg/rag"
	"heritage-archive-be/pkg/rag/message"
)

// verdict is the JSON the model is asked to return.
type verdict struct {
	Intent string `json:"intent"`
	Reply  string `json:"reply"`
}

// ModelClassifier asks a language model to separate searches from everything else.
// The pattern rules run first, so greetings and empty text never reach the model.
type ModelClassifier struct {
	llmProvider llm.LLMProvider
	timeout     time.Duration
}

func NewModelClassifier(llmProvider llm.LLMProvider, timeout time.Duration) *ModelClassifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ModelClassifier{
		llmProvider: llmProvider,
		timeout:     timeout,
	}
}

func (c *ModelClassifier) Classify(ctx context.Context, userText string) (rag.IntentResult, error) {
	text := strings.TrimSpace(userText)
	if text == "" {
		return nil, fmt.Errorf("%w: query must not be empty", rag.ErrInvalidInput)
	}
	if pre := preClassify(text); pre != nil {
		return pre, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// Temperature 0 for a deterministic verdict
	raw, err := c.llmProvider.Generate(callCtx, buildClassifierPrompt(text), llm.WithTemperature(0.0))
	if err != nil {
		return nil, fmt.Errorf("%w: intent model: %v", rag.ErrUpstreamUnavailable, err)
	}

	return parseVerdict(text, raw), nil
}

func buildClassifierPrompt(query string) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You classify messages sent to a Malaysian heritage archive search assistant.\n")
	prompt.WriteString("You do NOT answer the message. You only classify it.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<user_message>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</user_message>\n\n")

	prompt.WriteString("<intent_definitions>\n")
	prompt.WriteString("SEARCH: the user wants archive materials about a topic, place, craft, tradition, person or period.\n")
	prompt.WriteString("CONVERSATIONAL: greetings, thanks, or questions about the assistant itself.\n")
	prompt.WriteString("CLARIFICATION_NEEDED: the request is too vague to search (\"something interesting\", \"that one\").\n")
	prompt.WriteString("UNRELATED: anything outside heritage archives (weather, maths, coding, news).\n")
	prompt.WriteString("When unsure between CONVERSATIONAL and SEARCH, choose CONVERSATIONAL.\n")
	prompt.WriteString("</intent_definitions>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\"intent\": \"SEARCH|CONVERSATIONAL|CLARIFICATION_NEEDED|UNRELATED\", \"reply\": \"short reply for non-search intents\"}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

// parseVerdict maps model output to an intent. Anything that cannot be read as a verdict is a search.
func parseVerdict(query, raw string) rag.IntentResult {
	switch m := message.Normalize(raw).(type) {
	case message.ToolInvocation:
		// the model went straight for a tool, which only happens for searches
		return rag.SearchIntent{Query: query}
	case message.TextReply:
		payload := message.ExtractJSON(m.Text)
		if payload == "" {
			return rag.SearchIntent{Query: query}
		}
		var v verdict
		if err := json.Unmarshal([]byte(payload), &v); err != nil {
			return rag.SearchIntent{Query: query}
		}
		reply := strings.TrimSpace(v.Reply)
		switch rag.IntentKind(strings.ToUpper(strings.TrimSpace(v.Intent))) {
		case rag.IntentConversational:
			return rag.ConversationalIntent{ReplyText: orDefault(reply, GreetingReply)}
		case rag.IntentClarification, "CLARIFY", "CLARIFICATION":
			return rag.ClarificationIntent{Prompt: orDefault(reply, ClarificationReply)}
		case rag.IntentUnrelated:
			return rag.UnrelatedIntent{ReplyText: orDefault(reply, UnrelatedReply)}
		}
	}
	return rag.SearchIntent{Query: query}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
