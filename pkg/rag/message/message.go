package message

import (
	"encoding/json"
	"strings"
)

// Kind discriminates the message variants.
type Kind string

const (
	KindTextReply      Kind = "text_reply"
	KindToolInvocation Kind = "tool_invocation"
	KindToolResult     Kind = "tool_result"
)

// Message is what crosses the model boundary and what a thread transcript holds.
// Variants: TextReply, ToolInvocation, ToolResult.
type Message interface {
	Kind() Kind
	isMessage()
}

// TextReply is plain text produced by the model or by a canned reply.
type TextReply struct {
	Text string `json:"text"`
}

// ToolInvocation is a request to run one of the archive tools.
type ToolInvocation struct {
	Tool string                 `json:"tool"`
	Args map[string]interface{} `json:"args"`
}

// ToolResult records the outcome of a tool invocation.
type ToolResult struct {
	Tool     string   `json:"tool"`
	Count    int      `json:"count"`
	IDs      []string `json:"ids,omitempty"`
	Error    string   `json:"error,omitempty"`
	Attempts int      `json:"attempts"`
}

func (TextReply) Kind() Kind      { return KindTextReply }
func (ToolInvocation) Kind() Kind { return KindToolInvocation }
func (ToolResult) Kind() Kind     { return KindToolResult }

func (TextReply) isMessage()      {}
func (ToolInvocation) isMessage() {}
func (ToolResult) isMessage()     {}

// Normalize turns raw model output into a tagged message.
// A JSON object carrying a "tool" key becomes a ToolInvocation; anything else is a TextReply.
func Normalize(raw string) Message {
	trimmed := strings.TrimSpace(raw)
	if payload := ExtractJSON(trimmed); payload != "" {
		var call struct {
			Tool string                 `json:"tool"`
			Name string                 `json:"name"`
			Args map[string]interface{} `json:"args"`
		}
		if err := json.Unmarshal([]byte(payload), &call); err == nil {
			name := call.Tool
			if name == "" {
				name = call.Name
			}
			if name != "" {
				if call.Args == nil {
					call.Args = map[string]interface{}{}
				}
				return ToolInvocation{Tool: name, Args: call.Args}
			}
		}
	}
	return TextReply{Text: trimmed}
}

// ExtractJSON returns the outermost {...} span of a model response, or "".
func ExtractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
