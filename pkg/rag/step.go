package rag

import "fmt"

// ToolKind selects which tool a retrieval step calls.
type ToolKind string

const (
	ToolSimilarity ToolKind = "similarity"
	ToolFilter     ToolKind = "filter"
)

// RetrievalStep is a single planned action. It is never persisted.
type RetrievalStep struct {
	Rank        int             `json:"rank"`
	Tool        ToolKind        `json:"tool"`
	Label       string          `json:"label"`
	Query       string          `json:"query,omitempty"`
	FilterBy    FilterDimension `json:"filter_by,omitempty"`
	FilterValue string          `json:"filter_value,omitempty"`
	Threshold   float64         `json:"threshold,omitempty"`
	Limit       int             `json:"limit"`
}

// Text is what gets recorded in ConversationState.QueriesMade for this step.
func (s RetrievalStep) Text() string {
	if s.Tool == ToolFilter {
		return fmt.Sprintf("%s:%s", s.FilterBy, s.FilterValue)
	}
	return s.Query
}

// ToolName maps the step to the external tool name.
func (s RetrievalStep) ToolName() string {
	if s.Tool == ToolFilter {
		return ToolReadArchives
	}
	return ToolSearchArchives
}

// Args renders the tool arguments for transcripts.
func (s RetrievalStep) Args() map[string]interface{} {
	if s.Tool == ToolFilter {
		return map[string]interface{}{
			"filter_by":    string(s.FilterBy),
			"filter_value": s.FilterValue,
			"limit":        s.Limit,
		}
	}
	return map[string]interface{}{
		"queries":   []string{s.Query},
		"threshold": s.Threshold,
		"limit":     s.Limit,
	}
}
