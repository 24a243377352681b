package rag

import (
	"context"
	"strings"

	"heritage-archive-be/pkg/rag/message"
)

const (
	historyQueries  = 3
	historyMessages = 6
)

// History is the recent thread context handed to a reformulator, oldest first.
type History struct {
	Queries    []string
	Transcript []message.Message
}

// Reformulator folds a user utterance into one comprehensive search query.
type Reformulator interface {
	Reformulate(ctx context.Context, userText string, history History) (string, error)
}

// Planner turns a SEARCH utterance into an ordered escalation plan. It never calls a tool.
type Planner struct {
	settings     Settings
	reformulator Reformulator
}

// NewPlanner constructs a planner. A nil reformulator means the raw text is the query.
func NewPlanner(settings Settings, reformulator Reformulator) *Planner {
	return &Planner{
		settings:     settings.Normalize(),
		reformulator: reformulator,
	}
}

// Plan returns the always-present first step: one high-precision similarity search.
func (p *Planner) Plan(ctx context.Context, userText string, state *ConversationState) []RetrievalStep {
	query := strings.TrimSpace(userText)
	if p.reformulator != nil {
		var history History
		if state != nil {
			history.Queries = lastN(state.QueriesMade, historyQueries)
			history.Transcript = lastN(state.Transcript, historyMessages)
		}
		if reformulated, err := p.reformulator.Reformulate(ctx, userText, history); err == nil && strings.TrimSpace(reformulated) != "" {
			query = strings.TrimSpace(reformulated)
		}
	}

	return []RetrievalStep{{
		Rank:      1,
		Tool:      ToolSimilarity,
		Label:     "similarity",
		Query:     query,
		Threshold: p.settings.PrimaryThreshold,
		Limit:     p.settings.PrimaryLimit,
	}}
}

// Escalate returns the fallback steps appended when the first step accepted nothing.
// Steps whose term cannot be derived from the text are skipped; the whole plan never exceeds MaxPlanSteps.
func (p *Planner) Escalate(userText string, primary RetrievalStep) []RetrievalStep {
	var steps []RetrievalStep
	rank := primary.Rank

	add := func(step RetrievalStep) {
		if rank >= MaxPlanSteps {
			return
		}
		rank++
		step.Rank = rank
		steps = append(steps, step)
	}

	salient := SalientTerm(userText)
	if salient != "" {
		add(RetrievalStep{Tool: ToolFilter, Label: "tag", FilterBy: FilterByTag, FilterValue: salient, Limit: p.settings.FilterLimit})
	}
	if format := MediaFormat(userText); format != "" {
		add(RetrievalStep{Tool: ToolFilter, Label: "media_type", FilterBy: FilterByMediaType, FilterValue: format, Limit: p.settings.FilterLimit})
	}
	if salient != "" {
		add(RetrievalStep{Tool: ToolFilter, Label: "title", FilterBy: FilterByTitle, FilterValue: salient, Limit: p.settings.FilterLimit})
	}
	for _, threshold := range p.settings.RelaxedThreshold {
		if threshold >= primary.Threshold {
			continue
		}
		add(RetrievalStep{Tool: ToolSimilarity, Label: "relaxed_similarity", Query: primary.Query, Threshold: threshold, Limit: primary.Limit})
	}

	return steps
}

func lastN[T any](items []T, n int) []T {
	if len(items) <= n {
		return append([]T(nil), items...)
	}
	return append([]T(nil), items[len(items)-n:]...)
}
