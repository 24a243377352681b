package executor

import (
	"context"
	"errors"
	"fmt"

	"heritage-archive-be/internal/pkg/logger"
	"heritage-archive-be/pkg/rag"
	"heritage-archive-be/pkg/rag/message"
)

// RetrievalExecutor runs a plan step by step against the two archive tools.
type RetrievalExecutor struct {
	similarity rag.SimilarityTool
	filter     rag.FilterTool
	aggregator *rag.Aggregator
	retry      *RetryPolicy
	logger     logger.ILogger
	observer   rag.Observer
}

// NewRetrievalExecutor wires the executor. observer may be nil.
func NewRetrievalExecutor(
	similarity rag.SimilarityTool,
	filter rag.FilterTool,
	aggregator *rag.Aggregator,
	settings rag.Settings,
	log logger.ILogger,
	observer rag.Observer,
) *RetrievalExecutor {
	if observer == nil {
		observer = rag.NopObserver{}
	}
	return &RetrievalExecutor{
		similarity: similarity,
		filter:     filter,
		aggregator: aggregator,
		retry:      NewRetryPolicy(settings),
		logger:     log,
		observer:   observer,
	}
}

// StepReport describes how one step went.
type StepReport struct {
	Rank     int    `json:"rank"`
	Label    string `json:"label"`
	Tool     string `json:"tool"`
	Query    string `json:"query"`
	Attempts int    `json:"attempts"`
	Status   string `json:"status"`
	Raw      int    `json:"raw"`
	Accepted int    `json:"accepted"`
	Error    string `json:"error,omitempty"`
}

// Result is what Execute hands back to the response layer.
type Result struct {
	// Records is the accepted set of the step that stopped execution, ordered.
	Records   []rag.ArchiveRecord
	Steps     []StepReport
	Succeeded int
	Cancelled bool
	// Cause is the last failure seen, if any.
	Cause error
}

// Failed reports whether the plan ran and every executed step failed.
// Zero accepted records from a step that ran fine is not a failure.
func (r Result) Failed() bool {
	return len(r.Steps) > 0 && r.Succeeded == 0 && !r.Cancelled
}

// Err converts a failed plan into a turn-level error.
func (r Result) Err() error {
	if !r.Failed() {
		return nil
	}
	if errors.Is(r.Cause, rag.ErrTimeout) || errors.Is(r.Cause, context.DeadlineExceeded) {
		return fmt.Errorf("%w: every retrieval step timed out", rag.ErrTimeout)
	}
	if r.Cause != nil {
		return fmt.Errorf("all retrieval steps failed: %w", r.Cause)
	}
	return fmt.Errorf("%w: all retrieval steps failed", rag.ErrToolTransient)
}

// StepObserver is called after every executed step with the step's accepted records.
type StepObserver func(step rag.RetrievalStep, report StepReport, accepted []rag.ArchiveRecord)

// Execute runs plan in order and stops at the first step whose validated output is non-empty.
// When the first step accepts nothing, escalate supplies the fallback steps. Never more than
// rag.MaxPlanSteps steps run. State is updated after every step and is never rolled back.
func (e *RetrievalExecutor) Execute(
	ctx context.Context,
	userText string,
	plan []rag.RetrievalStep,
	escalate func() []rag.RetrievalStep,
	state *rag.ConversationState,
	onStep StepObserver,
) Result {
	var res Result
	queue := append([]rag.RetrievalStep(nil), plan...)
	escalated := false

	for i := 0; i < len(queue) && i < rag.MaxPlanSteps; i++ {
		if ctx.Err() != nil {
			res.Cancelled = true
			if !errors.Is(ctx.Err(), context.Canceled) {
				res.Cause = fmt.Errorf("%w: %w", rag.ErrTimeout, ctx.Err())
			}
			e.logger.Info("EXECUTOR", "Plan stopped before step", map[string]interface{}{
				"thread_id": state.ThreadID,
				"rank":      queue[i].Rank,
				"reason":    ctx.Err().Error(),
			})
			break
		}

		step := queue[i]
		report, accepted, cause := e.runStep(ctx, userText, step, state)
		res.Steps = append(res.Steps, report)

		if report.Status == rag.StepOK {
			res.Succeeded++
		} else {
			res.Cause = cause
		}
		if onStep != nil {
			onStep(step, report, accepted)
		}

		if len(accepted) > 0 {
			res.Records = accepted
			break
		}

		if i == 0 && !escalated && escalate != nil {
			escalated = true
			queue = append(queue, escalate()...)
		}
	}

	return res
}

func (e *RetrievalExecutor) runStep(ctx context.Context, userText string, step rag.RetrievalStep, state *rag.ConversationState) (StepReport, []rag.ArchiveRecord, error) {
	tool := step.ToolName()
	report := StepReport{Rank: step.Rank, Label: step.Label, Tool: tool, Query: step.Text()}

	state.Transcript = message.Append(state.Transcript, message.Invocation(tool, step.Args()))

	policy := e.retry.WithRetryHook(func() { e.observer.Retry(tool) })
	outcome, attempts := policy.Run(ctx, func(callCtx context.Context) ([]rag.ArchiveRecord, error) {
		return e.invoke(callCtx, step)
	})
	report.Attempts = attempts

	state.RecordQuery(step.Text())
	state.ToolCallCount++

	var (
		accepted []rag.ArchiveRecord
		cause    error
	)
	switch o := outcome.(type) {
	case Success:
		report.Status = rag.StepOK
		report.Raw = len(o.Records)
		accepted = e.aggregator.Validate(userText, o.Records)
		e.aggregator.Merge(state, accepted)
		report.Accepted = len(accepted)
		state.Transcript = message.Append(state.Transcript, message.Result(tool, recordIDs(accepted), attempts, nil))

	case RetryableFailure:
		report.Status = rag.StepDegraded
		report.Error = o.Reason.Error()
		cause = o.Reason
		state.Transcript = message.Append(state.Transcript, message.Result(tool, nil, attempts, o.Reason))
		e.logger.Warn("EXECUTOR", "Step degraded after retries", map[string]interface{}{
			"thread_id": state.ThreadID,
			"rank":      step.Rank,
			"label":     step.Label,
			"attempts":  attempts,
			"error":     o.Reason.Error(),
		})

	case FatalFailure:
		report.Status = rag.StepFatal
		report.Error = o.Reason.Error()
		cause = o.Reason
		state.Transcript = message.Append(state.Transcript, message.Result(tool, nil, attempts, o.Reason))
		e.logger.Warn("EXECUTOR", "Step failed with non-retryable error", map[string]interface{}{
			"thread_id": state.ThreadID,
			"rank":      step.Rank,
			"label":     step.Label,
			"error":     o.Reason.Error(),
		})
	}

	e.observer.ToolCall(tool, report.Status, attempts)
	return report, accepted, cause
}
