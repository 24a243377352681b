package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"heritage-archive-be/internal/dto"
	"heritage-archive-be/internal/pkg/logger"
	"heritage-archive-be/pkg/rag"
	"heritage-archive-be/pkg/rag/executor"
	"heritage-archive-be/pkg/rag/message"
	"heritage-archive-be/pkg/rag/response"
	"heritage-archive-be/pkg/rag/session"
	"heritage-archive-be/pkg/rag/state"
)

var ErrThreadNotFound = errors.New("thread not found")

type ISearchService interface {
	Search(ctx context.Context, request *dto.SearchRequest) (*dto.SearchResponse, error)
	SearchStream(ctx context.Context, request *dto.SearchRequest, emit func(response.Event) error) error
	Snapshot(ctx context.Context, threadId string) (*dto.ThreadSnapshotResponse, error)
	Reset(ctx context.Context, threadId string) error
}

// SearchComponents groups the retrieval core a search service runs on.
type SearchComponents struct {
	Classifier rag.Classifier
	Planner    *rag.Planner
	Executor   *executor.RetrievalExecutor
	States     *state.Manager
	Lock       session.TurnLock
	Settings   rag.Settings
	Observer   rag.Observer
}

type searchService struct {
	classifier rag.Classifier
	planner    *rag.Planner
	executor   *executor.RetrievalExecutor
	states     *state.Manager
	lock       session.TurnLock
	timeout    time.Duration
	observer   rag.Observer
	logger     logger.ILogger
}

func NewSearchService(components SearchComponents, log logger.ILogger) ISearchService {
	observer := components.Observer
	if observer == nil {
		observer = rag.NopObserver{}
	}
	return &searchService{
		classifier: components.Classifier,
		planner:    components.Planner,
		executor:   components.Executor,
		states:     components.States,
		lock:       components.Lock,
		timeout:    components.Settings.Normalize().RequestTimeout,
		observer:   observer,
		logger:     log,
	}
}

// turn is everything one finished user turn produced.
type turn struct {
	query    string
	threadID string
	intent   rag.IntentResult
	records  []rag.ArchiveRecord
	steps    []executor.StepReport
	queries  []string
	tools    int
}

func (t *turn) searched() bool {
	return t.intent != nil && t.intent.Kind() == rag.IntentSearch
}

func (ss *searchService) Search(ctx context.Context, request *dto.SearchRequest) (*dto.SearchResponse, error) {
	query, threadID, err := normalizeRequest(request)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, ss.timeout)
	defer cancel()

	t, err := ss.runTurn(ctx, query, threadID, nil)
	if err != nil {
		return nil, err
	}

	res := &dto.SearchResponse{
		Intent:   t.intent.Kind(),
		Archives: response.Views(t.records),
		Total:    len(t.records),
		Query:    query,
		ThreadId: threadID,
		Metadata: dto.SearchMetadata{
			QueriesMade:   t.queries,
			ToolCallCount: t.tools,
			Steps:         t.steps,
		},
	}
	if t.searched() {
		res.Message = response.FinalMessage(res.Total)
	} else {
		res.Message = t.intent.Reply()
	}
	if res.Metadata.Steps == nil {
		res.Metadata.Steps = []executor.StepReport{}
	}
	return res, nil
}

func (ss *searchService) SearchStream(ctx context.Context, request *dto.SearchRequest, emit func(response.Event) error) error {
	query, threadID, err := normalizeRequest(request)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, ss.timeout)
	defer cancel()

	seq := response.NewSequencer(emit, func(e response.EventType) {
		ss.observer.StreamEvent(string(e))
	})
	if err := seq.Searching(query, threadID); err != nil {
		return err
	}

	// Every executed step writes something, so a transport that lost its peer fails
	// the write and cancels ctx before the next step is scheduled.
	t, err := ss.runTurn(ctx, query, threadID, func(report executor.StepReport, records []rag.ArchiveRecord) {
		sent, sendErr := seq.Results(response.Views(records))
		if sendErr == nil && !sent {
			sendErr = seq.Step(report.Label)
		}
		if sendErr != nil {
			ss.logger.Warn("SEARCH", "Failed to emit stream event", map[string]interface{}{
				"thread_id": threadID,
				"step":      report.Label,
				"error":     sendErr.Error(),
			})
		}
	})
	if err != nil {
		ss.logger.Warn("SEARCH", "Streamed turn failed", map[string]interface{}{
			"thread_id": threadID,
			"error":     err.Error(),
		})
		return seq.Error(response.UserMessage(err))
	}

	if !t.searched() {
		if err := seq.Message(t.intent.Reply()); err != nil {
			return err
		}
		return seq.Done(query, nil, "")
	}

	views := response.Views(t.records)
	if _, err := seq.Results(views); err != nil {
		return err
	}
	return seq.Done(query, views, response.FinalMessage(len(views)))
}

// runTurn owns the thread for the whole turn: classify, plan, execute, save.
// onStep runs after every executed step with the turn's accepted set so far.
func (ss *searchService) runTurn(
	ctx context.Context,
	query, threadID string,
	onStep func(executor.StepReport, []rag.ArchiveRecord),
) (*turn, error) {
	start := time.Now()

	release, err := ss.lock.Acquire(ctx, threadID)
	if err != nil {
		ss.observer.Turn("", outcomeOf(err), 0)
		return nil, err
	}
	defer release()

	st := ss.states.Load(threadID)
	defer ss.states.Save(st)

	// [PHASE 1] Intent
	intent, err := ss.classifier.Classify(ctx, query)
	if err != nil {
		if !errors.Is(err, rag.ErrInvalidInput) && !errors.Is(err, rag.ErrUpstreamUnavailable) {
			err = fmt.Errorf("%w: %v", rag.ErrUpstreamUnavailable, err)
		}
		ss.observer.Turn("", outcomeOf(err), 0)
		return nil, err
	}
	ss.logger.Info("SEARCH", "[PHASE 1] Intent classified", map[string]interface{}{
		"thread_id": threadID,
		"intent":    intent.Kind(),
	})

	t := &turn{query: query, threadID: threadID, intent: intent}

	if intent.Kind() != rag.IntentSearch {
		st.Transcript = message.Append(st.Transcript, message.Reply(intent.Reply()))
		t.queries = append([]string{}, st.QueriesMade...)
		t.tools = st.ToolCallCount
		ss.observer.Turn(intent.Kind(), "replied", 0)
		return t, nil
	}

	// [PHASE 2] Plan
	plan := ss.planner.Plan(ctx, query, st)
	ss.logger.Debug("SEARCH", "[PHASE 2] Plan ready", map[string]interface{}{
		"thread_id": threadID,
		"query":     plan[0].Text(),
	})

	// [PHASE 3] Execute
	var accepted []rag.ArchiveRecord
	result := ss.executor.Execute(ctx, query, plan,
		func() []rag.RetrievalStep { return ss.planner.Escalate(query, plan[0]) },
		st,
		func(step rag.RetrievalStep, report executor.StepReport, stepAccepted []rag.ArchiveRecord) {
			if len(stepAccepted) > 0 {
				accepted = rag.MergeOrdered(accepted, stepAccepted)
			}
			if onStep != nil {
				onStep(report, accepted)
			}
		},
	)
	if len(result.Steps) > 0 {
		// a planning/execution cycle ran
		st.TurnCount++
	}

	t.steps = result.Steps
	t.queries = append([]string{}, st.QueriesMade...)
	t.tools = st.ToolCallCount

	if err := turnError(ctx, result); err != nil {
		ss.observer.Turn(intent.Kind(), outcomeOf(err), 0)
		ss.logger.Warn("SEARCH", "[PHASE 3] Turn failed", map[string]interface{}{
			"thread_id": threadID,
			"steps":     len(result.Steps),
			"error":     err.Error(),
		})
		return nil, err
	}

	t.records = rag.MergeOrdered(accepted, result.Records)

	ss.observer.Turn(intent.Kind(), "ok", len(t.records))
	ss.logger.Info("SEARCH", "[PHASE 4] Turn complete", map[string]interface{}{
		"thread_id":   threadID,
		"turn":        st.TurnCount,
		"steps":       len(result.Steps),
		"accepted":    len(t.records),
		"found_total": st.ArchiveCount(),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return t, nil
}

// turnError decides whether an executed plan is a turn-level failure.
func turnError(ctx context.Context, result executor.Result) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: request deadline exceeded", rag.ErrTimeout)
	}
	if result.Cancelled {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return result.Cause
	}
	return result.Err()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, rag.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, rag.ErrTimeout):
		return "timeout"
	case errors.Is(err, rag.ErrConcurrentTurnConflict):
		return "conflict"
	case errors.Is(err, rag.ErrUpstreamUnavailable):
		return "upstream"
	default:
		return "failed"
	}
}

func normalizeRequest(request *dto.SearchRequest) (string, string, error) {
	if request == nil {
		return "", "", fmt.Errorf("%w: request is required", rag.ErrInvalidInput)
	}
	query := strings.TrimSpace(request.Query)
	if query == "" {
		return "", "", fmt.Errorf("%w: query must not be empty", rag.ErrInvalidInput)
	}
	return query, state.ThreadID(request.ThreadId), nil
}

func (ss *searchService) Snapshot(ctx context.Context, threadId string) (*dto.ThreadSnapshotResponse, error) {
	snap, found := ss.states.Snapshot(threadId)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, state.ThreadID(threadId))
	}
	return &dto.ThreadSnapshotResponse{
		ThreadId:      snap.ThreadID,
		QueriesMade:   snap.QueriesMade,
		TurnCount:     snap.TurnCount,
		ToolCallCount: snap.ToolCallCount,
		Archives:      response.Views(snap.Archives),
	}, nil
}

// Reset waits for any running turn on the thread before clearing it.
func (ss *searchService) Reset(ctx context.Context, threadId string) error {
	threadId = state.ThreadID(threadId)
	release, err := ss.lock.Acquire(ctx, threadId)
	if err != nil {
		return err
	}
	defer release()

	ss.states.Reset(threadId)
	return nil
}
