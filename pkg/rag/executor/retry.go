package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"heritage-archive-be/pkg/rag"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

// Outcome is the result of one tool attempt.
// Variants: Success, RetryableFailure, FatalFailure.
type Outcome interface {
	isOutcome()
}

type Success struct {
	Records []rag.ArchiveRecord
}

type RetryableFailure struct {
	Reason error
}

type FatalFailure struct {
	Reason error
}

func (Success) isOutcome()          {}
func (RetryableFailure) isOutcome() {}
func (FatalFailure) isOutcome()     {}

// ClassifyAttempt maps a tool call's return values to an Outcome.
func ClassifyAttempt(records []rag.ArchiveRecord, err error) Outcome {
	switch {
	case err == nil:
		return Success{Records: records}
	case rag.IsNonRetryable(err):
		return FatalFailure{Reason: fmt.Errorf("%w: %v", rag.ErrToolFatal, err)}
	case errors.Is(err, context.DeadlineExceeded):
		return RetryableFailure{Reason: fmt.Errorf("%w: %w", rag.ErrTimeout, err)}
	default:
		return RetryableFailure{Reason: fmt.Errorf("%w: %v", rag.ErrToolTransient, err)}
	}
}

// RetryPolicy bounds the attempts of one tool invocation: up to MaxAttempts,
// sleeping base * 2^attempt between them. Fatal outcomes stop immediately.
type RetryPolicy struct {
	maxAttempts int
	base        time.Duration
	toolTimeout time.Duration
	onRetry     func()
}

// NewRetryPolicy builds a policy from the core settings.
func NewRetryPolicy(settings rag.Settings) *RetryPolicy {
	settings = settings.Normalize()
	return &RetryPolicy{
		maxAttempts: settings.MaxAttempts,
		base:        settings.BackoffBase,
		toolTimeout: settings.ToolTimeout,
	}
}

// firstDelay is base * 2^1: the wait before the second attempt. Later waits double.
func (p *RetryPolicy) firstDelay() time.Duration {
	return 2 * p.base
}

// Run calls fn until an attempt succeeds, fails fatally, or attempts run out.
// Each attempt gets its own wall-clock budget and is not cut short by ctx cancellation;
// ctx only stops further attempts and backoff sleeps.
func (p *RetryPolicy) Run(ctx context.Context, fn func(ctx context.Context) ([]rag.ArchiveRecord, error)) (Outcome, int) {
	if err := ctx.Err(); err != nil {
		return RetryableFailure{Reason: err}, 0
	}

	var (
		last     Outcome
		attempts int
	)

	policy := retrypolicy.NewBuilder[Outcome]().
		HandleIf(func(o Outcome, _ error) bool {
			_, retryable := o.(RetryableFailure)
			return retryable
		}).
		WithMaxRetries(p.maxAttempts-1).
		WithBackoff(p.firstDelay(), p.base<<uint(p.maxAttempts)).
		Build()

	_, _ = failsafe.With[Outcome](policy).WithContext(ctx).Get(func() (Outcome, error) {
		if attempts > 0 && p.onRetry != nil {
			p.onRetry()
		}
		attempts++

		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.toolTimeout)
		defer cancel()

		records, err := fn(callCtx)
		if err == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = callCtx.Err()
		}
		last = ClassifyAttempt(records, err)
		return last, nil
	})

	if last == nil {
		return RetryableFailure{Reason: fmt.Errorf("%w: no attempt ran", rag.ErrToolTransient)}, 0
	}
	return last, attempts
}

// WithRetryHook returns a copy that calls hook before every retry.
func (p *RetryPolicy) WithRetryHook(hook func()) *RetryPolicy {
	cp := *p
	cp.onRetry = hook
	return &cp
}
