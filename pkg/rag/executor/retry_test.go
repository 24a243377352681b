package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"heritage-archive-be/pkg/rag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastSettings() rag.Settings {
	s := rag.DefaultSettings()
	s.BackoffBase = time.Millisecond
	s.ToolTimeout = 50 * time.Millisecond
	return s
}

func TestClassifyAttempt(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    interface{}
		wantErr error
	}{
		{"success", nil, Success{}, nil},
		{"permission denied", errors.New("permission denied for table archives"), FatalFailure{}, rag.ErrToolFatal},
		{"auth", errors.New("Authentication failed"), FatalFailure{}, rag.ErrToolFatal},
		{"invalid input", rag.ErrInvalidInput, FatalFailure{}, rag.ErrToolFatal},
		{"deadline", context.DeadlineExceeded, RetryableFailure{}, rag.ErrTimeout},
		{"connection reset", errors.New("connection reset by peer"), RetryableFailure{}, rag.ErrToolTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyAttempt(nil, tt.err)
			assert.IsType(t, tt.want, got)
			switch o := got.(type) {
			case RetryableFailure:
				assert.ErrorIs(t, o.Reason, tt.wantErr)
			case FatalFailure:
				assert.ErrorIs(t, o.Reason, tt.wantErr)
			}
		})
	}
}

func TestRetryPolicyRun(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		retries := 0
		p := NewRetryPolicy(fastSettings()).WithRetryHook(func() { retries++ })

		out, attempts := p.Run(context.Background(), func(ctx context.Context) ([]rag.ArchiveRecord, error) {
			calls++
			if calls < 3 {
				return nil, errors.New("temporary")
			}
			return []rag.ArchiveRecord{{ID: "a"}}, nil
		})

		require.IsType(t, Success{}, out)
		assert.Len(t, out.(Success).Records, 1)
		assert.Equal(t, 3, attempts)
		assert.Equal(t, 2, retries)
	})

	t.Run("stops at max attempts", func(t *testing.T) {
		calls := 0
		out, attempts := NewRetryPolicy(fastSettings()).Run(context.Background(), func(ctx context.Context) ([]rag.ArchiveRecord, error) {
			calls++
			return nil, errors.New("temporary")
		})

		require.IsType(t, RetryableFailure{}, out)
		assert.ErrorIs(t, out.(RetryableFailure).Reason, rag.ErrToolTransient)
		assert.Equal(t, 3, attempts)
		assert.Equal(t, 3, calls)
	})

	t.Run("fatal does not consume the budget", func(t *testing.T) {
		calls := 0
		out, attempts := NewRetryPolicy(fastSettings()).Run(context.Background(), func(ctx context.Context) ([]rag.ArchiveRecord, error) {
			calls++
			return nil, errors.New("unauthorized")
		})

		require.IsType(t, FatalFailure{}, out)
		assert.Equal(t, 1, attempts)
		assert.Equal(t, 1, calls)
	})

	t.Run("each attempt gets its own budget", func(t *testing.T) {
		out, attempts := NewRetryPolicy(fastSettings()).Run(context.Background(), func(ctx context.Context) ([]rag.ArchiveRecord, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

		require.IsType(t, RetryableFailure{}, out)
		assert.ErrorIs(t, out.(RetryableFailure).Reason, rag.ErrTimeout)
		assert.Equal(t, 3, attempts)
	})

	t.Run("waits base times two to the attempt between attempts", func(t *testing.T) {
		settings := fastSettings()
		settings.BackoffBase = 20 * time.Millisecond

		var starts []time.Time
		_, attempts := NewRetryPolicy(settings).Run(context.Background(), func(ctx context.Context) ([]rag.ArchiveRecord, error) {
			starts = append(starts, time.Now())
			return nil, errors.New("temporary")
		})

		require.Equal(t, 3, attempts)
		require.Len(t, starts, 3)
		first := starts[1].Sub(starts[0])
		second := starts[2].Sub(starts[1])
		assert.GreaterOrEqual(t, first, 40*time.Millisecond)
		assert.GreaterOrEqual(t, second, 80*time.Millisecond)
		assert.Less(t, first, 80*time.Millisecond)
	})

	t.Run("cancelled before first attempt", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		out, attempts := NewRetryPolicy(fastSettings()).Run(ctx, func(ctx context.Context) ([]rag.ArchiveRecord, error) {
			t.Fatal("must not be called")
			return nil, nil
		})

		assert.IsType(t, RetryableFailure{}, out)
		assert.Equal(t, 0, attempts)
	})
}
