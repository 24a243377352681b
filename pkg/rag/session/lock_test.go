package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"heritage-archive-be/pkg/rag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalTurnLockReject(t *testing.T) {
	lock := NewLocalTurnLock(ModeReject)
	ctx := context.Background()

	release, err := lock.Acquire(ctx, "t")
	require.NoError(t, err)

	_, err = lock.Acquire(ctx, "t")
	assert.ErrorIs(t, err, rag.ErrConcurrentTurnConflict)

	other, err := lock.Acquire(ctx, "other")
	require.NoError(t, err, "different threads never coordinate")
	other()

	release()
	again, err := lock.Acquire(ctx, "t")
	require.NoError(t, err)
	again()
}

func TestLocalTurnLockWaitSerializes(t *testing.T) {
	lock := NewLocalTurnLock(ModeWait)
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := lock.Acquire(context.Background(), "t")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, lock.slots)
}

func TestLocalTurnLockWaitHonoursContext(t *testing.T) {
	lock := NewLocalTurnLock(ModeWait)
	release, err := lock.Acquire(context.Background(), "t")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = lock.Acquire(ctx, "t")
	assert.ErrorIs(t, err, rag.ErrTimeout)
}

func TestReleaseIsIdempotent(t *testing.T) {
	lock := NewLocalTurnLock(ModeReject)
	release, err := lock.Acquire(context.Background(), "t")
	require.NoError(t, err)

	release()
	release()

	assert.Empty(t, lock.slots)
}

func TestParseLockMode(t *testing.T) {
	assert.Equal(t, ModeReject, ParseLockMode("reject"))
	assert.Equal(t, ModeWait, ParseLockMode("wait"))
	assert.Equal(t, ModeWait, ParseLockMode(""))
}
