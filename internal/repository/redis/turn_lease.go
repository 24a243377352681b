package redis

import (
	"context"
	"fmt"
	"time"

	"heritage-archive-be/internal/pkg/logger"
	"heritage-archive-be/pkg/rag"
	"heritage-archive-be/pkg/rag/session"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	leaseKeyPrefix = "heritage:turn:"
	pollInterval   = 50 * time.Millisecond
)

var _ session.TurnLock = (*TurnLease)(nil)

// Compare-and-delete so an expired lease taken over by another instance is never released by us.
var releaseLeaseScript = goredis.NewScript(`
if redis.call('get', KEYS[1]) == ARGV[1] then
  return redis.call('del', KEYS[1])
else
  return 0
end
`)

// TurnLease is a TurnLock shared by every instance behind the same Redis.
// The lease expires on its own after ttl, so a crashed instance cannot wedge a thread.
type TurnLease struct {
	client *goredis.Client
	mode   session.LockMode
	ttl    time.Duration
	logger logger.ILogger
}

func NewTurnLease(client *goredis.Client, mode session.LockMode, ttl time.Duration, log logger.ILogger) *TurnLease {
	return &TurnLease{client: client, mode: mode, ttl: ttl, logger: log}
}

func (l *TurnLease) Acquire(ctx context.Context, threadID string) (func(), error) {
	key := leaseKeyPrefix + threadID
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: waiting for thread %q: %v", rag.ErrTimeout, threadID, ctx.Err())
			}
			return nil, fmt.Errorf("acquire turn lease: %w", err)
		}
		if ok {
			return l.releaser(key, token), nil
		}
		if l.mode == session.ModeReject {
			return nil, fmt.Errorf("%w: thread %q", rag.ErrConcurrentTurnConflict, threadID)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: waiting for thread %q: %v", rag.ErrTimeout, threadID, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

func (l *TurnLease) releaser(key, token string) func() {
	released := false
	return func() {
		if released {
			return
		}
		released = true

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseLeaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("STATE", "Failed to release turn lease", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
}
