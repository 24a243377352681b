package session

import (
	"context"
	"fmt"
	"sync"

	"heritage-archive-be/pkg/rag"
)

// LockMode decides what a second turn on a busy thread does.
type LockMode string

const (
	// ModeWait blocks until the running turn finishes or ctx ends.
	ModeWait LockMode = "wait"
	// ModeReject fails fast with rag.ErrConcurrentTurnConflict.
	ModeReject LockMode = "reject"
)

// ParseLockMode accepts "wait" or "reject"; anything else waits.
func ParseLockMode(s string) LockMode {
	if LockMode(s) == ModeReject {
		return ModeReject
	}
	return ModeWait
}

// TurnLock gives one in-flight turn exclusive ownership of a thread.
// The returned release func must be called exactly once.
type TurnLock interface {
	Acquire(ctx context.Context, threadID string) (release func(), err error)
}

// LocalTurnLock serializes turns inside one process.
type LocalTurnLock struct {
	mode  LockMode
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch      chan struct{}
	waiters int
}

func NewLocalTurnLock(mode LockMode) *LocalTurnLock {
	return &LocalTurnLock{mode: mode, slots: make(map[string]*slot)}
}

func (l *LocalTurnLock) Acquire(ctx context.Context, threadID string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[threadID]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[threadID] = s
	}
	s.waiters++
	l.mu.Unlock()

	if l.mode == ModeReject {
		select {
		case s.ch <- struct{}{}:
			return l.releaser(threadID, s), nil
		default:
			l.leave(threadID, s)
			return nil, fmt.Errorf("%w: thread %q", rag.ErrConcurrentTurnConflict, threadID)
		}
	}

	select {
	case s.ch <- struct{}{}:
		return l.releaser(threadID, s), nil
	case <-ctx.Done():
		l.leave(threadID, s)
		return nil, fmt.Errorf("%w: waiting for thread %q: %v", rag.ErrTimeout, threadID, ctx.Err())
	}
}

func (l *LocalTurnLock) releaser(threadID string, s *slot) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.leave(threadID, s)
		})
	}
}

// leave drops idle slots so the map does not grow with every thread ever seen.
func (l *LocalTurnLock) leave(threadID string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.waiters--
	if s.waiters == 0 {
		delete(l.slots, threadID)
	}
}
