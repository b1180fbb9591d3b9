package xsync

import (
	"context"

	"github.com/puzpuzpuz/xsync/v2"
)

type memoryLocker struct {
	slots *xsync.MapOf[string, *slot]
}

// slot is a mutex which can be abandoned by a waiter whose context is done.
type slot struct {
	ch   chan struct{}
	refs int
}

func NewMemoryLocker() *memoryLocker {
	return &memoryLocker{slots: xsync.NewMapOf[*slot]()}
}

func (l *memoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	s := l.acquireSlot(key)

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.releaseSlot(key)
		return nil, ctx.Err()
	}

	return func() {
		<-s.ch
		l.releaseSlot(key)
	}, nil
}

func (l *memoryLocker) acquireSlot(key string) *slot {
	s, _ := l.slots.Compute(key, func(s *slot, loaded bool) (*slot, bool) {
		if !loaded {
			s = &slot{ch: make(chan struct{}, 1)}
		}

		s.refs++
		return s, false
	})

	return s
}

func (l *memoryLocker) releaseSlot(key string) {
	l.slots.Compute(key, func(s *slot, loaded bool) (*slot, bool) {
		if !loaded {
			return nil, true
		}

		s.refs--
		return s, s.refs == 0
	})
}
