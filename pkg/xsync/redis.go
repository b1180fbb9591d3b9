package xsync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rafflelab/backend/pkg/xcontext"
	"github.com/rafflelab/backend/pkg/xredis"
)

const (
	defaultLockTTL = 5 * time.Minute
	retryInterval  = 50 * time.Millisecond
	lockKeyPrefix  = "lock:"
)

var ErrLockLost = errors.New("lock expired before release")

type redisLocker struct {
	client xredis.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisLocker shares locks between processes. A lock is held for at most
// ttl, so ttl must exceed the longest critical section.
func NewRedisLocker(client xredis.Client, ttl time.Duration) *redisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}

	return &redisLocker{client: client, ttl: ttl, retry: retryInterval}
}

func (l *redisLocker) Lock(ctx context.Context, key string) (func(), error) {
	key = lockKeyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl)
		if err != nil {
			return nil, err
		}

		if ok {
			break
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return func() {
		// The caller's context may already be canceled, the key still has to
		// be released.
		released, err := l.client.DelIfEqual(context.Background(), key, token)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot release lock %s: %v", key, err)
		} else if !released {
			xcontext.Logger(ctx).Warnf("%v: %s", ErrLockLost, key)
		}
	}, nil
}
