package xsync

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_MutualExclusion(t *testing.T) {
	locker := NewMemoryLocker()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			unlock, err := locker.Lock(context.Background(), "player:lottery")
			require.NoError(t, err)
			defer unlock()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), maxInside)
	require.Equal(t, 0, locker.slots.Size())
}

func TestMemoryLocker_ContextDone(t *testing.T) {
	locker := NewMemoryLocker()

	unlock, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctx, "k")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	require.Equal(t, 0, locker.slots.Size())
}

func TestLockAll(t *testing.T) {
	locker := NewMemoryLocker()

	unlock, err := LockAll(context.Background(), locker, "b", "a", "", "b")
	require.NoError(t, err)
	require.Equal(t, 2, locker.slots.Size())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// "a" is free only after unlock, so the second call gives up and
	// releases whatever it acquired.
	_, err = LockAll(ctx, locker, "c", "a")
	require.Error(t, err)

	unlock()
	require.Equal(t, 0, locker.slots.Size())
}

type fakeRedis struct {
	mutex  sync.Mutex
	values map[string]string
}

func (f *fakeRedis) Exist(ctx context.Context, key string) (bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	_, ok := f.values[key]
	return ok, nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.values[key], nil
}

func (f *fakeRedis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeRedis) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if _, ok := f.values[key]; ok {
		return false, nil
	}

	f.values[key] = value
	return true, nil
}

func (f *fakeRedis) DelIfEqual(ctx context.Context, key, value string) (bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.values[key] != value {
		return false, nil
	}

	delete(f.values, key)
	return true, nil
}

func TestRedisLocker(t *testing.T) {
	client := &fakeRedis{values: map[string]string{}}
	locker := NewRedisLocker(client, time.Minute)
	locker.retry = time.Millisecond

	unlock, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)

	exist, err := client.Exist(context.Background(), "lock:k")
	require.NoError(t, err)
	require.True(t, exist)

	acquired := make(chan struct{})
	go func() {
		unlock2, err := locker.Lock(context.Background(), "k")
		require.NoError(t, err)
		close(acquired)
		unlock2()
	}()

	select {
	case <-acquired:
		t.Fatal("lock acquired twice")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	<-acquired

	// Releasing a lock that has been taken over by someone else keeps the
	// other owner's key.
	unlock3, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)
	client.values["lock:k"] = "another-owner"
	unlock3()
	require.Equal(t, "another-owner", client.values["lock:k"])
}
