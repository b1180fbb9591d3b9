package xsync

import (
	"context"
	"sort"
	"strings"
)

// Locker provides mutual exclusion keyed by an arbitrary string.
type Locker interface {
	// Lock blocks until the key is acquired or ctx is done. The returned
	// function releases the key.
	Lock(ctx context.Context, key string) (func(), error)
}

// LockAll acquires every key in a stable order, so two callers locking
// overlapping sets cannot deadlock. Duplicated and empty keys are ignored.
func LockAll(ctx context.Context, locker Locker, keys ...string) (func(), error) {
	unique := make([]string, 0, len(keys))
	seen := map[string]bool{}
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}

		seen[k] = true
		unique = append(unique, k)
	}
	sort.Strings(unique)

	unlocks := make([]func(), 0, len(unique))
	unlockAll := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}

	for _, k := range unique {
		unlock, err := locker.Lock(ctx, k)
		if err != nil {
			unlockAll()
			return nil, err
		}

		unlocks = append(unlocks, unlock)
	}

	return unlockAll, nil
}

func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
