package sync

import (
	"sort"
	base "sync"
)

const (
	hashEntriesPerLock = 200
)

// StripedLock is a partitioned locking mechanism that consistently maps a key
// space to a set of locks. This provides concurrent data access while also
// limiting the total memory footprint.
type StripedLock struct {
	locks    []base.RWMutex
	hashRing *ring
}

// NewStripedLock returns a new StripedLock with a static number of stripes.
func NewStripedLock(stripes uint) *StripedLock {
	return &StripedLock{
		locks:    make([]base.RWMutex, stripes),
		hashRing: newRing("lock", int(stripes), hashEntriesPerLock),
	}
}

// Get gets the lock for a key
func (l *StripedLock) Get(key []byte) *base.RWMutex {
	return &l.locks[l.hashRing.shard(key)]
}

// Acquire locks every stripe covering the provided keys and returns a function
// that releases them. Stripes holding at least one exclusive key are write
// locked, the others are read locked. Stripes are always taken in ascending
// order, so concurrent callers with overlapping keys cannot deadlock.
func (l *StripedLock) Acquire(exclusive, shared [][]byte) (release func()) {
	modes := make(map[int]bool)
	for _, key := range shared {
		modes[l.hashRing.shard(key)] = false
	}
	for _, key := range exclusive {
		modes[l.hashRing.shard(key)] = true
	}

	stripes := make([]int, 0, len(modes))
	for stripe := range modes {
		stripes = append(stripes, stripe)
	}
	sort.Ints(stripes)

	for _, stripe := range stripes {
		if modes[stripe] {
			l.locks[stripe].Lock()
		} else {
			l.locks[stripe].RLock()
		}
	}

	var once base.Once
	return func() {
		once.Do(func() {
			for i := len(stripes) - 1; i >= 0; i-- {
				if modes[stripes[i]] {
					l.locks[stripes[i]].Unlock()
				} else {
					l.locks[stripes[i]].RUnlock()
				}
			}
		})
	}
}
