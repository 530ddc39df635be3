// Package keylock serializes work per string key using a fixed set of
// striped mutexes.
//
// Keys are mapped onto stripes with murmur3, so two distinct keys may share
// a stripe and serialize against each other. That only costs parallelism;
// operations on the same key are always serialized.
package keylock

import (
	"sync"

	"github.com/spaolacci/murmur3"
)

// DefaultStripes is the default number of lock stripes.
const DefaultStripes = 256

// Locker hands out per-key mutual exclusion.
type Locker struct {
	stripes []sync.Mutex
	mask    uint32
}

// New creates a Locker with n stripes. n is rounded up to a power of two;
// non-positive values use DefaultStripes.
func New(n int) *Locker {
	if n <= 0 {
		n = DefaultStripes
	}
	size := 1
	for size < n {
		size <<= 1
	}
	return &Locker{
		stripes: make([]sync.Mutex, size),
		mask:    uint32(size - 1),
	}
}

func (l *Locker) stripe(key string) *sync.Mutex {
	return &l.stripes[murmur3.Sum32([]byte(key))&l.mask]
}

// Lock acquires the lock for key and returns its release function.
//
//	unlock := locker.Lock(email)
//	defer unlock()
func (l *Locker) Lock(key string) (unlock func()) {
	mu := l.stripe(key)
	mu.Lock()
	return mu.Unlock
}

// Stripes returns the number of stripes.
func (l *Locker) Stripes() int {
	return len(l.stripes)
}
