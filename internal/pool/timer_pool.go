// Package pool holds reusable runtime objects shared by the engine.
package pool

import (
	"sync"
	"time"
)

var timerPool sync.Pool

// GetTimer returns a timer that fires after d, reusing a pooled timer when
// one is available.
//
// Return the timer with PutTimer once it is no longer read.
func GetTimer(d time.Duration) *time.Timer {
	if t, ok := timerPool.Get().(*time.Timer); ok {
		// Since Go 1.23 a stopped timer never delivers a stale value after
		// Reset, so no channel drain is needed here.
		t.Reset(d)
		return t
	}

	return time.NewTimer(d)
}

// PutTimer stops t and returns it to the pool.
//
// t must not be accessed after it is returned.
func PutTimer(t *time.Timer) {
	if t == nil {
		return
	}
	t.Stop()
	timerPool.Put(t)
}
