package engine

import "sync"

// marketLocks serializes mutating operations per market. Two operations on
// the same market never interleave; operations on different markets run in
// parallel. Locks are created lazily and never discarded: the per-market
// footprint is one mutex, and markets are retired by an external archival
// process, not by the engine.
type marketLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newMarketLocks() *marketLocks {
	return &marketLocks{locks: make(map[int64]*sync.Mutex)}
}

// acquire locks the mutex for the given market and returns its release func.
func (l *marketLocks) acquire(marketID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[marketID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[marketID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
