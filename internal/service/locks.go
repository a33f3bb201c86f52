package service

import "sync"

// MarketLocks serializes matching, cancellation and settlement per
// market. Two concurrent matching passes over the same book could both
// observe the same PENDING order and double-spend its reservation;
// distinct markets stay independent and match concurrently.
type MarketLocks struct {
	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

func NewMarketLocks() *MarketLocks {
	return &MarketLocks{locks: make(map[uint64]*sync.Mutex)}
}

// Lock acquires the mutex for marketID and returns its release func.
func (l *MarketLocks) Lock(marketID uint64) func() {
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
