package ledger

import "sync/atomic"

// Guard rejects a mutating call while another one is in progress on the same ledger.
// It never waits: a second Enter fails immediately with ErrReentrantCall.
type Guard struct {
	busy atomic.Bool
}

// Enter marks the guard busy and returns the function that clears it.
// The release function is idempotent.
func (g *Guard) Enter() (release func(), err error) {
	if !g.busy.CompareAndSwap(false, true) {
		return nil, ErrReentrantCall.Wrap("ledger operation already in progress")
	}
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			g.busy.Store(false)
		}
	}, nil
}

// Busy reports whether a guarded operation is running.
func (g *Guard) Busy() bool {
	return g.busy.Load()
}
