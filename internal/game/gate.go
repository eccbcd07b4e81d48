package game

import (
	"context"
	"sync"
	"sync/atomic"
)

// Gate is a broadcast on/off signal. Readers check it without locking;
// waiters block until it opens or their context ends.
type Gate struct {
	mu   sync.Mutex
	open atomic.Bool
	ch   chan struct{} // closed while the gate is open
}

// NewGate returns a gate in the given state.
func NewGate(open bool) *Gate {
	g := &Gate{ch: make(chan struct{})}
	if open {
		g.open.Store(true)
		close(g.ch)
	}
	return g
}

// Open releases every waiter. Opening an open gate does nothing.
func (g *Gate) Open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.open.Load() {
		return
	}
	g.open.Store(true)
	close(g.ch)
}

// Close makes future waiters block. Closing a closed gate does nothing.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.open.Load() {
		return
	}
	g.open.Store(false)
	g.ch = make(chan struct{})
}

// IsOpen reports the current state.
func (g *Gate) IsOpen() bool {
	return g.open.Load()
}

// Wait blocks until the gate is open or ctx is done. The state is rechecked
// after every wake, so a gate that closed again before the waiter ran keeps
// it waiting.
func (g *Gate) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		if g.open.Load() {
			g.mu.Unlock()
			return nil
		}
		ch := g.ch
		g.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
