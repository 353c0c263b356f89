package stub

import (
	"context"
	"sync"
)

// Handle is the completion step of a long-running operation: the call
// returns immediately and the final value is obtained later via Resolve.
type Handle interface {
	Resolve(ctx context.Context) (interface{}, error)
}

// HandleFunc adapts a function to the Handle interface.
type HandleFunc func(ctx context.Context) (interface{}, error)

func (f HandleFunc) Resolve(ctx context.Context) (interface{}, error) {
	return f(ctx)
}

// Deferred is the engine's handle variant for long-running operations: it is
// either pending (resolution delegates to the underlying handle) or resolved
// (resolution returns a precomputed value). Resolving a pending handle caches
// the value, so eager resolution during recording patches the same handle the
// caller holds — its later completion step returns the cached value instead
// of re-executing.
//
// A transport signals a deferred call by accepting *Deferred as the reply.
type Deferred struct {
	mu       sync.Mutex
	pending  Handle
	resolved interface{}
	done     bool
}

// NewPending returns a handle that delegates to h on first resolution.
func NewPending(h Handle) *Deferred {
	return &Deferred{pending: h}
}

// NewResolved returns a handle whose completion step yields v without
// executing anything.
func NewResolved(v interface{}) *Deferred {
	return &Deferred{resolved: v, done: true}
}

// SetPending binds the underlying handle. Transports call this when filling
// the reply during a live call.
func (d *Deferred) SetPending(h Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = h
	d.done = false
}

// SetResolved pins the completion value, discarding any pending handle.
func (d *Deferred) SetResolved(v interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resolved = v
	d.done = true
}

// Resolve runs the completion step. Once a value is obtained it is cached
// and every later call returns it without re-executing the operation.
func (d *Deferred) Resolve(ctx context.Context) (interface{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done {
		return d.resolved, nil
	}
	v, err := d.pending.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	d.resolved = v
	d.done = true
	return v, nil
}

// Resolved reports whether the completion value is already pinned.
func (d *Deferred) Resolved() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}
