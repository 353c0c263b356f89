package stub

import (
	"context"
	"sort"
	"sync"
)

// Stub wraps one client stub's outbound call path so an interceptor can be
// swapped in and out. Callers hold the *Stub and never see the swap: Invoke
// always dispatches through the current transport.
//
// Intercept and Restore are idempotent and symmetric. Installing onto an
// already-intercepted stub is a no-op (never double-wraps), and Restore puts
// back exactly the original transport.
type Stub struct {
	name  string
	codec Codec

	mu      sync.RWMutex
	base    Transport
	current Transport
}

func New(name string, transport Transport, codec Codec) *Stub {
	return &Stub{
		name:    name,
		codec:   codec,
		base:    transport,
		current: transport,
	}
}

func (s *Stub) Name() string { return s.name }

func (s *Stub) Codec() Codec { return s.codec }

// Base returns the original, un-wrapped transport. Interceptors forward
// through it in recording mode.
func (s *Stub) Base() Transport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base
}

func (s *Stub) Invoke(ctx context.Context, method string, args interface{}, reply interface{}) error {
	s.mu.RLock()
	t := s.current
	s.mu.RUnlock()
	return t.Invoke(ctx, method, args, reply)
}

// Intercept swaps the call path to the given transport. No-op when an
// interceptor is already installed.
func (s *Stub) Intercept(t Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != s.base {
		return
	}
	s.current = t
}

// Restore puts the original transport back. No-op on a plain stub.
func (s *Stub) Restore() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.base
}

func (s *Stub) Intercepted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != s.base
}

// Registry is the set of stubs configured for interception. Sessions install
// and remove interceptors across every registered stub.
type Registry struct {
	mu    sync.RWMutex
	stubs map[string]*Stub
}

func NewRegistry() *Registry {
	return &Registry{stubs: make(map[string]*Stub)}
}

// Register adds or replaces the stub under its name.
func (r *Registry) Register(s *Stub) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stubs[s.Name()] = s
}

func (r *Registry) Get(name string) (*Stub, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stubs[name]
	return s, ok
}

// Stubs returns the registered stubs in name order.
func (r *Registry) Stubs() []*Stub {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.stubs))
	for name := range r.stubs {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Stub, 0, len(names))
	for _, name := range names {
		out = append(out, r.stubs[name])
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stubs)
}
