// Package models defines the normalized request/response types and the
// in-memory cassette that the record and replay services operate on.
package models

import (
	"sync"
	"time"
)

type Version int

// SchemaVersion is the cassette schema understood by this build. Cassettes
// persisted with any other version are rejected on load.
const SchemaVersion Version = 2

// Request is the normalized, order-independent form of one intercepted call.
// It is immutable once constructed; equality is delegated to the matcher so
// that ignored fields can vary per session.
type Request struct {
	Method string                 `json:"method" yaml:"method"`
	Args   map[string]interface{} `json:"args" yaml:"args"`
}

// Response is the normalized form of a call's successful result. Deferred is
// set when the recorded value was obtained by eagerly resolving a
// long-running operation handle rather than returned directly.
type Response struct {
	Result   interface{} `json:"result" yaml:"result"`
	Deferred bool        `json:"deferred,omitempty" yaml:"deferred,omitempty"`
}

// Entry pairs a recorded request with the response it produced.
type Entry struct {
	Req  Request
	Resp Response
}

// MatchFunc reports whether two normalized requests are considered equal
// under the ignore rules active for the current session.
type MatchFunc func(a, b Request) bool

// Cassette is a named, ordered sequence of recorded entries. Lookups may run
// concurrently; appends are serialized so the dedup check and the append are
// a single atomic step.
type Cassette struct {
	Name       string
	Version    Version
	RecordedAt time.Time

	mu      sync.RWMutex
	entries []*Entry
}

func NewCassette(name string) *Cassette {
	return &Cassette{
		Name:       name,
		Version:    SchemaVersion,
		RecordedAt: time.Now().UTC(),
	}
}

// Lookup returns the first entry (in insertion order) whose request matches
// req. Later duplicates are unreachable, first match wins.
func (c *Cassette) Lookup(req Request, match MatchFunc) *Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, entry := range c.entries {
		if match(entry.Req, req) {
			return entry
		}
	}
	return nil
}

// Append adds a new entry unless an equal request is already recorded. It
// reports whether the entry was stored.
func (c *Cassette) Append(req Request, resp Response, match MatchFunc) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range c.entries {
		if match(entry.Req, req) {
			return false
		}
	}
	c.entries = append(c.entries, &Entry{Req: req, Resp: resp})
	return true
}

// SetEntries replaces the entry list wholesale. Used by the store when
// populating a cassette from disk.
func (c *Cassette) SetEntries(entries []*Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = entries
}

// Entries returns a snapshot of the recorded entries in insertion order.
func (c *Cassette) Entries() []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Cassette) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
