package testutil

import (
	"fmt"
	"sync"
)

// IDSequence generates deterministic surrogate row ids for tests.
//
// The store defaults to random UUIDs; golden-file comparisons need the same
// scenario to produce byte-identical output on every run, so tests inject a
// sequence of predictable ids instead.
//
// Thread-safety: Next is safe for concurrent use.
type IDSequence struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewIDSequence creates a generator yielding "<prefix>-000001",
// "<prefix>-000002", and so on. An empty prefix defaults to "row".
func NewIDSequence(prefix string) *IDSequence {
	if prefix == "" {
		prefix = "row"
	}
	return &IDSequence{prefix: prefix}
}

// Next returns the next id in the sequence.
func (g *IDSequence) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%06d", g.prefix, g.n)
}
