package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator produces predictable record ID suffixes: "0001",
// "0002", ... This keeps manual record IDs stable in golden snapshots.
//
// Thread-safety: SequenceGenerator is safe for concurrent use.
type SequenceGenerator struct {
	mu  sync.Mutex
	seq int
}

// NewSequenceGenerator creates a generator whose first value is "0001".
func NewSequenceGenerator() *SequenceGenerator {
	return &SequenceGenerator{}
}

// Generate returns the next suffix.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%04d", g.seq)
}

// Reset restarts the sequence at "0001".
func (g *SequenceGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
