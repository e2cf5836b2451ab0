package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceGenerator_Sequence(t *testing.T) {
	g := NewSequenceGenerator()
	assert.Equal(t, "0001", g.Generate())
	assert.Equal(t, "0002", g.Generate())

	g.Reset()
	assert.Equal(t, "0001", g.Generate())
}

func TestSequenceGenerator_UniqueUnderConcurrency(t *testing.T) {
	g := NewSequenceGenerator()
	const goroutines = 20
	const perGoroutine = 50

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool)
	)
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id := g.Generate()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*perGoroutine)
}
