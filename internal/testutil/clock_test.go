package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)

func TestManualClock_Frozen(t *testing.T) {
	c := NewManualClock(epoch)
	assert.Equal(t, epoch, c.Now())
	assert.Equal(t, epoch, c.Now())
}

func TestManualClock_SetAndAdvance(t *testing.T) {
	c := NewManualClock(epoch)

	c.Advance(36 * time.Hour)
	assert.Equal(t, epoch.Add(36*time.Hour), c.Now())

	later := time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)
	c.Set(later)
	assert.Equal(t, later, c.Now())
}

func TestManualClock_ThreadSafe(t *testing.T) {
	c := NewManualClock(epoch)
	const goroutines = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			c.Advance(time.Minute)
			_ = c.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, epoch.Add(goroutines*time.Minute), c.Now())
}
