package uptime

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGate(t *testing.T) {
	g := NewGate()

	assert.True(t, g.TryAcquire("a"))
	assert.False(t, g.TryAcquire("a"), "second acquire must fail while held")
	assert.True(t, g.TryAcquire("b"), "gates are per target")

	g.Release("a")
	assert.True(t, g.TryAcquire("a"), "gate is reusable after release")

	// releasing an idle or unknown gate is harmless
	g.Release("a")
	g.Release("a")
	g.Release("never-seen")
	assert.True(t, g.TryAcquire("a"))
}

func TestGate_ConcurrentAcquire(t *testing.T) {
	g := NewGate()
	var (
		wg      sync.WaitGroup
		winners atomic.Int32
		start   = make(chan struct{})
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if g.TryAcquire("site") {
				winners.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()
	assert.EqualValues(t, 1, winners.Load())
}
