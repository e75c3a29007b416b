package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolRunsAllTasks(t *testing.T) {
	pool := NewPool(2)

	var count atomic.Int64
	for i := 0; i < 10; i++ {
		pool.Enqueue("job", func(_ context.Context) {
			count.Add(1)
		})
	}
	pool.Close()

	assert.Equal(t, int64(10), count.Load())
}

func TestPoolBoundsConcurrency(t *testing.T) {
	pool := NewPool(2)

	var mu sync.Mutex
	running, peak := 0, 0
	gate := make(chan struct{})

	for i := 0; i < 8; i++ {
		pool.Enqueue("job", func(_ context.Context) {
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()

			<-gate

			mu.Lock()
			running--
			mu.Unlock()
		})
	}
	close(gate)
	pool.Close()

	assert.LessOrEqual(t, peak, 2)
}

func TestPoolDropsTasksAfterClose(t *testing.T) {
	pool := NewPool(1)
	pool.Close()

	ran := false
	pool.Enqueue("late", func(_ context.Context) {
		ran = true
	})
	assert.False(t, ran)
}
