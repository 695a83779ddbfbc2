package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestPoolConcurrencyBound(t *testing.T) {
	var active, peak, processed int32

	process := func(ctx context.Context, assetID string) error {
		current := atomic.AddInt32(&active, 1)
		for {
			observed := atomic.LoadInt32(&peak)
			if current <= observed || atomic.CompareAndSwapInt32(&peak, observed, current) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		atomic.AddInt32(&processed, 1)
		return nil
	}

	pool := NewPool(2, process, arbor.NewLogger())
	defer pool.Shutdown()

	tasks := make([]*Task, 0, 8)
	for i := 0; i < 8; i++ {
		tasks = append(tasks, pool.Submit(fmt.Sprintf("asset_%d", i)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, task := range tasks {
		require.NoError(t, task.Wait(ctx))
	}

	assert.Equal(t, int32(8), atomic.LoadInt32(&processed))
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2), "concurrency bound exceeded")
}

func TestPoolFIFOOrder(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var order []string

	process := func(ctx context.Context, assetID string) error {
		<-release
		mu.Lock()
		order = append(order, assetID)
		mu.Unlock()
		return nil
	}

	pool := NewPool(1, process, arbor.NewLogger())
	defer pool.Shutdown()

	first := pool.Submit("first")
	second := pool.Submit("second")
	third := pool.Submit("third")

	// Only the first should hold the single worker slot
	assert.Equal(t, 1, pool.Active())
	assert.Equal(t, 2, pool.PendingCount())

	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, first.Wait(ctx))
	require.NoError(t, second.Wait(ctx))
	require.NoError(t, third.Wait(ctx))

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestPoolFailureIsolation(t *testing.T) {
	process := func(ctx context.Context, assetID string) error {
		if assetID == "bad" {
			return fmt.Errorf("extraction blew up")
		}
		return nil
	}

	pool := NewPool(2, process, arbor.NewLogger())
	defer pool.Shutdown()

	bad := pool.Submit("bad")
	good := pool.Submit("good")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := bad.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extraction blew up")
	assert.NoError(t, good.Wait(ctx))

	// Pool still dispatches after a failure
	after := pool.Submit("after")
	assert.NoError(t, after.Wait(ctx))
}

func TestPoolPanicRecovery(t *testing.T) {
	process := func(ctx context.Context, assetID string) error {
		if assetID == "boom" {
			panic("handler bug")
		}
		return nil
	}

	pool := NewPool(1, process, arbor.NewLogger())
	defer pool.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	boom := pool.Submit("boom")
	err := boom.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")

	// The slot is released and the pool keeps working
	next := pool.Submit("next")
	assert.NoError(t, next.Wait(ctx))
}

func TestPoolShutdownFailsPending(t *testing.T) {
	release := make(chan struct{})
	process := func(ctx context.Context, assetID string) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}

	pool := NewPool(1, process, arbor.NewLogger())

	running := pool.Submit("running")
	pending := pool.Submit("pending")

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()
	pool.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, running.Wait(ctx))
	err := pending.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shut down")

	// Submissions after shutdown fail immediately
	late := pool.Submit("late")
	assert.Error(t, late.Wait(ctx))
}
