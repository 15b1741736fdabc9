package dispatcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/careers-crawler/internal/crawler"
	"github.com/JakeFAU/careers-crawler/internal/queue/memory"
)

// TestDispatcherRunWaitsForDrain ensures Run returns once workers drain a closed queue.
func TestDispatcherRunWaitsForDrain(t *testing.T) {
	t.Parallel()

	q := memory.NewQueue(8)
	var processed atomic.Int32
	workers := []Runner{&drainWorker{q: q, n: &processed}, &drainWorker{q: q, n: &processed}}
	d := New(q, workers)

	for row := 2; row < 7; row++ {
		require.NoError(t, d.Enqueue(context.Background(), crawler.SiteTask{Row: row}))
	}
	q.Close()

	done := make(chan struct{})
	go func() {
		d.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not return after drain")
	}
	require.EqualValues(t, 5, processed.Load())
}

// TestDispatcherRunStopsOnCancel verifies workers blocked on an open queue exit on cancel.
func TestDispatcherRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	q := memory.NewQueue(1)
	var processed atomic.Int32
	d := New(q, []Runner{&drainWorker{q: q, n: &processed}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop after context cancel")
	}
}

// TestDispatcherEnqueueForwardsErrors verifies queue errors are wrapped for callers.
func TestDispatcherEnqueueForwardsErrors(t *testing.T) {
	t.Parallel()

	d := New(&errorQueue{err: errors.New("boom")}, nil)
	err := d.Enqueue(context.Background(), crawler.SiteTask{Row: 2})
	require.EqualError(t, err, "queue enqueue: boom")
}

type drainWorker struct {
	q crawler.Queue
	n *atomic.Int32
}

func (w *drainWorker) Run(ctx context.Context) {
	for {
		if _, err := w.q.Dequeue(ctx); err != nil {
			return
		}
		w.n.Add(1)
	}
}

type errorQueue struct {
	err error
}

func (q *errorQueue) Enqueue(context.Context, crawler.SiteTask) error {
	return q.err
}

func (q *errorQueue) Dequeue(context.Context) (crawler.SiteTask, error) {
	return crawler.SiteTask{}, q.err
}
