// Package memory provides the bounded in-process site queue.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/careers-crawler/internal/crawler"
)

// Queue is a bounded in-memory queue with context-aware operations.
// After Close, Dequeue drains the remaining tasks before returning
// crawler.ErrQueueClosed.
type Queue struct {
	ch      chan crawler.SiteTask
	closeMu sync.RWMutex
	closed  bool
}

// NewQueue constructs a new queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{
		ch: make(chan crawler.SiteTask, capacity),
	}
}

// Enqueue pushes a task into the queue or returns if the context ends.
func (q *Queue) Enqueue(ctx context.Context, task crawler.SiteTask) error {
	q.closeMu.RLock()
	defer q.closeMu.RUnlock()
	if q.closed {
		return crawler.ErrQueueClosed
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- task:
		return nil
	}
}

// Dequeue pops the next task, respecting context cancellation.
func (q *Queue) Dequeue(ctx context.Context) (crawler.SiteTask, error) {
	select {
	case <-ctx.Done():
		return crawler.SiteTask{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case task, ok := <-q.ch:
		if !ok {
			return crawler.SiteTask{}, crawler.ErrQueueClosed
		}
		return task, nil
	}
}

// Len reports the number of buffered tasks.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close stops accepting tasks. It is safe to call more than once.
// Close blocks while an Enqueue is waiting for capacity.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
