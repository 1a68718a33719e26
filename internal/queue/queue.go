// Package queue buffers accepted storage tasks between the HTTP intake and
// the single background worker.
//
// The queue is unbounded: Enqueue never blocks and never fails, so a
// sustained intake spike that outpaces the worker grows memory without
// limit. There is no back-pressure.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/gammazero/deque"

	"github.com/PratikDhanave/gamedata-server/internal/models"
)

// ErrClosed is returned by Dequeue once the queue has been closed.
var ErrClosed = errors.New("queue closed")

// Queue is a FIFO of tasks, safe for many producers and one or more consumers.
type Queue struct {
	mu     sync.Mutex
	items  *deque.Deque[models.Task]
	ready  chan struct{} // holds a token while items may be available
	done   chan struct{}
	closed bool
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{
		items: deque.New[models.Task](),
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Enqueue appends a task. Tasks enqueued after Close are dropped.
func (q *Queue) Enqueue(task models.Task) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items.PushBack(task)
	q.mu.Unlock()
	q.signal()
}

// Dequeue blocks until a task is available, ctx is done or the queue is closed.
func (q *Queue) Dequeue(ctx context.Context) (models.Task, error) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return models.Task{}, ErrClosed
		}
		if q.items.Len() > 0 {
			task := q.items.PopFront()
			more := q.items.Len() > 0
			q.mu.Unlock()
			if more {
				q.signal()
			}
			return task, nil
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-q.done:
		case <-ctx.Done():
			return models.Task{}, ctx.Err()
		}
	}
}

// Len is an eventually consistent count of waiting tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Empty reports whether no task is waiting.
func (q *Queue) Empty() bool {
	return q.Len() == 0
}

// Close wakes all blocked consumers and discards waiting tasks.
// It is safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.items.Clear()
	close(q.done)
}

func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
