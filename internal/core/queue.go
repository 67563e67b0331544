package core

import (
	"context"
	"sync"

	"github.com/gammazero/deque"
)

// Queue is an unbounded FIFO with a blocking Pop.
type Queue[T any] struct {
	mu    sync.Mutex
	items deque.Deque[T]
	ready chan struct{}
}

// NewQueue constructs an empty queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{ready: make(chan struct{}, 1)}
}

// Push appends an item and wakes one waiting consumer. It never blocks.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items.PushBack(item)
	q.mu.Unlock()
	q.signal()
}

// Pop removes the oldest item, blocking until one is available or ctx ends.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		if q.items.Len() > 0 {
			item := q.items.PopFront()
			more := q.items.Len() > 0
			q.mu.Unlock()
			if more {
				q.signal()
			}
			return item, nil
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Len reports the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Clear drops every queued item.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	q.items.Clear()
	q.mu.Unlock()
}

func (q *Queue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
