package event

import "sync"

// Queue is the FIFO hand-off for actions that originate outside the tick
// (input, editor tooling). Push is safe from any goroutine; Drain runs on the
// simulation goroutine at the start of the next tick.
type Queue[T any] struct {
	mu      sync.Mutex
	pending []func(T)
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{pending: make([]func(T), 0, 32)}
}

func (q *Queue[T]) Push(fn func(T)) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// Drain runs the actions queued before the call, in order. Actions pushed
// while draining wait for the following Drain.
func (q *Queue[T]) Drain(target T) int {
	q.mu.Lock()
	batch := q.pending
	q.pending = make([]func(T), 0, cap(batch))
	q.mu.Unlock()

	for _, fn := range batch {
		fn(target)
	}
	return len(batch)
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
