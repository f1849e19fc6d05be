// Package queue provides the FIFO backlog used by the delivery engine.
package queue

import (
	"sync/atomic"
)

// node is a single link of the lock-free queue. The head always points at a
// sentinel node whose value has already been consumed.
type node[T any] struct {
	value T
	next  atomic.Pointer[node[T]]
}

// LockFreeQueue is a lock-free, multi-producer multi-consumer FIFO queue
// (Michael & Scott). Enqueue never blocks, so producers can hand work to a
// single consumer goroutine without contending on a mutex.
type LockFreeQueue[T any] struct {
	head   atomic.Pointer[node[T]]
	tail   atomic.Pointer[node[T]]
	length atomic.Int64
}

// NewLockFreeQueue creates an empty LockFreeQueue.
func NewLockFreeQueue[T any]() *LockFreeQueue[T] {
	q := &LockFreeQueue[T]{}
	sentinel := &node[T]{}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	return q
}

// Enqueue adds an item to the tail of the queue.
func (q *LockFreeQueue[T]) Enqueue(item T) {
	n := &node[T]{value: item}

	for {
		tail := q.tail.Load()
		next := tail.next.Load()

		// tail and next must be consistent
		if tail != q.tail.Load() {
			continue
		}

		if next != nil {
			// tail is lagging, help swing it forward
			q.tail.CompareAndSwap(tail, next)
			continue
		}

		if tail.next.CompareAndSwap(nil, n) {
			q.tail.CompareAndSwap(tail, n)
			q.length.Add(1)

			return
		}
	}
}

// Dequeue removes and returns the item at the head of the queue.
func (q *LockFreeQueue[T]) Dequeue() (T, bool) {
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		next := head.next.Load()

		if head != q.head.Load() {
			continue
		}

		if head == tail {
			if next == nil {
				var zero T
				return zero, false
			}
			q.tail.CompareAndSwap(tail, next)

			continue
		}

		item := next.value
		if q.head.CompareAndSwap(head, next) {
			q.length.Add(-1)
			return item, true
		}
	}
}

// Length returns the number of items in the queue. Under concurrent use the
// value is a snapshot and may briefly lag behind Enqueue/Dequeue.
func (q *LockFreeQueue[T]) Length() int {
	if n := q.length.Load(); n > 0 {
		return int(n)
	}

	return 0
}
