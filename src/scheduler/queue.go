// Package scheduler implements the priority work queue and worker pool
// that execute target actions once the target graph has been prepared
// (spec.md §4.5).
package scheduler

import (
	"container/heap"
	"sync"

	"github.com/pyjam-build/pyjam/src/graph"
)

// priorityQueue is a min-heap of targets ordered by Prio (lower runs
// first), matching spec.md's "single global priority queue ordered by
// integer prio."
type priorityQueue []*graph.Target

func (q priorityQueue) Len() int            { return len(q) }
func (q priorityQueue) Less(i, j int) bool  { return q[i].Prio < q[j].Prio }
func (q priorityQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *priorityQueue) Push(x interface{}) { *q = append(*q, x.(*graph.Target)) }
func (q *priorityQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Queue is a thread-safe, multi-producer/multi-consumer priority queue
// with a fast-exit signal for fail-fast draining (spec.md §5).
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  priorityQueue
	closed bool
}

// NewQueue constructs an empty Queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues t and wakes one blocked consumer.
func (q *Queue) Push(t *graph.Target) {
	q.mu.Lock()
	heap.Push(&q.items, t)
	q.mu.Unlock()
	q.cond.Signal()
}

// Pop blocks until an item is available or the queue is closed, in
// which case it returns (nil, false). Closing with items still queued
// drains them first: every blocked and future Pop call keeps returning
// items until the heap is empty, only then reporting closed.
func (q *Queue) Pop() (*graph.Target, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	return heap.Pop(&q.items).(*graph.Target), true
}

// Close signals all blocked/future Pop calls to stop once drained, and
// wakes every waiter.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Drain discards every queued item without running it, used by
// fail-fast to empty the queue so workers exit promptly (spec.md §5).
func (q *Queue) Drain() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}
