// Copyright 2024 OrcaDB
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/orcadb/collections/pkg/common/moerr"
	"github.com/orcadb/collections/pkg/config"
	"github.com/orcadb/collections/pkg/container/list"
)

// waiter is one parked Put or Take call. The signaler pops it from its
// wait list and sends on c; reserved marks a fair-mode slot or item
// promised to it.
type waiter struct {
	c        chan struct{}
	reserved bool
}

// Bounded is a capacity-bounded blocking queue. Put suspends while the
// buffer is full and Take while it is empty, giving backpressure between
// producers and consumers. Waiters park on explicit FIFO lists with a
// per-waiter signal channel instead of a shared condition variable, so
// waits compose with context deadlines and cancellation.
type Bounded[T any] struct {
	mu       sync.Mutex
	buf      *list.List[T]
	capacity int
	fair     bool
	closed   bool

	// waiters in arrival order
	notFull  *list.List[*waiter]
	notEmpty *list.List[*waiter]

	// fair mode: slots/items promised to signaled waiters that have not
	// yet claimed them
	reservedSlots int
	reservedItems int
}

// BoundedOption tunes a Bounded queue.
type BoundedOption func(*boundedOptions)

type boundedOptions struct {
	fair bool
}

// WithFair serializes waiter wakeup by arrival order. Uncontended calls
// are unaffected; under contention fairness costs throughput.
func WithFair() BoundedOption {
	return func(o *boundedOptions) {
		o.fair = true
	}
}

// NewBounded returns an empty queue holding at most capacity elements.
// A non-positive capacity falls back to the configured default.
func NewBounded[T any](capacity int, opts ...BoundedOption) *Bounded[T] {
	if capacity <= 0 {
		capacity = config.Default().QueueDefaultCapacity
	}
	var o boundedOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Bounded[T]{
		buf:      list.New[T](),
		capacity: capacity,
		fair:     o.fair,
		notFull:  list.New[*waiter](),
		notEmpty: list.New[*waiter](),
	}
}

func (q *Bounded[T]) Cap() int {
	return q.capacity
}

func (q *Bounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.Len()
}

// canEnqueue holds the not-full condition, canDequeue the not-empty one.
// Fair-mode reservations count against capacity so newcomers cannot
// steal a promised slot or item.
func (q *Bounded[T]) canEnqueue() bool {
	return q.buf.Len()+q.reservedSlots < q.capacity
}

func (q *Bounded[T]) canDequeue() bool {
	return q.buf.Len()-q.reservedItems > 0
}

// signalNotEmpty wakes the longest-waiting Take, called with mu held
// after an enqueue.
func (q *Bounded[T]) signalNotEmpty() {
	e := q.notEmpty.PopFront()
	if e == nil {
		return
	}
	w := e.Value
	if q.fair {
		q.reservedItems++
		w.reserved = true
	}
	w.c <- struct{}{}
}

// signalNotFull wakes the longest-waiting Put, called with mu held after
// a dequeue.
func (q *Bounded[T]) signalNotFull() {
	e := q.notFull.PopFront()
	if e == nil {
		return
	}
	w := e.Value
	if q.fair {
		q.reservedSlots++
		w.reserved = true
	}
	w.c <- struct{}{}
}

// Put appends v, suspending while the buffer is full. A context deadline
// bounds the suspension with a timeout error; cancellation fails with an
// interrupted error.
func (q *Bounded[T]) Put(ctx context.Context, v T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return moerr.NewQueueClosed()
	}
	if q.canEnqueue() && (!q.fair || q.notFull.Len() == 0) {
		q.buf.PushBack(v)
		q.signalNotEmpty()
		q.mu.Unlock()
		return nil
	}
	w := &waiter{c: make(chan struct{}, 1)}
	elem := q.notFull.PushBack(w)
	q.mu.Unlock()

	for {
		select {
		case <-w.c:
			q.mu.Lock()
			if w.reserved {
				q.reservedSlots--
				w.reserved = false
			}
			if q.closed {
				q.mu.Unlock()
				return moerr.NewQueueClosed()
			}
			if q.canEnqueue() {
				q.buf.PushBack(v)
				q.signalNotEmpty()
				q.mu.Unlock()
				return nil
			}
			// barged by a non-fair fast path, park again at the front
			elem = q.notFull.PushFront(w)
			q.mu.Unlock()

		case <-ctx.Done():
			q.abandon(q.notFull, elem, w, q.signalNotFull)
			return ctxError(ctx)
		}
	}
}

// Take removes and returns the front element, suspending while the
// buffer is empty. A context deadline bounds the suspension with a
// timeout error; cancellation fails with an interrupted error.
func (q *Bounded[T]) Take(ctx context.Context) (T, error) {
	var zero T
	q.mu.Lock()
	if q.canDequeue() && (!q.fair || q.notEmpty.Len() == 0) {
		v := q.buf.PopFront().Value
		q.signalNotFull()
		q.mu.Unlock()
		return v, nil
	}
	if q.closed {
		q.mu.Unlock()
		return zero, moerr.NewQueueClosed()
	}
	w := &waiter{c: make(chan struct{}, 1)}
	elem := q.notEmpty.PushBack(w)
	q.mu.Unlock()

	for {
		select {
		case <-w.c:
			q.mu.Lock()
			if w.reserved {
				q.reservedItems--
				w.reserved = false
			}
			if q.canDequeue() {
				v := q.buf.PopFront().Value
				q.signalNotFull()
				q.mu.Unlock()
				return v, nil
			}
			if q.closed {
				q.mu.Unlock()
				return zero, moerr.NewQueueClosed()
			}
			// barged by a non-fair fast path, park again at the front
			elem = q.notEmpty.PushFront(w)
			q.mu.Unlock()

		case <-ctx.Done():
			q.abandon(q.notEmpty, elem, w, q.signalNotEmpty)
			return zero, ctxError(ctx)
		}
	}
}

// abandon retires a cancelled waiter. If the waiter was already signaled
// the wakeup is passed on so the slot or item is not lost.
func (q *Bounded[T]) abandon(l *list.List[*waiter], elem *list.Element[*waiter], w *waiter, resignal func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	select {
	case <-w.c:
		if w.reserved {
			if l == q.notFull {
				q.reservedSlots--
			} else {
				q.reservedItems--
			}
			w.reserved = false
		}
		resignal()
	default:
		l.Remove(elem)
	}
}

func ctxError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return moerr.NewWaitTimeout()
	}
	return moerr.NewWaitInterrupted()
}

// Offer appends v without blocking, failing with a queue-full error when
// no slot is free.
func (q *Bounded[T]) Offer(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return moerr.NewQueueClosed()
	}
	if !q.canEnqueue() || (q.fair && q.notFull.Len() > 0) {
		return moerr.NewQueueFull()
	}
	q.buf.PushBack(v)
	q.signalNotEmpty()
	return nil
}

// Poll removes and returns the front element without blocking, failing
// with a queue-empty error when nothing is buffered. A closed queue
// drains its remaining elements before reporting closed.
func (q *Bounded[T]) Poll() (T, error) {
	var zero T
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.canDequeue() && (!q.fair || q.notEmpty.Len() == 0) {
		v := q.buf.PopFront().Value
		q.signalNotFull()
		return v, nil
	}
	if q.closed {
		return zero, moerr.NewQueueClosed()
	}
	return zero, moerr.NewQueueEmpty()
}

// Close rejects further Puts and wakes every waiter. Buffered elements
// remain drainable via Take or Poll.
func (q *Bounded[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	for e := q.notFull.PopFront(); e != nil; e = q.notFull.PopFront() {
		e.Value.c <- struct{}{}
	}
	for e := q.notEmpty.PopFront(); e != nil; e = q.notEmpty.PopFront() {
		e.Value.c <- struct{}{}
	}
}
