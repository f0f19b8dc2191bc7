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
	"sync/atomic"
)

type node[T any] struct {
	value T
	next  atomic.Pointer[node[T]]
}

// Queue is an unbounded multi-producer multi-consumer queue in the
// Michael-Scott design. No operation ever blocks; progress is lock-free
// (some thread always completes) rather than wait-free, contended
// operations retry via spin-CAS.
type Queue[T any] struct {
	head atomic.Pointer[node[T]] // sentinel; head.next is the front
	tail atomic.Pointer[node[T]] // may lag behind the true last node
	size atomic.Int64
}

// NewQueue returns an empty Queue.
func NewQueue[T any]() *Queue[T] {
	q := &Queue[T]{}
	sentinel := &node[T]{}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)
	return q
}

// Offer appends v. It never blocks and never fails.
func (q *Queue[T]) Offer(v T) {
	n := &node[T]{value: v}
	for {
		tail := q.tail.Load()
		next := tail.next.Load()
		if tail != q.tail.Load() {
			continue
		}
		if next != nil {
			// the tail lags, help it forward and retry
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		if tail.next.CompareAndSwap(nil, n) {
			// best effort, the next operation fixes a lost race
			q.tail.CompareAndSwap(tail, n)
			q.size.Add(1)
			return
		}
	}
}

// Poll removes and returns the front value, reporting false if the
// queue is empty. It never blocks.
func (q *Queue[T]) Poll() (T, bool) {
	var zero T
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		next := head.next.Load()
		if head != q.head.Load() {
			continue
		}
		if head == tail {
			if next == nil {
				return zero, false
			}
			// the tail lags behind a completed Offer, help it forward
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		v := next.value
		if q.head.CompareAndSwap(head, next) {
			q.size.Add(-1)
			return v, true
		}
	}
}

// Peek returns the front value without removing it, reporting false if
// the queue is empty.
func (q *Queue[T]) Peek() (T, bool) {
	var zero T
	for {
		head := q.head.Load()
		next := head.next.Load()
		if head != q.head.Load() {
			continue
		}
		if next == nil {
			return zero, false
		}
		return next.value, true
	}
}

// Len returns the element count. Under contention the count is only
// approximate, it is not linearizable with concurrent Offer/Poll.
func (q *Queue[T]) Len() int {
	n := q.size.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// IsEmpty reports whether the queue observed no front element.
func (q *Queue[T]) IsEmpty() bool {
	head := q.head.Load()
	return head.next.Load() == nil
}
