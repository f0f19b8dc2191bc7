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

package hashtable

import (
	"github.com/orcadb/collections/pkg/common/moerr"
)

// linkedEntry threads every entry of a LinkedMap on an auxiliary doubly
// linked list in insertion order.
type linkedEntry[K any, V any] struct {
	key           K
	value         V
	before, after *linkedEntry[K, V]
}

// LinkedMap is a Map variant whose iteration order is the insertion
// order. Overwriting a present key keeps its original position.
// Not safe for concurrent use.
type LinkedMap[K any, V any] struct {
	m          *Map[K, *linkedEntry[K, V]]
	head, tail *linkedEntry[K, V]

	// bumped on every structural change, checked by iterators
	version uint32
}

// NewLinkedMap returns an empty LinkedMap with default tuning.
func NewLinkedMap[K any, V any](hasher Hasher[K]) (*LinkedMap[K, V], error) {
	m, err := New[K, *linkedEntry[K, V]](hasher)
	if err != nil {
		return nil, err
	}
	return &LinkedMap[K, V]{m: m}, nil
}

func (lm *LinkedMap[K, V]) Len() int {
	return lm.m.Len()
}

// Put inserts key with value, overwriting the value if key is present.
func (lm *LinkedMap[K, V]) Put(key K, value V) error {
	if le, ok := lm.m.Get(key); ok {
		le.value = value
		return nil
	}
	le := &linkedEntry[K, V]{key: key, value: value, before: lm.tail}
	if err := lm.m.Put(key, le); err != nil {
		return err
	}
	if lm.tail == nil {
		lm.head = le
	} else {
		lm.tail.after = le
	}
	lm.tail = le
	lm.version++
	return nil
}

// Get returns the value stored under key.
func (lm *LinkedMap[K, V]) Get(key K) (V, bool) {
	le, ok := lm.m.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	return le.value, true
}

// Contains reports whether key is present.
func (lm *LinkedMap[K, V]) Contains(key K) bool {
	return lm.m.Contains(key)
}

// Remove deletes key, returning the removed value.
func (lm *LinkedMap[K, V]) Remove(key K) (V, bool) {
	le, ok := lm.m.Remove(key)
	if !ok {
		var zero V
		return zero, false
	}
	if le.before == nil {
		lm.head = le.after
	} else {
		le.before.after = le.after
	}
	if le.after == nil {
		lm.tail = le.before
	} else {
		le.after.before = le.before
	}
	le.before, le.after = nil, nil
	lm.version++
	return le.value, true
}

// Range calls fn on every entry in insertion order, stopping if fn
// returns false. It fails fast if fn structurally modifies the map.
func (lm *LinkedMap[K, V]) Range(fn func(key K, value V) bool) error {
	version := lm.version
	for le := lm.head; le != nil; le = le.after {
		if lm.version != version {
			return moerr.NewConcurrentModification("linkedmap")
		}
		if !fn(le.key, le.value) {
			return nil
		}
	}
	return nil
}

// Iterator returns a fail-fast iterator in insertion order.
func (lm *LinkedMap[K, V]) Iterator() *LinkedIterator[K, V] {
	return &LinkedIterator[K, V]{lm: lm, next: lm.head, version: lm.version}
}

// LinkedIterator walks a LinkedMap in insertion order. Any structural
// modification of the map invalidates it.
type LinkedIterator[K any, V any] struct {
	lm      *LinkedMap[K, V]
	next    *linkedEntry[K, V]
	version uint32
}

func (it *LinkedIterator[K, V]) HasNext() bool {
	return it.next != nil
}

// Next returns the next entry. It fails with a concurrent-modification
// error if the map changed since the iterator was created.
func (it *LinkedIterator[K, V]) Next() (K, V, error) {
	var zk K
	var zv V
	if it.version != it.lm.version {
		return zk, zv, moerr.NewConcurrentModification("linkedmap")
	}
	if it.next == nil {
		return zk, zv, moerr.NewIteratorExhausted()
	}
	le := it.next
	it.next = le.after
	return le.key, le.value, nil
}
