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

package vector

import (
	"math"

	"github.com/orcadb/collections/pkg/common/moerr"
)

// MaxLen is the maximum number of elements a Vector can hold.
const MaxLen = math.MaxInt32

// Vector is a growable array sequence with O(1) index access.
// It is not safe for concurrent use.
type Vector[T any] struct {
	data []T

	// bumped on every structural change, checked by iterators
	version uint32
}

// New returns an empty Vector.
func New[T any]() *Vector[T] {
	return &Vector[T]{}
}

// NewWithCapacity returns an empty Vector with backing capacity for n
// elements.
func NewWithCapacity[T any](n int) *Vector[T] {
	if n < 0 {
		n = 0
	}
	return &Vector[T]{data: make([]T, 0, n)}
}

func (v *Vector[T]) Len() int {
	return len(v.data)
}

func (v *Vector[T]) Cap() int {
	return cap(v.data)
}

// grow reallocates the backing array to hold at least need elements,
// using a 1.5x growth factor.
func (v *Vector[T]) grow(need int) {
	newCap := cap(v.data) + cap(v.data)/2
	if newCap < need {
		newCap = need
	}
	data := make([]T, len(v.data), newCap)
	copy(data, v.data)
	v.data = data
}

// Append adds e at the end, amortized O(1).
func (v *Vector[T]) Append(e T) error {
	if len(v.data) >= MaxLen {
		return moerr.NewTooLarge("vector", len(v.data)+1, MaxLen)
	}
	if len(v.data)+1 > cap(v.data) {
		v.grow(len(v.data) + 1)
	}
	v.data = append(v.data, e)
	v.version++
	return nil
}

// Get returns the element at index i.
func (v *Vector[T]) Get(i int) (T, error) {
	if i < 0 || i >= len(v.data) {
		var zero T
		return zero, moerr.NewIndexOutOfRange(i, len(v.data))
	}
	return v.data[i], nil
}

// Set overwrites the element at index i.
func (v *Vector[T]) Set(i int, e T) error {
	if i < 0 || i >= len(v.data) {
		return moerr.NewIndexOutOfRange(i, len(v.data))
	}
	v.data[i] = e
	return nil
}

// InsertAt inserts e at index i, shifting the tail right. i == Len()
// appends. O(n).
func (v *Vector[T]) InsertAt(i int, e T) error {
	if i < 0 || i > len(v.data) {
		return moerr.NewIndexOutOfRange(i, len(v.data))
	}
	if len(v.data) >= MaxLen {
		return moerr.NewTooLarge("vector", len(v.data)+1, MaxLen)
	}
	if len(v.data)+1 > cap(v.data) {
		v.grow(len(v.data) + 1)
	}
	var zero T
	v.data = append(v.data, zero)
	copy(v.data[i+1:], v.data[i:])
	v.data[i] = e
	v.version++
	return nil
}

// RemoveAt removes and returns the element at index i, shifting the tail
// left. O(n).
func (v *Vector[T]) RemoveAt(i int) (T, error) {
	if i < 0 || i >= len(v.data) {
		var zero T
		return zero, moerr.NewIndexOutOfRange(i, len(v.data))
	}
	e := v.data[i]
	copy(v.data[i:], v.data[i+1:])
	var zero T
	v.data[len(v.data)-1] = zero // release the reference
	v.data = v.data[:len(v.data)-1]
	v.version++
	return e, nil
}

// Reserve grows the backing capacity to at least n without changing Len.
func (v *Vector[T]) Reserve(n int) {
	if n > cap(v.data) {
		v.grow(n)
	}
}

// Clear removes all elements, keeping the backing capacity.
func (v *Vector[T]) Clear() {
	var zero T
	for i := range v.data {
		v.data[i] = zero
	}
	v.data = v.data[:0]
	v.version++
}

// Range calls fn on each element in index order, stopping if fn returns
// false. It fails fast if the vector is structurally modified by fn.
func (v *Vector[T]) Range(fn func(i int, e T) bool) error {
	version := v.version
	for i := 0; i < len(v.data); i++ {
		if v.version != version {
			return moerr.NewConcurrentModification("vector")
		}
		if !fn(i, v.data[i]) {
			return nil
		}
	}
	return nil
}

// Iterator returns a fail-fast iterator positioned before the first
// element.
func (v *Vector[T]) Iterator() *Iterator[T] {
	return &Iterator[T]{v: v, version: v.version}
}

// Iterator walks a Vector in index order. Any structural modification of
// the vector invalidates it.
type Iterator[T any] struct {
	v       *Vector[T]
	pos     int
	version uint32
}

func (it *Iterator[T]) HasNext() bool {
	return it.pos < len(it.v.data)
}

// Next returns the next element. It fails with a concurrent-modification
// error if the vector changed since the iterator was created.
func (it *Iterator[T]) Next() (T, error) {
	var zero T
	if it.version != it.v.version {
		return zero, moerr.NewConcurrentModification("vector")
	}
	if it.pos >= len(it.v.data) {
		return zero, moerr.NewIteratorExhausted()
	}
	e := it.v.data[it.pos]
	it.pos++
	return e, nil
}
