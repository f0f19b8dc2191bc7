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

// Package intset provides a compressed set of uint32 keys backed by a
// roaring bitmap. For dense or clustered integer key spaces it is far
// smaller than a hash set and supports native set algebra.
package intset

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/orcadb/collections/pkg/common/moerr"
)

// IntSet is a set of uint32 values. Not safe for concurrent use.
type IntSet struct {
	bm *roaring.Bitmap

	// bumped on every mutation, checked by iterators
	version uint32
}

// New returns an empty IntSet.
func New() *IntSet {
	return &IntSet{bm: roaring.New()}
}

// Of returns an IntSet holding the given values.
func Of(values ...uint32) *IntSet {
	return &IntSet{bm: roaring.BitmapOf(values...)}
}

// Len returns the number of values in the set.
func (s *IntSet) Len() int {
	return int(s.bm.GetCardinality())
}

func (s *IntSet) IsEmpty() bool {
	return s.bm.IsEmpty()
}

// Add inserts v, reporting whether it was absent.
func (s *IntSet) Add(v uint32) bool {
	added := s.bm.CheckedAdd(v)
	if added {
		s.version++
	}
	return added
}

// AddRange inserts every value in [lo, hi).
func (s *IntSet) AddRange(lo, hi uint32) {
	if lo >= hi {
		return
	}
	s.bm.AddRange(uint64(lo), uint64(hi))
	s.version++
}

// Contains reports whether v is in the set.
func (s *IntSet) Contains(v uint32) bool {
	return s.bm.Contains(v)
}

// Remove deletes v, reporting whether it was present.
func (s *IntSet) Remove(v uint32) bool {
	removed := s.bm.CheckedRemove(v)
	if removed {
		s.version++
	}
	return removed
}

// Clear removes every value.
func (s *IntSet) Clear() {
	s.bm.Clear()
	s.version++
}

// Min returns the smallest value, reporting false on an empty set.
func (s *IntSet) Min() (uint32, bool) {
	if s.bm.IsEmpty() {
		return 0, false
	}
	return s.bm.Minimum(), true
}

// Max returns the largest value, reporting false on an empty set.
func (s *IntSet) Max() (uint32, bool) {
	if s.bm.IsEmpty() {
		return 0, false
	}
	return s.bm.Maximum(), true
}

// Union folds other into s.
func (s *IntSet) Union(other *IntSet) {
	s.bm.Or(other.bm)
	s.version++
}

// Intersect keeps only the values also present in other.
func (s *IntSet) Intersect(other *IntSet) {
	s.bm.And(other.bm)
	s.version++
}

// Difference removes the values present in other.
func (s *IntSet) Difference(other *IntSet) {
	s.bm.AndNot(other.bm)
	s.version++
}

// Clone returns an independent copy of s.
func (s *IntSet) Clone() *IntSet {
	return &IntSet{bm: s.bm.Clone()}
}

// ToSlice returns the values in ascending order.
func (s *IntSet) ToSlice() []uint32 {
	return s.bm.ToArray()
}

// Range calls fn on every value in ascending order, stopping if fn
// returns false. It fails fast if fn mutates the set.
func (s *IntSet) Range(fn func(v uint32) bool) error {
	version := s.version
	it := s.bm.Iterator()
	for it.HasNext() {
		if s.version != version {
			return moerr.NewConcurrentModification("intset")
		}
		if !fn(it.Next()) {
			return nil
		}
	}
	return nil
}

// Iterator returns a fail-fast iterator in ascending order.
func (s *IntSet) Iterator() *Iterator {
	return &Iterator{s: s, it: s.bm.Iterator(), version: s.version}
}

// Iterator walks an IntSet in ascending order. Any mutation of the set
// invalidates it.
type Iterator struct {
	s       *IntSet
	it      roaring.IntPeekable
	version uint32
}

func (it *Iterator) HasNext() bool {
	return it.it.HasNext()
}

// Next returns the next value. It fails with a concurrent-modification
// error if the set changed since the iterator was created.
func (it *Iterator) Next() (uint32, error) {
	if it.version != it.s.version {
		return 0, moerr.NewConcurrentModification("intset")
	}
	if !it.it.HasNext() {
		return 0, moerr.NewIteratorExhausted()
	}
	return it.it.Next(), nil
}
