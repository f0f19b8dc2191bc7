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

package rbtree

// Set is an ordered set backed by a Tree.
type Set[K any] struct {
	t *Tree[K, struct{}]
}

// NewSet returns an empty Set ordered by cmp.
func NewSet[K any](cmp Comparator[K]) (*Set[K], error) {
	t, err := New[K, struct{}](cmp)
	if err != nil {
		return nil, err
	}
	return &Set[K]{t: t}, nil
}

func (s *Set[K]) Len() int {
	return s.t.Len()
}

// Insert adds key, reporting whether it was absent.
func (s *Set[K]) Insert(key K) (bool, error) {
	return s.t.Set(key, struct{}{})
}

// Contains reports whether key is present.
func (s *Set[K]) Contains(key K) (bool, error) {
	return s.t.Contains(key)
}

// Delete removes key, reporting whether it was present.
func (s *Set[K]) Delete(key K) (bool, error) {
	_, ok, err := s.t.Delete(key)
	return ok, err
}

// Min returns the smallest key.
func (s *Set[K]) Min() (K, bool) {
	k, _, ok := s.t.Min()
	return k, ok
}

// Max returns the largest key.
func (s *Set[K]) Max() (K, bool) {
	k, _, ok := s.t.Max()
	return k, ok
}

// Ascend calls fn on every key in order, stopping if fn returns false.
func (s *Set[K]) Ascend(fn func(key K) bool) error {
	return s.t.Ascend(func(key K, _ struct{}) bool {
		return fn(key)
	})
}

// Iterator returns a fail-fast in-order iterator.
func (s *Set[K]) Iterator() *Iterator[K, struct{}] {
	return s.t.Iterator()
}

// BlackHeight returns the black-node count of root-to-nil paths, -1 if
// the count differs between paths. It exists for invariant checking.
func (t *Tree[K, V]) BlackHeight() int {
	return t.blackHeight(t.root)
}

func (t *Tree[K, V]) blackHeight(x int32) int {
	if x == nilIdx {
		return 0
	}
	lh := t.blackHeight(t.arena[x].left)
	rh := t.blackHeight(t.arena[x].right)
	if lh < 0 || rh < 0 || lh != rh {
		return -1
	}
	if t.arena[x].color == black {
		lh++
	}
	return lh
}

// redViolations counts red nodes with a red child. It exists for
// invariant checking.
func (t *Tree[K, V]) redViolations() int {
	n := 0
	for i := 1; i < len(t.arena); i++ {
		if t.arena[i].color != red {
			continue
		}
		if t.isFree(int32(i)) {
			continue
		}
		if t.arena[t.arena[i].left].color == red || t.arena[t.arena[i].right].color == red {
			n++
		}
	}
	return n
}

func (t *Tree[K, V]) isFree(x int32) bool {
	for _, f := range t.free {
		if f == x {
			return true
		}
	}
	return false
}

// CheckInvariants verifies the red-black invariants, for tests and
// debugging builds.
func (t *Tree[K, V]) CheckInvariants() bool {
	if t.arena[t.root].color != black {
		return false
	}
	return t.BlackHeight() >= 0 && t.redViolations() == 0
}
