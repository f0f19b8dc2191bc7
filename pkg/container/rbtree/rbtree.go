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

import (
	"math"

	"github.com/orcadb/collections/pkg/common/moerr"
)

// MaxLen is the maximum number of entries a Tree can hold.
const MaxLen = math.MaxInt32 - 1

// Comparator imposes a total order on keys: negative if a < b, zero if
// a == b, positive if a > b.
type Comparator[K any] func(a, b K) int

type color uint8

const (
	red color = iota
	black
)

// nodes live in an arena and address each other by index. Index 0 is the
// shared nil sentinel, always black. Parent links are back-references for
// traversal and rebalancing only, they never own a node.
const nilIdx int32 = 0

type node[K any, V any] struct {
	key    K
	value  V
	left   int32
	right  int32
	parent int32
	color  color
}

// Tree is an ordered map backed by a red-black tree. Invariants: the root
// is black, a red node has black children, and every root-to-nil path
// carries the same number of black nodes. Not safe for concurrent use.
type Tree[K any, V any] struct {
	cmp   Comparator[K]
	arena []node[K, V]
	free  []int32 // recycled arena slots
	root  int32
	size  int

	// bumped on every structural change, checked by iterators
	version uint32
}

// New returns an empty Tree ordered by cmp.
func New[K any, V any](cmp Comparator[K]) (*Tree[K, V], error) {
	if cmp == nil {
		return nil, moerr.NewInvalidArg("cmp", nil)
	}
	t := &Tree[K, V]{cmp: cmp, root: nilIdx}
	// slot 0 is the nil sentinel
	t.arena = append(t.arena, node[K, V]{color: black})
	return t, nil
}

func (t *Tree[K, V]) Len() int {
	return t.size
}

// checkKey rejects keys outside the comparator's domain. A key that does
// not compare equal to itself (a NaN-like value) would corrupt the order.
func (t *Tree[K, V]) checkKey(key K) error {
	if t.cmp(key, key) != 0 {
		return moerr.NewInvalidKey("key does not equal itself under the comparator")
	}
	return nil
}

func (t *Tree[K, V]) alloc(key K, value V) int32 {
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		t.arena[idx] = node[K, V]{key: key, value: value, color: red}
		return idx
	}
	t.arena = append(t.arena, node[K, V]{key: key, value: value, color: red})
	return int32(len(t.arena) - 1)
}

func (t *Tree[K, V]) release(x int32) {
	t.arena[x] = node[K, V]{color: black}
	t.free = append(t.free, x)
}

func (t *Tree[K, V]) leftRotate(x int32) {
	y := t.arena[x].right
	t.arena[x].right = t.arena[y].left
	if t.arena[y].left != nilIdx {
		t.arena[t.arena[y].left].parent = x
	}
	t.arena[y].parent = t.arena[x].parent
	if t.arena[x].parent == nilIdx {
		t.root = y
	} else if x == t.arena[t.arena[x].parent].left {
		t.arena[t.arena[x].parent].left = y
	} else {
		t.arena[t.arena[x].parent].right = y
	}
	t.arena[y].left = x
	t.arena[x].parent = y
}

func (t *Tree[K, V]) rightRotate(x int32) {
	y := t.arena[x].left
	t.arena[x].left = t.arena[y].right
	if t.arena[y].right != nilIdx {
		t.arena[t.arena[y].right].parent = x
	}
	t.arena[y].parent = t.arena[x].parent
	if t.arena[x].parent == nilIdx {
		t.root = y
	} else if x == t.arena[t.arena[x].parent].right {
		t.arena[t.arena[x].parent].right = y
	} else {
		t.arena[t.arena[x].parent].left = y
	}
	t.arena[y].right = x
	t.arena[x].parent = y
}

// Set inserts key with value, overwriting the value if key is present.
// It reports whether a new entry was created.
func (t *Tree[K, V]) Set(key K, value V) (bool, error) {
	if err := t.checkKey(key); err != nil {
		return false, err
	}
	if t.size >= MaxLen {
		return false, moerr.NewTooLarge("rbtree", t.size+1, MaxLen)
	}

	parent := nilIdx
	x := t.root
	for x != nilIdx {
		parent = x
		c := t.cmp(key, t.arena[x].key)
		if c == 0 {
			t.arena[x].value = value
			return false, nil
		}
		if c < 0 {
			x = t.arena[x].left
		} else {
			x = t.arena[x].right
		}
	}

	z := t.alloc(key, value)
	t.arena[z].parent = parent
	if parent == nilIdx {
		t.root = z
	} else if t.cmp(key, t.arena[parent].key) < 0 {
		t.arena[parent].left = z
	} else {
		t.arena[parent].right = z
	}
	t.insertFixup(z)
	t.size++
	t.version++
	return true, nil
}

// insertFixup restores the red-black invariants after hanging the red
// node z off the tree. Four symmetric cases: red uncle recolors, black
// uncle rotates.
func (t *Tree[K, V]) insertFixup(z int32) {
	for t.arena[t.arena[z].parent].color == red {
		parent := t.arena[z].parent
		grand := t.arena[parent].parent
		if parent == t.arena[grand].left {
			uncle := t.arena[grand].right
			if t.arena[uncle].color == red {
				t.arena[parent].color = black
				t.arena[uncle].color = black
				t.arena[grand].color = red
				z = grand
			} else {
				if z == t.arena[parent].right {
					z = parent
					t.leftRotate(z)
					parent = t.arena[z].parent
					grand = t.arena[parent].parent
				}
				t.arena[parent].color = black
				t.arena[grand].color = red
				t.rightRotate(grand)
			}
		} else {
			uncle := t.arena[grand].left
			if t.arena[uncle].color == red {
				t.arena[parent].color = black
				t.arena[uncle].color = black
				t.arena[grand].color = red
				z = grand
			} else {
				if z == t.arena[parent].left {
					z = parent
					t.rightRotate(z)
					parent = t.arena[z].parent
					grand = t.arena[parent].parent
				}
				t.arena[parent].color = black
				t.arena[grand].color = red
				t.leftRotate(grand)
			}
		}
	}
	t.arena[t.root].color = black
}

func (t *Tree[K, V]) search(key K) int32 {
	x := t.root
	for x != nilIdx {
		c := t.cmp(key, t.arena[x].key)
		if c == 0 {
			return x
		}
		if c < 0 {
			x = t.arena[x].left
		} else {
			x = t.arena[x].right
		}
	}
	return nilIdx
}

// Get returns the value stored under key.
func (t *Tree[K, V]) Get(key K) (V, bool, error) {
	var zero V
	if err := t.checkKey(key); err != nil {
		return zero, false, err
	}
	x := t.search(key)
	if x == nilIdx {
		return zero, false, nil
	}
	return t.arena[x].value, true, nil
}

// Contains reports whether key is present.
func (t *Tree[K, V]) Contains(key K) (bool, error) {
	if err := t.checkKey(key); err != nil {
		return false, err
	}
	return t.search(key) != nilIdx, nil
}

func (t *Tree[K, V]) minimum(x int32) int32 {
	for t.arena[x].left != nilIdx {
		x = t.arena[x].left
	}
	return x
}

func (t *Tree[K, V]) maximum(x int32) int32 {
	for t.arena[x].right != nilIdx {
		x = t.arena[x].right
	}
	return x
}

// successor walks to the next node in key order using parent links,
// O(1) amortized and no auxiliary stack.
func (t *Tree[K, V]) successor(x int32) int32 {
	if t.arena[x].right != nilIdx {
		return t.minimum(t.arena[x].right)
	}
	y := t.arena[x].parent
	for y != nilIdx && x == t.arena[y].right {
		x = y
		y = t.arena[y].parent
	}
	return y
}

func (t *Tree[K, V]) transplant(u, v int32) {
	if t.arena[u].parent == nilIdx {
		t.root = v
	} else if u == t.arena[t.arena[u].parent].left {
		t.arena[t.arena[u].parent].left = v
	} else {
		t.arena[t.arena[u].parent].right = v
	}
	// the sentinel's parent is scribbled on purpose, deleteFixup reads it
	t.arena[v].parent = t.arena[u].parent
}

// Delete removes key, returning the removed value. A node with two
// children first swaps places with its in-order successor so that the
// node actually unlinked has at most one child.
func (t *Tree[K, V]) Delete(key K) (V, bool, error) {
	var zero V
	if err := t.checkKey(key); err != nil {
		return zero, false, err
	}
	z := t.search(key)
	if z == nilIdx {
		return zero, false, nil
	}
	removed := t.arena[z].value

	y := z
	yColor := t.arena[y].color
	var x int32
	if t.arena[z].left == nilIdx {
		x = t.arena[z].right
		t.transplant(z, t.arena[z].right)
	} else if t.arena[z].right == nilIdx {
		x = t.arena[z].left
		t.transplant(z, t.arena[z].left)
	} else {
		y = t.minimum(t.arena[z].right)
		yColor = t.arena[y].color
		x = t.arena[y].right
		if t.arena[y].parent == z {
			t.arena[x].parent = y
		} else {
			t.transplant(y, t.arena[y].right)
			t.arena[y].right = t.arena[z].right
			t.arena[t.arena[y].right].parent = y
		}
		t.transplant(z, y)
		t.arena[y].left = t.arena[z].left
		t.arena[t.arena[y].left].parent = y
		t.arena[y].color = t.arena[z].color
	}
	if yColor == black {
		t.deleteFixup(x)
	}
	t.release(z)
	t.size--
	t.version++
	return removed, true, nil
}

// deleteFixup resolves the double black left by unlinking a black node,
// pushing it up until it can be absorbed by a red node or the root.
func (t *Tree[K, V]) deleteFixup(x int32) {
	for x != t.root && t.arena[x].color == black {
		parent := t.arena[x].parent
		if x == t.arena[parent].left {
			w := t.arena[parent].right
			if t.arena[w].color == red {
				t.arena[w].color = black
				t.arena[parent].color = red
				t.leftRotate(parent)
				w = t.arena[parent].right
			}
			if t.arena[t.arena[w].left].color == black && t.arena[t.arena[w].right].color == black {
				t.arena[w].color = red
				x = parent
			} else {
				if t.arena[t.arena[w].right].color == black {
					t.arena[t.arena[w].left].color = black
					t.arena[w].color = red
					t.rightRotate(w)
					w = t.arena[parent].right
				}
				t.arena[w].color = t.arena[parent].color
				t.arena[parent].color = black
				t.arena[t.arena[w].right].color = black
				t.leftRotate(parent)
				x = t.root
			}
		} else {
			w := t.arena[parent].left
			if t.arena[w].color == red {
				t.arena[w].color = black
				t.arena[parent].color = red
				t.rightRotate(parent)
				w = t.arena[parent].left
			}
			if t.arena[t.arena[w].right].color == black && t.arena[t.arena[w].left].color == black {
				t.arena[w].color = red
				x = parent
			} else {
				if t.arena[t.arena[w].left].color == black {
					t.arena[t.arena[w].right].color = black
					t.arena[w].color = red
					t.leftRotate(w)
					w = t.arena[parent].left
				}
				t.arena[w].color = t.arena[parent].color
				t.arena[parent].color = black
				t.arena[t.arena[w].left].color = black
				t.rightRotate(parent)
				x = t.root
			}
		}
	}
	t.arena[x].color = black
	// the sentinel must stay black and unattached
	t.arena[nilIdx].color = black
	t.arena[nilIdx].parent = nilIdx
}

// Min returns the smallest key and its value.
func (t *Tree[K, V]) Min() (K, V, bool) {
	var zk K
	var zv V
	if t.root == nilIdx {
		return zk, zv, false
	}
	x := t.minimum(t.root)
	return t.arena[x].key, t.arena[x].value, true
}

// Max returns the largest key and its value.
func (t *Tree[K, V]) Max() (K, V, bool) {
	var zk K
	var zv V
	if t.root == nilIdx {
		return zk, zv, false
	}
	x := t.maximum(t.root)
	return t.arena[x].key, t.arena[x].value, true
}

// Ascend calls fn on every entry in key order, stopping if fn returns
// false. It fails fast if fn structurally modifies the tree.
func (t *Tree[K, V]) Ascend(fn func(key K, value V) bool) error {
	version := t.version
	for x := t.first(); x != nilIdx; x = t.successor(x) {
		if t.version != version {
			return moerr.NewConcurrentModification("rbtree")
		}
		if !fn(t.arena[x].key, t.arena[x].value) {
			return nil
		}
	}
	return nil
}

func (t *Tree[K, V]) first() int32 {
	if t.root == nilIdx {
		return nilIdx
	}
	return t.minimum(t.root)
}

// Iterator returns a fail-fast in-order iterator positioned before the
// smallest key.
func (t *Tree[K, V]) Iterator() *Iterator[K, V] {
	return &Iterator[K, V]{t: t, next: t.first(), version: t.version}
}

// Iterator walks a Tree in key order via successor links, O(1) auxiliary
// space per step. Any structural modification of the tree invalidates it.
type Iterator[K any, V any] struct {
	t       *Tree[K, V]
	next    int32
	version uint32
}

func (it *Iterator[K, V]) HasNext() bool {
	return it.next != nilIdx
}

// Next returns the next entry. It fails with a concurrent-modification
// error if the tree changed since the iterator was created.
func (it *Iterator[K, V]) Next() (K, V, error) {
	var zk K
	var zv V
	if it.version != it.t.version {
		return zk, zv, moerr.NewConcurrentModification("rbtree")
	}
	if it.next == nilIdx {
		return zk, zv, moerr.NewIteratorExhausted()
	}
	x := it.next
	it.next = it.t.successor(x)
	return it.t.arena[x].key, it.t.arena[x].value, nil
}
