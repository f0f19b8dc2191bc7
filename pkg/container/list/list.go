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

package list

import (
	"github.com/orcadb/collections/pkg/common/moerr"
)

// Element is an element of a linked List.
type Element[E any] struct {
	// Next and previous pointers in the doubly-linked list of elements.
	// To simplify the implementation, internally a list l is implemented
	// as a ring, such that &l.root is both the next element of the last
	// list element (l.Back()) and the previous element of the first list
	// element (l.Front()).
	next, prev *Element[E]

	// The list to which this element belongs.
	list *List[E]

	// The value stored with this element.
	Value E
}

// Next returns the next list element or nil.
func (e *Element[E]) Next() *Element[E] {
	if p := e.next; e.list != nil && p != &e.list.root {
		return p
	}
	return nil
}

// Prev returns the previous list element or nil.
func (e *Element[E]) Prev() *Element[E] {
	if p := e.prev; e.list != nil && p != &e.list.root {
		return p
	}
	return nil
}

// List is a doubly linked sequence with O(1) operations at both ends.
// It is not safe for concurrent use.
type List[E any] struct {
	root Element[E] // sentinel list element, only &root, root.prev, and root.next are used
	len  int        // current list length excluding (this) sentinel element

	// bumped on every structural change, checked by iterators
	version uint32
}

// New returns an initialized List.
func New[E any]() *List[E] {
	l := &List[E]{}
	l.Clear()
	return l
}

// Clear removes all elements.
func (l *List[E]) Clear() {
	l.root.next = &l.root
	l.root.prev = &l.root
	l.len = 0
	l.version++
}

// Len returns the number of elements. The complexity is O(1).
func (l *List[E]) Len() int { return l.len }

// lazyInit lazily initializes a zero List value.
func (l *List[E]) lazyInit() {
	if l.root.next == nil {
		l.root.next = &l.root
		l.root.prev = &l.root
	}
}

// insert inserts e after at, increments l.len, and returns e.
func (l *List[E]) insert(e, at *Element[E]) *Element[E] {
	e.prev = at
	e.next = at.next
	e.prev.next = e
	e.next.prev = e
	e.list = l
	l.len++
	l.version++
	return e
}

// insertValue is a convenience wrapper for insert(&Element{Value: v}, at).
func (l *List[E]) insertValue(v E, at *Element[E]) *Element[E] {
	return l.insert(&Element[E]{Value: v}, at)
}

// remove removes e from its list, decrements l.len, and returns e.
func (l *List[E]) remove(e *Element[E]) *Element[E] {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.next = nil // avoid memory leaks
	e.prev = nil // avoid memory leaks
	e.list = nil
	l.len--
	l.version++
	return e
}

// PushFront inserts a new element with value v at the front and returns it.
func (l *List[E]) PushFront(v E) *Element[E] {
	l.lazyInit()
	return l.insertValue(v, &l.root)
}

// PushBack inserts a new element with value v at the back and returns it.
func (l *List[E]) PushBack(v E) *Element[E] {
	l.lazyInit()
	return l.insertValue(v, l.root.prev)
}

// Front returns the first element, false if the list is empty.
func (l *List[E]) Front() (*Element[E], bool) {
	if l.len == 0 {
		return nil, false
	}
	return l.root.next, true
}

// Back returns the last element, false if the list is empty.
func (l *List[E]) Back() (*Element[E], bool) {
	if l.len == 0 {
		return nil, false
	}
	return l.root.prev, true
}

// PopFront removes and returns the first element, nil if the list is empty.
func (l *List[E]) PopFront() *Element[E] {
	if l.len == 0 {
		return nil
	}
	return l.remove(l.root.next)
}

// PopBack removes and returns the last element, nil if the list is empty.
func (l *List[E]) PopBack() *Element[E] {
	if l.len == 0 {
		return nil
	}
	return l.remove(l.root.prev)
}

// at returns the element at index i, walking from the nearer end.
// The complexity is O(min(i, len-i)).
func (l *List[E]) at(i int) *Element[E] {
	if i < l.len/2 {
		e := l.root.next
		for ; i > 0; i-- {
			e = e.next
		}
		return e
	}
	e := l.root.prev
	for i = l.len - 1 - i; i > 0; i-- {
		e = e.prev
	}
	return e
}

// Get returns the value at index i.
func (l *List[E]) Get(i int) (E, error) {
	if i < 0 || i >= l.len {
		var zero E
		return zero, moerr.NewIndexOutOfRange(i, l.len)
	}
	return l.at(i).Value, nil
}

// Set overwrites the value at index i.
func (l *List[E]) Set(i int, v E) error {
	if i < 0 || i >= l.len {
		return moerr.NewIndexOutOfRange(i, l.len)
	}
	l.at(i).Value = v
	return nil
}

// InsertBefore inserts a new element with value v immediately before mark
// and returns it. If mark is not an element of l, the list is not modified.
// The mark must not be nil.
func (l *List[E]) InsertBefore(v E, mark *Element[E]) *Element[E] {
	if mark.list != l {
		return nil
	}
	return l.insertValue(v, mark.prev)
}

// InsertAfter inserts a new element with value v immediately after mark
// and returns it. If mark is not an element of l, the list is not modified.
// The mark must not be nil.
func (l *List[E]) InsertAfter(v E, mark *Element[E]) *Element[E] {
	if mark.list != l {
		return nil
	}
	return l.insertValue(v, mark)
}

// Remove removes e from l if e is an element of list l.
// It returns the element value e.Value. The element must not be nil.
func (l *List[E]) Remove(e *Element[E]) E {
	if e.list == l {
		l.remove(e)
	}
	return e.Value
}

// Iter calls fn on all elements after the offset, stopping if fn returns
// false.
func (l *List[E]) Iter(offset int, fn func(E) bool) {
	if l.len == 0 {
		return
	}

	skipped := 0
	v, _ := l.Front()
	for e := v; e != nil; e = e.Next() {
		if skipped < offset {
			skipped++
			continue
		}
		if !fn(e.Value) {
			return
		}
	}
}

// Iterator returns a fail-fast iterator positioned before the first
// element.
func (l *List[E]) Iterator() *Iterator[E] {
	return &Iterator[E]{l: l, next: l.root.next, version: l.version}
}

// Iterator walks a List front to back. Any structural modification of
// the list invalidates it.
type Iterator[E any] struct {
	l       *List[E]
	next    *Element[E]
	version uint32
}

func (it *Iterator[E]) HasNext() bool {
	return it.next != nil && it.next != &it.l.root
}

// Next returns the next value. It fails with a concurrent-modification
// error if the list changed since the iterator was created.
func (it *Iterator[E]) Next() (E, error) {
	var zero E
	if it.version != it.l.version {
		return zero, moerr.NewConcurrentModification("list")
	}
	if !it.HasNext() {
		return zero, moerr.NewIteratorExhausted()
	}
	v := it.next.Value
	it.next = it.next.next
	return v, nil
}
