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
	"math"

	"github.com/orcadb/collections/pkg/common/moerr"
	"github.com/orcadb/collections/pkg/config"
	"github.com/orcadb/collections/pkg/container/rbtree"
)

const (
	kInitialBucketCntBits = 4
	kInitialBucketCnt     = 1 << kInitialBucketCntBits

	kLoadFactorNumerator   = 3
	kLoadFactorDenominator = 4

	kTreeifyThreshold   = 8
	kTreeifyMinBuckets  = 64
	kUntreeifyThreshold = 6
)

// MaxLen is the maximum number of entries a Map can hold.
const MaxLen = math.MaxInt32 - 1

// Options tune a single Map instance.
type Options struct {
	InitialBuckets     int
	LoadFactorNum      int
	LoadFactorDenom    int
	TreeifyThreshold   int
	TreeifyMinBuckets  int
	UntreeifyThreshold int
}

// DefaultOptions returns the built-in tuning.
func DefaultOptions() Options {
	return Options{
		InitialBuckets:     kInitialBucketCnt,
		LoadFactorNum:      kLoadFactorNumerator,
		LoadFactorDenom:    kLoadFactorDenominator,
		TreeifyThreshold:   kTreeifyThreshold,
		TreeifyMinBuckets:  kTreeifyMinBuckets,
		UntreeifyThreshold: kUntreeifyThreshold,
	}
}

// OptionsFromTunables maps the library configuration onto Options.
func OptionsFromTunables(t config.Tunables) Options {
	return Options{
		InitialBuckets:     t.HashInitialBuckets,
		LoadFactorNum:      t.HashLoadFactorNum,
		LoadFactorDenom:    t.HashLoadFactorDenom,
		TreeifyThreshold:   t.TreeifyThreshold,
		TreeifyMinBuckets:  t.TreeifyMinBuckets,
		UntreeifyThreshold: t.UntreeifyThreshold,
	}
}

// Map is a chained hash table with incremental doubling and bucket
// treeification. The hash and equality contract is supplied by the
// caller through a Hasher. Not safe for concurrent use; see cmap for
// the sharded variant.
type Map[K any, V any] struct {
	hasher Hasher[K]
	opts   Options

	bucketCntBits uint8
	bucketCnt     uint64
	elemCnt       uint64
	maxElemCnt    uint64
	buckets       []bucket[K, V]

	// bumped on every structural change, checked by iterators
	version uint32
}

// New returns an empty Map with default tuning.
func New[K any, V any](hasher Hasher[K]) (*Map[K, V], error) {
	return NewWithOptions[K, V](hasher, DefaultOptions())
}

// NewWithOptions returns an empty Map with explicit tuning.
func NewWithOptions[K any, V any](hasher Hasher[K], opts Options) (*Map[K, V], error) {
	if hasher == nil {
		return nil, moerr.NewInvalidArg("hasher", nil)
	}
	if opts.InitialBuckets <= 0 || opts.InitialBuckets&(opts.InitialBuckets-1) != 0 {
		return nil, moerr.NewBadConfig("initial buckets %d is not a power of two", opts.InitialBuckets)
	}
	if opts.LoadFactorNum <= 0 || opts.LoadFactorDenom <= 0 ||
		opts.LoadFactorNum >= opts.LoadFactorDenom {
		return nil, moerr.NewBadConfig("load factor %d/%d out of (0, 1)",
			opts.LoadFactorNum, opts.LoadFactorDenom)
	}
	if opts.UntreeifyThreshold >= opts.TreeifyThreshold {
		return nil, moerr.NewBadConfig("untreeify threshold %d must be below treeify threshold %d",
			opts.UntreeifyThreshold, opts.TreeifyThreshold)
	}

	m := &Map[K, V]{hasher: hasher, opts: opts}
	m.bucketCnt = uint64(opts.InitialBuckets)
	for bits := opts.InitialBuckets; bits > 1; bits >>= 1 {
		m.bucketCntBits++
	}
	m.elemCnt = 0
	m.maxElemCnt = m.bucketCnt * uint64(opts.LoadFactorNum) / uint64(opts.LoadFactorDenom)
	m.buckets = make([]bucket[K, V], m.bucketCnt)
	return m, nil
}

func (m *Map[K, V]) Len() int {
	return int(m.elemCnt)
}

// BucketCnt exposes the current bucket count, for tests and sizing.
func (m *Map[K, V]) BucketCnt() uint64 {
	return m.bucketCnt
}

func (m *Map[K, V]) hashOf(key K) uint64 {
	return spread(m.hasher.Hash(key))
}

func (m *Map[K, V]) bucketOf(hash uint64) *bucket[K, V] {
	return &m.buckets[hash&(m.bucketCnt-1)]
}

// findInChain returns the entry equal to key and its predecessor.
func (m *Map[K, V]) findInChain(head *entry[K, V], hash uint64, key K) (prev, e *entry[K, V]) {
	for e = head; e != nil; prev, e = e, e.next {
		if e.hash == hash && m.hasher.Equals(e.key, key) {
			return prev, e
		}
	}
	return nil, nil
}

// findInTree returns the entry equal to key and its predecessor within
// the same-hash node chain.
func (m *Map[K, V]) findInTree(b *bucket[K, V], hash uint64, key K) (prev, e *entry[K, V]) {
	head, ok, _ := b.tree.Get(hash)
	if !ok {
		return nil, nil
	}
	return m.findInChain(head, hash, key)
}

// Put inserts key with value, overwriting the value if key is present.
func (m *Map[K, V]) Put(key K, value V) error {
	if err := m.resizeOnDemand(1); err != nil {
		return err
	}

	hash := m.hashOf(key)
	b := m.bucketOf(hash)

	if b.tree != nil {
		if _, e := m.findInTree(b, hash, key); e != nil {
			e.value = value
			return nil
		}
		head, _, _ := b.tree.Get(hash)
		if _, err := b.tree.Set(hash, &entry[K, V]{hash: hash, key: key, value: value, next: head}); err != nil {
			return err
		}
		b.n++
		m.elemCnt++
		m.version++
		return nil
	}

	if _, e := m.findInChain(b.head, hash, key); e != nil {
		e.value = value
		return nil
	}

	// append at the tail to keep insertion order within the chain
	ne := &entry[K, V]{hash: hash, key: key, value: value}
	if b.head == nil {
		b.head = ne
	} else {
		tail := b.head
		for tail.next != nil {
			tail = tail.next
		}
		tail.next = ne
	}
	b.n++
	m.elemCnt++
	m.version++

	if b.n >= m.opts.TreeifyThreshold {
		if m.bucketCnt < uint64(m.opts.TreeifyMinBuckets) {
			// the table is too small to bother, grow instead
			return m.rehash(m.bucketCnt * 2)
		}
		m.treeify(b)
	}
	return nil
}

// Get returns the value stored under key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	hash := m.hashOf(key)
	b := m.bucketOf(hash)
	var e *entry[K, V]
	if b.tree != nil {
		_, e = m.findInTree(b, hash, key)
	} else {
		_, e = m.findInChain(b.head, hash, key)
	}
	if e == nil {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Remove deletes key, returning the removed value.
func (m *Map[K, V]) Remove(key K) (V, bool) {
	var zero V
	hash := m.hashOf(key)
	b := m.bucketOf(hash)

	if b.tree != nil {
		prev, e := m.findInTree(b, hash, key)
		if e == nil {
			return zero, false
		}
		if prev != nil {
			prev.next = e.next
		} else if e.next != nil {
			b.tree.Set(hash, e.next)
		} else {
			b.tree.Delete(hash)
		}
		b.n--
		m.elemCnt--
		m.version++
		if b.n <= m.opts.UntreeifyThreshold {
			m.untreeify(b)
		}
		return e.value, true
	}

	prev, e := m.findInChain(b.head, hash, key)
	if e == nil {
		return zero, false
	}
	if prev == nil {
		b.head = e.next
	} else {
		prev.next = e.next
	}
	e.next = nil
	b.n--
	m.elemCnt--
	m.version++
	return e.value, true
}

// resizeOnDemand doubles the bucket array until n more entries fit under
// the load factor.
func (m *Map[K, V]) resizeOnDemand(n int) error {
	if m.elemCnt+uint64(n) > MaxLen {
		return moerr.NewTooLarge("hashtable", int(m.elemCnt)+n, MaxLen)
	}
	if m.elemCnt+uint64(n) <= m.maxElemCnt {
		return nil
	}

	newBucketCnt := m.bucketCnt << 1
	newMaxElemCnt := newBucketCnt * uint64(m.opts.LoadFactorNum) / uint64(m.opts.LoadFactorDenom)
	for m.elemCnt+uint64(n) > newMaxElemCnt {
		newBucketCnt <<= 1
		newMaxElemCnt = newBucketCnt * uint64(m.opts.LoadFactorNum) / uint64(m.opts.LoadFactorDenom)
	}
	return m.rehash(newBucketCnt)
}

// rehash redistributes every entry into a bucket array of newBucketCnt.
// Since newBucketCnt is a power of two, each old chain splits into a lo
// and a hi list selected by the new high bit, preserving relative order.
func (m *Map[K, V]) rehash(newBucketCnt uint64) error {
	newBuckets := make([]bucket[K, V], newBucketCnt)
	mask := newBucketCnt - 1

	appendEntry := func(e *entry[K, V]) {
		b := &newBuckets[e.hash&mask]
		e.next = nil
		if b.head == nil {
			b.head = e
		} else {
			b.tail.next = e
		}
		b.tail = e
		b.n++
	}

	for i := range m.buckets {
		old := &m.buckets[i]
		if old.tree != nil {
			// walk tree nodes in hash order, then their chains
			old.tree.Ascend(func(_ uint64, head *entry[K, V]) bool {
				for e := head; e != nil; {
					next := e.next
					appendEntry(e)
					e = next
				}
				return true
			})
			continue
		}
		for e := old.head; e != nil; {
			next := e.next
			appendEntry(e)
			e = next
		}
	}

	for i := range newBuckets {
		b := &newBuckets[i]
		b.tail = nil
		if b.n >= m.opts.TreeifyThreshold && newBucketCnt >= uint64(m.opts.TreeifyMinBuckets) {
			m.treeify(b)
		}
	}

	m.buckets = newBuckets
	for m.bucketCnt < newBucketCnt {
		m.bucketCnt <<= 1
		m.bucketCntBits++
	}
	m.maxElemCnt = newBucketCnt * uint64(m.opts.LoadFactorNum) / uint64(m.opts.LoadFactorDenom)
	m.version++
	return nil
}

// treeify converts a chained bucket into a balanced tree keyed by the
// full hash, bounding worst-case lookup in the bucket to O(log n).
func (m *Map[K, V]) treeify(b *bucket[K, V]) {
	tree, err := rbtree.New[uint64, *entry[K, V]](cmpUint64)
	if err != nil {
		// cmpUint64 is never nil
		panic(moerr.ConvertPanicError(err))
	}
	for e := b.head; e != nil; {
		next := e.next
		if head, ok, _ := tree.Get(e.hash); ok {
			e.next = head
		} else {
			e.next = nil
		}
		tree.Set(e.hash, e)
		e = next
	}
	b.head = nil
	b.tree = tree
}

// untreeify converts a treeified bucket back into a chain ordered by
// hash.
func (m *Map[K, V]) untreeify(b *bucket[K, V]) {
	var head, tail *entry[K, V]
	b.tree.Ascend(func(_ uint64, nodeHead *entry[K, V]) bool {
		for e := nodeHead; e != nil; {
			next := e.next
			e.next = nil
			if head == nil {
				head = e
			} else {
				tail.next = e
			}
			tail = e
			e = next
		}
		return true
	})
	b.head = head
	b.tree = nil
}

// Range calls fn on every entry in unspecified order, stopping if fn
// returns false. It fails fast if fn structurally modifies the map.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) error {
	it := m.Iterator()
	for it.HasNext() {
		k, v, err := it.Next()
		if err != nil {
			return err
		}
		if !fn(k, v) {
			return nil
		}
	}
	return nil
}

// Iterator returns a fail-fast iterator over all entries. Order is
// unspecified; see LinkedMap for deterministic iteration.
func (m *Map[K, V]) Iterator() *Iterator[K, V] {
	it := &Iterator[K, V]{m: m, bucketIdx: -1, version: m.version}
	it.advanceBucket()
	return it
}

// Iterator walks a Map bucket by bucket. Any structural modification of
// the map invalidates it.
type Iterator[K any, V any] struct {
	m         *Map[K, V]
	bucketIdx int
	cur       *entry[K, V]
	treeIt    *rbtree.Iterator[uint64, *entry[K, V]]
	version   uint32
}

// advanceBucket moves to the first non-empty bucket after bucketIdx.
func (it *Iterator[K, V]) advanceBucket() {
	it.treeIt = nil
	it.cur = nil
	for it.bucketIdx++; it.bucketIdx < len(it.m.buckets); it.bucketIdx++ {
		b := &it.m.buckets[it.bucketIdx]
		if b.tree != nil {
			it.treeIt = b.tree.Iterator()
			if it.treeIt.HasNext() {
				_, head, _ := it.treeIt.Next()
				it.cur = head
				return
			}
			it.treeIt = nil
			continue
		}
		if b.head != nil {
			it.cur = b.head
			return
		}
	}
}

func (it *Iterator[K, V]) HasNext() bool {
	return it.cur != nil
}

// Next returns the next entry. It fails with a concurrent-modification
// error if the map changed since the iterator was created.
func (it *Iterator[K, V]) Next() (K, V, error) {
	var zk K
	var zv V
	if it.version != it.m.version {
		return zk, zv, moerr.NewConcurrentModification("hashtable")
	}
	if it.cur == nil {
		return zk, zv, moerr.NewIteratorExhausted()
	}

	e := it.cur
	switch {
	case e.next != nil:
		it.cur = e.next
	case it.treeIt != nil && it.treeIt.HasNext():
		_, head, _ := it.treeIt.Next()
		it.cur = head
	default:
		it.advanceBucket()
	}
	return e.key, e.value, nil
}
