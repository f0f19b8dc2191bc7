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

// Package cmap provides a concurrency-safe hash map. Bucket access is
// partitioned into shards keyed by hash ranges, each under its own
// read-write lock, so writers touching disjoint shards proceed in
// parallel. A shard resize runs entirely inside the shard's write lock
// and flips a transfer marker, so concurrent readers observe either the
// old or the new bucket array, never a partial transfer.
package cmap

import (
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"

	"github.com/orcadb/collections/pkg/common/moerr"
	"github.com/orcadb/collections/pkg/config"
	"github.com/orcadb/collections/pkg/container/hashtable"
)

type shard[K any, V any] struct {
	sync.RWMutex
	m *hashtable.Map[K, V]

	// lock-free observability: size is read without the lock, transfer
	// is odd while the shard is rehashing
	size     atomic.Int64
	transfer atomic.Uint64
}

// CMap is a sharded hash map safe for concurrent use.
type CMap[K any, V any] struct {
	hasher    hashtable.Hasher[K]
	opts      hashtable.Options
	shards    []shard[K, V]
	shardBits uint
}

// New returns an empty CMap with the configured shard count.
func New[K any, V any](hasher hashtable.Hasher[K]) (*CMap[K, V], error) {
	return NewWithTunables[K, V](hasher, config.Default())
}

// NewWithTunables returns an empty CMap tuned by t.
func NewWithTunables[K any, V any](hasher hashtable.Hasher[K], t config.Tunables) (*CMap[K, V], error) {
	if hasher == nil {
		return nil, moerr.NewInvalidArg("hasher", nil)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	c := &CMap[K, V]{
		hasher:    hasher,
		opts:      hashtable.OptionsFromTunables(t),
		shards:    make([]shard[K, V], t.CMapShards),
		shardBits: uint(bits.TrailingZeros(uint(t.CMapShards))),
	}
	for i := range c.shards {
		m, err := hashtable.NewWithOptions[K, V](hasher, c.opts)
		if err != nil {
			return nil, err
		}
		c.shards[i].m = m
	}
	return c, nil
}

// shardOf selects a shard by the high hash bits. The inner table indexes
// buckets by the low bits, so the two never alias.
func (c *CMap[K, V]) shardOf(key K) *shard[K, V] {
	h := c.hasher.Hash(key)
	return &c.shards[h>>(64-c.shardBits)]
}

// Put inserts key with value, overwriting the value if key is present.
func (c *CMap[K, V]) Put(key K, value V) error {
	s := c.shardOf(key)
	s.Lock()
	defer s.Unlock()
	before := s.m.Len()
	maxElems := int(s.m.BucketCnt()) * c.opts.LoadFactorNum / c.opts.LoadFactorDenom
	needResize := before+1 > maxElems
	if needResize {
		s.transfer.Add(1)
	}
	err := s.m.Put(key, value)
	if needResize {
		s.transfer.Add(1)
	}
	if err != nil {
		return err
	}
	if s.m.Len() != before {
		s.size.Add(1)
	}
	return nil
}

// Get returns the value stored under key. Readers never block writers
// on other shards.
func (c *CMap[K, V]) Get(key K) (V, bool) {
	s := c.shardOf(key)
	s.RLock()
	defer s.RUnlock()
	return s.m.Get(key)
}

// Contains reports whether key is present.
func (c *CMap[K, V]) Contains(key K) bool {
	_, ok := c.Get(key)
	return ok
}

// Remove deletes key, returning the removed value.
func (c *CMap[K, V]) Remove(key K) (V, bool) {
	s := c.shardOf(key)
	s.Lock()
	defer s.Unlock()
	v, ok := s.m.Remove(key)
	if ok {
		s.size.Add(-1)
	}
	return v, ok
}

// Len returns the element count without taking any shard lock. The
// count is a consistent sum of per-shard snapshots, not a linearizable
// global size.
func (c *CMap[K, V]) Len() int {
	var n int64
	for i := range c.shards {
		n += c.shards[i].size.Load()
	}
	return int(n)
}

// Range calls fn on every entry, stopping if fn returns false. Each
// shard is walked under its read lock; entries added or removed on
// other shards during the walk may or may not be observed. fn must not
// call back into the map, the shard lock is not reentrant.
func (c *CMap[K, V]) Range(fn func(key K, value V) bool) error {
	for i := range c.shards {
		s := &c.shards[i]
		s.RLock()
		stop := false
		err := s.m.Range(func(key K, value V) bool {
			if !fn(key, value) {
				stop = true
				return false
			}
			return true
		})
		s.RUnlock()
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

// Entry is one key-value pair of a bulk load.
type Entry[K any, V any] struct {
	Key   K
	Value V
}

// BulkPut loads entries with one worker per shard group, using a
// goroutine pool of the given parallelism. Entries for disjoint shards
// insert in parallel.
func (c *CMap[K, V]) BulkPut(entries []Entry[K, V], parallelism int) error {
	if parallelism <= 0 {
		parallelism = len(c.shards)
	}
	groups := make([][]Entry[K, V], len(c.shards))
	for _, e := range entries {
		h := c.hasher.Hash(e.Key)
		idx := h >> (64 - c.shardBits)
		groups[idx] = append(groups[idx], e)
	}

	pool, err := ants.NewPool(parallelism)
	if err != nil {
		return moerr.ConvertGoError(err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	var firstErr atomic.Value
	for i := range groups {
		group := groups[i]
		if len(group) == 0 {
			continue
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			for _, e := range group {
				if err := c.Put(e.Key, e.Value); err != nil {
					firstErr.CompareAndSwap(nil, err)
					return
				}
			}
		})
		if submitErr != nil {
			wg.Done()
			return moerr.ConvertGoError(submitErr)
		}
	}
	wg.Wait()

	if err, ok := firstErr.Load().(error); ok {
		return err
	}
	return nil
}
