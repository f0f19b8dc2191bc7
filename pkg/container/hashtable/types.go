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
	"bytes"

	"github.com/orcadb/collections/pkg/container/rbtree"
)

// Hasher supplies the hash and equality contract for keys of a hash
// container. Equals must be consistent with Hash: equal keys must hash
// to the same value.
type Hasher[K any] interface {
	Hash(key K) uint64
	Equals(a, b K) bool
}

// Int64Hasher hashes int64 keys.
type Int64Hasher struct{}

func (Int64Hasher) Hash(key int64) uint64 { return Int64Hash(uint64(key)) }
func (Int64Hasher) Equals(a, b int64) bool { return a == b }

// Uint64Hasher hashes uint64 keys.
type Uint64Hasher struct{}

func (Uint64Hasher) Hash(key uint64) uint64 { return Int64Hash(key) }
func (Uint64Hasher) Equals(a, b uint64) bool { return a == b }

// IntHasher hashes int keys.
type IntHasher struct{}

func (IntHasher) Hash(key int) uint64 { return Int64Hash(uint64(key)) }
func (IntHasher) Equals(a, b int) bool { return a == b }

// StringHasher hashes string keys.
type StringHasher struct{}

func (StringHasher) Hash(key string) uint64 { return StringHash(key) }
func (StringHasher) Equals(a, b string) bool { return a == b }

// BytesHasher hashes []byte keys.
type BytesHasher struct{}

func (BytesHasher) Hash(key []byte) uint64 { return BytesHash(key) }
func (BytesHasher) Equals(a, b []byte) bool { return bytes.Equal(a, b) }

// FuncHasher adapts a pair of funcs to the Hasher contract.
type FuncHasher[K any] struct {
	HashFn   func(key K) uint64
	EqualsFn func(a, b K) bool
}

func (h FuncHasher[K]) Hash(key K) uint64 { return h.HashFn(key) }
func (h FuncHasher[K]) Equals(a, b K) bool { return h.EqualsFn(a, b) }

// entry is one (hash, key, value) cell of a chained bucket. Entries
// sharing a treeified bucket node are chained through next as well.
type entry[K any, V any] struct {
	hash  uint64
	key   K
	value V
	next  *entry[K, V]
}

// bucket is either a chain (tree == nil) or a balanced tree keyed by the
// full hash, each tree node holding the chain of entries with that hash.
type bucket[K any, V any] struct {
	head *entry[K, V]
	tail *entry[K, V] // only maintained while rebuilding during a rehash
	n    int          // number of entries in the bucket
	tree *rbtree.Tree[uint64, *entry[K, V]]
}

func cmpUint64(a, b uint64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
