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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashDeterministic(t *testing.T) {
	assert.Equal(t, BytesHash([]byte("abc")), BytesHash([]byte("abc")))
	assert.Equal(t, StringHash("abc"), StringHash("abc"))
	assert.Equal(t, Int64Hash(42), Int64Hash(42))
}

func TestStringHashMatchesBytesHash(t *testing.T) {
	for _, s := range []string{"", "a", "hello world", "0123456789abcdef0123456789abcdef"} {
		assert.Equal(t, BytesHash([]byte(s)), StringHash(s), "mismatch for %q", s)
	}
}

func TestHashDistribution(t *testing.T) {
	// sequential keys should spread across buckets
	const buckets = 64
	counts := make([]int, buckets)
	const n = 64 * 100
	for i := 0; i < n; i++ {
		h := spread(StringHash(fmt.Sprintf("key-%d", i)))
		counts[h&(buckets-1)]++
	}
	for i, c := range counts {
		assert.Greater(t, c, 0, "bucket %d never hit", i)
		assert.Less(t, c, n/buckets*3, "bucket %d overloaded", i)
	}
}

func TestInt64HashSpreads(t *testing.T) {
	seen := make(map[uint64]bool)
	for i := int64(0); i < 1000; i++ {
		seen[Int64Hash(uint64(i))] = true
	}
	assert.Equal(t, 1000, len(seen))
}
