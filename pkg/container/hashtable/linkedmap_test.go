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
	"github.com/stretchr/testify/require"

	"github.com/orcadb/collections/pkg/common/moerr"
)

func TestLinkedMapOrder(t *testing.T) {
	lm, err := NewLinkedMap[string, int](StringHasher{})
	require.NoError(t, err)

	keys := []string{"z", "a", "m", "q", "b"}
	for i, k := range keys {
		require.NoError(t, lm.Put(k, i))
	}
	require.Equal(t, 5, lm.Len())

	var got []string
	require.NoError(t, lm.Range(func(k string, _ int) bool {
		got = append(got, k)
		return true
	}))
	assert.Equal(t, keys, got)
}

func TestLinkedMapOverwriteKeepsPosition(t *testing.T) {
	lm, err := NewLinkedMap[string, int](StringHasher{})
	require.NoError(t, err)

	require.NoError(t, lm.Put("a", 1))
	require.NoError(t, lm.Put("b", 2))
	require.NoError(t, lm.Put("c", 3))
	require.NoError(t, lm.Put("a", 10))
	require.Equal(t, 3, lm.Len())

	var got []string
	require.NoError(t, lm.Range(func(k string, _ int) bool {
		got = append(got, k)
		return true
	}))
	assert.Equal(t, []string{"a", "b", "c"}, got)

	v, ok := lm.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, v)
}

func TestLinkedMapRemove(t *testing.T) {
	lm, err := NewLinkedMap[string, int](StringHasher{})
	require.NoError(t, err)

	for i, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, lm.Put(k, i))
	}

	// middle, head, tail
	v, ok := lm.Remove("b")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = lm.Remove("a")
	require.True(t, ok)
	_, ok = lm.Remove("d")
	require.True(t, ok)
	_, ok = lm.Remove("d")
	assert.False(t, ok)
	require.Equal(t, 1, lm.Len())

	var got []string
	require.NoError(t, lm.Range(func(k string, _ int) bool {
		got = append(got, k)
		return true
	}))
	assert.Equal(t, []string{"c"}, got)

	// reinsert goes to the back
	require.NoError(t, lm.Put("a", 100))
	got = got[:0]
	require.NoError(t, lm.Range(func(k string, _ int) bool {
		got = append(got, k)
		return true
	}))
	assert.Equal(t, []string{"c", "a"}, got)
}

func TestLinkedMapOrderSurvivesResize(t *testing.T) {
	lm, err := NewLinkedMap[string, int](StringHasher{})
	require.NoError(t, err)

	var keys []string
	for i := 0; i < 1000; i++ {
		k := fmt.Sprintf("k%d", i)
		keys = append(keys, k)
		require.NoError(t, lm.Put(k, i))
	}

	var got []string
	require.NoError(t, lm.Range(func(k string, _ int) bool {
		got = append(got, k)
		return true
	}))
	assert.Equal(t, keys, got)
}

func TestLinkedMapIterator(t *testing.T) {
	lm, err := NewLinkedMap[string, int](StringHasher{})
	require.NoError(t, err)
	require.NoError(t, lm.Put("a", 1))
	require.NoError(t, lm.Put("b", 2))

	it := lm.Iterator()
	k, v, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", k)
	assert.Equal(t, 1, v)

	require.NoError(t, lm.Put("c", 3))
	_, _, err = it.Next()
	assert.True(t, moerr.IsMoErrCode(err, moerr.ErrConcurrentModification))

	it = lm.Iterator()
	for it.HasNext() {
		_, _, err = it.Next()
		require.NoError(t, err)
	}
	_, _, err = it.Next()
	assert.True(t, moerr.IsMoErrCode(err, moerr.ErrIteratorExhausted))
}

func TestHashSet(t *testing.T) {
	s, err := NewSet[int](IntHasher{})
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		require.NoError(t, s.Insert(i))
	}
	require.NoError(t, s.Insert(50)) // dup
	assert.Equal(t, 100, s.Len())

	assert.True(t, s.Contains(50))
	assert.True(t, s.Delete(50))
	assert.False(t, s.Delete(50))
	assert.False(t, s.Contains(50))
	assert.Equal(t, 99, s.Len())

	n := 0
	require.NoError(t, s.Range(func(_ int) bool {
		n++
		return true
	}))
	assert.Equal(t, 99, n)
}
