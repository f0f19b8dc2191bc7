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

package intset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcadb/collections/pkg/common/moerr"
)

func TestAddContainsRemove(t *testing.T) {
	s := New()
	assert.True(t, s.IsEmpty())

	assert.True(t, s.Add(5))
	assert.False(t, s.Add(5))
	assert.True(t, s.Add(10))
	assert.Equal(t, 2, s.Len())

	assert.True(t, s.Contains(5))
	assert.False(t, s.Contains(6))

	assert.True(t, s.Remove(5))
	assert.False(t, s.Remove(5))
	assert.Equal(t, 1, s.Len())
}

func TestAddRange(t *testing.T) {
	s := New()
	s.AddRange(10, 20)
	assert.Equal(t, 10, s.Len())
	assert.True(t, s.Contains(10))
	assert.True(t, s.Contains(19))
	assert.False(t, s.Contains(20))

	// empty range is a no-op
	s.AddRange(30, 30)
	assert.Equal(t, 10, s.Len())
}

func TestMinMax(t *testing.T) {
	s := New()
	_, ok := s.Min()
	assert.False(t, ok)
	_, ok = s.Max()
	assert.False(t, ok)

	s.Add(100)
	s.Add(3)
	s.Add(50)

	v, ok := s.Min()
	require.True(t, ok)
	assert.Equal(t, uint32(3), v)
	v, ok = s.Max()
	require.True(t, ok)
	assert.Equal(t, uint32(100), v)
}

func TestSetAlgebra(t *testing.T) {
	a := Of(1, 2, 3, 4)
	b := Of(3, 4, 5, 6)

	u := a.Clone()
	u.Union(b)
	assert.Equal(t, []uint32{1, 2, 3, 4, 5, 6}, u.ToSlice())

	i := a.Clone()
	i.Intersect(b)
	assert.Equal(t, []uint32{3, 4}, i.ToSlice())

	d := a.Clone()
	d.Difference(b)
	assert.Equal(t, []uint32{1, 2}, d.ToSlice())

	// the operands are untouched
	assert.Equal(t, []uint32{1, 2, 3, 4}, a.ToSlice())
	assert.Equal(t, []uint32{3, 4, 5, 6}, b.ToSlice())
}

func TestClear(t *testing.T) {
	s := Of(1, 2, 3)
	s.Clear()
	assert.True(t, s.IsEmpty())
	assert.True(t, s.Add(1))
}

func TestRangeAscending(t *testing.T) {
	s := Of(30, 10, 20)
	var got []uint32
	require.NoError(t, s.Range(func(v uint32) bool {
		got = append(got, v)
		return true
	}))
	assert.Equal(t, []uint32{10, 20, 30}, got)

	// early stop
	got = got[:0]
	require.NoError(t, s.Range(func(v uint32) bool {
		got = append(got, v)
		return v < 20
	}))
	assert.Equal(t, []uint32{10, 20}, got)
}

func TestRangeFailFast(t *testing.T) {
	s := Of(1, 2, 3)
	err := s.Range(func(v uint32) bool {
		if v == 1 {
			s.Add(99)
		}
		return true
	})
	assert.True(t, moerr.IsMoErrCode(err, moerr.ErrConcurrentModification))
}

func TestIterator(t *testing.T) {
	s := Of(3, 1, 2)

	it := s.Iterator()
	var got []uint32
	for it.HasNext() {
		v, err := it.Next()
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []uint32{1, 2, 3}, got)

	_, err := it.Next()
	assert.True(t, moerr.IsMoErrCode(err, moerr.ErrIteratorExhausted))

	it = s.Iterator()
	s.Add(4)
	_, err = it.Next()
	assert.True(t, moerr.IsMoErrCode(err, moerr.ErrConcurrentModification))
}

func TestLargeDense(t *testing.T) {
	s := New()
	s.AddRange(0, 1<<20)
	assert.Equal(t, 1<<20, s.Len())
	assert.True(t, s.Contains(1<<20-1))

	other := New()
	other.AddRange(1<<19, 1<<21)
	s.Intersect(other)
	assert.Equal(t, 1<<19, s.Len())
}
