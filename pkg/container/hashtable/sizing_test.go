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
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimate(t *testing.T) {
	est := NewCardinalityEstimator()

	const n = 100000
	var buf [8]byte
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint64(buf[:], uint64(i))
		est.Add(buf[:])
	}
	// duplicates do not inflate the estimate
	for i := 0; i < n; i += 2 {
		binary.LittleEndian.PutUint64(buf[:], uint64(i))
		est.Add(buf[:])
	}

	got := est.Estimate()
	assert.InEpsilon(t, uint64(n), got, 0.05)
}

func TestRecommendBuckets(t *testing.T) {
	est := NewCardinalityEstimator()
	var buf [8]byte
	for i := 0; i < 10000; i++ {
		binary.LittleEndian.PutUint64(buf[:], uint64(i))
		est.Add(buf[:])
	}

	opts := DefaultOptions()
	buckets := est.RecommendBuckets(opts)
	// power of two and big enough for the stream under the load factor
	assert.Equal(t, 0, buckets&(buckets-1))
	assert.GreaterOrEqual(t,
		uint64(buckets)*uint64(opts.LoadFactorNum)/uint64(opts.LoadFactorDenom),
		est.Estimate())
}

func TestNewPresizedSkipsDoubling(t *testing.T) {
	est := NewCardinalityEstimator()
	var buf [8]byte
	const n = 10000
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint64(buf[:], uint64(i))
		est.Add(buf[:])
	}

	m, err := NewPresized[int, int](IntHasher{}, est)
	require.NoError(t, err)
	presized := m.BucketCnt()

	for i := 0; i < n; i++ {
		require.NoError(t, m.Put(i, i))
	}
	// the whole stream fits without another doubling
	assert.Equal(t, presized, m.BucketCnt())
	assert.Equal(t, n, m.Len())
}
