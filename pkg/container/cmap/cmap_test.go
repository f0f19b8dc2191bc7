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

package cmap

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/lni/goutils/leaktest"
	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orcadb/collections/pkg/common/moerr"
	"github.com/orcadb/collections/pkg/config"
	"github.com/orcadb/collections/pkg/container/hashtable"
)

// TestMain waits for the ants default pool's purge goroutine, spawned at
// package init, to be scheduled and parked. Until it first runs, its stack
// shows runtime.goexit and leaktest filters it out of the baseline snapshot,
// so any test that later lets it run would misreport it as a leak.
func TestMain(m *testing.M) {
	for i := 0; i < 100; i++ {
		if len(leaktest.GetInterestedGoroutines()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	os.Exit(m.Run())
}

func TestPutGetRemove(t *testing.T) {
	m, err := New[int, int](hashtable.IntHasher{})
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		require.NoError(t, m.Put(i, i*2))
	}
	require.Equal(t, 1000, m.Len())

	for i := 0; i < 1000; i++ {
		v, ok := m.Get(i)
		require.True(t, ok)
		require.Equal(t, i*2, v)
	}
	assert.True(t, m.Contains(0))
	assert.False(t, m.Contains(1000))

	v, ok := m.Remove(500)
	require.True(t, ok)
	assert.Equal(t, 1000, v)
	_, ok = m.Remove(500)
	assert.False(t, ok)
	assert.Equal(t, 999, m.Len())
}

func TestBadArgs(t *testing.T) {
	_, err := New[int, int](nil)
	assert.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))

	bad := config.Default()
	bad.CMapShards = 3
	_, err = NewWithTunables[int, int](hashtable.IntHasher{}, bad)
	assert.True(t, moerr.IsMoErrCode(err, moerr.ErrBadConfig))
}

func TestRange(t *testing.T) {
	m, err := New[int, int](hashtable.IntHasher{})
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		require.NoError(t, m.Put(i, i))
	}

	seen := make(map[int]bool)
	require.NoError(t, m.Range(func(k, v int) bool {
		require.Equal(t, k, v)
		seen[k] = true
		return true
	}))
	assert.Equal(t, 100, len(seen))

	// early stop
	n := 0
	require.NoError(t, m.Range(func(_, _ int) bool {
		n++
		return n < 10
	}))
	assert.Equal(t, 10, n)
}

func TestConcurrentWriters(t *testing.T) {
	defer leaktest.AfterTest(t)()

	m, err := New[int, int](hashtable.IntHasher{})
	require.NoError(t, err)

	const writers = 8
	const perWriter = 2000

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			base := w * perWriter
			for i := 0; i < perWriter; i++ {
				if err := m.Put(base+i, base+i); err != nil {
					t.Error(err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	require.Equal(t, writers*perWriter, m.Len())
	for i := 0; i < writers*perWriter; i++ {
		v, ok := m.Get(i)
		require.True(t, ok, "key %d lost", i)
		require.Equal(t, i, v)
	}
}

func TestConcurrentMixed(t *testing.T) {
	defer leaktest.AfterTest(t)()

	m, err := New[int, int](hashtable.IntHasher{})
	require.NoError(t, err)
	for i := 0; i < 10000; i++ {
		require.NoError(t, m.Put(i, i))
	}

	pool, err := ants.NewPool(16)
	require.NoError(t, err)
	defer pool.Release()

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		w := w
		require.NoError(t, pool.Submit(func() {
			defer wg.Done()
			for i := 0; i < 5000; i++ {
				k := (w*7919 + i) % 10000
				switch i % 3 {
				case 0:
					_, _ = m.Get(k)
				case 1:
					_ = m.Put(k, k)
				case 2:
					_ = m.Contains(k)
				}
			}
		}))
	}
	wg.Wait()

	for i := 0; i < 10000; i++ {
		v, ok := m.Get(i)
		require.True(t, ok)
		require.Equal(t, i, v)
	}
}

func TestBulkPut(t *testing.T) {
	defer leaktest.AfterTest(t)()

	m, err := New[int, int](hashtable.IntHasher{})
	require.NoError(t, err)

	const n = 50000
	entries := make([]Entry[int, int], n)
	for i := range entries {
		entries[i] = Entry[int, int]{Key: i, Value: i}
	}
	require.NoError(t, m.BulkPut(entries, 8))

	require.Equal(t, n, m.Len())
	for i := 0; i < n; i += 97 {
		v, ok := m.Get(i)
		require.True(t, ok)
		require.Equal(t, i, v)
	}
}

func TestLenWithoutLocks(t *testing.T) {
	m, err := New[int, int](hashtable.IntHasher{})
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())

	require.NoError(t, m.Put(1, 1))
	require.NoError(t, m.Put(1, 2)) // overwrite
	assert.Equal(t, 1, m.Len())

	_, ok := m.Remove(1)
	require.True(t, ok)
	assert.Equal(t, 0, m.Len())
}
