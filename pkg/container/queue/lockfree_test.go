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

package queue

import (
	"sync"
	"testing"

	"github.com/lni/goutils/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	esqueue "github.com/yireyun/go-queue"
)

func TestLockFreeFIFO(t *testing.T) {
	q := NewQueue[int]()
	assert.True(t, q.IsEmpty())

	_, ok := q.Poll()
	assert.False(t, ok)
	_, ok = q.Peek()
	assert.False(t, ok)

	for i := 0; i < 100; i++ {
		q.Offer(i)
	}
	assert.Equal(t, 100, q.Len())
	assert.False(t, q.IsEmpty())

	v, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, 0, v)

	for i := 0; i < 100; i++ {
		v, ok := q.Poll()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	assert.True(t, q.IsEmpty())
	assert.Equal(t, 0, q.Len())
}

func TestLockFreeAgainstRingQueue(t *testing.T) {
	// drive the same operation sequence through a ring buffer queue and
	// compare the dequeue order
	q := NewQueue[int]()
	ring := esqueue.NewQueue(1024)

	for i := 0; i < 500; i++ {
		q.Offer(i)
		ok, _ := ring.Put(i)
		require.True(t, ok)

		if i%3 == 0 {
			v1, ok1 := q.Poll()
			v2, ok2, _ := ring.Get()
			require.Equal(t, ok2, ok1)
			require.Equal(t, v2.(int), v1)
		}
	}
	for {
		v1, ok1 := q.Poll()
		v2, ok2, _ := ring.Get()
		require.Equal(t, ok2, ok1)
		if !ok1 {
			break
		}
		require.Equal(t, v2.(int), v1)
	}
}

func TestLockFreeConcurrent(t *testing.T) {
	defer leaktest.AfterTest(t)()

	q := NewQueue[int]()
	const producers = 8
	const consumers = 8
	const perProducer = 10000

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			base := p * perProducer
			for i := 0; i < perProducer; i++ {
				q.Offer(base + i)
			}
		}(p)
	}

	var mu sync.Mutex
	got := make(map[int]int)
	var cg sync.WaitGroup
	done := make(chan struct{})
	for c := 0; c < consumers; c++ {
		cg.Add(1)
		go func() {
			defer cg.Done()
			local := make(map[int]int)
			for {
				v, ok := q.Poll()
				if !ok {
					select {
					case <-done:
						// producers finished, drain what is left
						for {
							v, ok := q.Poll()
							if !ok {
								mu.Lock()
								for k, n := range local {
									got[k] += n
								}
								mu.Unlock()
								return
							}
							local[v]++
						}
					default:
						continue
					}
				}
				local[v]++
			}
		}()
	}

	wg.Wait()
	close(done)
	cg.Wait()

	// every value delivered exactly once
	require.Equal(t, producers*perProducer, len(got))
	for k, n := range got {
		require.Equal(t, 1, n, "value %d delivered %d times", k, n)
	}
	assert.True(t, q.IsEmpty())
}

func TestLockFreePerProducerOrder(t *testing.T) {
	defer leaktest.AfterTest(t)()

	// values of one producer must come out in their offer order
	q := NewQueue[[2]int]()
	const producers = 4
	const perProducer = 5000

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Offer([2]int{p, i})
			}
		}(p)
	}
	wg.Wait()

	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	for {
		v, ok := q.Poll()
		if !ok {
			break
		}
		require.Greater(t, v[1], last[v[0]], "producer %d reordered", v[0])
		last[v[0]] = v[1]
	}
	for p := 0; p < producers; p++ {
		require.Equal(t, perProducer-1, last[p])
	}
}
