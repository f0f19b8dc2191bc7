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
	hll "github.com/axiomhq/hyperloglog"
)

// CardinalityEstimator sketches the distinct keys of a stream so a Map
// can be pre-sized and skip the intermediate doublings of a bulk load.
// The estimate is approximate (hyperloglog), which is fine here: an
// under-estimate only costs extra resizes.
type CardinalityEstimator struct {
	sk *hll.Sketch
}

func NewCardinalityEstimator() *CardinalityEstimator {
	return &CardinalityEstimator{sk: hll.New14()}
}

// Add feeds one key into the sketch.
func (c *CardinalityEstimator) Add(key []byte) {
	c.sk.Insert(key)
}

// AddHash feeds one pre-hashed key into the sketch.
func (c *CardinalityEstimator) AddHash(hash uint64) {
	c.sk.InsertHash(hash)
}

// Estimate returns the approximate number of distinct keys seen.
func (c *CardinalityEstimator) Estimate() uint64 {
	return c.sk.Estimate()
}

// RecommendBuckets returns the smallest power-of-two bucket count that
// keeps the sketched cardinality under the load factor of opts.
func (c *CardinalityEstimator) RecommendBuckets(opts Options) int {
	distinct := c.sk.Estimate()
	buckets := uint64(opts.InitialBuckets)
	for buckets*uint64(opts.LoadFactorNum)/uint64(opts.LoadFactorDenom) < distinct {
		buckets <<= 1
	}
	return int(buckets)
}

// NewPresized returns an empty Map pre-sized for the sketched key
// stream.
func NewPresized[K any, V any](hasher Hasher[K], est *CardinalityEstimator) (*Map[K, V], error) {
	opts := DefaultOptions()
	opts.InitialBuckets = est.RecommendBuckets(opts)
	return NewWithOptions[K, V](hasher, opts)
}
