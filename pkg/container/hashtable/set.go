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

// Set is a hash set backed by a Map.
type Set[K any] struct {
	m *Map[K, struct{}]
}

// NewSet returns an empty Set with default tuning.
func NewSet[K any](hasher Hasher[K]) (*Set[K], error) {
	m, err := New[K, struct{}](hasher)
	if err != nil {
		return nil, err
	}
	return &Set[K]{m: m}, nil
}

// NewSetWithOptions returns an empty Set with explicit tuning.
func NewSetWithOptions[K any](hasher Hasher[K], opts Options) (*Set[K], error) {
	m, err := NewWithOptions[K, struct{}](hasher, opts)
	if err != nil {
		return nil, err
	}
	return &Set[K]{m: m}, nil
}

func (s *Set[K]) Len() int {
	return s.m.Len()
}

// Insert adds key.
func (s *Set[K]) Insert(key K) error {
	return s.m.Put(key, struct{}{})
}

// Contains reports whether key is present.
func (s *Set[K]) Contains(key K) bool {
	return s.m.Contains(key)
}

// Delete removes key, reporting whether it was present.
func (s *Set[K]) Delete(key K) bool {
	_, ok := s.m.Remove(key)
	return ok
}

// Range calls fn on every key in unspecified order, stopping if fn
// returns false.
func (s *Set[K]) Range(fn func(key K) bool) error {
	return s.m.Range(func(key K, _ struct{}) bool {
		return fn(key)
	})
}
