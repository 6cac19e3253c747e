// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package runtime

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// storeKey identifies a rendezvous-constructed value by its kind (the
// operator that needed it, e.g. "shard.exchange") and an id unique within
// that kind (typically the NodeId of the Shard call site, so two Shard
// operators in the same circuit don't collide).
type storeKey struct {
	kind string
	id   int
}

// Store is the runtime's one piece of process-wide state (§9 "the
// runtime's per-worker local store is the only process-wide state; it is
// created at runtime construction and torn down at join; never accessed
// after"): a bounded registry, shared by every worker's circuit-building
// closure, of values that must be constructed exactly once and shared by
// reference across all N workers -- principally Exchange instances.
// Backed by an LRU so a long-running pipeline with many Shard call sites
// doesn't grow this registry without bound.
type Store struct {
	mu    sync.Mutex
	cache *lru.Cache[storeKey, any]
}

// NewStore allocates a store bounded to size entries.
func NewStore(size int) *Store {
	c, err := lru.New[storeKey, any](size)
	if err != nil {
		panic("runtime: invalid store size " + err.Error())
	}
	return &Store{cache: c}
}

// GetOrCreate returns the existing value registered under (kind, id), or
// calls create and registers its result if this is the first call for
// that key. Concurrent callers racing to construct the same key (every
// worker's circuit-builder runs this during Runtime construction) observe
// exactly one call to create.
func GetOrCreate[V any](s *Store, kind string, id int, create func() V) V {
	key := storeKey{kind: kind, id: id}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.cache.Get(key); ok {
		return v.(V)
	}
	v := create()
	s.cache.Add(key, v)
	return v
}

// Close releases every value this store is holding. Called once at
// Runtime.Join; the store must not be used afterward.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
}
