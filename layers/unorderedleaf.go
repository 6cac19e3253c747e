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

package layers

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cespare/xxhash/v2"
	"github.com/erigontech/dbsp-go/algebra"
	"github.com/erigontech/dbsp-go/clock"
)

// UnorderedLeaf is a hash-indexed side table used by hash-join (§3.3,
// §4.5.3): it preserves weighted-multiset semantics but does not maintain
// value order, trading the ordered batch's O(log n) seeks for O(1) average
// bucket probes on large key spaces. Keys are hashed by the fixed
// keyHash32 (xxhash over the key's fmt.Sprint form, grounded on the
// teacher's xxhash dependency), which accepts any comparable key type;
// callers cannot supply their own hash function. presence is a
// roaring-bitmap membership sketch over the same xxhash values, checked
// before the map lookup so a miss on a large table avoids hashing into the
// Go map's own bucket machinery twice; a false positive just falls through
// to the real lookup, so presence can never turn a hit into a miss.
type UnorderedLeaf[K comparable, R algebra.ZRing[R]] struct {
	index    map[K]R
	presence *roaring.Bitmap
	time     clock.Time
}

func keyHash32[K comparable](k K) uint32 {
	return uint32(xxhash.Sum64String(fmt.Sprint(k)))
}

// HashBucket computes the xxhash-based bucket a shard/hash-join would
// route key to, for a table with n buckets.
func HashBucket(keyBytes []byte, n int) int {
	if n <= 0 {
		return 0
	}
	return int(xxhash.Sum64(keyBytes) % uint64(n))
}

// NewUnorderedLeafFromTuples builds the hash index, summing weights for
// duplicate keys and dropping entries that consolidate to zero.
func NewUnorderedLeafFromTuples[K comparable, R algebra.ZRing[R]](t clock.Time, tuples []Tuple[K, R]) *UnorderedLeaf[K, R] {
	idx := make(map[K]R, len(tuples))
	for _, tup := range tuples {
		if cur, ok := idx[tup.Item]; ok {
			idx[tup.Item] = cur.Add(tup.Weight)
		} else {
			idx[tup.Item] = tup.Weight
		}
	}
	for k, w := range idx {
		if w.IsZero() {
			delete(idx, k)
		}
	}
	presence := roaring.New()
	for k := range idx {
		presence.Add(keyHash32(k))
	}
	return &UnorderedLeaf[K, R]{index: idx, presence: presence, time: t}
}

func (u *UnorderedLeaf[K, R]) Keys() int      { return len(u.index) }
func (u *UnorderedLeaf[K, R]) Tuples() int    { return len(u.index) }
func (u *UnorderedLeaf[K, R]) IsEmpty() bool  { return len(u.index) == 0 }
func (u *UnorderedLeaf[K, R]) Time() clock.Time { return u.time }

// Probe looks up key's weight; ok is false if key is absent (weight
// elided, per the zero-elision invariant).
func (u *UnorderedLeaf[K, R]) Probe(key K) (R, bool) {
	if !u.presence.Contains(keyHash32(key)) {
		var zero R
		return zero, false
	}
	w, ok := u.index[key]
	return w, ok
}
