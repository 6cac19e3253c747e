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

package operator

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/erigontech/dbsp-go/algebra"
	"github.com/erigontech/dbsp-go/circuit"
	"github.com/erigontech/dbsp-go/layers"
	"github.com/erigontech/dbsp-go/runtime"
	"github.com/erigontech/dbsp-go/zset"
	"golang.org/x/exp/constraints"
)

// HashKey reduces an ordered key to a 64-bit hash via xxhash over its
// decimal/string form, the same hash family used by the hash-join side
// index (§4.5.3). Shard has no default bucket function: callers pass
// HashKey, or their own function, as its hash argument.
func HashKey[K constraints.Ordered](k K) uint64 {
	return xxhash.Sum64String(fmt.Sprint(k))
}

// Shard repartitions an indexed Z-set across the worker pool by hash of
// the key, so that every value for a given key lands on the same worker
// regardless of which worker produced it (§4.5.7, glossary "Shard"). It is
// built from one ExchangeSender (this worker's partition-and-offer half)
// and one ExchangeReceiver (this worker's collect-and-merge half) sharing
// a single Exchange that must be constructed once and handed to every
// worker's copy of this circuit.
func Shard[K, V constraints.Ordered, R algebra.ZRing[R]](
	c *circuit.Circuit, name string, worker int, ex *runtime.Exchange[zset.IndexedZSet[K, V, R]],
	in *circuit.Stream[zset.IndexedZSet[K, V, R]], hash func(K) uint64,
) *circuit.Stream[zset.IndexedZSet[K, V, R]] {
	n := ex.N()
	runtime.AddExchangeSender(c, name+".send", worker, ex, in, func(_ int, v zset.IndexedZSet[K, V, R]) []zset.IndexedZSet[K, V, R] {
		buckets := make([][]layers.KVTuple[K, V, R], n)
		cur := v.Cursor()
		for cur.KeyValid() {
			key := cur.Key()
			b := int(hash(key) % uint64(n))
			for cur.ValValid() {
				buckets[b] = append(buckets[b], layers.KVTuple[K, V, R]{Key: key, Val: cur.Val(), Weight: cur.Weight()})
				cur.StepVal()
			}
			cur.StepKey()
		}
		shares := make([]zset.IndexedZSet[K, V, R], n)
		for i := range shares {
			shares[i] = zset.IndexedFromTuples[K, V, R](v.Time(), buckets[i])
		}
		return shares
	})

	recv := runtime.AddExchangeReceiver(c, name+".recv", worker, ex, func(shares []zset.IndexedZSet[K, V, R]) zset.IndexedZSet[K, V, R] {
		merged := shares[0]
		for _, s := range shares[1:] {
			merged = merged.Add(s)
		}
		return merged
	})
	return recv.Out()
}
