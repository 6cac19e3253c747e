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

package zset

import (
	"github.com/erigontech/dbsp-go/algebra"
	"github.com/erigontech/dbsp-go/clock"
	"github.com/erigontech/dbsp-go/layers"
	"github.com/erigontech/dbsp-go/trace"
	"golang.org/x/exp/constraints"
)

// IndexedZSet is a finite mapping K -> Z-set(V): the normal form of "a
// Z-set of (K, V) pairs grouped by K" (§3.2).
type IndexedZSet[K, V constraints.Ordered, R algebra.ZRing[R]] struct {
	Batch *layers.OrderedLayer[K, V, R]
}

// IndexedFromTuples builds an indexed Z-set via the tuple builder.
func IndexedFromTuples[K, V constraints.Ordered, R algebra.ZRing[R]](t clock.Time, tuples []layers.KVTuple[K, V, R]) IndexedZSet[K, V, R] {
	return IndexedZSet[K, V, R]{Batch: layers.NewOrderedLayerFromTuples(lessOrdered[K], lessOrdered[V], t, tuples)}
}

func IndexedEmpty[K, V constraints.Ordered, R algebra.ZRing[R]](t clock.Time) IndexedZSet[K, V, R] {
	return IndexedFromTuples[K, V, R](t, nil)
}

func (z IndexedZSet[K, V, R]) IsEmpty() bool    { return z.Batch == nil || z.Batch.IsEmpty() }
func (z IndexedZSet[K, V, R]) Keys() int        { return z.Batch.Keys() }
func (z IndexedZSet[K, V, R]) Time() clock.Time { return z.Batch.Time() }

func (z IndexedZSet[K, V, R]) Add(other IndexedZSet[K, V, R]) IndexedZSet[K, V, R] {
	merged := z.Batch.Merge(other.Batch).(*layers.OrderedLayer[K, V, R])
	return IndexedZSet[K, V, R]{Batch: merged}
}

func (z IndexedZSet[K, V, R]) Negate() IndexedZSet[K, V, R] {
	return IndexedZSet[K, V, R]{Batch: z.Batch.Negate()}
}

func (z IndexedZSet[K, V, R]) Cursor() layers.Cursor[K, V, R] {
	return z.Batch.Cursor()
}

type indexedAccumulator[K, V constraints.Ordered, R algebra.ZRing[R]] struct {
	spine *trace.Spine[K, V, R]
	time  clock.Time
}

// NewAccumulator mirrors ZSet.NewAccumulator for the indexed case, using
// the real value ordering (lessOrdered[V]) instead of ZSet's trivial
// struct{} value component.
func (z IndexedZSet[K, V, R]) NewAccumulator() Accumulator[IndexedZSet[K, V, R]] {
	return &indexedAccumulator[K, V, R]{spine: trace.New[K, V, R](lessOrdered[K], lessOrdered[V]), time: z.Time()}
}

func (a *indexedAccumulator[K, V, R]) Insert(delta IndexedZSet[K, V, R]) {
	a.spine.Insert(delta.Batch)
	a.time = delta.Time()
}

// Value flattens the spine's composite cursor back via the tuple
// builder, for the same zero-elision reason documented on
// zsetAccumulator.Value.
func (a *indexedAccumulator[K, V, R]) Value() IndexedZSet[K, V, R] {
	var out []layers.KVTuple[K, V, R]
	c := a.spine.Cursor()
	for c.KeyValid() {
		key := c.Key()
		for c.ValValid() {
			out = append(out, layers.KVTuple[K, V, R]{Key: key, Val: c.Val(), Weight: c.Weight()})
			c.StepVal()
		}
		c.StepKey()
	}
	return IndexedFromTuples[K, V, R](a.time, out)
}

// Values returns the Z-set of values stored under key, or the empty Z-set
// if key is absent.
func (z IndexedZSet[K, V, R]) Values(key K) ZSet[V, R] {
	vals, ok := z.Batch.Lookup(key)
	if !ok {
		return Empty[V, R](z.Time())
	}
	return ZSet[V, R]{Batch: layers.NewOrderedLeaf(lessOrdered[V], z.Time(), vals)}
}

// ToTuples flattens the indexed Z-set back to (key, value, weight)
// triples, in (key, value) order.
func (z IndexedZSet[K, V, R]) ToTuples() []layers.KVTuple[K, V, R] {
	var out []layers.KVTuple[K, V, R]
	c := z.Cursor()
	for c.KeyValid() {
		key := c.Key()
		for c.ValValid() {
			out = append(out, layers.KVTuple[K, V, R]{Key: key, Val: c.Val(), Weight: c.Weight()})
			c.StepVal()
		}
		c.StepKey()
	}
	return out
}
