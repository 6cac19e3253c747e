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

// Package zset is the value type that flows on every stream: a finite
// mapping key -> weight (Z-set) or key -> (value -> weight) (indexed
// Z-set), backed by the ordered trie batches in package layers (§3.2).
package zset

import (
	"github.com/erigontech/dbsp-go/algebra"
	"github.com/erigontech/dbsp-go/clock"
	"github.com/erigontech/dbsp-go/layers"
	"github.com/erigontech/dbsp-go/trace"
	"golang.org/x/exp/constraints"
)

// ZSet is a finite weighted multiset over key type K.
type ZSet[K constraints.Ordered, R algebra.ZRing[R]] struct {
	Batch *layers.OrderedLeaf[K, R]
}

func lessOrdered[K constraints.Ordered](a, b K) bool { return a < b }

// unitLess orders the trivial struct{} value type ZSet's spine uses in
// place of a real value component -- there being only one inhabitant,
// nothing is ever less than anything else.
func unitLess(_, _ struct{}) bool { return false }

// Accumulator is the running total a spine (§3.4, §4.3) maintains for
// Integrate (§4.5.1): each Insert folds in one delta, with merge cost
// amortized across insertions by the spine. Value walks every level of
// the spine and rebuilds the whole accumulated value, so its cost grows
// with the total size, not with the last delta's.
type Accumulator[T any] interface {
	Insert(delta T)
	Value() T
}

type zsetAccumulator[K constraints.Ordered, R algebra.ZRing[R]] struct {
	spine *trace.Spine[K, struct{}, R]
	time  clock.Time
}

// NewAccumulator returns a fresh spine-backed accumulator seeded at z's
// time; z itself need not be non-empty, only correctly typed.
func (z ZSet[K, R]) NewAccumulator() Accumulator[ZSet[K, R]] {
	return &zsetAccumulator[K, R]{spine: trace.New[K, struct{}, R](lessOrdered[K], unitLess), time: z.Time()}
}

func (a *zsetAccumulator[K, R]) Insert(delta ZSet[K, R]) {
	a.spine.Insert(delta.Batch)
	a.time = delta.Time()
}

// Value flattens the spine's composite cursor back into a Z-set. It must
// go through FromTuples rather than a raw batch constructor: the
// composite cursor can report a (key) pair valid even though its
// cross-level coalesced weight happens to be zero, and only the
// tuple-builder's consolidation re-elides that case.
func (a *zsetAccumulator[K, R]) Value() ZSet[K, R] {
	var out []layers.Tuple[K, R]
	c := a.spine.Cursor()
	for c.KeyValid() {
		if c.ValValid() {
			out = append(out, layers.Tuple[K, R]{Item: c.Key(), Weight: c.Weight()})
		}
		c.StepKey()
	}
	return FromTuples[K, R](a.time, out)
}

// FromTuples builds a Z-set via the tuple builder, consolidating
// duplicates (§3.3).
func FromTuples[K constraints.Ordered, R algebra.ZRing[R]](t clock.Time, tuples []layers.Tuple[K, R]) ZSet[K, R] {
	return ZSet[K, R]{Batch: layers.NewOrderedLeafFromTuples(lessOrdered[K], t, tuples)}
}

// Empty returns the empty Z-set at time t.
func Empty[K constraints.Ordered, R algebra.ZRing[R]](t clock.Time) ZSet[K, R] {
	return FromTuples[K, R](t, nil)
}

func (z ZSet[K, R]) IsEmpty() bool   { return z.Batch == nil || z.Batch.IsEmpty() }
func (z ZSet[K, R]) Keys() int       { return z.Batch.Keys() }
func (z ZSet[K, R]) Time() clock.Time { return z.Batch.Time() }

// Add returns z + other: pointwise weight addition, zero-weight entries
// elided (§3.2).
func (z ZSet[K, R]) Add(other ZSet[K, R]) ZSet[K, R] {
	merged := z.Batch.Merge(other.Batch).(*layers.OrderedLeaf[K, R])
	return ZSet[K, R]{Batch: merged}
}

// Negate returns -z.
func (z ZSet[K, R]) Negate() ZSet[K, R] {
	return ZSet[K, R]{Batch: z.Batch.Negate()}
}

// Distinct sets every positive weight to one and drops non-positive
// weights.
func (z ZSet[K, R]) Distinct() ZSet[K, R] {
	return ZSet[K, R]{Batch: z.Batch.Distinct()}
}

func (z ZSet[K, R]) Cursor() layers.Cursor[K, struct{}, R] {
	return z.Batch.Cursor()
}

// ToTuples flattens the Z-set back into (key, weight) tuples, in key
// order.
func (z ZSet[K, R]) ToTuples() []layers.Tuple[K, R] {
	var out []layers.Tuple[K, R]
	c := z.Cursor()
	for c.KeyValid() {
		out = append(out, layers.Tuple[K, R]{Item: c.Key(), Weight: c.Weight()})
		c.StepKey()
	}
	return out
}

// Weight looks up a single key's weight, returning the ring's zero if
// absent -- Z-sets elide zero-weight entries, so "absent" and "weight
// zero" are the same observable state.
func (z ZSet[K, R]) Weight(key K) R {
	c := z.Cursor()
	c.SeekKey(key)
	if c.KeyValid() && c.Key() == key {
		return c.Weight()
	}
	return algebra.Zero[R]()
}
