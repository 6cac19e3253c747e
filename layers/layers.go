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

// Package layers implements the ordered-trie batch layer (§3.3, §4.2):
// cursors, builders and merge-builders over batches whose ordering and
// zero-elision invariants every operator in package operator relies on.
package layers

import (
	"sort"

	"github.com/erigontech/dbsp-go/algebra"
	"github.com/erigontech/dbsp-go/clock"
)

// Cursor is the two-level iterator every batch and trace exposes: it walks
// keys in ascending order and, within each key, values in ascending order,
// with a weight attached to every (key, value) pair.
type Cursor[K, V any, R algebra.ZRing[R]] interface {
	KeyValid() bool
	ValValid() bool
	Key() K
	Val() V
	Weight() R
	StepKey()
	StepVal()
	SeekKey(key K)
	SeekVal(val V)
	RewindKeys()
	RewindVals()
}

// Batch is an immutable, ordered, consolidated trie for a particular
// logical time (§3.3).
type Batch[K, V any, R algebra.ZRing[R]] interface {
	Keys() int
	Tuples() int
	IsEmpty() bool
	Time() clock.Time
	Cursor() Cursor[K, V, R]
	// RecedeTo is a no-op for the unit time. OrderedLeaf and OrderedLayer
	// return the receiver unchanged for every frontier: their time is not
	// advanced and nothing is compacted.
	RecedeTo(frontier clock.Time) Batch[K, V, R]
}

// Tuple is a single (item, weight) pair accepted by a TupleBuilder before
// consolidation, or produced when flattening a batch back to tuples.
type Tuple[I any, R any] struct {
	Item   I
	Weight R
}

// Advance reports the number of elements in slice satisfying pred,
// relying on the joint assumption that pred stays false once it becomes
// false, which lets it gallop/exponential-search instead of scanning
// linearly. Ported from the original's src/layers/mod.rs::advance.
func Advance[T any](slice []T, pred func(T) bool) int {
	const smallLimit = 8

	if len(slice) > smallLimit && pred(slice[smallLimit]) {
		index := smallLimit + 1
		if index < len(slice) && pred(slice[index]) {
			step := 1
			for index+step < len(slice) && pred(slice[index+step]) {
				index += step
				step <<= 1
			}
			step >>= 1
			for step > 0 {
				if index+step < len(slice) && pred(slice[index+step]) {
					index += step
				}
				step >>= 1
			}
			index++
		}
		return index
	}

	limit := smallLimit
	if len(slice) < limit {
		limit = len(slice)
	}
	count := 0
	for _, v := range slice[:limit] {
		if pred(v) {
			count++
		}
	}
	return count
}

// Consolidate sorts tuples by item and coalesces adjacent equal items by
// weight addition, dropping zero-weight results; it is the post-condition
// every builder must establish (§3.3, §8 item 3).
func Consolidate[I any, R algebra.ZRing[R]](tuples []Tuple[I, R], less func(a, b I) bool) []Tuple[I, R] {
	if len(tuples) == 0 {
		return tuples
	}
	sort.SliceStable(tuples, func(i, j int) bool { return less(tuples[i].Item, tuples[j].Item) })

	out := tuples[:0:0]
	i := 0
	for i < len(tuples) {
		j := i + 1
		w := tuples[i].Weight
		for j < len(tuples) && !less(tuples[i].Item, tuples[j].Item) && !less(tuples[j].Item, tuples[i].Item) {
			w = w.Add(tuples[j].Weight)
			j++
		}
		if !w.IsZero() {
			out = append(out, Tuple[I, R]{Item: tuples[i].Item, Weight: w})
		}
		i = j
	}
	return out
}
