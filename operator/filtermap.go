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
	"github.com/erigontech/dbsp-go/algebra"
	"github.com/erigontech/dbsp-go/circuit"
	"github.com/erigontech/dbsp-go/layers"
	"github.com/erigontech/dbsp-go/zset"
	"golang.org/x/exp/constraints"
)

// Filter keeps exactly those (key, weight) pairs satisfying pred; weights
// are preserved and input order is preserved, so no consolidation pass is
// needed (§4.5.2).
func Filter[K constraints.Ordered, R algebra.ZRing[R]](c *circuit.Circuit, name string, in *circuit.Stream[zset.ZSet[K, R]], pred func(K) bool) *circuit.Stream[zset.ZSet[K, R]] {
	return Apply(c, name, in, func(z zset.ZSet[K, R]) zset.ZSet[K, R] {
		var out []layers.Tuple[K, R]
		cur := z.Cursor()
		for cur.KeyValid() {
			if pred(cur.Key()) {
				out = append(out, layers.Tuple[K, R]{Item: cur.Key(), Weight: cur.Weight()})
			}
			cur.StepKey()
		}
		return zset.FromTuples[K, R](z.Time(), out)
	})
}

// Map applies f to every key, which may collide distinct inputs onto the
// same output key; the tuple builder consolidates the result (§4.5.2).
func Map[K constraints.Ordered, O constraints.Ordered, R algebra.ZRing[R]](c *circuit.Circuit, name string, in *circuit.Stream[zset.ZSet[K, R]], f func(K) O) *circuit.Stream[zset.ZSet[O, R]] {
	return Apply(c, name, in, func(z zset.ZSet[K, R]) zset.ZSet[O, R] {
		var out []layers.Tuple[O, R]
		cur := z.Cursor()
		for cur.KeyValid() {
			out = append(out, layers.Tuple[O, R]{Item: f(cur.Key()), Weight: cur.Weight()})
			cur.StepKey()
		}
		return zset.FromTuples[O, R](z.Time(), out)
	})
}

// MapIndex is Map's indexed-output form: f produces a (key, value) pair,
// building an indexed Z-set.
func MapIndex[K constraints.Ordered, OK, OV constraints.Ordered, R algebra.ZRing[R]](c *circuit.Circuit, name string, in *circuit.Stream[zset.ZSet[K, R]], f func(K) (OK, OV)) *circuit.Stream[zset.IndexedZSet[OK, OV, R]] {
	return Apply(c, name, in, func(z zset.ZSet[K, R]) zset.IndexedZSet[OK, OV, R] {
		var out []layers.KVTuple[OK, OV, R]
		cur := z.Cursor()
		for cur.KeyValid() {
			ok, ov := f(cur.Key())
			out = append(out, layers.KVTuple[OK, OV, R]{Key: ok, Val: ov, Weight: cur.Weight()})
			cur.StepKey()
		}
		return zset.IndexedFromTuples[OK, OV, R](z.Time(), out)
	})
}

// FlatMap multiplies each input weight across every record f produces for
// that key (§4.5.2).
func FlatMap[K constraints.Ordered, O constraints.Ordered, R algebra.ZRing[R]](c *circuit.Circuit, name string, in *circuit.Stream[zset.ZSet[K, R]], f func(K) []O) *circuit.Stream[zset.ZSet[O, R]] {
	return Apply(c, name, in, func(z zset.ZSet[K, R]) zset.ZSet[O, R] {
		var out []layers.Tuple[O, R]
		cur := z.Cursor()
		for cur.KeyValid() {
			w := cur.Weight()
			for _, o := range f(cur.Key()) {
				out = append(out, layers.Tuple[O, R]{Item: o, Weight: w})
			}
			cur.StepKey()
		}
		return zset.FromTuples[O, R](z.Time(), out)
	})
}

// FlatMapIndex is FlatMap's indexed-output form.
func FlatMapIndex[K constraints.Ordered, OK, OV constraints.Ordered, R algebra.ZRing[R]](c *circuit.Circuit, name string, in *circuit.Stream[zset.ZSet[K, R]], f func(K) []layers.KVTuple[OK, OV, struct{}]) *circuit.Stream[zset.IndexedZSet[OK, OV, R]] {
	return Apply(c, name, in, func(z zset.ZSet[K, R]) zset.IndexedZSet[OK, OV, R] {
		var out []layers.KVTuple[OK, OV, R]
		cur := z.Cursor()
		for cur.KeyValid() {
			w := cur.Weight()
			for _, kv := range f(cur.Key()) {
				out = append(out, layers.KVTuple[OK, OV, R]{Key: kv.Key, Val: kv.Val, Weight: w})
			}
			cur.StepKey()
		}
		return zset.IndexedFromTuples[OK, OV, R](z.Time(), out)
	})
}

// Index converts a Z-set of (K, V) pairs into an indexed Z-set K -> Z-set
// V, preserving weights; idempotent (§4.5.7). pair decomposes the flat
// key type P into its (K, V) components.
func Index[P any, K, V constraints.Ordered, R algebra.ZRing[R]](c *circuit.Circuit, name string, in *circuit.Stream[zset.ZSet[P, R]], pair func(P) (K, V)) *circuit.Stream[zset.IndexedZSet[K, V, R]] {
	return Apply(c, name, in, func(z zset.ZSet[P, R]) zset.IndexedZSet[K, V, R] {
		var out []layers.KVTuple[K, V, R]
		cur := z.Cursor()
		for cur.KeyValid() {
			k, v := pair(cur.Key())
			out = append(out, layers.KVTuple[K, V, R]{Key: k, Val: v, Weight: cur.Weight()})
			cur.StepKey()
		}
		return zset.IndexedFromTuples[K, V, R](z.Time(), out)
	})
}
