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

// Bounds is a half-open window [Lo, Hi) over an ordered key space.
type Bounds[K constraints.Ordered] struct {
	Lo, Hi K
}

// WatermarkMonotonic maintains a per-stream scalar that never decreases,
// emitted on each step as max(previous, f(current)) (§4.5.6).
func WatermarkMonotonic[K constraints.Ordered, R algebra.ZRing[R]](c *circuit.Circuit, name string, in *circuit.Stream[zset.ZSet[K, R]], f func(zset.ZSet[K, R]) K, zero K) *circuit.Stream[K] {
	prev, closeLoop := circuit.AddFeedback(c, name, zero)
	next := circuit.AddBinary(c, name+".max", in, prev, func(z zset.ZSet[K, R], p K) K {
		v := f(z)
		if v < p {
			return p
		}
		return v
	})
	closeLoop(next)
	return next
}

// Window restricts an indexed Z-set stream to keys in [lo, hi), where the
// bounds arrive on a companion scalar stream (§4.5.6).
func Window[K, V constraints.Ordered, R algebra.ZRing[R]](c *circuit.Circuit, name string, in *circuit.Stream[zset.IndexedZSet[K, V, R]], bounds *circuit.Stream[Bounds[K]]) *circuit.Stream[zset.IndexedZSet[K, V, R]] {
	return circuit.AddBinary(c, name, in, bounds, func(iz zset.IndexedZSet[K, V, R], b Bounds[K]) zset.IndexedZSet[K, V, R] {
		var out []layers.KVTuple[K, V, R]
		cur := iz.Cursor()
		for cur.KeyValid() {
			key := cur.Key()
			if key >= b.Lo && key < b.Hi {
				for cur.ValValid() {
					out = append(out, layers.KVTuple[K, V, R]{Key: key, Val: cur.Val(), Weight: cur.Weight()})
					cur.StepVal()
				}
			} else {
				for cur.ValValid() {
					cur.StepVal()
				}
			}
			cur.StepKey()
		}
		return zset.IndexedFromTuples[K, V, R](iz.Time(), out)
	})
}

// Hop produces a stream of fixed-width, fixed-step windowed Z-sets on top
// of Window/WatermarkMonotonic, fed to incremental aggregates downstream
// (§4.5.6). Each step's window is [step(w), width(step(w))) for the
// current watermark w; Tumble is the case where step returns w unchanged.
func Hop[K constraints.Ordered, V constraints.Ordered, R algebra.ZRing[R]](
	c *circuit.Circuit, name string, in *circuit.Stream[zset.IndexedZSet[K, V, R]], watermark *circuit.Stream[K],
	width, step func(lo K) K,
) *circuit.Stream[zset.IndexedZSet[K, V, R]] {
	bounds := Apply(c, name+".bounds", watermark, func(lo K) Bounds[K] {
		return Bounds[K]{Lo: step(lo), Hi: width(step(lo))}
	})
	return Window(c, name, in, bounds)
}

// Tumble is Hop with an identity step: each window is [w, width(w)) for
// the current watermark w.
func Tumble[K constraints.Ordered, V constraints.Ordered, R algebra.ZRing[R]](
	c *circuit.Circuit, name string, in *circuit.Stream[zset.IndexedZSet[K, V, R]], watermark *circuit.Stream[K], width func(lo K) K,
) *circuit.Stream[zset.IndexedZSet[K, V, R]] {
	return Hop(c, name, in, watermark, width, func(lo K) K { return lo })
}
