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
	"github.com/erigontech/dbsp-go/clock"
	"github.com/erigontech/dbsp-go/layers"
	"github.com/erigontech/dbsp-go/zset"
	"golang.org/x/exp/constraints"
)

// Distinct maps every positive-weight key to weight one and drops
// non-positive-weight keys (§3.2, §4.5.4).
func Distinct[K constraints.Ordered, R algebra.ZRing[R]](c *circuit.Circuit, name string, in *circuit.Stream[zset.ZSet[K, R]]) *circuit.Stream[zset.ZSet[K, R]] {
	return Apply(c, name, in, func(z zset.ZSet[K, R]) zset.ZSet[K, R] { return z.Distinct() })
}

// DistinctIncremental accepts a delta stream and emits, for each key
// touched by the delta, a weight transition computed from the key's old
// weight (held in a delayed integrated trace) and its new weight
// (old + delta) (§4.5.4, §8 item 7, §8 scenario S1):
//
//	w_old <= 0 && w_new > 0  ->  (k, +1)
//	w_old >  0 && w_new <= 0 ->  (k, -1)
//	otherwise                ->  nothing
func DistinctIncremental[K constraints.Ordered, R algebra.ZRing[R]](c *circuit.Circuit, name string, a *circuit.Stream[zset.ZSet[K, R]]) *circuit.Stream[zset.ZSet[K, R]] {
	zero := zset.Empty[K, R](clock.Unit())
	bigA := Integrate(c, name+".I(a)", a, zero)
	delayedBigA := circuit.AddDelay(c, name+".z-1(I(a))", bigA, zero)

	return circuit.AddBinary(c, name, a, delayedBigA, func(delta zset.ZSet[K, R], oldTotal zset.ZSet[K, R]) zset.ZSet[K, R] {
		var out []layers.Tuple[K, R]
		cur := delta.Cursor()
		for cur.KeyValid() {
			key := cur.Key()
			wOld := oldTotal.Weight(key)
			wNew := wOld.Add(cur.Weight())
			switch {
			case !wOld.IsPositive() && wNew.IsPositive():
				out = append(out, layers.Tuple[K, R]{Item: key, Weight: oneWeight[R]()})
			case wOld.IsPositive() && !wNew.IsPositive():
				out = append(out, layers.Tuple[K, R]{Item: key, Weight: oneWeight[R]().Neg()})
			}
			cur.StepKey()
		}
		return zset.FromTuples[K, R](delta.Time(), out)
	})
}

// NestedDistinctIncremental is NestedDifferentiate(Distinct(
// NestedIntegrate(a))) (§4.5.4): it applies the non-incremental Distinct
// to the nested integral; DistinctIncremental is not used here.
func NestedDistinctIncremental[K constraints.Ordered, R algebra.ZRing[R]](child *circuit.Circuit, name string, a *circuit.Stream[zset.ZSet[K, R]]) *circuit.Stream[zset.ZSet[K, R]] {
	zero := zset.Empty[K, R](clock.Unit())
	upA := NestedIntegrate(child, name+".upI(a)", a, zero)
	distinctUpA := Distinct(child, name+".distinct", upA)
	return NestedDifferentiate(child, name, distinctUpA, zero)
}

// oneWeight returns the multiplicative identity for R via algebra.Ring's
// One, so it works for any ZRing implementation rather than a closed set
// of concrete types.
func oneWeight[R algebra.ZRing[R]]() R {
	var z R
	return z.One()
}
