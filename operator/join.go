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

// Join is the non-incremental algorithm (§4.5.3): it walks a's keys in
// order and looks each one up in b with b.Values(key); b's keys are not
// walked in step with a's. For every common key it runs a nested loop over
// the two value layers. Entries are `(f(k, v1, v2), w1*w2)` for every pair
// of matching key and two values.
func Join[K, V1, V2 constraints.Ordered, O constraints.Ordered, R algebra.ZRing[R]](a zset.IndexedZSet[K, V1, R], b zset.IndexedZSet[K, V2, R], f func(K, V1, V2) O) zset.ZSet[O, R] {
	var out []layers.Tuple[O, R]
	ca := a.Cursor()
	for ca.KeyValid() {
		key := ca.Key()
		bVals := b.Values(key)
		if bVals.IsEmpty() {
			ca.StepKey()
			continue
		}
		for ca.ValValid() {
			v1 := ca.Val()
			w1 := ca.Weight()
			bc := bVals.Cursor()
			for bc.KeyValid() {
				v2 := bc.Key()
				w2 := bc.Weight()
				out = append(out, layers.Tuple[O, R]{Item: f(key, v1, v2), Weight: algebra.MulByRef(&w1, &w2)})
				bc.StepKey()
			}
			ca.StepVal()
		}
		ca.StepKey()
	}
	return zset.FromTuples[O, R](a.Time(), out)
}

// JoinIncremental implements `Δ(A⋈B) = a⋈z⁻¹(B) + z⁻¹(A)⋈b + a⋈b` (§4.5.3,
// §8 item 6): three non-incremental joins against integrated/delayed
// traces plus a pointwise sum.
func JoinIncremental[K, V1, V2 constraints.Ordered, O constraints.Ordered, R algebra.ZRing[R]](
	c *circuit.Circuit, name string,
	a *circuit.Stream[zset.IndexedZSet[K, V1, R]],
	b *circuit.Stream[zset.IndexedZSet[K, V2, R]],
	f func(K, V1, V2) O,
) *circuit.Stream[zset.ZSet[O, R]] {
	zeroA := zset.IndexedEmpty[K, V1, R](clock.Unit())
	zeroB := zset.IndexedEmpty[K, V2, R](clock.Unit())

	bigA := Integrate(c, name+".I(a)", a, zeroA)
	bigB := Integrate(c, name+".I(b)", b, zeroB)
	delayedA := circuit.AddDelay(c, name+".z-1(A)", bigA, zeroA)
	delayedB := circuit.AddDelay(c, name+".z-1(B)", bigB, zeroB)

	term1 := circuit.AddBinary(c, name+".a_join_z-1B", a, delayedB, func(av zset.IndexedZSet[K, V1, R], bv zset.IndexedZSet[K, V2, R]) zset.ZSet[O, R] {
		return Join(av, bv, f)
	})
	term2 := circuit.AddBinary(c, name+".z-1A_join_b", delayedA, b, func(av zset.IndexedZSet[K, V1, R], bv zset.IndexedZSet[K, V2, R]) zset.ZSet[O, R] {
		return Join(av, bv, f)
	})
	term3 := circuit.AddBinary(c, name+".a_join_b", a, b, func(av zset.IndexedZSet[K, V1, R], bv zset.IndexedZSet[K, V2, R]) zset.ZSet[O, R] {
		return Join(av, bv, f)
	})

	sum12 := Plus(c, name+".sum12", term1, term2)
	return Plus(c, name+".sum", sum12, term3)
}

// JoinIncrementalNested implements the four-term nested-clock expansion
// (§4.5.3):
//
//	Δ²(A⋈B) = I(↑I(a))⋈b + ↑I(a)⋈I(z⁻¹(b)) + a⋈I(↑I(↑z⁻¹(b))) + I(z⁻¹(a))⋈↑I(↑z⁻¹(b))
//
// where I is integrate, ↑I is nested integrate and z⁻¹ is delay. child
// must be the nested circuit scope a and b live in.
func JoinIncrementalNested[K, V1, V2 constraints.Ordered, O constraints.Ordered, R algebra.ZRing[R]](
	child *circuit.Circuit, name string,
	a *circuit.Stream[zset.IndexedZSet[K, V1, R]],
	b *circuit.Stream[zset.IndexedZSet[K, V2, R]],
	f func(K, V1, V2) O,
) *circuit.Stream[zset.ZSet[O, R]] {
	zeroA := zset.IndexedEmpty[K, V1, R](clock.Unit())
	zeroB := zset.IndexedEmpty[K, V2, R](clock.Unit())

	upA := NestedIntegrate(child, name+".upI(a)", a, zeroA)
	IUpA := Integrate(child, name+".I(upI(a))", upA, zeroA)

	delayedB := circuit.AddDelay(child, name+".z-1(b)", b, zeroB)
	IDelayedB := Integrate(child, name+".I(z-1(b))", delayedB, zeroB)

	upDelayedB := NestedIntegrate(child, name+".upz-1(b)", delayedB, zeroB)
	upUpDelayedB := NestedIntegrate(child, name+".up(up(z-1(b)))", upDelayedB, zeroB)
	IUpUpDelayedB := Integrate(child, name+".I(up(up(z-1(b))))", upUpDelayedB, zeroB)

	delayedA := circuit.AddDelay(child, name+".z-1(a)", a, zeroA)
	IDelayedA := Integrate(child, name+".I(z-1(a))", delayedA, zeroA)

	t1 := circuit.AddBinary(child, name+".t1", IUpA, b, func(av zset.IndexedZSet[K, V1, R], bv zset.IndexedZSet[K, V2, R]) zset.ZSet[O, R] {
		return Join(av, bv, f)
	})
	t2 := circuit.AddBinary(child, name+".t2", upA, IDelayedB, func(av zset.IndexedZSet[K, V1, R], bv zset.IndexedZSet[K, V2, R]) zset.ZSet[O, R] {
		return Join(av, bv, f)
	})
	t3 := circuit.AddBinary(child, name+".t3", a, IUpUpDelayedB, func(av zset.IndexedZSet[K, V1, R], bv zset.IndexedZSet[K, V2, R]) zset.ZSet[O, R] {
		return Join(av, bv, f)
	})
	t4 := circuit.AddBinary(child, name+".t4", IDelayedA, upUpDelayedB, func(av zset.IndexedZSet[K, V1, R], bv zset.IndexedZSet[K, V2, R]) zset.ZSet[O, R] {
		return Join(av, bv, f)
	})

	s12 := Plus(child, name+".s12", t1, t2)
	s34 := Plus(child, name+".s34", t3, t4)
	return Plus(child, name+".s", s12, s34)
}

// HashJoin probes an unordered-leaf side index keyed by hash of K instead
// of walking an ordered trie, trading ordering guarantees for avoiding
// the sorted-trie seek cost on large key spaces; external semantics are
// identical to Join (§4.5.3, §9: "hash-join's internal cursor design is
// left to the implementer").
func HashJoin[K comparable, V1, V2 any, O constraints.Ordered, R algebra.ZRing[R]](
	a zset.IndexedZSet[K, V1, R], probe *layers.UnorderedLeaf[K, R], aValues map[K][]layers.Tuple[V1, R], bValues map[K][]layers.Tuple[V2, R],
	f func(K, V1, V2) O,
) zset.ZSet[O, R] {
	var out []layers.Tuple[O, R]
	for k, v1s := range aValues {
		if _, ok := probe.Probe(k); !ok {
			continue
		}
		v2s, ok := bValues[k]
		if !ok {
			continue
		}
		for _, t1 := range v1s {
			for _, t2 := range v2s {
				out = append(out, layers.Tuple[O, R]{Item: f(k, t1.Item, t2.Item), Weight: algebra.MulByRef(&t1.Weight, &t2.Weight)})
			}
		}
	}
	return zset.FromTuples[O, R](a.Time(), out)
}
