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

// Package operator implements the incremental relational operator kernel
// (§4.5): primitive stream operators, the filter/map family, join,
// distinct, aggregate/group-transform, windowing and index/shard, all
// built on top of package circuit's graph primitives and package zset's
// value types.
package operator

import (
	"github.com/erigontech/dbsp-go/circuit"
	"github.com/erigontech/dbsp-go/zset"
)

// Delta is satisfied by every stream value type the primitive operators
// below are generic over: zset.ZSet and zset.IndexedZSet both implement
// it. It mirrors algebra.Group's shape (§4.1) at the batch level rather
// than the scalar-weight level.
type Delta[T any] interface {
	IsEmpty() bool
	Add(other T) T
	Negate() T
}

// Accumulable is satisfied by zset.ZSet and zset.IndexedZSet: both can
// hand out a spine-backed running-total accumulator (§3.4, §4.3), the
// mechanism Integrate uses below to fold in each delta without an
// Add/Merge over the whole accumulated value.
type Accumulable[T any] interface {
	NewAccumulator() zset.Accumulator[T]
}

// Integrate maintains the cumulative sum of every delta seen so far
// (§4.5.1) by folding each delta into a trace.Spine through a single
// accumulator held across steps, rather than replaying a full
// Add/Merge over the entire accumulated value on every step -- the
// spine amortizes merge cost across insertions (§3.4). Every step also
// emits the full accumulated value through acc.Value(), which walks the
// whole spine, so a step's cost grows with the accumulated total, not
// only with the incoming delta. zero seeds
// the accumulator's starting time; its value is otherwise unused since
// the spine starts empty.
func Integrate[T Accumulable[T]](c *circuit.Circuit, name string, in *circuit.Stream[T], zero T) *circuit.Stream[T] {
	acc := zero.NewAccumulator()
	return circuit.AddUnary(c, name, in, circuit.Indifferent, func(delta T) T {
		acc.Insert(delta)
		return acc.Value()
	})
}

// Differentiate is integrate's inverse: `x - delay(x)`. The identity
// differentiate(integrate(s)) == s must hold at every step (§8 item 5).
func Differentiate[T Delta[T]](c *circuit.Circuit, name string, in *circuit.Stream[T], zero T) *circuit.Stream[T] {
	delayed := circuit.AddDelay(c, name+".z-1", in, zero)
	return circuit.AddBinary(c, name, in, delayed, func(a, b T) T { return a.Add(b.Negate()) })
}

// NestedIntegrate/NestedDifferentiate are the same operations keyed on
// the circuit's inner clock: they reset when the outer clock ticks
// (§4.5.1, §3.5). Concretely this means the accumulator and delay state
// must be cleared at ClockStart(0); circuit.AddDelay's state already does
// this, and Integrate's accumulator does not itself observe clock
// boundaries, so nested use goes through NestedIntegrate instead, which
// builds a fresh accumulator inside the child circuit supplied by
// circuit.AddNestedCircuit -- a circuit built per outer step carries no
// accumulator state over from the previous step, satisfying the reset
// requirement structurally rather than via an explicit clock hook.
func NestedIntegrate[T Accumulable[T]](child *circuit.Circuit, name string, in *circuit.Stream[T], zero T) *circuit.Stream[T] {
	return Integrate(child, name, in, zero)
}

func NestedDifferentiate[T Delta[T]](child *circuit.Circuit, name string, in *circuit.Stream[T], zero T) *circuit.Stream[T] {
	return Differentiate(child, name, in, zero)
}

// Apply lifts a pure single-step function with no state (§4.5.1).
func Apply[T, U any](c *circuit.Circuit, name string, in *circuit.Stream[T], f func(T) U) *circuit.Stream[U] {
	return circuit.AddUnary(c, name, in, circuit.Indifferent, f)
}

// Apply2 lifts a pure two-input function with no state.
func Apply2[T, U, V any](c *circuit.Circuit, name string, a *circuit.Stream[T], b *circuit.Stream[U], f func(T, U) V) *circuit.Stream[V] {
	return circuit.AddBinary(c, name, a, b, f)
}

// Plus is the pointwise-weight-addition algebraic lift.
func Plus[T Delta[T]](c *circuit.Circuit, name string, a, b *circuit.Stream[T]) *circuit.Stream[T] {
	return circuit.AddBinary(c, name, a, b, func(x, y T) T { return x.Add(y) })
}

// Minus is `a + (-b)`.
func Minus[T Delta[T]](c *circuit.Circuit, name string, a, b *circuit.Stream[T]) *circuit.Stream[T] {
	return circuit.AddBinary(c, name, a, b, func(x, y T) T { return x.Add(y.Negate()) })
}

// Sum folds n streams of the same type by repeated Plus.
func Sum[T Delta[T]](c *circuit.Circuit, name string, zero T, streams ...*circuit.Stream[T]) *circuit.Stream[T] {
	if len(streams) == 0 {
		return circuit.AddSource(c, name, func() T { return zero })
	}
	acc := streams[0]
	for i := 1; i < len(streams); i++ {
		acc = Plus(c, name, acc, streams[i])
	}
	return acc
}
