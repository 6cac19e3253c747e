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

// Package algebra defines the abstract operations every weight type, and
// every Z-set-like value, must support: Monoid, Group, Ring and Z-Ring, each
// with by-reference variants so hot loops in the trie/batch layer never
// force a clone of the weight.
package algebra

// Monoid is a set with an associative binary operation and an identity
// element. Zero() must return the additive identity of R.
type Monoid[R any] interface {
	IsZero() bool
	Add(other R) R
	AddAssign(other R) R
}

// Group adds negation to Monoid.
type Group[R any] interface {
	Monoid[R]
	Neg() R
}

// Ring adds multiplicative identity and multiplication to Group. One
// returns the identity itself (not just a predicate testing for it), so
// generic code can produce a unit weight for any concrete R without a
// closed type-switch over the ring's known implementations.
type Ring[R any] interface {
	Group[R]
	IsOne() bool
	One() R
	Mul(other R) R
}

// ZRing is a Ring whose elements additionally support the sign predicates
// `distinct` and incremental join/distinct rely on: is this weight still
// present (> 0) or has it been fully retracted (<= 0)?
type ZRing[R any] interface {
	Ring[R]
	GeZero() bool
	LeZero() bool
	IsPositive() bool
}

// Zero returns the additive identity of R, relying on the Go zero value of
// R coinciding with the monoid identity -- true for every weight
// representation in this package (plain integers and Checked[T] alike).
func Zero[R any]() R {
	var z R
	return z
}

// AddByRef adds two weights without requiring the caller to construct an
// intermediate copy beyond what Go's value semantics already need; kept as
// a free function (mirroring the original's `add_by_ref`) so call sites
// read the same regardless of whether R is a pointer-like or value type.
func AddByRef[R Monoid[R]](a, b *R) R {
	return (*a).Add(*b)
}

// NegByRef mirrors `neg_by_ref`.
func NegByRef[R Group[R]](a *R) R {
	return (*a).Neg()
}

// MulByRef mirrors `mul_by_ref`.
func MulByRef[R Ring[R]](a, b *R) R {
	return (*a).Mul(*b)
}
