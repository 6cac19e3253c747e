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

// Package clock defines logical time as a product of non-negative integers,
// one component per circuit nesting depth (§3.5 of the design). Root
// circuits carry a single-component time; a circuit nested k levels deep
// carries a k+1-component time. Ordering is component-wise with
// lexicographic tie-break, outermost component first.
package clock

// Scope is the nesting depth of a clock: 0 for the root circuit, 1 for its
// immediate children, and so on.
type Scope int

// Time is a logical timestamp. An empty Time is the distinguished "unit"
// time used by values that never change across steps (e.g. a constant);
// RecedeTo is always a no-op against the unit time.
type Time []uint64

// Unit returns the distinguished unit time.
func Unit() Time { return nil }

// IsUnit reports whether t is the unit time.
func (t Time) IsUnit() bool { return len(t) == 0 }

// Clone returns an independent copy of t.
func (t Time) Clone() Time {
	if t == nil {
		return nil
	}
	out := make(Time, len(t))
	copy(out, t)
	return out
}

// Less reports whether t precedes other in the product order's
// lexicographic tie-break: compare component by component, outermost
// first; shorter (coarser-scope) prefixes compare as less when they are a
// strict prefix of the longer time.
func (t Time) Less(other Time) bool {
	n := len(t)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if t[i] != other[i] {
			return t[i] < other[i]
		}
	}
	return len(t) < len(other)
}

// LessEqual reports t <= other under the same order as Less.
func (t Time) LessEqual(other Time) bool {
	return t.Equal(other) || t.Less(other)
}

// Equal reports component-wise equality.
func (t Time) Equal(other Time) bool {
	if len(t) != len(other) {
		return false
	}
	for i := range t {
		if t[i] != other[i] {
			return false
		}
	}
	return true
}

// Tick returns the time one step later at the given scope depth, dropping
// all inner (higher-index) components: the result has exactly scope+1
// components, missing outer components being filled with zero before the
// increment.
func (t Time) Tick(scope Scope) Time {
	out := t.Clone()
	for len(out) <= int(scope) {
		out = append(out, 0)
	}
	out[scope]++
	for i := int(scope) + 1; i < len(out); i++ {
		out[i] = 0
	}
	return out[:scope+1]
}
