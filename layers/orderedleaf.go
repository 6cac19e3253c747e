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

package layers

import (
	"github.com/erigontech/dbsp-go/algebra"
	"github.com/erigontech/dbsp-go/clock"
)

// OrderedLeaf is the canonical ordered-trie representation of a Z-set: keys
// strictly ascending, one weight per key, no zero-weight entries (§3.2,
// §3.3). Val() on its cursor always yields the zero value of struct{}.
type OrderedLeaf[K any, R algebra.ZRing[R]] struct {
	less func(a, b K) bool
	vals []Tuple[K, R]
	time clock.Time
}

// NewOrderedLeaf wraps already-sorted, already-consolidated tuples. Callers
// that do not know their input is sorted must go through
// NewOrderedLeafFromTuples instead.
func NewOrderedLeaf[K any, R algebra.ZRing[R]](less func(a, b K) bool, t clock.Time, sorted []Tuple[K, R]) *OrderedLeaf[K, R] {
	return &OrderedLeaf[K, R]{less: less, vals: sorted, time: t}
}

// NewOrderedLeafFromTuples builds a batch via the tuple builder: sorts and
// consolidates arbitrarily-ordered (item, weight) pairs (§3.3's "tuple
// builder").
func NewOrderedLeafFromTuples[K any, R algebra.ZRing[R]](less func(a, b K) bool, t clock.Time, tuples []Tuple[K, R]) *OrderedLeaf[K, R] {
	cp := make([]Tuple[K, R], len(tuples))
	copy(cp, tuples)
	return NewOrderedLeaf(less, t, Consolidate(cp, less))
}

func (o *OrderedLeaf[K, R]) Keys() int    { return len(o.vals) }
func (o *OrderedLeaf[K, R]) Tuples() int  { return len(o.vals) }
func (o *OrderedLeaf[K, R]) IsEmpty() bool { return len(o.vals) == 0 }
func (o *OrderedLeaf[K, R]) Time() clock.Time { return o.time }

// Vals exposes the underlying sorted tuple slice read-only, used by merge
// builders and by the spine's composite cursor.
func (o *OrderedLeaf[K, R]) Vals() []Tuple[K, R] { return o.vals }

func (o *OrderedLeaf[K, R]) Cursor() Cursor[K, struct{}, R] {
	return &orderedLeafCursor[K, R]{leaf: o, pos: 0}
}

// Merge returns the pointwise weight-sum of o and other, with zero-weight
// entries removed -- same semantics as the tuple-builder consolidation,
// implemented here as a merge-builder interleave of two already-sorted
// cursors (§4.2).
func (o *OrderedLeaf[K, R]) Merge(other Batch[K, struct{}, R]) Batch[K, struct{}, R] {
	rhs, ok := other.(*OrderedLeaf[K, R])
	if !ok {
		panic("layers: OrderedLeaf.Merge called with incompatible batch type")
	}
	out := make([]Tuple[K, R], 0, len(o.vals)+len(rhs.vals))
	i, j := 0, 0
	for i < len(o.vals) && j < len(rhs.vals) {
		switch {
		case o.less(o.vals[i].Item, rhs.vals[j].Item):
			out = append(out, o.vals[i])
			i++
		case o.less(rhs.vals[j].Item, o.vals[i].Item):
			out = append(out, rhs.vals[j])
			j++
		default:
			w := o.vals[i].Weight.Add(rhs.vals[j].Weight)
			if !w.IsZero() {
				out = append(out, Tuple[K, R]{Item: o.vals[i].Item, Weight: w})
			}
			i++
			j++
		}
	}
	out = append(out, o.vals[i:]...)
	out = append(out, rhs.vals[j:]...)
	return NewOrderedLeaf(o.less, o.time, out)
}

func (o *OrderedLeaf[K, R]) RecedeTo(frontier clock.Time) Batch[K, struct{}, R] {
	if frontier.IsUnit() || o.time.IsUnit() {
		return o
	}
	return o
}

// Negate returns -o: every weight negated, same support.
func (o *OrderedLeaf[K, R]) Negate() *OrderedLeaf[K, R] {
	out := make([]Tuple[K, R], len(o.vals))
	for i, v := range o.vals {
		out[i] = Tuple[K, R]{Item: v.Item, Weight: v.Weight.Neg()}
	}
	return NewOrderedLeaf(o.less, o.time, out)
}

// Distinct sets every positive weight to one and drops non-positive
// weights (§3.2).
func (o *OrderedLeaf[K, R]) Distinct() *OrderedLeaf[K, R] {
	var zero R
	oneR := zero.One()

	out := make([]Tuple[K, R], 0, len(o.vals))
	for _, v := range o.vals {
		if v.Weight.IsPositive() {
			out = append(out, Tuple[K, R]{Item: v.Item, Weight: oneR})
		}
	}
	return NewOrderedLeaf(o.less, o.time, out)
}

type orderedLeafCursor[K any, R algebra.ZRing[R]] struct {
	leaf *OrderedLeaf[K, R]
	pos  int
	// valDone marks the current key's single value as stepped past.
	valDone bool
}

func (c *orderedLeafCursor[K, R]) KeyValid() bool { return c.pos < len(c.leaf.vals) }
func (c *orderedLeafCursor[K, R]) ValValid() bool { return c.pos < len(c.leaf.vals) && !c.valDone }
func (c *orderedLeafCursor[K, R]) Key() K         { return c.leaf.vals[c.pos].Item }
func (c *orderedLeafCursor[K, R]) Val() struct{}  { return struct{}{} }
func (c *orderedLeafCursor[K, R]) Weight() R      { return c.leaf.vals[c.pos].Weight }

func (c *orderedLeafCursor[K, R]) StepKey() { c.pos++; c.valDone = false }
func (c *orderedLeafCursor[K, R]) StepVal() { c.valDone = true }

func (c *orderedLeafCursor[K, R]) SeekKey(key K) {
	c.pos += Advance(c.leaf.vals[c.pos:], func(t Tuple[K, R]) bool {
		return c.leaf.less(t.Item, key)
	})
	c.valDone = false
}

func (c *orderedLeafCursor[K, R]) SeekVal(struct{}) {}

func (c *orderedLeafCursor[K, R]) RewindKeys() { c.pos = 0; c.valDone = false }
func (c *orderedLeafCursor[K, R]) RewindVals() { c.valDone = false }
