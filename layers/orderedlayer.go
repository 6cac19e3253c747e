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
	"github.com/google/btree"
)

// stagingEntry pairs a tuple with its original input position so the
// staging tree below has a strict total order even when two input tuples
// share the same (key, val) -- ties are broken by input sequence, which is
// irrelevant to the result since the consolidation pass that follows sums
// every such pair's weight anyway.
type stagingEntry[K, V any, R algebra.ZRing[R]] struct {
	tuple KVTuple[K, V, R]
	seq   int
}

// KVTuple is a single (key, value, weight) triple accepted when building an
// OrderedLayer from unordered input.
type KVTuple[K, V any, R any] struct {
	Key    K
	Val    V
	Weight R
}

// OrderedLayer is the canonical ordered-trie representation of an indexed
// Z-set: keys strictly ascending, and for each key its values strictly
// ascending with no zero-weight entries (§3.2, §3.3). Keys are stored once
// with an offset range into a shared, flat value array -- the normal-form
// "trie of two layers" the spec describes.
type OrderedLayer[K, V any, R algebra.ZRing[R]] struct {
	keyLess func(a, b K) bool
	valLess func(a, b V) bool
	keys    []K
	offs    []int // len(keys)+1
	vals    []Tuple[V, R]
	time    clock.Time
}

// NewOrderedLayerFromTuples sorts, groups by key and consolidates
// duplicate (key, value) entries, then builds the offset trie. Keys whose
// entire value group consolidates to empty are dropped, since an indexed
// Z-set elides keys mapping to the empty Z-set.
func NewOrderedLayerFromTuples[K, V any, R algebra.ZRing[R]](
	keyLess func(a, b K) bool,
	valLess func(a, b V) bool,
	t clock.Time,
	tuples []KVTuple[K, V, R],
) *OrderedLayer[K, V, R] {
	staging := btree.NewG[stagingEntry[K, V, R]](32, func(a, b stagingEntry[K, V, R]) bool {
		if keyLess(a.tuple.Key, b.tuple.Key) {
			return true
		}
		if keyLess(b.tuple.Key, a.tuple.Key) {
			return false
		}
		if valLess(a.tuple.Val, b.tuple.Val) {
			return true
		}
		if valLess(b.tuple.Val, a.tuple.Val) {
			return false
		}
		return a.seq < b.seq
	})
	for i, tup := range tuples {
		staging.ReplaceOrInsert(stagingEntry[K, V, R]{tuple: tup, seq: i})
	}
	cp := make([]KVTuple[K, V, R], 0, len(tuples))
	staging.Ascend(func(e stagingEntry[K, V, R]) bool {
		cp = append(cp, e.tuple)
		return true
	})

	out := &OrderedLayer[K, V, R]{keyLess: keyLess, valLess: valLess, time: t}
	i := 0
	for i < len(cp) {
		j := i
		for j < len(cp) && !keyLess(cp[i].Key, cp[j].Key) && !keyLess(cp[j].Key, cp[i].Key) {
			j++
		}
		start := len(out.vals)
		k := i
		for k < j {
			l := k + 1
			w := cp[k].Weight
			for l < j && !valLess(cp[k].Val, cp[l].Val) && !valLess(cp[l].Val, cp[k].Val) {
				w = w.Add(cp[l].Weight)
				l++
			}
			if !w.IsZero() {
				out.vals = append(out.vals, Tuple[V, R]{Item: cp[k].Val, Weight: w})
			}
			k = l
		}
		if len(out.vals) > start {
			out.keys = append(out.keys, cp[i].Key)
			out.offs = append(out.offs, start)
		}
		i = j
	}
	out.offs = append(out.offs, len(out.vals))
	return out
}

func (o *OrderedLayer[K, V, R]) Keys() int   { return len(o.keys) }
func (o *OrderedLayer[K, V, R]) Tuples() int { return len(o.vals) }
func (o *OrderedLayer[K, V, R]) IsEmpty() bool { return len(o.keys) == 0 }
func (o *OrderedLayer[K, V, R]) Time() clock.Time { return o.time }

func (o *OrderedLayer[K, V, R]) Cursor() Cursor[K, V, R] {
	return &orderedLayerCursor[K, V, R]{layer: o, keyPos: 0, valPos: -1}
}

// Merge returns the pointwise weight-sum of o and other (§4.2).
func (o *OrderedLayer[K, V, R]) Merge(other Batch[K, V, R]) Batch[K, V, R] {
	rhs, ok := other.(*OrderedLayer[K, V, R])
	if !ok {
		panic("layers: OrderedLayer.Merge called with incompatible batch type")
	}
	tuples := make([]KVTuple[K, V, R], 0, o.Tuples()+rhs.Tuples())
	for _, layer := range []*OrderedLayer[K, V, R]{o, rhs} {
		for ki, key := range layer.keys {
			lo, hi := layer.offs[ki], layer.offs[ki+1]
			for _, v := range layer.vals[lo:hi] {
				tuples = append(tuples, KVTuple[K, V, R]{Key: key, Val: v.Item, Weight: v.Weight})
			}
		}
	}
	return NewOrderedLayerFromTuples(o.keyLess, o.valLess, o.time, tuples)
}

func (o *OrderedLayer[K, V, R]) RecedeTo(frontier clock.Time) Batch[K, V, R] {
	return o
}

// Negate returns -o.
func (o *OrderedLayer[K, V, R]) Negate() *OrderedLayer[K, V, R] {
	out := &OrderedLayer[K, V, R]{
		keyLess: o.keyLess, valLess: o.valLess, time: o.time,
		keys: append([]K(nil), o.keys...),
		offs: append([]int(nil), o.offs...),
		vals: make([]Tuple[V, R], len(o.vals)),
	}
	for i, v := range o.vals {
		out.vals[i] = Tuple[V, R]{Item: v.Item, Weight: v.Weight.Neg()}
	}
	return out
}

// ValuesForIndex returns the sorted (value, weight) slice for the key at
// index ki of the key array, as Lookup uses it.
func (o *OrderedLayer[K, V, R]) ValuesForIndex(ki int) []Tuple[V, R] {
	return o.vals[o.offs[ki]:o.offs[ki+1]]
}

// Lookup returns the value slice for key, and whether it was found.
func (o *OrderedLayer[K, V, R]) Lookup(key K) ([]Tuple[V, R], bool) {
	i := Advance(o.keys, func(k K) bool { return o.keyLess(k, key) })
	if i < len(o.keys) && !o.keyLess(key, o.keys[i]) && !o.keyLess(o.keys[i], key) {
		return o.ValuesForIndex(i), true
	}
	return nil, false
}

type orderedLayerCursor[K, V any, R algebra.ZRing[R]] struct {
	layer  *OrderedLayer[K, V, R]
	keyPos int
	valPos int // -1 means "not yet positioned within current key"
}

func (c *orderedLayerCursor[K, V, R]) KeyValid() bool { return c.keyPos < len(c.layer.keys) }

func (c *orderedLayerCursor[K, V, R]) curOffs() (int, int) {
	return c.layer.offs[c.keyPos], c.layer.offs[c.keyPos+1]
}

func (c *orderedLayerCursor[K, V, R]) ValValid() bool {
	if !c.KeyValid() {
		return false
	}
	lo, hi := c.curOffs()
	pos := lo
	if c.valPos >= 0 {
		pos = c.valPos
	}
	return pos < hi
}

func (c *orderedLayerCursor[K, V, R]) Key() K { return c.layer.keys[c.keyPos] }

func (c *orderedLayerCursor[K, V, R]) Val() V {
	lo, _ := c.curOffs()
	pos := lo
	if c.valPos >= 0 {
		pos = c.valPos
	}
	return c.layer.vals[pos].Item
}

func (c *orderedLayerCursor[K, V, R]) Weight() R {
	lo, _ := c.curOffs()
	pos := lo
	if c.valPos >= 0 {
		pos = c.valPos
	}
	return c.layer.vals[pos].Weight
}

func (c *orderedLayerCursor[K, V, R]) StepKey() {
	c.keyPos++
	c.valPos = -1
}

func (c *orderedLayerCursor[K, V, R]) StepVal() {
	_, hi := c.curOffs()
	pos := c.valPos
	if pos < 0 {
		pos = c.layer.offs[c.keyPos]
	}
	pos++
	if pos > hi {
		pos = hi
	}
	c.valPos = pos
}

func (c *orderedLayerCursor[K, V, R]) SeekKey(key K) {
	c.keyPos += Advance(c.layer.keys[c.keyPos:], func(k K) bool { return c.layer.keyLess(k, key) })
	c.valPos = -1
}

func (c *orderedLayerCursor[K, V, R]) SeekVal(val V) {
	if !c.KeyValid() {
		return
	}
	lo, hi := c.curOffs()
	start := lo
	if c.valPos >= 0 {
		start = c.valPos
	}
	c.valPos = start + Advance(c.layer.vals[start:hi], func(t Tuple[V, R]) bool {
		return c.layer.valLess(t.Item, val)
	})
}

func (c *orderedLayerCursor[K, V, R]) RewindKeys() {
	c.keyPos = 0
	c.valPos = -1
}

func (c *orderedLayerCursor[K, V, R]) RewindVals() {
	c.valPos = -1
}
