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

package trace

import (
	"github.com/erigontech/dbsp-go/algebra"
	"github.com/erigontech/dbsp-go/layers"
)

// compositeCursor is a merge (a linear scan for the least key, not a heap)
// over the per-batch cursors of every level
// in a spine, yielding the same totally-ordered (key, value, weight)
// stream as if all batches had been merged into one (§3.4). Duplicate keys
// across levels are coalesced by weight addition on the fly rather than
// requiring an eager merge.
//
// Ported from the shape of the original's cursor_pair.rs generalized from
// two cursors to N, since a spine may have O(log size) levels rather than
// exactly two siblings.
type compositeCursor[K, V any, R algebra.ZRing[R]] struct {
	subs    []layers.Cursor[K, V, R]
	keyLess func(a, b K) bool
	valLess func(a, b V) bool
}

// mergeCursors builds the composite cursor over subs.
func mergeCursors[K, V any, R algebra.ZRing[R]](subs []layers.Cursor[K, V, R], keyLess func(a, b K) bool, valLess func(a, b V) bool) layers.Cursor[K, V, R] {
	return &compositeCursor[K, V, R]{subs: subs, keyLess: keyLess, valLess: valLess}
}

func (c *compositeCursor[K, V, R]) KeyValid() bool {
	for _, s := range c.subs {
		if s.KeyValid() {
			return true
		}
	}
	return false
}

func (c *compositeCursor[K, V, R]) Key() K {
	var best K
	first := true
	for _, s := range c.subs {
		if s.KeyValid() && (first || c.keyLess(s.Key(), best)) {
			best = s.Key()
			first = false
		}
	}
	return best
}

// atKey reports whether sub s is currently positioned at the composite's
// current key.
func (c *compositeCursor[K, V, R]) atKey(s layers.Cursor[K, V, R], key K) bool {
	return s.KeyValid() && !c.keyLess(s.Key(), key) && !c.keyLess(key, s.Key())
}

func (c *compositeCursor[K, V, R]) ValValid() bool {
	if !c.KeyValid() {
		return false
	}
	key := c.Key()
	for _, s := range c.subs {
		if c.atKey(s, key) && s.ValValid() {
			return true
		}
	}
	return false
}

func (c *compositeCursor[K, V, R]) Val() V {
	key := c.Key()
	var best V
	first := true
	for _, s := range c.subs {
		if c.atKey(s, key) && s.ValValid() && (first || c.valLess(s.Val(), best)) {
			best = s.Val()
			first = false
		}
	}
	return best
}

func (c *compositeCursor[K, V, R]) Weight() R {
	key, val := c.Key(), c.Val()
	var sum R
	first := true
	for _, s := range c.subs {
		if c.atKey(s, key) && s.ValValid() && !c.valLess(s.Val(), val) && !c.valLess(val, s.Val()) {
			if first {
				sum = s.Weight()
				first = false
			} else {
				sum = sum.Add(s.Weight())
			}
		}
	}
	return sum
}

func (c *compositeCursor[K, V, R]) StepKey() {
	key := c.Key()
	for _, s := range c.subs {
		if c.atKey(s, key) {
			s.StepKey()
		}
	}
}

func (c *compositeCursor[K, V, R]) StepVal() {
	if !c.ValValid() {
		return
	}
	key, val := c.Key(), c.Val()
	for _, s := range c.subs {
		if c.atKey(s, key) && s.ValValid() && !c.valLess(s.Val(), val) && !c.valLess(val, s.Val()) {
			s.StepVal()
		}
	}
}

func (c *compositeCursor[K, V, R]) SeekKey(key K) {
	for _, s := range c.subs {
		s.SeekKey(key)
	}
}

func (c *compositeCursor[K, V, R]) SeekVal(val V) {
	for _, s := range c.subs {
		s.SeekVal(val)
	}
}

func (c *compositeCursor[K, V, R]) RewindKeys() {
	for _, s := range c.subs {
		s.RewindKeys()
	}
}

func (c *compositeCursor[K, V, R]) RewindVals() {
	for _, s := range c.subs {
		s.RewindVals()
	}
}
