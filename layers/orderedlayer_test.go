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
	"testing"

	"github.com/erigontech/dbsp-go/algebra"
	"github.com/erigontech/dbsp-go/clock"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func kv(k, v int, weight int64) KVTuple[int, int, algebra.Checked[int64]] {
	return KVTuple[int, int, algebra.Checked[int64]]{Key: k, Val: v, Weight: w(weight)}
}

func collectKV(o *OrderedLayer[int, int, algebra.Checked[int64]]) []KVTuple[int, int, algebra.Checked[int64]] {
	var out []KVTuple[int, int, algebra.Checked[int64]]
	c := o.Cursor()
	for c.KeyValid() {
		for c.ValValid() {
			out = append(out, KVTuple[int, int, algebra.Checked[int64]]{Key: c.Key(), Val: c.Val(), Weight: c.Weight()})
			c.StepVal()
		}
		c.StepKey()
	}
	return out
}

func TestOrderedLayerGroupsAndOrdersWithinKey(t *testing.T) {
	in := []KVTuple[int, int, algebra.Checked[int64]]{
		kv(2, 9, 1), kv(1, 3, 1), kv(1, 1, 1), kv(2, 1, 1),
	}
	o := NewOrderedLayerFromTuples(lessInt, lessInt, clock.Unit(), in)
	require.Equal(t, []KVTuple[int, int, algebra.Checked[int64]]{
		kv(1, 1, 1), kv(1, 3, 1), kv(2, 1, 1), kv(2, 9, 1),
	}, collectKV(o))
}

func TestOrderedLayerConsolidatesDuplicatesAndElidesZero(t *testing.T) {
	in := []KVTuple[int, int, algebra.Checked[int64]]{
		kv(1, 1, 1), kv(1, 1, -1), kv(1, 2, 3), kv(1, 2, -1),
	}
	o := NewOrderedLayerFromTuples(lessInt, lessInt, clock.Unit(), in)
	require.Equal(t, []KVTuple[int, int, algebra.Checked[int64]]{kv(1, 2, 2)}, collectKV(o))
}

func TestOrderedLayerDropsKeyWithEmptyValueGroup(t *testing.T) {
	in := []KVTuple[int, int, algebra.Checked[int64]]{
		kv(1, 1, 1), kv(1, 1, -1), kv(2, 5, 1),
	}
	o := NewOrderedLayerFromTuples(lessInt, lessInt, clock.Unit(), in)
	require.Equal(t, 1, o.Keys())
	got := collectKV(o)
	require.Equal(t, []KVTuple[int, int, algebra.Checked[int64]]{kv(2, 5, 1)}, got)
}

func TestOrderedLayerLookup(t *testing.T) {
	in := []KVTuple[int, int, algebra.Checked[int64]]{kv(1, 10, 1), kv(1, 20, 1), kv(3, 30, 1)}
	o := NewOrderedLayerFromTuples(lessInt, lessInt, clock.Unit(), in)

	vals, ok := o.Lookup(1)
	require.True(t, ok)
	require.Len(t, vals, 2)

	_, ok = o.Lookup(2)
	require.False(t, ok)
}

func TestOrderedLayerMergeSumsWeights(t *testing.T) {
	a := NewOrderedLayerFromTuples(lessInt, lessInt, clock.Unit(), []KVTuple[int, int, algebra.Checked[int64]]{kv(1, 1, 2)})
	b := NewOrderedLayerFromTuples(lessInt, lessInt, clock.Unit(), []KVTuple[int, int, algebra.Checked[int64]]{kv(1, 1, 3), kv(1, 2, 1)})
	merged := a.Merge(b).(*OrderedLayer[int, int, algebra.Checked[int64]])
	require.Equal(t, []KVTuple[int, int, algebra.Checked[int64]]{kv(1, 1, 5), kv(1, 2, 1)}, collectKV(merged))
}

func TestOrderedLayerNegate(t *testing.T) {
	o := NewOrderedLayerFromTuples(lessInt, lessInt, clock.Unit(), []KVTuple[int, int, algebra.Checked[int64]]{kv(1, 1, 2)})
	neg := o.Negate()
	sum := o.Merge(neg).(*OrderedLayer[int, int, algebra.Checked[int64]])
	require.True(t, sum.IsEmpty())
}

// Building from an arbitrarily shuffled input must yield the same grouped,
// ordered, zero-elided result regardless of input order -- the staging
// tree's comparator is a strict total order (ties broken by sequence), so
// result shape never depends on which duplicate arrived first.
func TestOrderedLayerBuildIsOrderIndependent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(rt, "n")
		in := make([]KVTuple[int, int, algebra.Checked[int64]], n)
		for i := range in {
			in[i] = kv(
				rapid.IntRange(-4, 4).Draw(rt, "k"),
				rapid.IntRange(-4, 4).Draw(rt, "v"),
				rapid.Int64Range(-3, 3).Draw(rt, "w"),
			)
		}
		shuffled := append([]KVTuple[int, int, algebra.Checked[int64]](nil), in...)
		for i := len(shuffled) - 1; i > 0; i-- {
			j := rapid.IntRange(0, i).Draw(rt, "swap")
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		}

		want := NewOrderedLayerFromTuples(lessInt, lessInt, clock.Unit(), in)
		got := NewOrderedLayerFromTuples(lessInt, lessInt, clock.Unit(), shuffled)
		require.Equal(rt, collectKV(want), collectKV(got))

		prev := collectKV(got)
		for i := 1; i < len(prev); i++ {
			require.False(rt, prev[i].Key == prev[i-1].Key && !lessInt(prev[i-1].Val, prev[i].Val))
		}
	})
}
