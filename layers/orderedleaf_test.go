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

func lessInt(a, b int) bool { return a < b }

func w(v int64) algebra.Checked[int64] { return algebra.NewChecked(v) }

func tuples(pairs ...[2]int64) []Tuple[int, algebra.Checked[int64]] {
	out := make([]Tuple[int, algebra.Checked[int64]], len(pairs))
	for i, p := range pairs {
		out[i] = Tuple[int, algebra.Checked[int64]]{Item: int(p[0]), Weight: w(p[1])}
	}
	return out
}

func collect(c Cursor[int, struct{}, algebra.Checked[int64]]) []Tuple[int, algebra.Checked[int64]] {
	var out []Tuple[int, algebra.Checked[int64]]
	for c.KeyValid() {
		out = append(out, Tuple[int, algebra.Checked[int64]]{Item: c.Key(), Weight: c.Weight()})
		c.StepKey()
	}
	return out
}

func TestOrderedLeafOrderingAndZeroElision(t *testing.T) {
	leaf := NewOrderedLeafFromTuples(lessInt, clock.Unit(), tuples([2]int64{3, 1}, [2]int64{1, 1}, [2]int64{2, -1}, [2]int64{2, 1}))
	got := collect(leaf.Cursor())
	require.Equal(t, tuples([2]int64{1, 1}, [2]int64{3, 1}), got)

	for i := 1; i < len(got); i++ {
		require.Less(t, got[i-1].Item, got[i].Item)
	}
	for _, tup := range got {
		require.False(t, tup.Weight.IsZero())
	}
}

func TestOrderedLeafAdditiveInverse(t *testing.T) {
	leaf := NewOrderedLeafFromTuples(lessInt, clock.Unit(), tuples([2]int64{1, 2}, [2]int64{5, -3}))
	sum := leaf.Merge(leaf.Negate()).(*OrderedLeaf[int, algebra.Checked[int64]])
	require.True(t, sum.IsEmpty())
	require.Equal(t, leaf.Time(), sum.Time())
}

func TestOrderedLeafMergeDoublesSelf(t *testing.T) {
	leaf := NewOrderedLeafFromTuples(lessInt, clock.Unit(), tuples([2]int64{1, 2}))
	doubled := leaf.Merge(leaf).(*OrderedLeaf[int, algebra.Checked[int64]])
	require.Equal(t, tuples([2]int64{1, 4}), collect(doubled.Cursor()))
}

func TestOrderedLeafConsolidationIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(rt, "n")
		var in []Tuple[int, algebra.Checked[int64]]
		for i := 0; i < n; i++ {
			k := rapid.IntRange(-5, 5).Draw(rt, "k")
			v := rapid.Int64Range(-5, 5).Draw(rt, "v")
			in = append(in, Tuple[int, algebra.Checked[int64]]{Item: k, Weight: w(v)})
		}
		once := NewOrderedLeafFromTuples(lessInt, clock.Unit(), in)
		again := NewOrderedLeafFromTuples(lessInt, clock.Unit(), collect(once.Cursor()))
		require.Equal(t, collect(once.Cursor()), collect(again.Cursor()))

		// ordering + zero elision hold for arbitrary random input too.
		prev := collect(once.Cursor())
		for i := 1; i < len(prev); i++ {
			require.True(rt, prev[i-1].Item < prev[i].Item)
		}
		for _, tup := range prev {
			require.False(rt, tup.Weight.IsZero())
		}
	})
}

func TestAdvanceGallopsLikeLinearScan(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 200).Draw(rt, "n")
		s := make([]int, n)
		for i := range s {
			s[i] = i
		}
		threshold := rapid.IntRange(-1, n+1).Draw(rt, "threshold")
		got := Advance(s, func(v int) bool { return v < threshold })

		want := 0
		for _, v := range s {
			if v < threshold {
				want++
			} else {
				break
			}
		}
		require.Equal(rt, want, got)
	})
}
