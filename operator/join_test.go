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
	"testing"

	"github.com/erigontech/dbsp-go/algebra"
	"github.com/erigontech/dbsp-go/clock"
	"github.com/erigontech/dbsp-go/layers"
	"github.com/erigontech/dbsp-go/zset"
	"github.com/stretchr/testify/require"
)

// hashJoinFixtures groups a and b's tuples by key into the per-side value
// maps HashJoin expects, and builds an UnorderedLeaf presence probe over
// b's keys.
func hashJoinFixtures[K comparable, V1, V2 any, R algebra.ZRing[R]](
	a zset.IndexedZSet[K, V1, R], aTuples []layers.KVTuple[K, V1, R], bTuples []layers.KVTuple[K, V2, R],
) (*layers.UnorderedLeaf[K, R], map[K][]layers.Tuple[V1, R], map[K][]layers.Tuple[V2, R]) {
	aValues := make(map[K][]layers.Tuple[V1, R])
	for _, t := range aTuples {
		aValues[t.Key] = append(aValues[t.Key], layers.Tuple[V1, R]{Item: t.Val, Weight: t.Weight})
	}
	bValues := make(map[K][]layers.Tuple[V2, R])
	var presence []layers.Tuple[K, R]
	seen := make(map[K]bool)
	for _, t := range bTuples {
		bValues[t.Key] = append(bValues[t.Key], layers.Tuple[V2, R]{Item: t.Val, Weight: t.Weight})
		if !seen[t.Key] {
			seen[t.Key] = true
			presence = append(presence, layers.Tuple[K, R]{Item: t.Key, Weight: oneWeight[R]()})
		}
	}
	probe := layers.NewUnorderedLeafFromTuples[K, R](a.Time(), presence)
	return probe, aValues, bValues
}

// Per the test-coverage rule, HashJoin needs a real caller driving it
// through actual input; this checks it against Join on equivalent data,
// including a key present only on one side (k=2), which must drop out of
// both outputs identically.
func TestHashJoinMatchesJoin(t *testing.T) {
	aTuples := []layers.KVTuple[int, int, algebra.Checked[int64]]{
		{Key: 0, Val: 1, Weight: ck(1)},
		{Key: 0, Val: 2, Weight: ck(1)},
		{Key: 1, Val: 3, Weight: ck(2)},
		{Key: 2, Val: 9, Weight: ck(1)},
	}
	bTuples := []layers.KVTuple[int, string, algebra.Checked[int64]]{
		{Key: 0, Val: "x", Weight: ck(1)},
		{Key: 1, Val: "y", Weight: ck(1)},
		{Key: 1, Val: "z", Weight: ck(1)},
	}

	a := zset.IndexedFromTuples[int, int, algebra.Checked[int64]](clock.Unit(), aTuples)
	b := zset.IndexedFromTuples[int, string, algebra.Checked[int64]](clock.Unit(), bTuples)

	f := func(k, u int, v string) string { return joinKey(u, v) }

	want := Join(a, b, f)

	probe, aValues, bValues := hashJoinFixtures[int, int, string, algebra.Checked[int64]](a, aTuples, bTuples)
	got := HashJoin(a, probe, aValues, bValues, f)

	require.ElementsMatch(t, want.ToTuples(), got.ToTuples())
	require.ElementsMatch(t, []layers.Tuple[string, algebra.Checked[int64]]{
		{Item: joinKey(1, "x"), Weight: ck(1)},
		{Item: joinKey(2, "x"), Weight: ck(1)},
		{Item: joinKey(3, "y"), Weight: ck(2)},
		{Item: joinKey(3, "z"), Weight: ck(2)},
	}, got.ToTuples())
}
