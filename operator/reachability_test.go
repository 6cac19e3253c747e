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
	"github.com/erigontech/dbsp-go/circuit"
	"github.com/erigontech/dbsp-go/clock"
	"github.com/erigontech/dbsp-go/layers"
	"github.com/erigontech/dbsp-go/zset"
	"github.com/stretchr/testify/require"
)

func edgeDelta(pairs ...[2]int) zset.IndexedZSet[int, int, algebra.Int64Weight] {
	var tuples []layers.KVTuple[int, int, algebra.Int64Weight]
	for _, p := range pairs {
		tuples = append(tuples, layers.KVTuple[int, int, algebra.Int64Weight]{Key: p[0], Val: p[1], Weight: 1})
	}
	return zset.IndexedFromTuples[int, int, algebra.Int64Weight](clock.Unit(), tuples)
}

// §8 items 9 and 13, S4: a nested circuit recomputing transitive closure
// to a fixedpoint on every outer step must converge to the exact
// reachability relation implied by the edges accumulated so far.
func TestReachabilityFixedpointScenarioS4(t *testing.T) {
	c := circuit.New()
	pending := []zset.IndexedZSet[int, int, algebra.Int64Weight]{
		edgeDelta([2]int{1, 2}, [2]int{2, 3}),
		edgeDelta([2]int{3, 1}),
	}
	step := 0
	in := circuit.AddSource(c, "edges", func() zset.IndexedZSet[int, int, algebra.Int64Weight] {
		v := pending[step]
		step++
		return v
	})
	out := Reachability(c, "reach", in)

	var results []zset.IndexedZSet[int, int, algebra.Int64Weight]
	circuit.AddSink(c, "collect", out, func(v zset.IndexedZSet[int, int, algebra.Int64Weight]) {
		results = append(results, v)
	})

	require.NoError(t, c.Step())
	require.ElementsMatch(t, []layers.KVTuple[int, int, algebra.Int64Weight]{
		{Key: 1, Val: 2, Weight: 1},
		{Key: 2, Val: 3, Weight: 1},
		{Key: 1, Val: 3, Weight: 1},
	}, results[0].ToTuples())

	require.NoError(t, c.Step())
	var want []layers.KVTuple[int, int, algebra.Int64Weight]
	for u := 1; u <= 3; u++ {
		for v := 1; v <= 3; v++ {
			want = append(want, layers.KVTuple[int, int, algebra.Int64Weight]{Key: u, Val: v, Weight: 1})
		}
	}
	require.ElementsMatch(t, want, results[1].ToTuples())
}
