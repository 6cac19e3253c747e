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
	"github.com/erigontech/dbsp-go/algebra"
	"github.com/erigontech/dbsp-go/circuit"
	"github.com/erigontech/dbsp-go/clock"
	"github.com/erigontech/dbsp-go/layers"
	"github.com/erigontech/dbsp-go/zset"
)

// packEdge/unpackEdge encode a (src, dst) vertex pair as a single int64
// so Join's output type (which must satisfy constraints.Ordered) can carry
// a pair without a composite key type, the same trick used for the
// aggregate/join test fixtures in this package.
func packEdge(src, dst int) int64 { return int64(src)<<32 | int64(uint32(dst)) }

func unpackEdge(p int64) (src, dst int) { return int(p >> 32), int(int32(p)) }

func flattenEdges[R algebra.ZRing[R]](e zset.IndexedZSet[int, int, R]) zset.ZSet[int64, R] {
	tuples := e.ToTuples()
	out := make([]layers.Tuple[int64, R], 0, len(tuples))
	for _, kv := range tuples {
		out = append(out, layers.Tuple[int64, R]{Item: packEdge(kv.Key, kv.Val), Weight: kv.Weight})
	}
	return zset.FromTuples[int64, R](clock.Unit(), out)
}

// indexByDst re-keys a flattened path set by destination vertex, the form
// Join needs to match a path's endpoint against an edge's source.
func indexByDst[R algebra.ZRing[R]](paths zset.ZSet[int64, R]) zset.IndexedZSet[int, int, R] {
	tuples := paths.ToTuples()
	out := make([]layers.KVTuple[int, int, R], 0, len(tuples))
	for _, t := range tuples {
		src, dst := unpackEdge(t.Item)
		out = append(out, layers.KVTuple[int, int, R]{Key: dst, Val: src, Weight: t.Weight})
	}
	return zset.IndexedFromTuples[int, int, R](clock.Unit(), out)
}

// indexBySrc re-keys a flattened path set by source vertex, the shape
// Reachability presents as output (matching the shape of its edge input).
func indexBySrc[R algebra.ZRing[R]](paths zset.ZSet[int64, R]) zset.IndexedZSet[int, int, R] {
	tuples := paths.ToTuples()
	out := make([]layers.KVTuple[int, int, R], 0, len(tuples))
	for _, t := range tuples {
		src, dst := unpackEdge(t.Item)
		out = append(out, layers.KVTuple[int, int, R]{Key: src, Val: dst, Weight: t.Weight})
	}
	return zset.IndexedFromTuples[int, int, R](clock.Unit(), out)
}

// Reachability computes the transitive closure of an accumulating edge
// relation (§4.5's nested-circuit pattern, §8 item 13, S4). On every outer
// step it integrates the edge delta into the full graph seen so far, then
// drives a nested circuit to a fixedpoint: each inner step joins the
// current path set against the full edge set (path(u,v) + edge(v,w) ->
// path(u,w)), unions the result with the direct edges and the prior path
// set, and collapses multiplicities back to presence-only via Distinct.
// The loop stops once an inner step adds nothing new, at which point the
// settled path set is this outer step's output.
func Reachability[R algebra.ZRing[R]](c *circuit.Circuit, name string, edgesIn *circuit.Stream[zset.IndexedZSet[int, int, R]]) *circuit.Stream[zset.IndexedZSet[int, int, R]] {
	zeroIndexed := zset.IndexedEmpty[int, int, R](clock.Unit())
	integratedEdges := Integrate(c, name+".I(edges)", edgesIn, zeroIndexed)

	var edgesSnapshot zset.IndexedZSet[int, int, R]
	circuit.AddSink(c, name+".snapshot", integratedEdges, func(v zset.IndexedZSet[int, int, R]) { edgesSnapshot = v })

	zeroFlat := zset.Empty[int64, R](clock.Unit())
	var settled zset.ZSet[int64, R]

	circuit.AddNestedCircuit(c, name+".fixedpoint", 0, func(child *circuit.Circuit) func() bool {
		prevPaths, closeLoop := circuit.AddFeedback(child, name+".paths", zeroFlat)

		edgesSrc := circuit.AddSource(child, name+".edges.src", func() zset.IndexedZSet[int, int, R] { return edgesSnapshot })
		edgesFlat := Apply(child, name+".edges.flat", edgesSrc, flattenEdges[R])

		pathsByDst := Apply(child, name+".paths.byDst", prevPaths, indexByDst[R])

		joined := circuit.AddBinary(child, name+".joined", pathsByDst, edgesSrc, func(a, b zset.IndexedZSet[int, int, R]) zset.ZSet[int64, R] {
			return Join(a, b, func(_ int, u int, w int) int64 { return packEdge(u, w) })
		})

		union := Sum(child, name+".union", zeroFlat, prevPaths, edgesFlat, joined)
		newPaths := Apply(child, name+".distinct", union, func(z zset.ZSet[int64, R]) zset.ZSet[int64, R] { return z.Distinct() })
		closeLoop(newPaths)

		circuit.AddSink(child, name+".settle", newPaths, func(v zset.ZSet[int64, R]) { settled = v })

		delta := circuit.AddBinary(child, name+".delta", newPaths, prevPaths, func(a, b zset.ZSet[int64, R]) zset.ZSet[int64, R] {
			return a.Add(b.Negate())
		})
		var lastEmpty bool
		circuit.AddSink(child, name+".track", delta, func(d zset.ZSet[int64, R]) { lastEmpty = d.IsEmpty() })

		return func() bool { return lastEmpty }
	})

	return circuit.AddSource(c, name+".result", func() zset.IndexedZSet[int, int, R] { return indexBySrc(settled) })
}
