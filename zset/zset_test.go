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

package zset

import (
	"testing"

	"github.com/erigontech/dbsp-go/algebra"
	"github.com/erigontech/dbsp-go/clock"
	"github.com/erigontech/dbsp-go/layers"
	"github.com/stretchr/testify/require"
)

func c(v int64) algebra.Checked[int64] { return algebra.NewChecked(v) }

// S1: distinct_incremental-style behavior sanity check at the ZSet.Distinct
// level (the incremental operator itself lives in package operator; this
// exercises the non-incremental distinct primitive it is built from).
func TestZSetDistinct(t *testing.T) {
	zs := FromTuples[int, algebra.Checked[int64]](clock.Unit(), []layers.Tuple[int, algebra.Checked[int64]]{
		{Item: 1, Weight: c(2)},
		{Item: 2, Weight: c(-1)},
		{Item: 3, Weight: c(1)},
	})
	got := zs.Distinct().ToTuples()
	require.Equal(t, []layers.Tuple[int, algebra.Checked[int64]]{
		{Item: 1, Weight: c(1)},
		{Item: 3, Weight: c(1)},
	}, got)
}

func TestIndexedZSetValuesAndToTuples(t *testing.T) {
	iz := IndexedFromTuples[int, string, algebra.Checked[int64]](clock.Unit(), []layers.KVTuple[int, string, algebra.Checked[int64]]{
		{Key: 1, Val: "a", Weight: c(1)},
		{Key: 1, Val: "b", Weight: c(1)},
		{Key: 2, Val: "a", Weight: c(1)},
	})
	require.Equal(t, 2, iz.Keys())
	require.ElementsMatch(t, []layers.Tuple[string, algebra.Checked[int64]]{
		{Item: "a", Weight: c(1)}, {Item: "b", Weight: c(1)},
	}, iz.Values(1).ToTuples())
	require.Len(t, iz.ToTuples(), 3)
}
