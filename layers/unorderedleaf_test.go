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
)

func leafTuples(pairs ...[2]int64) []Tuple[int, algebra.Checked[int64]] {
	out := make([]Tuple[int, algebra.Checked[int64]], len(pairs))
	for i, p := range pairs {
		out[i] = Tuple[int, algebra.Checked[int64]]{Item: int(p[0]), Weight: w(p[1])}
	}
	return out
}

func TestUnorderedLeafConsolidatesAndElidesZero(t *testing.T) {
	u := NewUnorderedLeafFromTuples[int, algebra.Checked[int64]](clock.Unit(), leafTuples([2]int64{1, 1}, [2]int64{1, -1}, [2]int64{2, 3}))
	require.Equal(t, 1, u.Keys())

	weight, ok := u.Probe(2)
	require.True(t, ok)
	require.Equal(t, w(3), weight)

	_, ok = u.Probe(1)
	require.False(t, ok)
}

func TestUnorderedLeafProbeMissForAbsentKey(t *testing.T) {
	u := NewUnorderedLeafFromTuples[int, algebra.Checked[int64]](clock.Unit(), leafTuples([2]int64{5, 1}))
	_, ok := u.Probe(6)
	require.False(t, ok)

	weight, ok := u.Probe(5)
	require.True(t, ok)
	require.Equal(t, w(1), weight)
}

func TestUnorderedLeafEmpty(t *testing.T) {
	u := NewUnorderedLeafFromTuples[int, algebra.Checked[int64]](clock.Unit(), nil)
	require.True(t, u.IsEmpty())
	_, ok := u.Probe(0)
	require.False(t, ok)
}

func TestHashBucketStableForSameInput(t *testing.T) {
	a := HashBucket([]byte("erigon"), 16)
	b := HashBucket([]byte("erigon"), 16)
	require.Equal(t, a, b)
	require.GreaterOrEqual(t, a, 0)
	require.Less(t, a, 16)
}
