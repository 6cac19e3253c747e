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

package algebra

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// S6: Checked[int64]::MAX + Checked[int64](1) overflows.
func TestCheckedOverflowAdd(t *testing.T) {
	max := NewChecked(int64(math.MaxInt64))
	one := NewChecked(int64(1))

	require.Panics(t, func() {
		_ = max.Add(one)
	})
}

func TestCheckedNegOfMinOverflows(t *testing.T) {
	min := NewChecked(int64(math.MinInt64))
	require.Panics(t, func() { _ = min.Neg() })
}

func TestCheckedArithmeticMatchesPlainInt(t *testing.T) {
	a, b := NewChecked(int64(17)), NewChecked(int64(-5))
	require.Equal(t, int64(12), a.Add(b).Value())
	require.Equal(t, int64(22), a.Sub(b).Value())
	require.Equal(t, int64(-85), a.Mul(b).Value())
	require.Equal(t, int64(-17), a.Neg().Value())
}

func TestCheckedPredicates(t *testing.T) {
	require.True(t, NewChecked(int64(3)).IsPositive())
	require.True(t, NewChecked(int64(0)).IsZero())
	require.False(t, NewChecked(int64(-3)).GeZero())
	require.True(t, NewChecked(int64(-3)).LeZero())
}

func TestRingOneIsMultiplicativeIdentity(t *testing.T) {
	c := NewChecked(int64(41))
	require.Equal(t, c, c.Mul(c.One()))
	require.True(t, NewChecked(int64(1)).IsOne())

	w := Int64Weight(41)
	require.Equal(t, w, w.Mul(w.One()))
	require.True(t, Int64Weight(1).IsOne())
}

func TestAddInt64MulInt64GroundedOnSafeAddSafeMul(t *testing.T) {
	require.Equal(t, int64(30), AddInt64(10, 20))
	require.Equal(t, int64(-30), AddInt64(-10, -20))
	require.Equal(t, int64(200), MulInt64(10, 20))
	require.Equal(t, int64(-200), MulInt64(-10, 20))

	require.Panics(t, func() { AddInt64(math.MaxInt64, 1) })
	require.Panics(t, func() { MulInt64(math.MaxInt64, 2) })
}
