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

import "github.com/erigontech/dbsp-go/circuit"

// Inspect passes its input through unchanged, calling f as a side effect
// on every step -- a debugging/observability tap, supplemented from the
// original's src/operator/inspect.rs (not named in §4.5 but present
// throughout the original's own circuit-construction tests).
func Inspect[T any](c *circuit.Circuit, name string, in *circuit.Stream[T], f func(T)) *circuit.Stream[T] {
	return Apply(c, name, in, func(v T) T {
		f(v)
		return v
	})
}
