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

package circuit

import (
	"errors"
	"fmt"

	"github.com/erigontech/dbsp-go/clock"
)

// ErrKilled is returned by Step when the runtime's kill signal was
// observed between two operator evaluations (§7 SchedulerError::Killed).
var ErrKilled = errors.New("circuit: step aborted, runtime was killed")

// FixedpointNotReachedError is returned when a nested circuit's inner loop
// exceeds its iteration cap without satisfying its termination predicate
// (§7).
type FixedpointNotReachedError struct {
	Node       string
	Scope      clock.Scope
	Iterations int
}

func (e *FixedpointNotReachedError) Error() string {
	return fmt.Sprintf("circuit: nested circuit %q at scope %d did not reach a fixedpoint within %d iterations",
		e.Node, e.Scope, e.Iterations)
}

// WorkerPanicError wraps a panic recovered from within a single worker's
// step, before it is surfaced to the runtime handle (§7 WorkerPanic).
type WorkerPanicError struct {
	Worker int
	Node   string
	Value  any
}

func (e *WorkerPanicError) Error() string {
	return fmt.Sprintf("circuit: worker %d panicked evaluating node %q: %v", e.Worker, e.Node, e.Value)
}
