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

import "github.com/erigontech/dbsp-go/clock"

// DefaultMaxNestedIterations bounds a nested circuit's inner loop absent
// an explicit override, guarding against a termination predicate that
// never holds (§7 FixedpointNotReached).
const DefaultMaxNestedIterations = 10_000

// NestedCircuit wraps a child Circuit as a single node in its parent
// (§4.4.1): on every outer step it runs clock_start(0), then the child's
// step() repeatedly, then clock_end(0), stopping once both the caller's
// termination predicate and the child's own per-operator fixedpoint hold
// (§9's open-question resolution: "predicate AND per-operator fixedpoint",
// exposed here as two independently pluggable checks).
type NestedCircuit struct {
	BaseNode
	child     *Circuit
	terminate func() bool
	maxIters  int
}

// AddNestedCircuit builds a child circuit at the next scope depth, lets
// build populate it, and registers a node that steps it to a fixedpoint
// on every outer step. terminate should inspect the child's designated
// streams (typically "this step's delta is empty") and is ANDed with the
// child circuit's own Fixedpoint(scope) to decide when to stop (§4.4.1).
// maxIters <= 0 selects DefaultMaxNestedIterations.
func AddNestedCircuit(c *Circuit, name string, maxIters int, build func(child *Circuit) (terminate func() bool)) *NestedCircuit {
	child := newChild(c)
	terminate := build(child)
	if maxIters <= 0 {
		maxIters = DefaultMaxNestedIterations
	}
	n := &NestedCircuit{BaseNode: BaseNode{name: name}, child: child, terminate: terminate, maxIters: maxIters}
	c.register(n)
	return n
}

// Child exposes the nested circuit for direct inspection in tests.
func (n *NestedCircuit) Child() *Circuit { return n.child }

func (n *NestedCircuit) Eval() error {
	scope := n.child.Scope()
	n.child.ClockStart(0)
	for iters := 1; ; iters++ {
		if n.child.Killed() {
			return ErrKilled
		}
		if err := n.child.Step(); err != nil {
			return err
		}
		if n.terminate() && n.child.Fixedpoint(scope) {
			break
		}
		if iters >= n.maxIters {
			return &FixedpointNotReachedError{Node: n.Name(), Scope: scope, Iterations: iters}
		}
	}
	n.child.ClockEnd(0)
	return nil
}

func (n *NestedCircuit) Fixedpoint(scope clock.Scope) bool {
	return n.child.Fixedpoint(n.child.Scope())
}

func (n *NestedCircuit) ClockStart(scope clock.Scope) {}
func (n *NestedCircuit) ClockEnd(scope clock.Scope)   {}
