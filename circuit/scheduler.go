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

// Scheduler evaluates a set of nodes exactly once per step, in an order
// legal for the acyclic graph the circuit builder produced (§4.4.2,
// §8 item 12). Nodes are always supplied in registration order, which is
// already a valid topological order because AddBinary/AddUnary/etc. can
// only reference streams produced by already-registered nodes, and
// AddFeedback's input-half is always registered after the chain that
// computes its argument.
type Scheduler interface {
	Run(nodes []Node, killed func() bool) error
}

// StaticScheduler evaluates nodes in the topological order fixed at
// construction time. Async nodes are polled in that same order, parking
// (spin-polling, in this single-process implementation) until Ready()
// returns true.
type StaticScheduler struct{}

func (StaticScheduler) Run(nodes []Node, killed func() bool) error {
	for _, n := range nodes {
		if killed() {
			return ErrKilled
		}
		if n.IsAsync() {
			for !n.Ready() {
				if killed() {
					return ErrKilled
				}
			}
		}
		if err := n.Eval(); err != nil {
			return err
		}
	}
	return nil
}

// DynamicScheduler maintains a runnable queue keyed on "ready"; since this
// implementation's Node set carries no explicit predecessor/successor
// edges (streams alone express data dependencies, already satisfied by
// registration order), the dynamic scheduler differs from the static one
// only in how it waits on async nodes: it repeatedly sweeps the not-yet-
// evaluated nodes and fires whichever becomes ready first, rather than
// blocking in registration order. This matches §4.4.2's "runnable queue
// keyed on all inputs present and async-ready" for the common case where
// at most a handful of nodes are async (exchange nodes).
type DynamicScheduler struct{}

func (DynamicScheduler) Run(nodes []Node, killed func() bool) error {
	done := make([]bool, len(nodes))
	remaining := len(nodes)
	for remaining > 0 {
		progressed := false
		for i, n := range nodes {
			if done[i] {
				continue
			}
			if killed() {
				return ErrKilled
			}
			if n.IsAsync() && !n.Ready() {
				continue
			}
			if err := n.Eval(); err != nil {
				return err
			}
			done[i] = true
			remaining--
			progressed = true
		}
		if !progressed && remaining > 0 {
			if killed() {
				return ErrKilled
			}
		}
	}
	return nil
}
