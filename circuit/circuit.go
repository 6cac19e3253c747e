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
	"fmt"
	"sync/atomic"

	"github.com/erigontech/dbsp-go/clock"
)

// idSetter is satisfied by every concrete node type because each embeds
// BaseNode by pointer; Circuit.register uses it to hand out ids without
// widening the Node interface itself.
type idSetter interface {
	setId(NodeId)
}

func (b *BaseNode) setId(id NodeId) { b.id = id }

// cacheKey identifies a previously-built operator by kind and the ids of
// the nodes it was built from, e.g. two joins constructed against the same
// pair of delayed traces. Mirrors the source's circuit_cache_key! macro
// (§9): rebuilding the same operator shape twice reuses the instance
// instead of duplicating state.
type cacheKey struct {
	kind string
	ids  string
}

func idsKey(ids []NodeId) string {
	buf := make([]byte, 0, len(ids)*8)
	for _, id := range ids {
		buf = fmt.Appendf(buf, "%d,", id)
	}
	return string(buf)
}

// Circuit is the operator graph builder and, once built, the thing a
// worker steps once per scheduling round (§4.4.1).
type Circuit struct {
	scope    clock.Scope
	nodes    []Node
	sched    Scheduler
	cache    map[cacheKey]any
	killed   atomic.Bool
	parent   *Circuit
}

// New constructs an empty root circuit (scope 0) using the static
// scheduler.
func New() *Circuit {
	return &Circuit{cache: make(map[cacheKey]any), sched: &StaticScheduler{}}
}

// newChild constructs a circuit nested one scope deeper than parent, used
// by AddNestedCircuit.
func newChild(parent *Circuit) *Circuit {
	return &Circuit{
		scope:  parent.scope + 1,
		cache:  make(map[cacheKey]any),
		sched:  &StaticScheduler{},
		parent: parent,
	}
}

// Scope reports this circuit's nesting depth.
func (c *Circuit) Scope() clock.Scope { return c.scope }

// UseDynamicScheduler switches this circuit to the dynamic (runnable-queue)
// scheduler instead of the default static topological one (§4.4.2).
func (c *Circuit) UseDynamicScheduler() { c.sched = &DynamicScheduler{} }

func (c *Circuit) register(n Node) NodeId {
	id := NodeId(len(c.nodes))
	if s, ok := n.(idSetter); ok {
		s.setId(id)
	}
	c.nodes = append(c.nodes, n)
	return id
}

// Nodes exposes the registered nodes in registration order, the order the
// static scheduler evaluates them in absent async dependencies.
func (c *Circuit) Nodes() []Node { return c.nodes }

// Register adds a node built outside this package to the circuit, exactly
// as the Add* constructors in ops.go do internally. It exists for node
// types this package doesn't know how to build itself -- currently only
// runtime's exchange sender/receiver pair (§4.6), which must be a genuine
// async Node (Ready/IsAsync/RegisterReadyCallback) rather than a
// unary/binary operator wrapping a pure function.
func Register(c *Circuit, n Node) NodeId { return c.register(n) }

// CacheGetOrInsert memoizes a value keyed by (kind, ids): build runs on the
// first call for a key and later calls return the stored value. None of
// the operator constructors in package operator call it; each call to
// one of them builds its own nodes and state.
func CacheGetOrInsert[V any](c *Circuit, kind string, ids []NodeId, build func() V) V {
	key := cacheKey{kind: kind, ids: idsKey(ids)}
	if v, ok := c.cache[key]; ok {
		return v.(V)
	}
	v := build()
	c.cache[key] = v
	return v
}

// Kill raises the runtime cancellation flag; the scheduler observes it
// between operator evaluations and aborts the current step with
// ErrKilled (§4.4.2, §7).
func (c *Circuit) Kill() { c.killed.Store(true) }

func (c *Circuit) Killed() bool {
	if c.killed.Load() {
		return true
	}
	if c.parent != nil {
		return c.parent.Killed()
	}
	return false
}

// Step evaluates every node exactly once, in an order the scheduler
// guarantees is legal (§4.4.2, §8 item 12).
func (c *Circuit) Step() error {
	return c.sched.Run(c.nodes, c.Killed)
}

// ClockStart notifies every node that a new epoch is beginning at scope
// (§3.5, §4.4.1).
func (c *Circuit) ClockStart(scope clock.Scope) {
	for _, n := range c.nodes {
		n.ClockStart(scope)
	}
}

// ClockEnd notifies every node that the epoch at scope has closed.
func (c *Circuit) ClockEnd(scope clock.Scope) {
	for _, n := range c.nodes {
		n.ClockEnd(scope)
	}
}

// Fixedpoint reports whether every node's Fixedpoint(scope) holds, the
// per-operator half of a nested circuit's termination contract (§4.4.1).
func (c *Circuit) Fixedpoint(scope clock.Scope) bool {
	for _, n := range c.nodes {
		if !n.Fixedpoint(scope) {
			return false
		}
	}
	return true
}
