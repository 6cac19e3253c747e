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

// Package circuit implements the operator graph and scheduler (§4.4): a
// fixed set of lifecycle callbacks every node implements regardless of its
// input/output arity, a single-slot Stream per edge, and two scheduler
// implementations (static and dynamic) that evaluate nodes in legal order.
package circuit

import "github.com/erigontech/dbsp-go/clock"

// NodeId is a dense, deterministically-allocated identifier assigned in
// registration order -- every worker builds the identical graph, so ids
// line up across workers for exchange rendezvous (§4.6).
type NodeId int

// Node is the fixed vtable-like interface every operator exposes,
// independent of its arity (§9's "replace trait-object dispatch with a
// tagged-variant abstraction"). Arity is handled entirely by how the
// scheduler wires Stream references into the concrete operator struct
// before Eval is called; Node itself only needs to sequence evaluation.
type Node interface {
	Id() NodeId
	Name() string

	// Eval consumes this step's inputs (already placed on this node's
	// input streams by its predecessors) and produces this step's output.
	Eval() error

	// IsAsync reports whether Ready can return false; only exchange nodes
	// do so in the core (§5).
	IsAsync() bool
	Ready() bool
	RegisterReadyCallback(cb func())

	ClockStart(scope clock.Scope)
	ClockEnd(scope clock.Scope)

	// Fixedpoint reports whether this node's output has stopped changing
	// at the given scope, used by nested circuits to decide inner-loop
	// termination (§4.4.1, §8 item 13).
	Fixedpoint(scope clock.Scope) bool
}

// BaseNode is embedded by every concrete operator to supply the
// synchronous-by-default lifecycle methods; async nodes (exchange) override
// IsAsync/Ready/RegisterReadyCallback. It is exported so node types built
// outside this package (runtime's exchange nodes) can embed it the same
// way the operators in this package do.
type BaseNode struct {
	id   NodeId
	name string
}

// NewBaseNode constructs the embeddable default-lifecycle struct for a
// node named name.
func NewBaseNode(name string) BaseNode { return BaseNode{name: name} }

func (b *BaseNode) Id() NodeId   { return b.id }
func (b *BaseNode) Name() string { return b.name }

func (b *BaseNode) IsAsync() bool                    { return false }
func (b *BaseNode) Ready() bool                       { return true }
func (b *BaseNode) RegisterReadyCallback(func())      {}
func (b *BaseNode) ClockStart(clock.Scope)            {}
func (b *BaseNode) ClockEnd(clock.Scope)              {}
func (b *BaseNode) Fixedpoint(clock.Scope) bool       { return true }
