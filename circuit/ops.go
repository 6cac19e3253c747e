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

// sourceNode is the 0-to-1 operator variant (§4.4.1): it has no stream
// inputs and produces one value per step by calling pull.
type sourceNode[T any] struct {
	BaseNode
	out  *Stream[T]
	pull func() T
}

func (n *sourceNode[T]) Eval() error {
	n.out.Put(n.pull())
	return nil
}

// AddSource registers a 0-to-1 operator that produces a value by calling
// pull once per step, typically an input handle's buffered batch.
func AddSource[T any](c *Circuit, name string, pull func() T) *Stream[T] {
	out := NewStream[T](name)
	c.register(&sourceNode[T]{BaseNode: BaseNode{name: name}, out: out, pull: pull})
	return out
}

// sinkNode is the 1-to-0 operator variant: it consumes a value and has no
// stream output, typically an output handle collecting results.
type sinkNode[T any] struct {
	BaseNode
	in   *Stream[T]
	push func(T)
}

func (n *sinkNode[T]) Eval() error {
	n.push(n.in.Get())
	return nil
}

// AddSink registers a 1-to-0 operator.
func AddSink[T any](c *Circuit, name string, in *Stream[T], push func(T)) {
	c.register(&sinkNode[T]{BaseNode: BaseNode{name: name}, in: in, push: push})
}

// unaryNode is the 1-to-1 operator variant: apply / map / filter / integrate
// all specialize this shape by choice of f (§4.5.1, §4.5.2).
type unaryNode[T, U any] struct {
	BaseNode
	in   *Stream[T]
	out  *Stream[U]
	pref OwnershipPreference
	f    func(T) U
}

func (n *unaryNode[T, U]) Eval() error {
	n.out.Put(n.f(n.in.Get()))
	return nil
}

// AddUnary registers a 1-to-1 operator computing f(in) every step. pref
// declares this node's ownership preference toward its input edge
// (§4.4.3); it is recorded on the node but not read: the core evaluation
// path always reads by reference and never routes a move.
func AddUnary[T, U any](c *Circuit, name string, in *Stream[T], pref OwnershipPreference, f func(T) U) *Stream[U] {
	out := NewStream[U](name)
	c.register(&unaryNode[T, U]{BaseNode: BaseNode{name: name}, in: in, out: out, pref: pref, f: f})
	return out
}

// binaryNode is the 2-to-1 operator variant: join, plus, minus (§4.5.1,
// §4.5.3).
type binaryNode[T, U, V any] struct {
	BaseNode
	a, b *Stream[T]
	bIn  *Stream[U]
	out  *Stream[V]
	f    func(T, U) V
}

func (n *binaryNode[T, U, V]) Eval() error {
	n.out.Put(n.f(n.a.Get(), n.bIn.Get()))
	return nil
}

// AddBinary registers a 2-to-1 operator computing f(a, b) every step.
func AddBinary[T, U, V any](c *Circuit, name string, a *Stream[T], b *Stream[U], f func(T, U) V) *Stream[V] {
	out := NewStream[V](name)
	c.register(&binaryNode[T, U, V]{BaseNode: BaseNode{name: name}, a: a, bIn: b, out: out, f: f})
	return out
}

// ternaryNode is the 3-to-1 operator variant used by group-transform style
// operators that read an input delta, an input trace and an output trace
// simultaneously (§4.5.5).
type ternaryNode[T, U, V, W any] struct {
	BaseNode
	a   *Stream[T]
	b   *Stream[U]
	c   *Stream[V]
	out *Stream[W]
	f   func(T, U, V) W
}

func (n *ternaryNode[T, U, V, W]) Eval() error {
	n.out.Put(n.f(n.a.Get(), n.b.Get(), n.c.Get()))
	return nil
}

// AddTernary registers a 3-to-1 operator computing f(a, b, c) every step.
func AddTernary[T, U, V, W any](c *Circuit, name string, a *Stream[T], b *Stream[U], v *Stream[V], f func(T, U, V) W) *Stream[W] {
	out := NewStream[W](name)
	c.register(&ternaryNode[T, U, V, W]{BaseNode: BaseNode{name: name}, a: a, b: b, c: v, out: out, f: f})
	return out
}

// delayNode is the strict unary (z^-1) operator variant: its output at
// step t is the value it was fed at step t-1, starting from zero (§4.5.1).
type delayNode[T any] struct {
	BaseNode
	in    *Stream[T]
	out   *Stream[T]
	state T
}

func (n *delayNode[T]) Eval() error {
	n.out.Put(n.state)
	n.state = n.in.Get()
	return nil
}

func (n *delayNode[T]) ClockStart(scope clock.Scope) {
	if scope == 0 {
		var zero T
		n.state = zero
	}
}

// AddDelay registers a strict unary operator (z^-1): Eval emits the value
// previously written before consuming the current input, so its output at
// logical time t is a function only of inputs at times strictly less than
// t. zero is the value emitted at step 0.
func AddDelay[T any](c *Circuit, name string, in *Stream[T], zero T) *Stream[T] {
	out := NewStream[T](name)
	c.register(&delayNode[T]{BaseNode: BaseNode{name: name}, in: in, out: out, state: zero})
	return out
}

type feedbackCell[T any] struct{ value T }

type feedbackOutput[T any] struct {
	BaseNode
	cell *feedbackCell[T]
	out  *Stream[T]
}

func (n *feedbackOutput[T]) Eval() error {
	n.out.Put(n.cell.value)
	return nil
}

type feedbackInput[T any] struct {
	BaseNode
	cell *feedbackCell[T]
	in   *Stream[T]
}

func (n *feedbackInput[T]) Eval() error {
	n.cell.value = n.in.Get()
	return nil
}

// AddFeedback splits a strict operator into an output-half (registered
// immediately, behaves like a source exposing the previously stored
// state) and an input-half returned as a closure the caller must invoke
// once the cyclic computation's result is available, to register the
// sink writing next state (§4.4.1, §9 "cyclic operator graphs"). The
// visible graph stays acyclic; the cycle closes only through cell.
//
// Usage:
//
//	prev, closeLoop := circuit.AddFeedback[T](c, "loop", zero)
//	next := ... build a chain reading prev ...
//	closeLoop(next)
func AddFeedback[T any](c *Circuit, name string, zero T) (*Stream[T], func(next *Stream[T])) {
	cell := &feedbackCell[T]{value: zero}
	out := NewStream[T](name + ".out")
	c.register(&feedbackOutput[T]{BaseNode: BaseNode{name: name + ".out"}, cell: cell, out: out})
	closeLoop := func(next *Stream[T]) {
		c.register(&feedbackInput[T]{BaseNode: BaseNode{name: name + ".in"}, cell: cell, in: next})
	}
	return out, closeLoop
}
