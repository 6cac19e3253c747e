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

// Package runtime drives N identical copies of a circuit, one per worker
// goroutine, and wires them together through Exchange nodes for the
// shard/scatter-gather data-parallel operators of §4.6.
package runtime

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/erigontech/dbsp-go/circuit"
)

// Exchange is the N-to-N rendezvous point described by §4.6: it holds N²
// single-slot mailboxes, slot (i, j) carrying the value worker i sends to
// worker j this round. A send from worker i succeeds only once all N of
// worker i's outgoing slots are empty (the previous round's values have
// all been picked up); a receive by worker j succeeds only once all N of
// worker j's incoming slots are full. One Exchange instance is shared, by
// reference, across every per-worker copy of the circuit it is wired
// into -- workers never own it, they rendezvous through it.
type Exchange[T any] struct {
	n     int
	slots [][]T
	full  [][]atomic.Bool
	mu    sync.Mutex

	readyMu sync.Mutex
	onFull  []func()
}

// NewExchange allocates the mailbox grid for n workers.
func NewExchange[T any](n int) *Exchange[T] {
	ex := &Exchange[T]{
		n:      n,
		slots:  make([][]T, n),
		full:   make([][]atomic.Bool, n),
		onFull: make([]func(), n),
	}
	for i := range ex.slots {
		ex.slots[i] = make([]T, n)
		ex.full[i] = make([]atomic.Bool, n)
	}
	return ex
}

// N reports the worker count this exchange was built for.
func (ex *Exchange[T]) N() int { return ex.n }

// everyOutgoingEmpty reports whether all of worker from's outgoing slots
// are currently empty, the TrySend precondition.
func (ex *Exchange[T]) everyOutgoingEmpty(from int) bool {
	for j := 0; j < ex.n; j++ {
		if ex.full[from][j].Load() {
			return false
		}
	}
	return true
}

// TrySend attempts to deposit values[j] into slot (from, j) for every
// worker j. It fails -- without depositing any value -- unless every one
// of from's outgoing slots is currently empty, matching §4.6's "the call
// succeeds iff all N of this worker's outgoing slots are empty".
func (ex *Exchange[T]) TrySend(from int, values []T) bool {
	ex.mu.Lock()
	if !ex.everyOutgoingEmpty(from) {
		ex.mu.Unlock()
		return false
	}
	for j := 0; j < ex.n; j++ {
		ex.slots[from][j] = values[j]
		ex.full[from][j].Store(true)
	}
	ex.mu.Unlock()

	ex.readyMu.Lock()
	cbs := make([]func(), ex.n)
	copy(cbs, ex.onFull)
	ex.readyMu.Unlock()
	for _, cb := range cbs {
		if cb != nil {
			cb()
		}
	}
	return true
}

// everyIncomingFull reports whether all of worker to's incoming slots are
// currently full, the TryReceive precondition.
func (ex *Exchange[T]) everyIncomingFull(to int) bool {
	for i := 0; i < ex.n; i++ {
		if !ex.full[i][to].Load() {
			return false
		}
	}
	return true
}

// TryReceive attempts to pick up worker to's incoming values, i.e. slot
// (i, to) for every i. It fails -- leaving every slot untouched -- unless
// all N incoming slots are full. On success cb is called once per sender
// with the value that sender deposited, and the slots are cleared.
func (ex *Exchange[T]) TryReceive(to int, cb func(from int, v T)) bool {
	ex.mu.Lock()
	defer ex.mu.Unlock()

	if !ex.everyIncomingFull(to) {
		return false
	}
	for i := 0; i < ex.n; i++ {
		cb(i, ex.slots[i][to])
		var zero T
		ex.slots[i][to] = zero
		ex.full[i][to].Store(false)
	}
	return true
}

// registerReady records a callback invoked whenever a send completes, so a
// receiver's RegisterReadyCallback (§5's async-node contract) learns
// promptly that its incoming slots might now be full, instead of the
// scheduler having to poll Ready in a tight spin loop alone.
func (ex *Exchange[T]) registerReady(cb func()) {
	ex.readyMu.Lock()
	defer ex.readyMu.Unlock()
	for i := range ex.onFull {
		prev := ex.onFull[i]
		if prev == nil {
			ex.onFull[i] = cb
			continue
		}
		ex.onFull[i] = func() { prev(); cb() }
	}
}

// ExchangeSender is the async Node that partitions this worker's input
// into N shares via partition and offers them to the Exchange each step
// (§4.6, §4.5.7). The scheduler's contract (§4.4.2: spin on Ready, then
// call Eval exactly once) guarantees TrySend succeeds inside Eval, since
// this worker is the only writer of its own outgoing row.
type ExchangeSender[T, S any] struct {
	circuit.BaseNode
	worker    int
	ex        *Exchange[S]
	in        *circuit.Stream[T]
	partition func(worker int, v T) []S
}

// AddExchangeSender registers a sender half of an exchange round. worker
// is this process's 0-based worker index within the pool; partition maps
// this worker's slice of the value to N per-destination shares, one per
// destination worker.
func AddExchangeSender[T, S any](
	c *circuit.Circuit, name string, worker int, ex *Exchange[S],
	in *circuit.Stream[T], partition func(worker int, v T) []S,
) *ExchangeSender[T, S] {
	n := &ExchangeSender[T, S]{BaseNode: circuit.NewBaseNode(name), worker: worker, ex: ex, in: in, partition: partition}
	circuit.Register(c, n)
	return n
}

func (n *ExchangeSender[T, S]) Eval() error {
	values := n.partition(n.worker, n.in.Get())
	if !n.ex.TrySend(n.worker, values) {
		return fmt.Errorf("runtime: exchange sender %q: previous round still draining", n.Name())
	}
	return nil
}

func (n *ExchangeSender[T, S]) IsAsync() bool { return true }

func (n *ExchangeSender[T, S]) Ready() bool {
	n.ex.mu.Lock()
	defer n.ex.mu.Unlock()
	return n.ex.everyOutgoingEmpty(n.worker)
}

func (n *ExchangeSender[T, S]) RegisterReadyCallback(cb func()) {
	n.ex.registerReady(cb)
}

// ExchangeReceiver is the async Node that completes an exchange round: each
// step it collects all N incoming shares and hands the combined batch to
// combine, which the corresponding operator (e.g. Shard's downstream
// re-indexing) uses to build this worker's view of the partitioned data.
type ExchangeReceiver[S, U any] struct {
	circuit.BaseNode
	worker  int
	ex      *Exchange[S]
	out     *circuit.Stream[U]
	combine func(shares []S) U
	shares  []S
}

// AddExchangeReceiver registers the receiver half of an exchange round.
func AddExchangeReceiver[S, U any](
	c *circuit.Circuit, name string, worker int, ex *Exchange[S], combine func(shares []S) U,
) *ExchangeReceiver[S, U] {
	n := &ExchangeReceiver[S, U]{BaseNode: circuit.NewBaseNode(name), worker: worker, ex: ex, combine: combine, shares: make([]S, ex.n)}
	n.out = circuit.NewStream[U](name)
	circuit.Register(c, n)
	return n
}

// Out returns the stream this receiver writes the combined batch to.
func (n *ExchangeReceiver[S, U]) Out() *circuit.Stream[U] { return n.out }

func (n *ExchangeReceiver[S, U]) Eval() error {
	got := n.ex.TryReceive(n.worker, func(from int, v S) { n.shares[from] = v })
	if !got {
		return fmt.Errorf("runtime: exchange receiver %q: incoming slots not all full", n.Name())
	}
	n.out.Put(n.combine(n.shares))
	return nil
}

func (n *ExchangeReceiver[S, U]) IsAsync() bool { return true }

func (n *ExchangeReceiver[S, U]) Ready() bool {
	n.ex.mu.Lock()
	defer n.ex.mu.Unlock()
	return n.ex.everyIncomingFull(n.worker)
}

func (n *ExchangeReceiver[S, U]) RegisterReadyCallback(cb func()) {
	n.ex.registerReady(cb)
}
