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

package runtime

import (
	"context"
	"sync"

	"github.com/erigontech/dbsp-go/circuit"
	log "github.com/erigontech/erigon-lib/log/v3"
	"golang.org/x/sync/errgroup"
)

// CircuitHandle is what a circuit-building callback receives: its 0-based
// worker index, this process's shared Store for rendezvous-constructed
// values (principally Exchange instances, §4.6), and the Circuit to
// populate with Add*/AddSource/AddSink calls. Every worker's callback
// invocation must build a structurally identical graph -- same nodes, in
// the same order -- since NodeId assignment (and so exchange rendezvous)
// depends on registration order matching across workers.
type CircuitHandle struct {
	Worker int
	Store  *Store
	C      *circuit.Circuit
}

// Builder constructs one worker's copy of the circuit.
type Builder func(h CircuitHandle)

// worker owns one circuit and the two channels its step loop goroutine
// uses to rendezvous with Runtime.Step (§4.6, §7).
type worker struct {
	idx     int
	circuit *circuit.Circuit
	stepReq chan struct{}
	stepRes chan error
}

// Runtime drives n identical circuits, one per worker goroutine, stepping
// them in lockstep so that Exchange-based operators (Shard) can rendezvous
// within a single round (§4.6, §7). All N workers' Step calls for a given
// round run concurrently -- unlike a single circuit's own Step, which
// evaluates its nodes sequentially -- because an ExchangeSender's Ready()
// on one worker only becomes true once another worker's ExchangeReceiver
// has drained the previous round, which can only happen if both workers'
// goroutines are actually running concurrently.
type Runtime struct {
	workers []*worker
	store   *Store
	log     *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	g      *errgroup.Group
}

// New builds n worker circuits via build (called once per worker, in
// order 0..n-1) and launches their step-loop goroutines. storeSize bounds
// the shared Store's rendezvous registry.
func New(n int, storeSize int, build Builder) *Runtime {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	rt := &Runtime{store: NewStore(storeSize), log: log.New(), ctx: gctx, cancel: cancel, g: g}
	for i := 0; i < n; i++ {
		c := circuit.New()
		build(CircuitHandle{Worker: i, Store: rt.store, C: c})
		w := &worker{idx: i, circuit: c, stepReq: make(chan struct{}), stepRes: make(chan error)}
		rt.workers = append(rt.workers, w)
	}
	for _, w := range rt.workers {
		w := w
		g.Go(func() error { return rt.runWorker(gctx, w) })
	}
	return rt
}

func (rt *Runtime) runWorker(ctx context.Context, w *worker) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.stepReq:
			err := rt.safeStep(w)
			select {
			case w.stepRes <- err:
			case <-ctx.Done():
				return nil
			}
			if err != nil {
				return err
			}
		}
	}
}

// safeStep recovers a panic inside one worker's step into a
// WorkerPanicError rather than taking down the whole process (§7
// WorkerPanic): a bug in one operator on one worker should surface as a
// runtime error the caller can act on, not a crash.
func (rt *Runtime) safeStep(w *worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &circuit.WorkerPanicError{Worker: w.idx, Node: "", Value: r}
			rt.log.Error("worker panicked", "worker", w.idx, "panic", r)
		}
	}()
	return w.circuit.Step()
}

// Step runs exactly one round: every worker's circuit.Step() is invoked
// concurrently, and Step blocks until all of them have returned. The
// first non-nil error observed (in worker index order) is returned; a
// worker whose step errored has already exited its loop goroutine, so a
// second call to Step after an error is not meaningful -- callers should
// Join instead.
func (rt *Runtime) Step() error {
	for _, w := range rt.workers {
		select {
		case w.stepReq <- struct{}{}:
		case <-rt.ctx.Done():
			return rt.ctx.Err()
		}
	}
	var firstErr error
	for _, w := range rt.workers {
		select {
		case err := <-w.stepRes:
			if err != nil && firstErr == nil {
				firstErr = err
			}
		case <-rt.ctx.Done():
			if firstErr == nil {
				firstErr = rt.ctx.Err()
			}
		}
	}
	return firstErr
}

// Kill raises every worker circuit's kill flag (aborting any step
// in-flight at its next operator boundary, §4.4.2) and cancels the
// runtime's context so the step-loop goroutines exit.
func (rt *Runtime) Kill() {
	for _, w := range rt.workers {
		w.circuit.Kill()
	}
	rt.cancel()
}

// Join waits for every worker goroutine to exit and tears down the
// shared store, returning the first error any worker produced. Step must
// not be called again afterward.
func (rt *Runtime) Join() error {
	rt.cancel()
	err := rt.g.Wait()
	rt.store.Close()
	return err
}

// NumWorkers reports the worker count this runtime was built with.
func (rt *Runtime) NumWorkers() int { return len(rt.workers) }

// Circuit exposes worker i's circuit directly, for tests and for wiring
// InputHandle/OutputHandle after construction.
func (rt *Runtime) Circuit(i int) *circuit.Circuit { return rt.workers[i].circuit }

// InputHandle feeds one value per step into a circuit stream via
// AddSource, matching the adapter-layer boundary sketched in §6: the
// caller pushes this step's input, then calls Runtime.Step.
type InputHandle[T any] struct {
	mu      sync.Mutex
	pending T
	zero    T
}

// NewInputHandle constructs a handle whose pull function returns zero
// until Set is called.
func NewInputHandle[T any](zero T) *InputHandle[T] {
	return &InputHandle[T]{pending: zero, zero: zero}
}

// Set stages the value this handle's source node will emit on the next
// step; it is consumed (reset to zero) by that step.
func (h *InputHandle[T]) Set(v T) {
	h.mu.Lock()
	h.pending = v
	h.mu.Unlock()
}

func (h *InputHandle[T]) pull() T {
	h.mu.Lock()
	defer h.mu.Unlock()
	v := h.pending
	h.pending = h.zero
	return v
}

// Wire registers this handle as a source node on c.
func (h *InputHandle[T]) Wire(c *circuit.Circuit, name string) *circuit.Stream[T] {
	return circuit.AddSource(c, name, h.pull)
}

// OutputHandle collects every value a circuit sink produces, one entry
// per step, for the caller to Drain after Step returns.
type OutputHandle[T any] struct {
	mu  sync.Mutex
	buf []T
}

// NewOutputHandle constructs an empty handle.
func NewOutputHandle[T any]() *OutputHandle[T] { return &OutputHandle[T]{} }

// Wire registers this handle as a sink node on c, consuming in.
func (h *OutputHandle[T]) Wire(c *circuit.Circuit, name string, in *circuit.Stream[T]) {
	circuit.AddSink(c, name, in, func(v T) {
		h.mu.Lock()
		h.buf = append(h.buf, v)
		h.mu.Unlock()
	})
}

// Drain returns and clears every value collected since the last Drain.
func (h *OutputHandle[T]) Drain() []T {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.buf
	h.buf = nil
	return out
}
