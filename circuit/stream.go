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

// OwnershipPreference governs whether the scheduler routes a value to a
// consumer by move or by shared reference (§3.6, §4.4.3). The circuit
// builder records one preference per edge at construction time so the
// choice is static rather than negotiated at runtime.
type OwnershipPreference int

const (
	Indifferent OwnershipPreference = iota
	PreferOwned
	StronglyPreferOwned
)

// Satisfied reports whether a consumer declaring want can be routed the
// owned path when it is the final remaining consumer of a value.
func (want OwnershipPreference) Satisfied(isLastConsumer bool) bool {
	if want == Indifferent {
		return false
	}
	return isLastConsumer
}

// Stream is the single-slot buffer that carries one value per step between
// a producer node and its consumers (§3.6): it is exclusively owned by its
// producer until the producer writes it, then handed to consumers by the
// scheduler.
type Stream[T any] struct {
	name  string
	value T
	valid bool
}

// NewStream creates an empty, unset stream.
func NewStream[T any](name string) *Stream[T] {
	return &Stream[T]{name: name}
}

func (s *Stream[T]) Name() string { return s.name }

// Put stores this step's value, overwriting whatever the previous step
// left behind.
func (s *Stream[T]) Put(v T) {
	s.value = v
	s.valid = true
}

// Get reads this step's value without consuming it, for consumers that
// share rather than own it.
func (s *Stream[T]) Get() T { return s.value }

// Valid reports whether Put has been called for the current step.
func (s *Stream[T]) Valid() bool { return s.valid }

// Take consumes this step's value, leaving the stream's slot at its zero
// value (§4.4.3). The schedulers and the node types in this package read
// streams with Get only; nothing here calls Take.
func (s *Stream[T]) Take() T {
	v := s.value
	var zero T
	s.value = zero
	s.valid = false
	return v
}

// Reset clears the slot (§5). The schedulers do not call it: a stream
// keeps its last value until its producer's next Put.
func (s *Stream[T]) Reset() {
	var zero T
	s.value = zero
	s.valid = false
}
