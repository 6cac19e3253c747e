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
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// §8 item 10 (S5 Exchange): every value sent by a worker is received by
// exactly its intended destination, and a round never partially completes
// -- a receiver only ever observes either all N shares or none.
func TestExchangeRendezvousDeliversEveryShareExactlyOnce(t *testing.T) {
	const n = 3
	ex := NewExchange[int](n)

	var wg sync.WaitGroup
	received := make([][]int, n)
	var mu sync.Mutex

	for worker := 0; worker < n; worker++ {
		worker := worker
		wg.Add(1)
		go func() {
			defer wg.Done()
			values := make([]int, n)
			for j := range values {
				values[j] = worker*10 + j
			}
			for !ex.TrySend(worker, values) {
			}
		}()
	}

	for worker := 0; worker < n; worker++ {
		worker := worker
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := make([]int, n)
			for {
				if ex.TryReceive(worker, func(from int, v int) { got[from] = v }) {
					break
				}
			}
			mu.Lock()
			received[worker] = got
			mu.Unlock()
		}()
	}

	wg.Wait()

	for to := 0; to < n; to++ {
		for from := 0; from < n; from++ {
			require.Equal(t, from*10+to, received[to][from], "to=%d from=%d", to, from)
		}
	}
}

// A send whose own outgoing slots are still full from a previous round
// must fail without overwriting any slot, and a receive whose incoming
// slots aren't all full yet (not every sender has sent this round) must
// likewise fail without consuming a partial set.
func TestExchangeTrySendFailsWhenPreviousRoundUndrained(t *testing.T) {
	ex := NewExchange[int](2)
	require.True(t, ex.TrySend(0, []int{1, 2}))
	require.False(t, ex.TrySend(0, []int{3, 4}))

	// Worker 1 hasn't sent yet, so column 0's incoming slots aren't all full.
	got := make([]int, 2)
	require.False(t, ex.TryReceive(0, func(from int, v int) { got[from] = v }))

	require.True(t, ex.TrySend(1, []int{10, 20}))
	require.True(t, ex.TryReceive(0, func(from int, v int) { got[from] = v }))
	require.Equal(t, []int{1, 10}, got)

	// Worker 0's outgoing row is now drained, so it can send again.
	require.True(t, ex.TrySend(0, []int{5, 6}))
}
