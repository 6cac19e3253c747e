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

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const validDoc = `
global:
  workers: 4
inputs:
  orders:
    transport:
      name: kafka
      config:
        brokers: ["localhost:9092"]
        topic: orders
    format:
      name: json
outputs:
  totals:
    stream: order_totals
    transport:
      name: kafka
      config:
        brokers: ["localhost:9092"]
    format:
      name: json
`

func TestParseValidDoc(t *testing.T) {
	c, err := Parse([]byte(validDoc))
	require.NoError(t, err)
	require.Equal(t, 4, c.Global.Workers)

	in, ok := c.Inputs["orders"]
	require.True(t, ok)
	require.Equal(t, "kafka", in.Transport.Name)
	require.Equal(t, "orders", in.Transport.Config["topic"])
	require.Equal(t, "json", in.Format.Name)

	out, ok := c.Outputs["totals"]
	require.True(t, ok)
	require.Equal(t, "order_totals", out.Stream)
	require.Equal(t, "kafka", out.Transport.Name)
}

func TestValidateRejectsZeroWorkers(t *testing.T) {
	_, err := Parse([]byte("global:\n  workers: 0\n"))
	require.Error(t, err)
}

func TestValidateRejectsOutputWithNoStream(t *testing.T) {
	doc := `
global:
  workers: 1
outputs:
  totals:
    transport:
      name: stdout
    format:
      name: json
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/to/config.yaml")
	require.Error(t, err)
}
