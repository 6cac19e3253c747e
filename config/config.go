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

// Package config loads the pipeline YAML described in §6: a worker count
// plus named input/output streams, each naming a transport and a wire
// format the adapter layer (not this core) is responsible for
// interpreting. This package only parses and validates the document; it
// never opens a transport or decodes a format itself.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Plugin names a pluggable transport or format and its opaque, adapter-
// layer-specific configuration blob (§6: "the core does not define wire
// formats... those live in the adapter layer").
type Plugin struct {
	Name   string         `yaml:"name"`
	Config map[string]any `yaml:"config"`
}

// Input is one named input stream's binding: how the adapter layer should
// read bytes (Transport) and decode them into batches (Format).
type Input struct {
	Transport Plugin `yaml:"transport"`
	Format    Plugin `yaml:"format"`
}

// Output is one named output stream's binding: which circuit stream it
// reads from, and how the adapter layer should encode and write it out.
type Output struct {
	Stream    string `yaml:"stream"`
	Transport Plugin `yaml:"transport"`
	Format    Plugin `yaml:"format"`
}

// Global holds process-wide settings.
type Global struct {
	Workers int `yaml:"workers"`
}

// Config is the top-level pipeline document (§6).
type Config struct {
	Global  Global            `yaml:"global"`
	Inputs  map[string]Input  `yaml:"inputs"`
	Outputs map[string]Output `yaml:"outputs"`
}

// Load reads and parses the YAML document at path and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates and decodes a YAML document already read into memory.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate enforces the constraints §6 states explicitly (workers >= 1)
// plus the structural ones implied by every output naming a real stream.
func (c *Config) Validate() error {
	if c.Global.Workers < 1 {
		return fmt.Errorf("config: global.workers must be >= 1, got %d", c.Global.Workers)
	}
	for name, out := range c.Outputs {
		if out.Stream == "" {
			return fmt.Errorf("config: outputs.%s.stream must be set", name)
		}
	}
	return nil
}
