// Copyright 2025 Parcival Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"fmt"
	"strings"

	"github.com/parcival-labs/ragstore/core"
)

// Config holds configuration for embedding providers.
type Config struct {
	// Host is the base URL of the OpenAI-compatible embeddings API.
	// Example: "http://localhost:11434/v1" for a local Ollama server.
	Host string

	// Token is the API key. Local services that skip auth accept any value.
	Token string

	// Model is the embedding model identifier.
	// Example: "text-embedding-3-small", "embeddinggemma".
	Model string

	// Dimension is the expected embedding dimension. Vectors of a different
	// length are rejected before they reach the store.
	Dimension int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the embeddings API base URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) { c.Host = host }
}

// WithToken sets the API key.
func WithToken(token string) ConfigOption {
	return func(c *Config) { c.Token = token }
}

// WithModel sets the embedding model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) { c.Model = model }
}

// WithDimension sets the expected embedding dimension.
func WithDimension(dim int) ConfigOption {
	return func(c *Config) { c.Dimension = dim }
}

// DefaultConfig returns a Config targeting a local OpenAI-compatible service.
func DefaultConfig() *Config {
	return &Config{
		Host:      "http://localhost:11434/v1",
		Token:     "none",
		Model:     "text-embedding-3-small",
		Dimension: core.DefaultEmbeddingDim,
	}
}

// NewConfig creates a Config with defaults and applies the provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize puts the configuration into canonical form: OpenAI-compatible
// APIs expect the /v1 suffix on the base URL.
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/") + "/v1"
	}
	if c.Token == "" {
		c.Token = "none"
	}
}

// Validate normalizes and then checks the configuration.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return fmt.Errorf("%w: ai config: Host is required", core.ErrInvalidConfig)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: ai config: Model is required", core.ErrInvalidConfig)
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("%w: ai config: Dimension must be positive", core.ErrInvalidConfig)
	}
	return nil
}
