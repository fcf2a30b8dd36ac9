// Copyright 2025 Poiesic Systems
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
	"errors"
	"strings"
)

// modelDimensions maps known embedding model identifiers to their vector
// dimensions. Unknown models must configure WithDimension explicitly.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"embeddinggemma":         768,
	"nomic-embed-text":       768,
	"all-minilm":             384,
}

// Config holds configuration for embedding backends.
type Config struct {
	// Host is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	Host string

	// Model is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	Model string

	// Dimension is the vector dimension the model produces. Filled from
	// the known-model table when left zero.
	Dimension int

	// MaxInputLength is the maximum input length in runes; longer text is
	// truncated before embedding.
	// Default: 8000
	MaxInputLength int

	// BatchSize is the maximum number of texts sent to the backend in a
	// single batch call.
	// Default: 32
	BatchSize int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the embedding service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the embedding model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithDimension sets the vector dimension for models the built-in table
// does not know about.
func WithDimension(dim int) ConfigOption {
	return func(c *Config) {
		c.Dimension = dim
	}
}

// WithMaxInputLength sets the truncation limit for oversized text.
func WithMaxInputLength(n int) ConfigOption {
	return func(c *Config) {
		c.MaxInputLength = n
	}
}

// WithBatchSize sets the batching granularity for EmbedTexts.
func WithBatchSize(n int) ConfigOption {
	return func(c *Config) {
		c.BatchSize = n
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services.
func DefaultConfig() *Config {
	return &Config{
		Host:           "http://localhost:11434/v1",
		Model:          "embeddinggemma",
		MaxInputLength: 8000,
		BatchSize:      32,
	}
}

// NewConfig creates a Config with the default values and applies the
// provided options. This is the recommended way to create a Config.
//
// Example:
//
//	cfg := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434/v1"),
//	    ai.WithModel("text-embedding-3-small"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form. It adds the
// /v1 suffix to the host if missing, which is required by most
// OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc), and resolves the
// vector dimension from the known-model table.
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
	if c.Dimension == 0 {
		c.Dimension = modelDimensions[c.Model]
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	if c.Model == "" {
		return errors.New("ai config: Model is required")
	}
	if c.Dimension <= 0 {
		return errors.New("ai config: Dimension is required for unknown models")
	}
	if c.MaxInputLength <= 0 {
		return errors.New("ai config: MaxInputLength must be positive")
	}
	if c.BatchSize <= 0 {
		return errors.New("ai config: BatchSize must be positive")
	}
	return nil
}

// Truncate applies the configured input length limit to text.
// Truncation is rune-safe so multi-byte characters are never split.
func (c *Config) Truncate(text string) string {
	if c.MaxInputLength <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= c.MaxInputLength {
		return text
	}
	return string(runes[:c.MaxInputLength])
}
