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
	"time"
)

// ProviderSpec describes one embedding backend. All backends speak the
// OpenAI-compatible embeddings API; they differ only in host, model,
// credentials, dimensionality and cost.
type ProviderSpec struct {
	// Host is the base URL of the embeddings API.
	// Example: "http://localhost:11434/v1" for a local Ollama-style server.
	Host string

	// Model is the model identifier requested from the backend.
	Model string

	// APIKey authenticates paid backends. Free local backends may leave it
	// empty; "none" is sent for servers that require a token header.
	APIKey string

	// Dimensions is the fixed output vector length the model produces.
	Dimensions int

	// BatchSize is the maximum number of texts sent per API call.
	BatchSize int

	// Paid marks backends whose calls are billed and budget-tracked.
	Paid bool
}

// Config holds configuration for the embedding provider set.
type Config struct {
	// Local is the free fallback backend (default documentation of Ollama).
	Local ProviderSpec

	// Docs is the default backend for documentation content.
	Docs ProviderSpec

	// Code is the backend selected for source code content.
	Code ProviderSpec

	// Writing is the backend selected for personal-writing content.
	Writing ProviderSpec

	// MaxRetries is the number of attempts per embedding call. Default: 3.
	MaxRetries int

	// RetryBaseDelay is the base delay for exponential backoff. Default: 500ms.
	RetryBaseDelay time.Duration

	// RequestTimeout bounds each embedding API call. Default: 30s.
	RequestTimeout time.Duration

	// CacheSize is the LRU embedding cache capacity (entries). 0 disables
	// caching. Default: 10000.
	CacheSize int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithLocalProvider overrides the local/free provider spec.
func WithLocalProvider(spec ProviderSpec) ConfigOption {
	return func(c *Config) { c.Local = spec }
}

// WithDocsProvider overrides the documentation provider spec.
func WithDocsProvider(spec ProviderSpec) ConfigOption {
	return func(c *Config) { c.Docs = spec }
}

// WithCodeProvider overrides the code provider spec.
func WithCodeProvider(spec ProviderSpec) ConfigOption {
	return func(c *Config) { c.Code = spec }
}

// WithWritingProvider overrides the writing provider spec.
func WithWritingProvider(spec ProviderSpec) ConfigOption {
	return func(c *Config) { c.Writing = spec }
}

// WithMaxRetries sets the attempt count for embedding calls.
func WithMaxRetries(attempts int) ConfigOption {
	return func(c *Config) { c.MaxRetries = attempts }
}

// WithRequestTimeout sets the per-call timeout.
func WithRequestTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) { c.RequestTimeout = timeout }
}

// WithCacheSize sets the embedding cache capacity. 0 disables the cache.
func WithCacheSize(size int) ConfigOption {
	return func(c *Config) { c.CacheSize = size }
}

// DefaultConfig returns a Config with a local Ollama-style fallback and the
// hosted docs/code/writing backends used in production.
func DefaultConfig() *Config {
	return &Config{
		Local: ProviderSpec{
			Host:       "http://localhost:11434/v1",
			Model:      "embeddinggemma",
			Dimensions: 768,
			BatchSize:  32,
			Paid:       false,
		},
		Docs: ProviderSpec{
			Host:       "https://api.openai.com/v1",
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
			BatchSize:  100,
			Paid:       true,
		},
		Code: ProviderSpec{
			Host:       "https://api.jina.ai/v1",
			Model:      "jina-embeddings-v2-base-code",
			Dimensions: 768,
			BatchSize:  50,
			Paid:       true,
		},
		Writing: ProviderSpec{
			Host:       "https://api.jina.ai/v1",
			Model:      "jina-embeddings-v3",
			Dimensions: 1024,
			BatchSize:  50,
			Paid:       true,
		},
		MaxRetries:     3,
		RetryBaseDelay: 500 * time.Millisecond,
		RequestTimeout: 30 * time.Second,
		CacheSize:      10000,
	}
}

// NewConfig creates a Config with the default values and applies the provided
// options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form. Hosts get the
// /v1 suffix required by OpenAI-compatible APIs when it is missing.
func (c *Config) Normalize() {
	for _, spec := range []*ProviderSpec{&c.Local, &c.Docs, &c.Code, &c.Writing} {
		if spec.Host != "" && !strings.HasSuffix(spec.Host, "/v1") {
			spec.Host = strings.TrimSuffix(spec.Host, "/") + "/v1"
		}
	}
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validating.
func (c *Config) Validate() error {
	c.Normalize()

	specs := map[string]*ProviderSpec{
		"Local":   &c.Local,
		"Docs":    &c.Docs,
		"Code":    &c.Code,
		"Writing": &c.Writing,
	}
	for name, spec := range specs {
		if spec.Host == "" {
			return errors.New("ai config: " + name + " host is required")
		}
		if spec.Model == "" {
			return errors.New("ai config: " + name + " model is required")
		}
		if spec.Dimensions <= 0 {
			return errors.New("ai config: " + name + " dimensions must be positive")
		}
		if spec.BatchSize <= 0 {
			return errors.New("ai config: " + name + " batch size must be positive")
		}
	}
	if c.Local.Paid {
		return errors.New("ai config: Local provider must be free")
	}
	if c.MaxRetries < 1 {
		return errors.New("ai config: MaxRetries must be at least 1")
	}
	return nil
}

// Spec returns the provider spec for a name.
func (c *Config) Spec(name ProviderName) (ProviderSpec, bool) {
	switch name {
	case ProviderLocal:
		return c.Local, true
	case ProviderDocs:
		return c.Docs, true
	case ProviderCode:
		return c.Code, true
	case ProviderWriting:
		return c.Writing, true
	default:
		return ProviderSpec{}, false
	}
}
