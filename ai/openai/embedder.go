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

package openai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/quarry/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.EmbeddingClient against an OpenAI-compatible
// embeddings API via langchaingo. One Embedder serves one provider spec.
type Embedder struct {
	name        ai.ProviderName
	spec        ai.ProviderSpec
	embedder    embeddings.Embedder
	maxAttempts int
	baseDelay   time.Duration
	timeout     time.Duration
	logger      *slog.Logger
}

var _ ai.EmbeddingClient = (*Embedder)(nil)

// NewEmbedder creates an embedding client for one named provider backend.
func NewEmbedder(name ai.ProviderName, spec ai.ProviderSpec, cfg *ai.Config) (*Embedder, error) {
	// Local OpenAI-compatible servers reject an empty bearer token, so send a
	// placeholder when no key is configured.
	token := spec.APIKey
	if token == "" {
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(spec.Host),
		openai.WithToken(token),
		openai.WithEmbeddingModel(spec.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s embedding client: %w", name, err)
	}

	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(spec.BatchSize),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s embedder: %w", name, err)
	}

	return &Embedder{
		name:        name,
		spec:        spec,
		embedder:    embedder,
		maxAttempts: cfg.MaxRetries,
		baseDelay:   cfg.RetryBaseDelay,
		timeout:     cfg.RequestTimeout,
		logger:      slog.Default().With("component", "openai-embedder", "provider", string(name)),
	}, nil
}

// Embed generates embeddings for texts, retrying transient failures with
// exponential backoff. On exhaustion it returns a *ai.ProviderError wrapping
// the last failure.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ai.ErrEmptyBatch
	}
	if len(texts) > e.spec.BatchSize {
		return nil, fmt.Errorf("%w: %d texts, limit %d", ai.ErrBatchTooLarge, len(texts), e.spec.BatchSize)
	}

	e.logger.Debug("generating embeddings", "count", len(texts))

	var vectors [][]float32
	err := ai.RetryWithBackoff(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()

		result, err := e.embedder.EmbedDocuments(callCtx, texts)
		if err != nil {
			return err
		}
		if len(result) != len(texts) {
			return fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result))
		}
		for _, vec := range result {
			if len(vec) != e.spec.Dimensions {
				return fmt.Errorf("%w: expected %d dimensions, got %d",
					ai.ErrDimensionMismatch, e.spec.Dimensions, len(vec))
			}
		}
		vectors = result
		return nil
	}, e.maxAttempts, e.baseDelay)
	if err != nil {
		e.logger.Error("embedding failed after retries", "count", len(texts), "err", err)
		return nil, &ai.ProviderError{Provider: e.name, Attempts: e.maxAttempts, Err: err}
	}

	return vectors, nil
}

func (e *Embedder) Name() ai.ProviderName { return e.name }
func (e *Embedder) Model() string         { return e.spec.Model }
func (e *Embedder) Dimensions() int       { return e.spec.Dimensions }
func (e *Embedder) IsPaid() bool          { return e.spec.Paid }
func (e *Embedder) BatchSize() int        { return e.spec.BatchSize }

// Close releases client resources. The underlying HTTP client is stateless,
// so this is a no-op kept for interface symmetry.
func (e *Embedder) Close() error { return nil }

// NewRegistry builds the full closed provider set from cfg, each client
// wrapped with the shared LRU embedding cache when caching is enabled.
func NewRegistry(cfg *ai.Config) (ai.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	names := []ai.ProviderName{ai.ProviderLocal, ai.ProviderDocs, ai.ProviderCode, ai.ProviderWriting}
	clients := make([]ai.EmbeddingClient, 0, len(names))
	for _, name := range names {
		spec, _ := cfg.Spec(name)
		client, err := NewEmbedder(name, spec, cfg)
		if err != nil {
			return nil, err
		}
		clients = append(clients, ai.NewCachedClient(client, cfg.CacheSize))
	}

	return ai.NewClientRegistry(clients...)
}
