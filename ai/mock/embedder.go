package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync/atomic"

	"github.com/poiesic/quarry/ai"
)

// MockClient is a test double for ai.EmbeddingClient.
// It allows custom behavior injection via function fields.
type MockClient struct {
	// ProviderName reported by Name(). Default: ai.ProviderLocal.
	ProviderName ai.ProviderName

	// ModelName reported by Model(). Default: "mock-embed".
	ModelName string

	// Dims is the vector length produced. Default: 8.
	Dims int

	// Paid reported by IsPaid(). Default: false.
	Paid bool

	// Batch reported by BatchSize(). Default: 32.
	Batch int

	// EmbedFunc is called by Embed if set.
	// If nil, uses default deterministic behavior.
	EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// Embedding clients must be safe for concurrent use, and batched
	// ingestion does call one client from several goroutines.
	callCount atomic.Int64
}

var _ ai.EmbeddingClient = (*MockClient)(nil)

// NewMockClient creates a mock client with default deterministic behavior.
// Note: Returns concrete type to allow test assertions on call counts.
func NewMockClient(name ai.ProviderName) *MockClient {
	return &MockClient{
		ProviderName: name,
		ModelName:    "mock-embed",
		Dims:         8,
		Batch:        32,
	}
}

// Embed generates deterministic embeddings based on each text's hash.
func (m *MockClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount.Add(1)

	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, texts)
	}
	if len(texts) == 0 {
		return nil, ai.ErrEmptyBatch
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = DeterministicVector(text, m.Dims)
	}
	return vectors, nil
}

func (m *MockClient) Name() ai.ProviderName { return m.ProviderName }
func (m *MockClient) Model() string         { return m.ModelName }
func (m *MockClient) Dimensions() int       { return m.Dims }
func (m *MockClient) IsPaid() bool          { return m.Paid }
func (m *MockClient) BatchSize() int        { return m.Batch }
func (m *MockClient) Close() error          { return nil }

// CallCount returns the number of times Embed was called.
func (m *MockClient) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and injected behavior.
func (m *MockClient) Reset() {
	m.callCount.Store(0)
	m.EmbedFunc = nil
}

// DeterministicVector creates a deterministic unit vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func DeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		// Simple pseudo-random generation based on seed and index
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}

	return ai.NormalizeVector(vector)
}

// MockRegistry is a test double for ai.Registry holding a fixed client map.
type MockRegistry struct {
	Clients map[ai.ProviderName]*MockClient
}

var _ ai.Registry = (*MockRegistry)(nil)

// NewMockRegistry creates a registry with the full closed provider set.
// The local provider is free; docs, code and writing are paid, mirroring the
// production arrangement.
func NewMockRegistry() *MockRegistry {
	registry := &MockRegistry{Clients: make(map[ai.ProviderName]*MockClient)}
	for _, name := range []ai.ProviderName{
		ai.ProviderLocal, ai.ProviderDocs, ai.ProviderCode, ai.ProviderWriting,
	} {
		client := NewMockClient(name)
		client.ModelName = "mock-" + string(name)
		client.Paid = name != ai.ProviderLocal
		registry.Clients[name] = client
	}
	return registry
}

// Client returns the mock client registered under name.
func (r *MockRegistry) Client(name ai.ProviderName) (ai.EmbeddingClient, error) {
	client, ok := r.Clients[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ai.ErrUnknownProvider, name)
	}
	return client, nil
}

// Close is a no-op for mock clients.
func (r *MockRegistry) Close() error { return nil }

// StaticFallback is a FallbackPolicy returning a fixed value, for tests that
// need to flip the budget state without a real guard.
type StaticFallback bool

func (s StaticFallback) ForcedFallback() bool { return bool(s) }
