package ai

import "context"

// ProviderName identifies one of the closed set of embedding backends.
type ProviderName string

const (
	// ProviderLocal is the free local backend, also the designated fallback
	// once the budget limit is reached.
	ProviderLocal ProviderName = "local"
	// ProviderDocs is the default documentation backend.
	ProviderDocs ProviderName = "docs"
	// ProviderCode is the code-specialized backend.
	ProviderCode ProviderName = "code"
	// ProviderWriting is the backend specialized for personal writing.
	ProviderWriting ProviderName = "writing"
)

// EmbeddingClient turns batches of strings into fixed-length vectors.
// Implementations must be thread-safe for concurrent use.
type EmbeddingClient interface {
	// Embed generates vector embeddings for the given texts, in order.
	// Transient failures are retried internally with bounded backoff; on
	// exhaustion a *ProviderError is returned.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Name returns the provider identity recorded in embedding metadata.
	Name() ProviderName

	// Model returns the model identifier in use.
	Model() string

	// Dimensions returns the fixed output vector length.
	Dimensions() int

	// IsPaid reports whether calls to this backend incur cost.
	IsPaid() bool

	// BatchSize returns the maximum number of texts per call.
	BatchSize() int

	// Close releases resources held by the client.
	Close() error
}

// FallbackPolicy reports whether paid providers are currently disallowed.
// The budget guard implements it; the router only ever reads it.
type FallbackPolicy interface {
	ForcedFallback() bool
}

// Registry resolves provider names to clients. The router selects a name,
// callers resolve it here, and query-time code resolves the name a collection
// was pinned to at ingestion.
type Registry interface {
	// Client returns the client for the named provider.
	// Returns ErrUnknownProvider if the name is not registered.
	Client(name ProviderName) (EmbeddingClient, error)

	// Close closes every registered client.
	Close() error
}
