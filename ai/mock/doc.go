// Package mock provides test double implementations of the embedding
// provider interfaces.
//
// This package contains mock implementations of ai.EmbeddingClient,
// ai.Registry and ai.FallbackPolicy for use in unit tests. The mocks allow
// tests to run without external embedding services and enable controlled,
// deterministic behavior.
//
// # Usage in Tests
//
//	registry := mock.NewMockRegistry()
//	router, _ := ai.NewRouter(registry, mock.StaticFallback(false))
//
//	// Custom behavior injection
//	registry.Clients[ai.ProviderDocs].EmbedFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("backend down")
//	}
//
//	// Check call counts
//	count := registry.Clients[ai.ProviderLocal].CallCount()
//
// Default behavior returns deterministic unit vectors derived from each
// text's FNV hash, so identical text always embeds identically.
package mock
