package ai

import (
	"errors"
	"fmt"
	"log/slog"
)

// ClientRegistry is the standard Registry implementation: a fixed map from
// provider name to client, built once at startup.
type ClientRegistry struct {
	clients map[ProviderName]EmbeddingClient
	logger  *slog.Logger
}

var _ Registry = (*ClientRegistry)(nil)

// NewClientRegistry builds a registry from the given clients. Every client is
// registered under its own Name(); duplicate names are rejected.
func NewClientRegistry(clients ...EmbeddingClient) (*ClientRegistry, error) {
	if len(clients) == 0 {
		return nil, errors.New("at least one embedding client required")
	}
	m := make(map[ProviderName]EmbeddingClient, len(clients))
	for _, client := range clients {
		if client == nil {
			return nil, errors.New("nil embedding client")
		}
		if _, dup := m[client.Name()]; dup {
			return nil, fmt.Errorf("duplicate embedding client %q", client.Name())
		}
		m[client.Name()] = client
	}
	return &ClientRegistry{
		clients: m,
		logger:  slog.Default().With("component", "provider-registry"),
	}, nil
}

// Client returns the client registered under name.
func (r *ClientRegistry) Client(name ProviderName) (EmbeddingClient, error) {
	client, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return client, nil
}

// Close closes every registered client, returning the first error seen.
func (r *ClientRegistry) Close() error {
	var firstErr error
	for name, client := range r.clients {
		if err := client.Close(); err != nil {
			r.logger.Error("error closing embedding client", "provider", name, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
