package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is a minimal in-package EmbeddingClient for router tests.
type fakeClient struct {
	name ProviderName
	dims int
	paid bool
}

func (f *fakeClient) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dims)
	}
	return out, nil
}

func (f *fakeClient) Name() ProviderName { return f.name }
func (f *fakeClient) Model() string      { return "fake-" + string(f.name) }
func (f *fakeClient) Dimensions() int    { return f.dims }
func (f *fakeClient) IsPaid() bool       { return f.paid }
func (f *fakeClient) BatchSize() int     { return 32 }
func (f *fakeClient) Close() error       { return nil }

type staticPolicy bool

func (s staticPolicy) ForcedFallback() bool { return bool(s) }

func fakeRegistry(t *testing.T) *ClientRegistry {
	t.Helper()
	registry, err := NewClientRegistry(
		&fakeClient{name: ProviderLocal, dims: 768},
		&fakeClient{name: ProviderDocs, dims: 1536, paid: true},
		&fakeClient{name: ProviderCode, dims: 768, paid: true},
		&fakeClient{name: ProviderWriting, dims: 1024, paid: true},
	)
	require.NoError(t, err)
	return registry
}

const goSnippet = `package main

import "fmt"

func main() {
	fmt.Println("hi")
}`

func TestRouterSelectProvider(t *testing.T) {
	registry := fakeRegistry(t)

	t.Run("documentation default", func(t *testing.T) {
		router, err := NewRouter(registry, staticPolicy(false))
		require.NoError(t, err)

		sel, err := router.SelectProvider("How to configure the server.", Hints{})
		require.NoError(t, err)
		assert.Equal(t, ProviderDocs, sel.Provider)
		assert.Equal(t, 1536, sel.Dimensions)
	})

	t.Run("declared code hint", func(t *testing.T) {
		router, err := NewRouter(registry, staticPolicy(false))
		require.NoError(t, err)

		sel, err := router.SelectProvider("plain text", Hints{DocType: DocTypeCode})
		require.NoError(t, err)
		assert.Equal(t, ProviderCode, sel.Provider)
	})

	t.Run("detected code", func(t *testing.T) {
		router, err := NewRouter(registry, staticPolicy(false))
		require.NoError(t, err)

		sel, err := router.SelectProvider(goSnippet, Hints{})
		require.NoError(t, err)
		assert.Equal(t, ProviderCode, sel.Provider)
	})

	t.Run("personal writing", func(t *testing.T) {
		router, err := NewRouter(registry, staticPolicy(false))
		require.NoError(t, err)

		sel, err := router.SelectProvider("Dear diary, today was quiet.", Hints{Personal: true})
		require.NoError(t, err)
		assert.Equal(t, ProviderWriting, sel.Provider)
	})

	t.Run("code beats personal", func(t *testing.T) {
		router, err := NewRouter(registry, staticPolicy(false))
		require.NoError(t, err)

		sel, err := router.SelectProvider(goSnippet, Hints{Personal: true})
		require.NoError(t, err)
		assert.Equal(t, ProviderCode, sel.Provider)
	})

	t.Run("budget fallback overrides everything", func(t *testing.T) {
		router, err := NewRouter(registry, staticPolicy(true))
		require.NoError(t, err)

		sel, err := router.SelectProvider(goSnippet, Hints{DocType: DocTypeCode})
		require.NoError(t, err)
		assert.Equal(t, ProviderLocal, sel.Provider)
		assert.Equal(t, 768, sel.Dimensions)
	})
}

// Routing is deterministic: the same content and budget state always produce
// the same selection, so query embeddings match the collection's index.
func TestRouterDeterminism(t *testing.T) {
	registry := fakeRegistry(t)
	router, err := NewRouter(registry, staticPolicy(false))
	require.NoError(t, err)

	inputs := []struct {
		text  string
		hints Hints
	}{
		{"How to configure the server.", Hints{}},
		{goSnippet, Hints{}},
		{"Dear diary.", Hints{Personal: true}},
	}
	for _, input := range inputs {
		first, err := router.SelectProvider(input.text, input.hints)
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			again, err := router.SelectProvider(input.text, input.hints)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	}
}

func TestRouterSelectByName(t *testing.T) {
	registry := fakeRegistry(t)

	t.Run("resolves pinned provider", func(t *testing.T) {
		router, err := NewRouter(registry, staticPolicy(false))
		require.NoError(t, err)

		sel, err := router.SelectByName(ProviderWriting)
		require.NoError(t, err)
		assert.Equal(t, ProviderWriting, sel.Provider)
		assert.Equal(t, 1024, sel.Dimensions)
	})

	t.Run("fallback substitutes paid provider", func(t *testing.T) {
		router, err := NewRouter(registry, staticPolicy(true))
		require.NoError(t, err)

		sel, err := router.SelectByName(ProviderDocs)
		require.NoError(t, err)
		assert.Equal(t, ProviderLocal, sel.Provider)
	})

	t.Run("fallback keeps free provider", func(t *testing.T) {
		router, err := NewRouter(registry, staticPolicy(true))
		require.NoError(t, err)

		sel, err := router.SelectByName(ProviderLocal)
		require.NoError(t, err)
		assert.Equal(t, ProviderLocal, sel.Provider)
	})

	t.Run("unknown provider", func(t *testing.T) {
		router, err := NewRouter(registry, staticPolicy(false))
		require.NoError(t, err)

		_, err = router.SelectByName(ProviderName("nope"))
		assert.ErrorIs(t, err, ErrUnknownProvider)
	})
}

func TestNewRouterValidation(t *testing.T) {
	registry := fakeRegistry(t)

	_, err := NewRouter(nil, staticPolicy(false))
	assert.Error(t, err)

	_, err = NewRouter(registry, nil)
	assert.ErrorIs(t, err, ErrBudgetGuardRequired)
}

func TestClientRegistry(t *testing.T) {
	t.Run("duplicate names rejected", func(t *testing.T) {
		_, err := NewClientRegistry(
			&fakeClient{name: ProviderLocal, dims: 768},
			&fakeClient{name: ProviderLocal, dims: 768},
		)
		assert.Error(t, err)
	})

	t.Run("empty registry rejected", func(t *testing.T) {
		_, err := NewClientRegistry()
		assert.Error(t, err)
	})

	t.Run("lookup", func(t *testing.T) {
		registry := fakeRegistry(t)
		client, err := registry.Client(ProviderCode)
		require.NoError(t, err)
		assert.Equal(t, ProviderCode, client.Name())

		_, err = registry.Client(ProviderName("missing"))
		assert.ErrorIs(t, err, ErrUnknownProvider)
	})
}
