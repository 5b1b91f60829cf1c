package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Local.Host)
	assert.Equal(t, "embeddinggemma", cfg.Local.Model)
	assert.Equal(t, 768, cfg.Local.Dimensions)
	assert.False(t, cfg.Local.Paid)

	assert.Equal(t, "text-embedding-3-small", cfg.Docs.Model)
	assert.Equal(t, 1536, cfg.Docs.Dimensions)
	assert.True(t, cfg.Docs.Paid)

	assert.Equal(t, "jina-embeddings-v2-base-code", cfg.Code.Model)
	assert.Equal(t, "jina-embeddings-v3", cfg.Writing.Model)
	assert.Equal(t, 1024, cfg.Writing.Dimensions)

	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 10000, cfg.CacheSize)
}

func TestNewConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithCodeProvider(ProviderSpec{
			Host:       "http://localhost:8080",
			Model:      "custom-code",
			Dimensions: 512,
			BatchSize:  16,
			Paid:       true,
		}),
		WithMaxRetries(5),
		WithCacheSize(0),
	)

	assert.Equal(t, "custom-code", cfg.Code.Model)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 0, cfg.CacheSize)
	// Unrelated defaults untouched
	assert.Equal(t, "embeddinggemma", cfg.Local.Model)
}

func TestConfigNormalize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Local.Host = "http://localhost:11434"
	cfg.Code.Host = "https://api.jina.ai/"

	cfg.Normalize()

	assert.Equal(t, "http://localhost:11434/v1", cfg.Local.Host)
	assert.Equal(t, "https://api.jina.ai/v1", cfg.Code.Host)
	// Already-normalized hosts stay put
	assert.Equal(t, "https://api.openai.com/v1", cfg.Docs.Host)
}

func TestConfigValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, DefaultConfig().Validate())
	})

	t.Run("missing model", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Writing.Model = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing host", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Docs.Host = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive dimensions", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Code.Dimensions = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("paid local provider rejected", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Local.Paid = true
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero retries rejected", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxRetries = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestConfigSpec(t *testing.T) {
	cfg := DefaultConfig()

	spec, ok := cfg.Spec(ProviderWriting)
	require.True(t, ok)
	assert.Equal(t, "jina-embeddings-v3", spec.Model)

	_, ok = cfg.Spec(ProviderName("nonexistent"))
	assert.False(t, ok)
}
