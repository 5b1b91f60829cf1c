package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDFromContent(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := IDFromContent("the same text")
		b := IDFromContent("the same text")
		assert.Equal(t, a, b)
	})

	t.Run("distinct content distinct ids", func(t *testing.T) {
		a := IDFromContent("one")
		b := IDFromContent("two")
		assert.NotEqual(t, a, b)
	})
}

func TestChunkID(t *testing.T) {
	// Same text in two documents, or at two positions, must not collide.
	a := ChunkID(1, 0, "shared text")
	b := ChunkID(2, 0, "shared text")
	c := ChunkID(1, 1, "shared text")
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, ChunkID(1, 0, "shared text"))
}

func TestDocumentStatus(t *testing.T) {
	tests := []struct {
		status   DocumentStatus
		name     string
		terminal bool
	}{
		{StatusPending, "pending", false},
		{StatusExtracting, "extracting", false},
		{StatusChunking, "chunking", false},
		{StatusEmbedding, "embedding", false},
		{StatusComplete, "complete", true},
		{StatusError, "error", true},
		{DocumentStatus(99), "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.status.String())
			assert.Equal(t, tt.terminal, tt.status.Terminal())
		})
	}
}

func TestEmbeddingInfoZero(t *testing.T) {
	assert.True(t, EmbeddingInfo{}.Zero())
	assert.False(t, EmbeddingInfo{Provider: "local"}.Zero())
	assert.False(t, EmbeddingInfo{Dimensions: 768}.Zero())
}
