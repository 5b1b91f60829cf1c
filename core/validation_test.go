package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCollection(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		err := ValidateCollection(&Collection{Name: "docs"})
		assert.NoError(t, err)
	})

	t.Run("nil", func(t *testing.T) {
		err := ValidateCollection(nil)
		assert.ErrorIs(t, err, ErrInvalidCollection)
	})

	t.Run("empty name", func(t *testing.T) {
		err := ValidateCollection(&Collection{})
		assert.ErrorIs(t, err, ErrEmptyName)
	})
}

func TestValidateDocument(t *testing.T) {
	valid := func() *Document {
		return &Document{CollectionId: 1, Title: "readme", Status: StatusPending}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateDocument(valid()))
	})

	t.Run("nil", func(t *testing.T) {
		assert.ErrorIs(t, ValidateDocument(nil), ErrInvalidDocument)
	})

	t.Run("missing collection", func(t *testing.T) {
		doc := valid()
		doc.CollectionId = 0
		assert.ErrorIs(t, ValidateDocument(doc), ErrInvalidDocument)
	})

	t.Run("missing title", func(t *testing.T) {
		doc := valid()
		doc.Title = ""
		assert.ErrorIs(t, ValidateDocument(doc), ErrEmptyName)
	})

	t.Run("bad status", func(t *testing.T) {
		doc := valid()
		doc.Status = DocumentStatus(42)
		assert.ErrorIs(t, ValidateDocument(doc), ErrInvalidStatus)
	})
}

func TestValidateChunk(t *testing.T) {
	valid := func() *Chunk {
		return &Chunk{
			DocumentId: 1,
			Text:       "some text",
			Vector:     []float32{0.1, 0.2, 0.3},
			Embedding:  EmbeddingInfo{Provider: "local", Model: "m", Dimensions: 3},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateChunk(valid()))
	})

	t.Run("no vector yet is valid", func(t *testing.T) {
		chunk := valid()
		chunk.Vector = nil
		assert.NoError(t, ValidateChunk(chunk))
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		chunk := valid()
		chunk.Embedding.Dimensions = 768
		err := ValidateChunk(chunk)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("empty text", func(t *testing.T) {
		chunk := valid()
		chunk.Text = ""
		assert.ErrorIs(t, ValidateChunk(chunk), ErrEmptyText)
	})

	t.Run("negative position", func(t *testing.T) {
		chunk := valid()
		chunk.Position = -1
		assert.ErrorIs(t, ValidateChunk(chunk), ErrInvalidChunk)
	})
}

func TestValidateUsageRecord(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		err := ValidateUsageRecord(&UsageRecord{Provider: "docs", Operation: OpEmbed, Units: 100})
		assert.NoError(t, err)
	})

	t.Run("unknown operation", func(t *testing.T) {
		err := ValidateUsageRecord(&UsageRecord{Provider: "docs", Operation: "summon"})
		assert.ErrorIs(t, err, ErrInvalidOperation)
	})

	t.Run("missing provider", func(t *testing.T) {
		err := ValidateUsageRecord(&UsageRecord{Operation: OpEmbed})
		assert.ErrorIs(t, err, ErrInvalidUsageRecord)
	})
}
