package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkMUSRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	chunk := Chunk{
		Id:           ChunkID(7, 2, "body text"),
		DocumentId:   7,
		CollectionId: 3,
		Position:     2,
		Text:         "body text",
		Vector:       []float32{0.5, -0.25, 0.125},
		StartOffset:  1600,
		EndOffset:    1609,
		Page:         4,
		Section:      "Installation",
		Embedding:    EmbeddingInfo{Provider: "docs", Model: "text-embedding-3-small", Dimensions: 3},
		InsertedAt:   now,
	}

	buf := make([]byte, ChunkMUS.Size(chunk))
	n := ChunkMUS.Marshal(chunk, buf)
	require.Equal(t, len(buf), n)

	decoded, n, err := ChunkMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, chunk, decoded)
}

func TestDocumentMUSRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	doc := Document{
		Id:           11,
		CollectionId: 3,
		Title:        "Operations Guide",
		ContentType:  "text/markdown",
		Status:       StatusError,
		Error:        "provider unavailable",
		Metadata: map[string]string{
			MetaDocType:       "documentation",
			MetaSourceQuality: string(SourceVerified),
		},
		Embedding:  EmbeddingInfo{Provider: "local", Model: "embeddinggemma", Dimensions: 768},
		InsertedAt: now,
		UpdatedAt:  now,
	}

	buf := make([]byte, DocumentMUS.Size(doc))
	require.Equal(t, len(buf), DocumentMUS.Marshal(doc, buf))

	decoded, _, err := DocumentMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestBudgetAlertMUSRoundTrip(t *testing.T) {
	alert := BudgetAlert{
		Id:             1,
		Type:           AlertWarning,
		Period:         "2026-08",
		Threshold:      0.8,
		SpendAtTrigger: 40.25,
		Acknowledged:   false,
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}

	buf := make([]byte, BudgetAlertMUS.Size(alert))
	require.Equal(t, len(buf), BudgetAlertMUS.Marshal(alert, buf))

	decoded, _, err := BudgetAlertMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, alert, decoded)
}
