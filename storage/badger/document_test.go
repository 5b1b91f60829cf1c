package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

func addTestCollection(t *testing.T, repos *Repositories, name string) *core.Collection {
	t.Helper()
	collection, err := repos.Collections.AddCollection(context.Background(), &core.Collection{Name: name})
	require.NoError(t, err)
	return collection
}

func TestDocumentCRUD(t *testing.T) {
	repos := testRepositories(t)
	ctx := context.Background()
	collection := addTestCollection(t, repos, "kb")

	docs, err := repos.Documents.AddDocuments(ctx, &core.Document{
		CollectionId: collection.Id,
		Title:        "setup guide",
		ContentType:  "text/markdown",
		Status:       core.StatusPending,
		Metadata:     map[string]string{core.MetaDocType: "documentation"},
	})
	require.NoError(t, err)
	doc := docs[0]
	assert.NotZero(t, doc.Id)
	assert.False(t, doc.InsertedAt.IsZero())

	t.Run("get", func(t *testing.T) {
		got, err := repos.Documents.GetDocument(ctx, doc.Id)
		require.NoError(t, err)
		assert.Equal(t, "setup guide", got.Title)
		assert.Equal(t, "documentation", got.Metadata[core.MetaDocType])
	})

	t.Run("list by collection", func(t *testing.T) {
		got, err := repos.Documents.GetDocumentsByCollection(ctx, collection.Id)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, doc.Id, got[0].Id)
	})

	t.Run("update", func(t *testing.T) {
		doc.Title = "installation guide"
		_, err := repos.Documents.UpdateDocuments(ctx, doc)
		require.NoError(t, err)

		got, err := repos.Documents.GetDocument(ctx, doc.Id)
		require.NoError(t, err)
		assert.Equal(t, "installation guide", got.Title)
		assert.True(t, got.UpdatedAt.After(got.InsertedAt) || got.UpdatedAt.Equal(got.InsertedAt))
	})

	t.Run("update missing", func(t *testing.T) {
		_, err := repos.Documents.UpdateDocuments(ctx, &core.Document{
			Id:           99999,
			CollectionId: collection.Id,
			Title:        "ghost",
			Status:       core.StatusPending,
		})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := repos.Documents.AddDocuments(ctx, &core.Document{Title: "orphan", Status: core.StatusPending})
		assert.ErrorIs(t, err, core.ErrInvalidDocument)
	})
}

func TestSetDocumentStatus(t *testing.T) {
	repos := testRepositories(t)
	ctx := context.Background()
	collection := addTestCollection(t, repos, "kb")

	docs, err := repos.Documents.AddDocuments(ctx, &core.Document{
		CollectionId: collection.Id,
		Title:        "doc",
		Status:       core.StatusPending,
	})
	require.NoError(t, err)
	doc := docs[0]

	for _, status := range []core.DocumentStatus{
		core.StatusExtracting, core.StatusChunking, core.StatusEmbedding, core.StatusComplete,
	} {
		require.NoError(t, repos.Documents.SetDocumentStatus(ctx, doc.Id, status, ""))
		got, err := repos.Documents.GetDocument(ctx, doc.Id)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status)
		assert.Empty(t, got.Error)
	}

	t.Run("error status stores message", func(t *testing.T) {
		require.NoError(t, repos.Documents.SetDocumentStatus(ctx, doc.Id, core.StatusError, "embedding backend down"))
		got, err := repos.Documents.GetDocument(ctx, doc.Id)
		require.NoError(t, err)
		assert.Equal(t, core.StatusError, got.Status)
		assert.Equal(t, "embedding backend down", got.Error)
	})

	t.Run("recovery clears message", func(t *testing.T) {
		require.NoError(t, repos.Documents.SetDocumentStatus(ctx, doc.Id, core.StatusPending, ""))
		got, err := repos.Documents.GetDocument(ctx, doc.Id)
		require.NoError(t, err)
		assert.Empty(t, got.Error)
	})

	t.Run("missing document", func(t *testing.T) {
		err := repos.Documents.SetDocumentStatus(ctx, 99999, core.StatusComplete, "")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestCollectionEmbedding(t *testing.T) {
	repos := testRepositories(t)
	ctx := context.Background()
	collection := addTestCollection(t, repos, "kb")

	t.Run("empty collection has no pin", func(t *testing.T) {
		info, err := repos.Documents.CollectionEmbedding(ctx, collection.Id)
		require.NoError(t, err)
		assert.True(t, info.Zero())
	})

	first := &core.Document{
		CollectionId: collection.Id,
		Title:        "first",
		Status:       core.StatusComplete,
		Embedding:    core.EmbeddingInfo{Provider: "docs", Model: "text-embedding-3-small", Dimensions: 1536},
		InsertedAt:   time.Now().UTC().Add(-time.Hour),
	}
	second := &core.Document{
		CollectionId: collection.Id,
		Title:        "second",
		Status:       core.StatusComplete,
		Embedding:    core.EmbeddingInfo{Provider: "local", Model: "embeddinggemma", Dimensions: 768},
	}
	pending := &core.Document{
		CollectionId: collection.Id,
		Title:        "pending",
		Status:       core.StatusPending,
	}
	_, err := repos.Documents.AddDocuments(ctx, second, first, pending)
	require.NoError(t, err)

	t.Run("earliest completed document wins", func(t *testing.T) {
		info, err := repos.Documents.CollectionEmbedding(ctx, collection.Id)
		require.NoError(t, err)
		assert.Equal(t, "docs", info.Provider)
		assert.Equal(t, 1536, info.Dimensions)
	})
}

func TestDeleteDocumentsCascadesChunks(t *testing.T) {
	repos := testRepositories(t)
	ctx := context.Background()
	collection := addTestCollection(t, repos, "kb")

	docs, err := repos.Documents.AddDocuments(ctx, &core.Document{
		CollectionId: collection.Id,
		Title:        "doc",
		Status:       core.StatusComplete,
	})
	require.NoError(t, err)
	doc := docs[0]

	_, err = repos.Chunks.AddChunks(ctx,
		&core.Chunk{DocumentId: doc.Id, CollectionId: collection.Id, Position: 0, Text: "first chunk"},
		&core.Chunk{DocumentId: doc.Id, CollectionId: collection.Id, Position: 1, Text: "second chunk"},
	)
	require.NoError(t, err)

	require.NoError(t, repos.Documents.DeleteDocuments(ctx, doc.Id))

	_, err = repos.Documents.GetDocument(ctx, doc.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	chunks, err := repos.Chunks.GetChunksByCollection(ctx, collection.Id)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
