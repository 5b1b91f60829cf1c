package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

func testRepositories(t *testing.T) *Repositories {
	t.Helper()
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

func TestCollectionCRUD(t *testing.T) {
	repos := testRepositories(t)
	ctx := context.Background()

	collection, err := repos.Collections.AddCollection(ctx, &core.Collection{
		Name:        "runbooks",
		Description: "operational runbooks",
	})
	require.NoError(t, err)
	assert.NotZero(t, collection.Id)
	assert.False(t, collection.InsertedAt.IsZero())

	t.Run("get by id", func(t *testing.T) {
		got, err := repos.Collections.GetCollection(ctx, collection.Id)
		require.NoError(t, err)
		assert.Equal(t, "runbooks", got.Name)
	})

	t.Run("get by name", func(t *testing.T) {
		got, err := repos.Collections.GetCollectionByName(ctx, "runbooks")
		require.NoError(t, err)
		assert.Equal(t, collection.Id, got.Id)
	})

	t.Run("duplicate name rejected", func(t *testing.T) {
		_, err := repos.Collections.AddCollection(ctx, &core.Collection{Name: "runbooks"})
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := repos.Collections.AddCollection(ctx, &core.Collection{})
		assert.ErrorIs(t, err, core.ErrInvalidCollection)
	})

	t.Run("missing collection", func(t *testing.T) {
		_, err := repos.Collections.GetCollection(ctx, 99999)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		_, err = repos.Collections.GetCollectionByName(ctx, "nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestListCollectionsOrderedByName(t *testing.T) {
	repos := testRepositories(t)
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := repos.Collections.AddCollection(ctx, &core.Collection{Name: name})
		require.NoError(t, err)
	}

	collections, err := repos.Collections.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, collections, 3)
	assert.Equal(t, "alpha", collections[0].Name)
	assert.Equal(t, "mid", collections[1].Name)
	assert.Equal(t, "zeta", collections[2].Name)
}

func TestDeleteCollectionCascades(t *testing.T) {
	repos := testRepositories(t)
	ctx := context.Background()

	collection, err := repos.Collections.AddCollection(ctx, &core.Collection{Name: "docs"})
	require.NoError(t, err)

	docs, err := repos.Documents.AddDocuments(ctx, &core.Document{
		CollectionId: collection.Id,
		Title:        "guide",
		Status:       core.StatusComplete,
	})
	require.NoError(t, err)
	doc := docs[0]

	_, err = repos.Chunks.AddChunks(ctx, &core.Chunk{
		DocumentId:   doc.Id,
		CollectionId: collection.Id,
		Position:     0,
		Text:         "some chunk text",
	})
	require.NoError(t, err)

	require.NoError(t, repos.Collections.DeleteCollection(ctx, collection.Id))

	_, err = repos.Collections.GetCollection(ctx, collection.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = repos.Documents.GetDocument(ctx, doc.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	chunks, err := repos.Chunks.GetChunksByDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	// Name freed for reuse
	_, err = repos.Collections.AddCollection(ctx, &core.Collection{Name: "docs"})
	assert.NoError(t, err)
}

func TestDeleteMissingCollection(t *testing.T) {
	repos := testRepositories(t)
	err := repos.Collections.DeleteCollection(context.Background(), 4242)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
