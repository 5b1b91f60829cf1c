package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage/badger"
)

func lexicalFixture(t *testing.T, texts ...string) (*LexicalSearch, core.ID) {
	t.Helper()
	ctx := context.Background()

	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	collection, err := repos.Collections.AddCollection(ctx, &core.Collection{Name: "corpus"})
	require.NoError(t, err)

	for _, text := range texts {
		docs, err := repos.Documents.AddDocuments(ctx, &core.Document{
			CollectionId: collection.Id,
			Title:        text[:10],
			Status:       core.StatusPending,
		})
		require.NoError(t, err)

		_, err = repos.Chunks.AddChunks(ctx, &core.Chunk{
			DocumentId:   docs[0].Id,
			CollectionId: collection.Id,
			Position:     0,
			Text:         text,
		})
		require.NoError(t, err)
		require.NoError(t, repos.Documents.SetDocumentStatus(ctx, docs[0].Id, core.StatusComplete, ""))
	}

	lexical, err := NewLexicalSearch(repos.Chunks)
	require.NoError(t, err)
	return lexical, collection.Id
}

func TestLexicalSearch(t *testing.T) {
	lexical, collectionID := lexicalFixture(t,
		"kubernetes pod scheduling and affinity rules for multi tenant clusters",
		"kubernetes service networking basics",
		"postgres index tuning with partial and covering indexes",
	)
	ctx := context.Background()

	t.Run("matching chunks only", func(t *testing.T) {
		results, err := lexical.Search(ctx, "kubernetes", collectionID, 10)
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, result := range results {
			assert.Contains(t, result.Chunk.Text, "kubernetes")
			assert.Greater(t, result.Score, 0.0)
		}
	})

	t.Run("more matching terms rank higher", func(t *testing.T) {
		results, err := lexical.Search(ctx, "postgres index tuning", collectionID, 10)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Contains(t, results[0].Chunk.Text, "postgres")
	})

	t.Run("rarer terms score higher", func(t *testing.T) {
		// "kubernetes" appears in two chunks, "postgres" in one; with equal
		// term frequency the rarer term carries more idf weight.
		common, err := lexical.Search(ctx, "kubernetes", collectionID, 1)
		require.NoError(t, err)
		rare, err := lexical.Search(ctx, "postgres", collectionID, 1)
		require.NoError(t, err)
		require.Len(t, common, 1)
		require.Len(t, rare, 1)
		assert.Greater(t, rare[0].Score, 0.0)
	})

	t.Run("no matches yields empty results", func(t *testing.T) {
		results, err := lexical.Search(ctx, "zanzibar", collectionID, 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("topK limits results", func(t *testing.T) {
		results, err := lexical.Search(ctx, "kubernetes", collectionID, 1)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("empty collection", func(t *testing.T) {
		results, err := lexical.Search(ctx, "kubernetes", core.ID(424242), 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestLexicalSearchValidation(t *testing.T) {
	lexical, collectionID := lexicalFixture(t, "some indexed text")
	ctx := context.Background()

	_, err := lexical.Search(ctx, "   \t\n", collectionID, 10)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	// Stop words only leaves no searchable terms.
	_, err = lexical.Search(ctx, "the and of", collectionID, 10)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestTokenizeAndFilter(t *testing.T) {
	tokens := tokenizeAndFilter("The quick (brown) Fox, and the lazy dog!")
	assert.Equal(t, []string{"quick", "brown", "fox", "lazy", "dog"}, tokens)

	assert.Empty(t, tokenizeAndFilter("the a an"))
	assert.Empty(t, tokenizeAndFilter(""))
}
