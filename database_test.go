package quarry

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/quarry/ai/mock"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/search"
)

func testDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase("", WithInMemory(), WithRegistry(mock.NewMockRegistry()))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// twoParagraphDocument builds a ~2000 character document of two distinct
// paragraphs. The marker word appears once, early in paragraph one.
func twoParagraphDocument() string {
	paragraphOne := "The flamingo cluster runs nightly compactions. " +
		strings.Repeat("Storage engines reorganize their on-disk tables to keep read paths short. ", 12)
	paragraphTwo := strings.Repeat("Wild yeast cultures ferment slowly and give sourdough bread its open crumb. ", 13)
	return paragraphOne + "\n\n" + paragraphTwo
}

func TestDatabaseEndToEnd(t *testing.T) {
	db := testDatabase(t)
	ctx := context.Background()

	collection, err := db.CreateCollection(ctx, "knowledge", "mixed notes", false)
	require.NoError(t, err)

	document, err := db.AddDocument(ctx, collection.Id, "nightly notes", "text/plain", nil)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, document.Status)

	pipeline, err := db.NewIngestionPipeline()
	require.NoError(t, err)
	defer pipeline.Release()

	text := twoParagraphDocument()
	require.GreaterOrEqual(t, len(text), 1900)
	require.NoError(t, pipeline.Ingest(ctx, document.Id, text))

	chunks, err := db.ChunkRepository().GetChunksByDocument(ctx, document.Id)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Text), 800)
		assert.Len(t, chunk.Vector, chunk.Embedding.Dimensions)
	}

	searcher, err := db.NewSearcher()
	require.NoError(t, err)

	t.Run("vector query ranks the matching chunk first", func(t *testing.T) {
		target := chunks[len(chunks)-1]
		response, err := searcher.Search(ctx, search.Request{
			Query:        target.Text,
			CollectionID: collection.Id,
		})
		require.NoError(t, err)
		require.NotEmpty(t, response.Results)
		assert.Equal(t, target.Id, response.Results[0].ChunkID)
		assert.Greater(t, response.Results[0].Score, 0.0)
	})

	t.Run("lexical agreement does not hurt precision", func(t *testing.T) {
		// "flamingo" occurs exactly once, in the first chunk. Hybrid mode
		// must rank that chunk at least as high as vector-only mode does.
		vectorResp, err := searcher.Search(ctx, search.Request{
			Query:        "flamingo",
			CollectionID: collection.Id,
			Mode:         search.ModeVector,
		})
		require.NoError(t, err)
		hybridResp, err := searcher.Search(ctx, search.Request{
			Query:        "flamingo",
			CollectionID: collection.Id,
			Mode:         search.ModeHybrid,
		})
		require.NoError(t, err)

		vectorRank := rankOf(vectorResp.Results, chunks[0].Id)
		hybridRank := rankOf(hybridResp.Results, chunks[0].Id)
		require.GreaterOrEqual(t, hybridRank, 0)
		if vectorRank >= 0 {
			assert.LessOrEqual(t, hybridRank, vectorRank)
		} else {
			assert.Equal(t, 0, hybridRank)
		}
	})

	t.Run("budget summary readable", func(t *testing.T) {
		db.Guard().Flush()
		summary, err := db.BudgetSummary(ctx, core.PeriodOf(document.InsertedAt))
		require.NoError(t, err)
		assert.Greater(t, summary.CurrentSpend, 0.0)
		assert.Greater(t, summary.Budget, 0.0)
	})

	t.Run("delete collection cascades", func(t *testing.T) {
		require.NoError(t, db.DeleteCollection(ctx, collection.Id))
		remaining, err := db.ChunkRepository().GetChunksByDocument(ctx, document.Id)
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})
}

func rankOf(results []*search.Result, chunkID core.ID) int {
	for i, result := range results {
		if result.ChunkID == chunkID {
			return i
		}
	}
	return -1
}

func TestDatabaseAccessors(t *testing.T) {
	db := testDatabase(t)

	assert.NotNil(t, db.CollectionRepository())
	assert.NotNil(t, db.DocumentRepository())
	assert.NotNil(t, db.ChunkRepository())
	assert.NotNil(t, db.Guard())
	assert.NotNil(t, db.Router())

	alerts, err := db.RecentAlerts(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}
