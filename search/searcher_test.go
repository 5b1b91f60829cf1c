package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/quarry/ai"
	"github.com/poiesic/quarry/ai/mock"
	"github.com/poiesic/quarry/budget"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/ingestion"
	"github.com/poiesic/quarry/storage"
	"github.com/poiesic/quarry/storage/badger"
)

const (
	passageOne = "Compaction merges overlapping tables in the background and trades write amplification against read amplification."
	passageTwo = "Sourdough starters need regular feeding with flour and water to keep the wild yeast culture active."
)

type searchEnv struct {
	repos    *badger.Repositories
	registry *mock.MockRegistry
	router   *ai.Router
	pipeline *ingestion.Pipeline
	searcher *Searcher
}

func searchFixture(t *testing.T) *searchEnv {
	t.Helper()

	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	guard, err := budget.NewGuard(repos.Usage, repos.Alerts)
	require.NoError(t, err)
	t.Cleanup(func() { guard.Close() })

	registry := mock.NewMockRegistry()
	router, err := ai.NewRouter(registry, mock.StaticFallback(false))
	require.NoError(t, err)

	pipeline, err := ingestion.NewPipeline(repos.Collections, repos.Documents, repos.Chunks, router, guard)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	searcher, err := NewSearcher(repos.Collections, repos.Documents, repos.Chunks, router)
	require.NoError(t, err)

	return &searchEnv{repos: repos, registry: registry, router: router, pipeline: pipeline, searcher: searcher}
}

func (e *searchEnv) addCollection(t *testing.T, name string) *core.Collection {
	t.Helper()
	collection, err := e.repos.Collections.AddCollection(context.Background(), &core.Collection{Name: name})
	require.NoError(t, err)
	return collection
}

func (e *searchEnv) ingest(t *testing.T, collectionID core.ID, title, text string, metadata map[string]string) *core.Document {
	t.Helper()
	ctx := context.Background()
	docs, err := e.repos.Documents.AddDocuments(ctx, &core.Document{
		CollectionId: collectionID,
		Title:        title,
		ContentType:  "text/plain",
		Status:       core.StatusPending,
		Metadata:     metadata,
	})
	require.NoError(t, err)
	require.NoError(t, e.pipeline.Ingest(ctx, docs[0].Id, text))
	return docs[0]
}

func TestSearcherValidation(t *testing.T) {
	env := searchFixture(t)
	ctx := context.Background()
	collection := env.addCollection(t, "validation")

	cases := []struct {
		name string
		req  Request
		want error
	}{
		{"empty query", Request{Query: "  ", CollectionID: collection.Id}, ErrEmptyQuery},
		{"bad mode", Request{Query: "q", CollectionID: collection.Id, Mode: "fulltext"}, ErrInvalidMode},
		{"negative topK", Request{Query: "q", CollectionID: collection.Id, TopK: -1}, ErrInvalidTopK},
		{"negative weight", Request{Query: "q", CollectionID: collection.Id, Weights: Weights{Vector: -1, Lexical: 2}}, ErrInvalidWeights},
		{"unknown collection", Request{Query: "q", CollectionID: 99999}, ErrCollectionNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.searcher.Search(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSearchVectorMode(t *testing.T) {
	env := searchFixture(t)
	ctx := context.Background()

	collection := env.addCollection(t, "notes")
	env.ingest(t, collection.Id, "storage notes", passageOne, nil)
	baking := env.ingest(t, collection.Id, "baking notes", passageTwo, nil)

	// The mock embedder is deterministic, so querying with a chunk's exact
	// text yields cosine similarity 1 for that chunk.
	response, err := env.searcher.Search(ctx, Request{Query: passageTwo, CollectionID: collection.Id})
	require.NoError(t, err)

	assert.Equal(t, ModeVector, response.Mode)
	assert.Equal(t, passageTwo, response.Query)
	assert.False(t, response.Degraded)
	assert.False(t, response.TrustScoringApplied)
	require.NotEmpty(t, response.Results)

	top := response.Results[0]
	assert.Equal(t, passageTwo, top.Text)
	assert.Equal(t, baking.Id, top.DocumentID)
	assert.Equal(t, "baking notes", top.DocumentTitle)
	assert.InDelta(t, 1.0, top.Score, 1e-3)
	assert.True(t, top.FromVector)
	assert.False(t, top.FromLexical)
	assert.Greater(t, top.Score, 0.0)

	t.Run("empty collection yields no results", func(t *testing.T) {
		fresh := env.addCollection(t, "fresh")
		response, err := env.searcher.Search(ctx, Request{Query: "anything", CollectionID: fresh.Id})
		require.NoError(t, err)
		assert.Empty(t, response.Results)
	})
}

func TestSearchHybridMode(t *testing.T) {
	env := searchFixture(t)
	ctx := context.Background()

	collection := env.addCollection(t, "hybrid")
	env.ingest(t, collection.Id, "storage notes", passageOne, nil)
	env.ingest(t, collection.Id, "baking notes", passageTwo, nil)

	response, err := env.searcher.Search(ctx, Request{
		Query:        passageTwo,
		CollectionID: collection.Id,
		Mode:         ModeHybrid,
	})
	require.NoError(t, err)

	assert.Equal(t, ModeHybrid, response.Mode)
	assert.False(t, response.Degraded)
	require.NotEmpty(t, response.Results)

	// Both branches rank the verbatim passage first, so it leads the fused
	// list with contributions from each.
	top := response.Results[0]
	assert.Equal(t, passageTwo, top.Text)
	assert.True(t, top.FromVector)
	assert.True(t, top.FromLexical)
	assert.InDelta(t, 1.0, top.RawVectorScore, 1e-3)
	assert.Greater(t, top.RawLexicalScore, 0.0)
	assert.InDelta(t, 0.7/61+0.3/61, top.Score, 1e-9)
}

// flakyChunks fails collection scans to simulate an unavailable lexical
// index; vector retrieval via FindSimilar still works.
type flakyChunks struct {
	storage.ChunkRepository
}

func (f *flakyChunks) GetChunksByCollection(ctx context.Context, collectionID core.ID) ([]*core.Chunk, error) {
	return nil, errors.New("lexical index unavailable")
}

func TestSearchHybridDegradation(t *testing.T) {
	env := searchFixture(t)
	ctx := context.Background()

	collection := env.addCollection(t, "degraded")
	env.ingest(t, collection.Id, "storage notes", passageOne, nil)

	searcher, err := NewSearcher(env.repos.Collections, env.repos.Documents,
		&flakyChunks{ChunkRepository: env.repos.Chunks}, env.router)
	require.NoError(t, err)

	response, err := searcher.Search(ctx, Request{
		Query:        passageOne,
		CollectionID: collection.Id,
		Mode:         ModeHybrid,
	})
	require.NoError(t, err)

	assert.True(t, response.Degraded)
	require.NotEmpty(t, response.Results)
	for _, result := range response.Results {
		assert.True(t, result.FromVector)
		assert.False(t, result.FromLexical)
	}
}

func TestSearchVectorFailureFailsCall(t *testing.T) {
	env := searchFixture(t)
	ctx := context.Background()

	collection := env.addCollection(t, "broken")
	env.ingest(t, collection.Id, "storage notes", passageOne, nil)

	client := env.registry.Clients[ai.ProviderDocs]
	client.EmbedFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("provider down")
	}
	t.Cleanup(client.Reset)

	for _, mode := range []Mode{ModeVector, ModeHybrid} {
		_, err := env.searcher.Search(ctx, Request{Query: "anything", CollectionID: collection.Id, Mode: mode})
		assert.ErrorIs(t, err, ErrProviderUnavailable, "mode %s", mode)
	}
}

func TestSearchTrustScoring(t *testing.T) {
	env := searchFixture(t)
	ctx := context.Background()

	collection := env.addCollection(t, "trusted")
	official := env.ingest(t, collection.Id, "official doc", passageOne, map[string]string{
		core.MetaSourceQuality: "official",
	})
	community := env.ingest(t, collection.Id, "community doc", passageOne, map[string]string{
		core.MetaSourceQuality: "community",
	})

	// Identical text means identical vectors and a similarity tie; without
	// trust scoring the newer document wins the recency tie-break.
	plain, err := env.searcher.Search(ctx, Request{Query: passageOne, CollectionID: collection.Id})
	require.NoError(t, err)
	require.Len(t, plain.Results, 2)
	assert.Equal(t, community.Id, plain.Results[0].DocumentID)

	weighted, err := env.searcher.Search(ctx, Request{
		Query:             passageOne,
		CollectionID:      collection.Id,
		ApplyTrustScoring: true,
	})
	require.NoError(t, err)
	require.Len(t, weighted.Results, 2)
	assert.True(t, weighted.TrustScoringApplied)
	assert.Equal(t, official.Id, weighted.Results[0].DocumentID)
	assert.Equal(t, core.SourceOfficial, weighted.Results[0].Metadata.SourceQuality)
	assert.Greater(t, weighted.Results[0].Score, weighted.Results[1].Score)
}
