// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/poiesic/quarry/ai"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

// VectorSearch embeds a query with the provider its target collection is
// pinned to and runs nearest-neighbor retrieval over the collection's chunks.
// Scores are cosine similarity in [-1, 1].
type VectorSearch struct {
	documents     storage.DocumentRepository
	chunks        storage.ChunkRepository
	router        *ai.Router
	minSimilarity float32
	logger        *slog.Logger
}

// NewVectorSearch creates a vector search. minSimilarity filters out hits
// below the threshold; 0 keeps every non-negative match.
func NewVectorSearch(documents storage.DocumentRepository, chunks storage.ChunkRepository, router *ai.Router, minSimilarity float32, logger *slog.Logger) (*VectorSearch, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if router == nil {
		return nil, ErrRouterRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VectorSearch{
		documents:     documents,
		chunks:        chunks,
		router:        router,
		minSimilarity: minSimilarity,
		logger:        logger,
	}, nil
}

// Search returns up to topK chunks ranked by cosine similarity, highest
// first. Equal scores are broken by document recency (newer first); chunk
// insertion time stands in for document recency since all of a document's
// chunks are written when it completes ingestion.
//
// A collection with no completed documents yields no results, not an error.
// The query is embedded with the provider the collection is pinned to, so
// query and chunk vectors live in the same space.
func (v *VectorSearch) Search(ctx context.Context, query string, collectionID core.ID, topK int) ([]*core.ScoredChunk, error) {
	pinned, err := v.documents.CollectionEmbedding(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if pinned.Zero() {
		v.logger.Debug("collection has no completed documents", "collection", collectionID)
		return nil, nil
	}

	selection, err := v.router.SelectByName(ai.ProviderName(pinned.Provider))
	if err != nil {
		return nil, err
	}
	client, err := v.router.Client(selection)
	if err != nil {
		return nil, err
	}

	vectors, err := client.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 query vector, got %d", ErrProviderUnavailable, len(vectors))
	}
	queryVector := ai.NormalizeVector(vectors[0])

	matches, err := v.chunks.FindSimilar(ctx, collectionID, queryVector, v.minSimilarity, topK)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Chunk.InsertedAt.After(matches[j].Chunk.InsertedAt)
	})
	return matches, nil
}
