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
	"math"
	"sort"
	"strings"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

// BM25 parameters. k1 controls term-frequency saturation, b controls document
// length normalization.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// LexicalSearch ranks a collection's chunks against a query with BM25 over
// stop-word-filtered tokens. Only chunks of complete documents participate;
// the repository scan already enforces that.
type LexicalSearch struct {
	chunks storage.ChunkRepository
}

// NewLexicalSearch creates a lexical search over the given chunk repository.
func NewLexicalSearch(chunks storage.ChunkRepository) (*LexicalSearch, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	return &LexicalSearch{chunks: chunks}, nil
}

// Search returns up to topK chunks ranked by BM25 score, highest first.
// Chunks with no matching term are excluded rather than returned with a zero
// score. An empty or whitespace-only query is a validation failure.
func (l *LexicalSearch) Search(ctx context.Context, query string, collectionID core.ID, topK int) ([]*core.ScoredChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	queryTerms := tokenizeAndFilter(query)
	if len(queryTerms) == 0 {
		return nil, ErrEmptyQuery
	}

	chunks, err := l.chunks.GetChunksByCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	// Tokenize the corpus once, collecting per-chunk term frequencies,
	// document frequencies and the average chunk length.
	frequencies := make([]map[string]int, len(chunks))
	lengths := make([]int, len(chunks))
	documentFrequency := make(map[string]int)
	totalLength := 0
	for i, chunk := range chunks {
		tokens := tokenizeAndFilter(chunk.Text)
		frequencies[i] = termFrequencies(tokens)
		lengths[i] = len(tokens)
		totalLength += len(tokens)
		for term := range frequencies[i] {
			documentFrequency[term]++
		}
	}
	averageLength := float64(totalLength) / float64(len(chunks))
	if averageLength == 0 {
		return nil, nil
	}

	corpusSize := float64(len(chunks))
	uniqueTerms := termFrequencies(queryTerms)

	scored := make([]*core.ScoredChunk, 0, len(chunks))
	for i, chunk := range chunks {
		var score float64
		for term := range uniqueTerms {
			tf := float64(frequencies[i][term])
			if tf == 0 {
				continue
			}
			df := float64(documentFrequency[term])
			idf := math.Log(1 + (corpusSize-df+0.5)/(df+0.5))
			norm := 1 - bm25B + bm25B*float64(lengths[i])/averageLength
			score += idf * tf * (bm25K1 + 1) / (tf + bm25K1*norm)
		}
		if score > 0 {
			scored = append(scored, &core.ScoredChunk{Chunk: chunk, Score: score})
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.Id < scored[j].Chunk.Id
	})
	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}
