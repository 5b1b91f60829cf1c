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
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/quarry/ai"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

// Searcher is the public entry point for retrieval. It orchestrates the
// vector and lexical branches, rank fusion and trust/recency scoring.
type Searcher struct {
	collections storage.CollectionRepository
	documents   storage.DocumentRepository
	vector      *VectorSearch
	lexical     *LexicalSearch
	logger      *slog.Logger

	defaultMode    Mode
	defaultWeights Weights
	rrfConstant    int
	minSimilarity  float32
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithDefaultMode sets the mode used when a request leaves Mode empty.
func WithDefaultMode(mode Mode) Option {
	return func(s *Searcher) error {
		if mode != ModeVector && mode != ModeHybrid {
			return ErrInvalidMode
		}
		s.defaultMode = mode
		return nil
	}
}

// WithDefaultWeights sets the fusion weights used when a request leaves
// Weights unset.
func WithDefaultWeights(weights Weights) Option {
	return func(s *Searcher) error {
		if !weights.valid() {
			return ErrInvalidWeights
		}
		s.defaultWeights = weights
		return nil
	}
}

// WithRRFConstant sets the k in the reciprocal rank formula.
// Default is DefaultRRFConstant.
func WithRRFConstant(k int) Option {
	return func(s *Searcher) error {
		if k < 0 {
			k = DefaultRRFConstant
		}
		s.rrfConstant = k
		return nil
	}
}

// WithMinSimilarity sets the cosine similarity floor for vector hits.
// Default is 0.
func WithMinSimilarity(threshold float32) Option {
	return func(s *Searcher) error {
		s.minSimilarity = threshold
		return nil
	}
}

// NewSearcher creates a searcher over the given repositories and router.
func NewSearcher(
	collections storage.CollectionRepository,
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	router *ai.Router,
	opts ...Option,
) (*Searcher, error) {
	if collections == nil {
		return nil, ErrCollectionRepositoryRequired
	}
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if router == nil {
		return nil, ErrRouterRequired
	}

	s := &Searcher{
		collections:    collections,
		documents:      documents,
		logger:         slog.Default().With("component", "search"),
		defaultMode:    ModeVector,
		defaultWeights: DefaultWeights,
		rrfConstant:    DefaultRRFConstant,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	vector, err := NewVectorSearch(documents, chunks, router, s.minSimilarity, s.logger)
	if err != nil {
		return nil, err
	}
	lexical, err := NewLexicalSearch(chunks)
	if err != nil {
		return nil, err
	}
	s.vector = vector
	s.lexical = lexical
	return s, nil
}

// Search runs one retrieval call. Zero-valued request fields take the
// searcher's defaults.
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	return s.SearchWithMonitor(ctx, req, nil)
}

// SearchWithMonitor runs one retrieval call with per-stage observation
// hooks. A nil monitor is replaced with a no-op.
func (s *Searcher) SearchWithMonitor(ctx context.Context, req Request, monitor Monitor) (*Response, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(req.Query)

	req, err := req.normalize(s.defaultMode, s.defaultWeights)
	if err != nil {
		return nil, err
	}
	if _, err := s.collections.GetCollection(ctx, req.CollectionID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrCollectionNotFound, req.CollectionID)
		}
		return nil, err
	}

	var response *Response
	switch req.Mode {
	case ModeVector:
		response, err = s.searchVector(ctx, req, monitor)
	case ModeHybrid:
		response, err = s.searchHybrid(ctx, req, monitor)
	}
	if err != nil {
		return nil, err
	}

	monitor.Finish(response)
	return response, nil
}

// searchVector is the vector-only path: one branch, scores are raw cosine
// similarities.
func (s *Searcher) searchVector(ctx context.Context, req Request, monitor Monitor) (*Response, error) {
	matches, err := s.vector.Search(ctx, req.Query, req.CollectionID, req.TopK)
	if err != nil {
		return nil, err
	}
	monitor.AfterVectorSearch(matches)

	results := make([]*FusedChunk, len(matches))
	for i, match := range matches {
		results[i] = &FusedChunk{
			Chunk:       match.Chunk,
			Score:       match.Score,
			VectorScore: match.Score,
			InVector:    true,
		}
	}
	return s.finish(ctx, req, results, false, monitor)
}

// searchHybrid runs both branches concurrently and fuses the rankings. A
// failed lexical branch degrades to vector-only results; a failed vector
// branch fails the call, cancelling the lexical branch with it.
func (s *Searcher) searchHybrid(ctx context.Context, req Request, monitor Monitor) (*Response, error) {
	expanded := req.TopK * candidateExpansion

	var (
		vectorMatches  []*core.ScoredChunk
		lexicalMatches []*core.ScoredChunk
		lexicalErr     error
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		vectorMatches, err = s.vector.Search(groupCtx, req.Query, req.CollectionID, expanded)
		return err
	})
	group.Go(func() error {
		var err error
		lexicalMatches, err = s.lexical.Search(groupCtx, req.Query, req.CollectionID, expanded)
		if err != nil {
			lexicalErr = err
			lexicalMatches = nil
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}
	monitor.AfterVectorSearch(vectorMatches)
	if lexicalErr != nil {
		s.logger.Warn("lexical branch failed, degrading to vector-only results",
			"collection", req.CollectionID, "err", lexicalErr)
		monitor.LexicalSearchFailed(lexicalErr)
	} else {
		monitor.AfterLexicalSearch(lexicalMatches)
	}

	fused := Fuse(vectorMatches, lexicalMatches, req.Weights, s.rrfConstant, req.TopK)
	monitor.AfterFusion(fused)

	return s.finish(ctx, req, fused, lexicalErr != nil, monitor)
}

// finish optionally applies trust/recency scoring and assembles the response.
func (s *Searcher) finish(ctx context.Context, req Request, results []*FusedChunk, degraded bool, monitor Monitor) (*Response, error) {
	documents := s.fetchDocuments(ctx, results)

	if req.ApplyTrustScoring {
		applyTrustRecency(results, documents, time.Now().UTC())
		monitor.AfterTrustScoring(results)
	}

	response := &Response{
		Query:               req.Query,
		Mode:                req.Mode,
		Results:             make([]*Result, len(results)),
		TrustScoringApplied: req.ApplyTrustScoring,
		Degraded:            degraded,
	}
	for i, fused := range results {
		result := &Result{
			ChunkID:         fused.Chunk.Id,
			DocumentID:      fused.Chunk.DocumentId,
			Text:            fused.Chunk.Text,
			Score:           fused.Score,
			RawVectorScore:  fused.VectorScore,
			FromVector:      fused.InVector,
			RawLexicalScore: fused.LexicalScore,
			FromLexical:     fused.InLexical,
			Metadata: ResultMetadata{
				Page:          fused.Chunk.Page,
				Section:       fused.Chunk.Section,
				SourceQuality: core.SourceUnknown,
			},
		}
		if doc, ok := documents[fused.Chunk.DocumentId]; ok {
			result.DocumentTitle = doc.Title
			if quality := doc.Metadata[core.MetaSourceQuality]; quality != "" {
				result.Metadata.SourceQuality = core.SourceQuality(quality)
			}
			result.Metadata.LastVerified = doc.Metadata[core.MetaLastVerified]
		}
		response.Results[i] = result
	}
	return response, nil
}

// fetchDocuments loads the owning document of every result. A document that
// cannot be loaded is logged and skipped; its results keep an empty title and
// default metadata.
func (s *Searcher) fetchDocuments(ctx context.Context, results []*FusedChunk) map[core.ID]*core.Document {
	documents := make(map[core.ID]*core.Document)
	for _, result := range results {
		id := result.Chunk.DocumentId
		if _, ok := documents[id]; ok {
			continue
		}
		doc, err := s.documents.GetDocument(ctx, id)
		if err != nil {
			s.logger.Warn("failed to load document for result", "document", id, "err", err)
			continue
		}
		documents[id] = doc
	}
	return documents
}
