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
	"strings"

	"github.com/poiesic/quarry/core"
)

// Mode selects the retrieval strategy for one search call.
type Mode string

const (
	// ModeVector runs nearest-neighbor retrieval only.
	ModeVector Mode = "vector"

	// ModeHybrid runs vector and lexical retrieval concurrently and fuses
	// the two rankings.
	ModeHybrid Mode = "hybrid"
)

const (
	// DefaultTopK is the result count when the request does not set one.
	DefaultTopK = 5

	// DefaultRRFConstant is the k in the reciprocal rank formula 1/(k+rank+1).
	DefaultRRFConstant = 60

	// candidateExpansion multiplies topK for the per-branch candidate lists so
	// the two rankings overlap enough for fusion to matter.
	candidateExpansion = 3
)

// DefaultWeights is the fusion weighting when the request does not set one.
// Vector similarity is the primary signal.
var DefaultWeights = Weights{Vector: 0.7, Lexical: 0.3}

// Weights balances the two retrieval branches during fusion.
type Weights struct {
	Vector  float64
	Lexical float64
}

// zero reports whether the weights were left unset.
func (w Weights) zero() bool {
	return w.Vector == 0 && w.Lexical == 0
}

func (w Weights) valid() bool {
	return w.Vector >= 0 && w.Lexical >= 0 && w.Vector+w.Lexical > 0
}

// Request describes one search call. Zero-valued fields take the documented
// defaults, applied at the facade boundary.
type Request struct {
	// Query is the natural-language query text. Required.
	Query string

	// CollectionID scopes the search to one collection. Required.
	CollectionID core.ID

	// Mode selects vector-only or hybrid retrieval. Default ModeVector.
	Mode Mode

	// TopK is the number of results to return. Default DefaultTopK.
	TopK int

	// ApplyTrustScoring reweights results by source quality and age.
	// Default false.
	ApplyTrustScoring bool

	// Weights are the hybrid fusion weights. Default DefaultWeights.
	Weights Weights
}

// normalize fills defaults and validates the request.
func (r Request) normalize(defaultMode Mode, defaultWeights Weights) (Request, error) {
	if strings.TrimSpace(r.Query) == "" {
		return r, ErrEmptyQuery
	}
	if r.Mode == "" {
		r.Mode = defaultMode
	}
	if r.Mode != ModeVector && r.Mode != ModeHybrid {
		return r, ErrInvalidMode
	}
	if r.TopK == 0 {
		r.TopK = DefaultTopK
	}
	if r.TopK < 1 {
		return r, ErrInvalidTopK
	}
	if r.Weights.zero() {
		r.Weights = defaultWeights
	}
	if !r.Weights.valid() {
		return r, ErrInvalidWeights
	}
	return r, nil
}

// ResultMetadata carries the citation fields callers surface alongside a hit.
type ResultMetadata struct {
	Page          int
	Section       string
	SourceQuality core.SourceQuality
	LastVerified  string // RFC3339, empty when unknown
}

// Result is one ranked hit.
type Result struct {
	ChunkID       core.ID
	DocumentID    core.ID
	DocumentTitle string
	Text          string

	// Score is the final ranking score: cosine similarity in vector mode,
	// fused (and optionally trust-weighted) score in hybrid mode.
	Score float64

	// RawVectorScore is the cosine similarity when the vector branch ranked
	// this chunk; meaningful only when FromVector is set.
	RawVectorScore float64
	FromVector     bool

	// RawLexicalScore is the BM25 score when the lexical branch ranked this
	// chunk; meaningful only when FromLexical is set.
	RawLexicalScore float64
	FromLexical     bool

	Metadata ResultMetadata
}

// Response is the outcome of one search call.
type Response struct {
	Query   string
	Mode    Mode
	Results []*Result

	// TrustScoringApplied reports whether trust/recency reweighting ran.
	TrustScoringApplied bool

	// Degraded is set when the lexical branch of a hybrid search failed and
	// the results are vector-only.
	Degraded bool
}
