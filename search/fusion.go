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
	"sort"

	"github.com/poiesic/quarry/core"
)

// FusedChunk is one chunk after rank fusion, carrying the raw component
// scores for citation output.
type FusedChunk struct {
	Chunk *core.Chunk

	// Score is the weighted RRF score, later multiplied by trust/recency
	// weights when trust scoring is on.
	Score float64

	VectorScore  float64
	InVector     bool
	LexicalScore float64
	InLexical    bool
}

// Fuse merges the two ranked lists with Reciprocal Rank Fusion. Each list
// contributes weight/(k + rank + 1) per item, rank being the item's 0-based
// position in that list; items absent from a list contribute nothing for it.
//
// The output is deterministic: ties on the fused score are broken by the
// higher individual component score, then by chunk ID. Up to topK results are
// returned; pass topK <= 0 for the full fused list.
func Fuse(vector, lexical []*core.ScoredChunk, weights Weights, k, topK int) []*FusedChunk {
	if k < 0 {
		k = DefaultRRFConstant
	}

	fused := make(map[core.ID]*FusedChunk, len(vector)+len(lexical))

	for rank, match := range vector {
		fused[match.Chunk.Id] = &FusedChunk{
			Chunk:       match.Chunk,
			Score:       weights.Vector / float64(k+rank+1),
			VectorScore: match.Score,
			InVector:    true,
		}
	}
	for rank, match := range lexical {
		entry, ok := fused[match.Chunk.Id]
		if !ok {
			entry = &FusedChunk{Chunk: match.Chunk}
			fused[match.Chunk.Id] = entry
		}
		entry.Score += weights.Lexical / float64(k+rank+1)
		entry.LexicalScore = match.Score
		entry.InLexical = true
	}

	results := make([]*FusedChunk, 0, len(fused))
	for _, entry := range fused {
		results = append(results, entry)
	}
	sortFused(results)

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}

// sortFused orders by fused score, then best component score, then chunk ID.
func sortFused(results []*FusedChunk) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		bi, bj := bestComponent(results[i]), bestComponent(results[j])
		if bi != bj {
			return bi > bj
		}
		return results[i].Chunk.Id < results[j].Chunk.Id
	})
}

func bestComponent(f *FusedChunk) float64 {
	best := f.VectorScore
	if f.LexicalScore > best {
		best = f.LexicalScore
	}
	return best
}
