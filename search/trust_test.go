package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/quarry/core"
)

func TestTrustWeight(t *testing.T) {
	assert.Equal(t, 1.0, trustWeight("official"))
	assert.Equal(t, 0.85, trustWeight("verified"))
	assert.Equal(t, 0.6, trustWeight("community"))
	assert.Equal(t, 0.5, trustWeight("unknown"))
	assert.Equal(t, 0.5, trustWeight(""))
	assert.Equal(t, 0.5, trustWeight("blog"))
}

func TestRecencyWeight(t *testing.T) {
	now := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	stamp := func(monthsAgo int) string {
		return now.AddDate(0, -monthsAgo, 0).Format(time.RFC3339)
	}

	assert.Equal(t, 1.0, recencyWeight(stamp(1), now))
	assert.Equal(t, 0.9, recencyWeight(stamp(7), now))
	assert.Equal(t, 0.7, recencyWeight(stamp(18), now))
	assert.Equal(t, 0.7, recencyWeight("", now))
	assert.Equal(t, 0.7, recencyWeight("last tuesday", now))
}

// Two results with identical fused scores differing only in source quality:
// the higher trust tier must never rank below the lower one.
func TestApplyTrustRecencyMonotonicity(t *testing.T) {
	now := time.Now().UTC()
	verified := now.AddDate(0, -1, 0).Format(time.RFC3339)

	results := []*FusedChunk{
		{Chunk: &core.Chunk{Id: 1, DocumentId: 100}, Score: 0.5},
		{Chunk: &core.Chunk{Id: 2, DocumentId: 200}, Score: 0.5},
	}
	documents := map[core.ID]*core.Document{
		100: {Id: 100, Metadata: map[string]string{
			core.MetaSourceQuality: "community",
			core.MetaLastVerified:  verified,
		}},
		200: {Id: 200, Metadata: map[string]string{
			core.MetaSourceQuality: "official",
			core.MetaLastVerified:  verified,
		}},
	}

	applyTrustRecency(results, documents, now)

	assert.Equal(t, core.ID(2), results[0].Chunk.Id)
	assert.InDelta(t, 0.5*1.0*1.0, results[0].Score, 1e-12)
	assert.InDelta(t, 0.5*0.6*1.0, results[1].Score, 1e-12)
}

func TestApplyTrustRecencyDefaults(t *testing.T) {
	results := []*FusedChunk{
		{Chunk: &core.Chunk{Id: 1, DocumentId: 100}, Score: 1.0},
		// No document record at all.
		{Chunk: &core.Chunk{Id: 2, DocumentId: 999}, Score: 1.0},
	}
	documents := map[core.ID]*core.Document{
		100: {Id: 100}, // no metadata
	}

	applyTrustRecency(results, documents, time.Now().UTC())

	// Both fall back to unknown trust and stale recency.
	assert.InDelta(t, 0.5*0.7, results[0].Score, 1e-12)
	assert.InDelta(t, 0.5*0.7, results[1].Score, 1e-12)
}
