package search

import (
	"time"

	"github.com/poiesic/quarry/core"
)

// Trust weights by declared source quality. Missing or unrecognized metadata
// gets the unknown tier.
var trustWeights = map[core.SourceQuality]float64{
	core.SourceOfficial:  1.0,
	core.SourceVerified:  0.85,
	core.SourceCommunity: 0.6,
	core.SourceUnknown:   0.5,
}

// Recency weight boundaries relative to the lastVerified timestamp.
const (
	recencyFresh = 1.0 // under 6 months
	recencyAging = 0.9 // 6 to 12 months
	recencyStale = 0.7 // over 12 months, or unknown
	monthsFresh  = 6
	monthsAged   = 12
	daysPerMonth = 30
)

// trustWeight returns the multiplier for a source-quality label.
func trustWeight(quality string) float64 {
	if w, ok := trustWeights[core.SourceQuality(quality)]; ok {
		return w
	}
	return trustWeights[core.SourceUnknown]
}

// recencyWeight returns the multiplier for a document's lastVerified metadata
// at query time. An absent or unparseable timestamp gets the most
// conservative weight.
func recencyWeight(lastVerified string, now time.Time) float64 {
	if lastVerified == "" {
		return recencyStale
	}
	verified, err := time.Parse(time.RFC3339, lastVerified)
	if err != nil {
		return recencyStale
	}
	age := now.Sub(verified)
	switch {
	case age < monthsFresh*daysPerMonth*24*time.Hour:
		return recencyFresh
	case age < monthsAged*daysPerMonth*24*time.Hour:
		return recencyAging
	default:
		return recencyStale
	}
}

// applyTrustRecency multiplies each fused score by the owning document's
// trust and recency weights and re-sorts. The underlying fused ranking is
// untouched when this stage is skipped.
func applyTrustRecency(results []*FusedChunk, documents map[core.ID]*core.Document, now time.Time) {
	for _, result := range results {
		quality, lastVerified := "", ""
		if doc, ok := documents[result.Chunk.DocumentId]; ok && doc.Metadata != nil {
			quality = doc.Metadata[core.MetaSourceQuality]
			lastVerified = doc.Metadata[core.MetaLastVerified]
		}
		result.Score *= trustWeight(quality) * recencyWeight(lastVerified, now)
	}
	sortFused(results)
}
