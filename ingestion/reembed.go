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

package ingestion

import (
	"context"

	"github.com/poiesic/quarry/ai"
	"github.com/poiesic/quarry/chunker"
	"github.com/poiesic/quarry/core"
)

// Reembed regenerates the vectors of a completed document's chunks with the
// named provider, replacing them wholesale. An empty provider name re-runs
// routing against the document's collection pin, which is how a document
// embedded under budget fallback gets upgraded once the period rolls over.
//
// Chunk boundaries are untouched; only vectors and embedding metadata change.
func (p *Pipeline) Reembed(ctx context.Context, documentID core.ID, provider ai.ProviderName) error {
	document, err := p.documents.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if document.Status != core.StatusComplete {
		return ErrDocumentNotComplete
	}

	records, err := p.chunks.GetChunksByDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrEmptyDocument
	}

	var selection ai.Selection
	if provider != "" {
		selection, err = p.router.SelectByName(provider)
	} else {
		selection, err = p.selectProvider(ctx, document, records[0].Text)
	}
	if err != nil {
		return err
	}
	client, err := p.router.Client(selection)
	if err != nil {
		return err
	}

	logger := p.logger.With("document", documentID, "provider", selection.Provider)
	logger.Info("reembedding document", "chunks", len(records))

	texts := make([]string, len(records))
	units := 0
	for i, record := range records {
		texts[i] = record.Text
		units += chunker.EstimateUnits(record.Text)
	}
	vectors, err := p.embedTexts(ctx, client, texts)
	if err != nil {
		return err
	}
	if client.IsPaid() {
		p.guard.RecordUsage(string(selection.Provider), core.OpEmbed, units, document.CollectionId)
	}

	info := core.EmbeddingInfo{
		Provider:   string(selection.Provider),
		Model:      selection.Model,
		Dimensions: selection.Dimensions,
	}
	for i, record := range records {
		record.Vector = ai.NormalizeVector(vectors[i])
		record.Embedding = info
	}
	if _, err := p.chunks.UpdateChunks(ctx, records...); err != nil {
		return err
	}

	document.Embedding = info
	_, err = p.documents.UpdateDocuments(ctx, document)
	return err
}
