package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/quarry/ai"
	"github.com/poiesic/quarry/budget"
	"github.com/poiesic/quarry/chunker"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

// Pipeline drives a document from registered to searchable: chunk the
// extracted text, route it to an embedding provider, embed chunk batches
// concurrently, persist the chunks, and advance the document's status at
// each stage boundary. Any stage failure parks the document in StatusError
// with the cause stored; a document is never left in a non-terminal state
// without an error message.
type Pipeline struct {
	collections storage.CollectionRepository
	documents   storage.DocumentRepository
	chunks      storage.ChunkRepository
	router      *ai.Router
	guard       *budget.Guard
	chunker     *chunker.Chunker
	// Separate pools so a queued document ingest can never starve the
	// embedding batches it fans out.
	ingestPool *ants.Pool
	embedPool  *ants.Pool
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding batches.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.ingestPool != nil {
			p.ingestPool.Release()
		}
		if p.embedPool != nil {
			p.embedPool.Release()
		}
		ingestPool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		embedPool, err := ants.NewPool(size)
		if err != nil {
			ingestPool.Release()
			return err
		}
		p.ingestPool = ingestPool
		p.embedPool = embedPool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithChunker sets a custom chunker, e.g. with non-default size or overlap.
func WithChunker(c *chunker.Chunker) Option {
	return func(p *Pipeline) error {
		if c != nil {
			p.chunker = c
		}
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	collections storage.CollectionRepository,
	documents storage.DocumentRepository,
	chunks storage.ChunkRepository,
	router *ai.Router,
	guard *budget.Guard,
	opts ...Option,
) (*Pipeline, error) {
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
	if guard == nil {
		return nil, ErrGuardRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	ingestPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}
	embedPool, err := ants.NewPool(poolSize)
	if err != nil {
		ingestPool.Release()
		return nil, err
	}

	p := &Pipeline{
		collections: collections,
		documents:   documents,
		chunks:      chunks,
		router:      router,
		guard:       guard,
		chunker:     chunker.New(),
		ingestPool:  ingestPool,
		embedPool:   embedPool,
		logger:      slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Ingest processes one document whose text has already been extracted.
// The document must exist and not be complete. On failure the document's
// status is set to StatusError with the cause, and the error is returned.
func (p *Pipeline) Ingest(ctx context.Context, documentID core.ID, text string) error {
	document, err := p.documents.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if document.Status == core.StatusComplete {
		return ErrDocumentTerminal
	}

	logger := p.logger.With("document", documentID, "collection", document.CollectionId)

	if err := p.run(ctx, document, text, logger); err != nil {
		logger.Error("ingestion failed", "err", err)
		if statusErr := p.documents.SetDocumentStatus(ctx, documentID, core.StatusError, err.Error()); statusErr != nil {
			logger.Error("failed to record error status", "err", statusErr)
		}
		return err
	}

	logger.Info("document ingested")
	return nil
}

// IngestAsync submits a document for background ingestion on the worker pool.
// Errors are logged, never returned; the document record carries the outcome.
func (p *Pipeline) IngestAsync(documentID core.ID, text string) error {
	return p.ingestPool.Submit(func() {
		if err := p.Ingest(context.Background(), documentID, text); err != nil {
			p.logger.Error("async ingestion failed", "document", documentID, "err", err)
		}
	})
}

// run walks the stage sequence. Each stage boundary is persisted before the
// stage executes so an operator can see where a document is stuck.
func (p *Pipeline) run(ctx context.Context, document *core.Document, text string, logger *slog.Logger) error {
	if err := p.documents.SetDocumentStatus(ctx, document.Id, core.StatusExtracting, ""); err != nil {
		return err
	}
	if len(text) == 0 {
		return ErrEmptyDocument
	}

	// Chunking
	if err := p.documents.SetDocumentStatus(ctx, document.Id, core.StatusChunking, ""); err != nil {
		return err
	}
	spans := p.chunker.Split(text)
	if len(spans) == 0 {
		return ErrEmptyDocument
	}
	logger.Debug("document chunked", "chunks", len(spans))

	// Provider selection
	selection, err := p.selectProvider(ctx, document, text)
	if err != nil {
		return err
	}
	client, err := p.router.Client(selection)
	if err != nil {
		return err
	}
	logger.Debug("provider selected", "provider", selection.Provider, "model", selection.Model)

	// Embedding
	if err := p.documents.SetDocumentStatus(ctx, document.Id, core.StatusEmbedding, ""); err != nil {
		return err
	}
	texts := make([]string, len(spans))
	for i, span := range spans {
		texts[i] = span.Text
	}
	vectors, err := p.embedTexts(ctx, client, texts)
	if err != nil {
		return err
	}
	if client.IsPaid() {
		p.guard.RecordUsage(string(selection.Provider), core.OpEmbed, chunker.EstimateUnits(text), document.CollectionId)
	}

	// Persist chunks
	info := core.EmbeddingInfo{
		Provider:   string(selection.Provider),
		Model:      selection.Model,
		Dimensions: selection.Dimensions,
	}
	records := make([]*core.Chunk, len(spans))
	now := time.Now().UTC()
	for i, span := range spans {
		records[i] = &core.Chunk{
			Id:           core.ChunkID(document.Id, i, span.Text),
			DocumentId:   document.Id,
			CollectionId: document.CollectionId,
			Position:     i,
			Text:         span.Text,
			Vector:       ai.NormalizeVector(vectors[i]),
			StartOffset:  span.Start,
			EndOffset:    span.End,
			Embedding:    info,
			InsertedAt:   now,
		}
	}
	if _, err := p.chunks.AddChunks(ctx, records...); err != nil {
		return err
	}

	// Tag the document with the provider actually used, then complete
	document.Embedding = info
	if _, err := p.documents.UpdateDocuments(ctx, document); err != nil {
		return err
	}
	return p.documents.SetDocumentStatus(ctx, document.Id, core.StatusComplete, "")
}

// selectProvider applies the collection pinning rule: once a collection has a
// completed document, later documents reuse its provider so query-time
// embeddings stay comparable. Fresh collections route on content and hints.
func (p *Pipeline) selectProvider(ctx context.Context, document *core.Document, text string) (ai.Selection, error) {
	pinned, err := p.documents.CollectionEmbedding(ctx, document.CollectionId)
	if err != nil {
		return ai.Selection{}, err
	}
	if !pinned.Zero() {
		return p.router.SelectByName(ai.ProviderName(pinned.Provider))
	}

	collection, err := p.collections.GetCollection(ctx, document.CollectionId)
	if err != nil {
		return ai.Selection{}, err
	}
	hints := ai.Hints{
		DocType:  document.Metadata[core.MetaDocType],
		Language: document.Metadata[core.MetaLanguage],
		Personal: collection.Personal,
	}
	return p.router.SelectProvider(text, hints)
}

// embedTexts embeds texts in provider-sized batches, fanned out over the
// worker pool. Vector order matches input order.
func (p *Pipeline) embedTexts(ctx context.Context, client ai.EmbeddingClient, texts []string) ([][]float32, error) {
	batchSize := client.BatchSize()
	if batchSize < 1 {
		batchSize = 1
	}

	vectors := make([][]float32, len(texts))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batchStart, batchEnd := start, end

		wg.Add(1)
		if err := p.embedPool.Submit(func() {
			defer wg.Done()

			result, err := client.Embed(ctx, texts[batchStart:batchEnd])
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			for i, vec := range result {
				vectors[batchStart+i] = vec
			}
		}); err != nil {
			wg.Done()
			return nil, err
		}
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, fmt.Errorf("missing embedding for chunk %d", i)
		}
	}
	return vectors, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.ingestPool != nil {
		p.ingestPool.Release()
	}
	if p.embedPool != nil {
		p.embedPool.Release()
	}
}
