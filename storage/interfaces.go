package storage

import (
	"context"

	"github.com/poiesic/quarry/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// CollectionRepository provides operations for managing collections.
type CollectionRepository interface {
	Repository
	// AddCollection adds a collection to storage.
	// For a collection with ID=0, generates a new ID from sequence.
	// Sets InsertedAt timestamp if not already set.
	// Returns ErrDuplicateKey if a collection with the same name exists.
	AddCollection(ctx context.Context, collection *core.Collection) (*core.Collection, error)

	// GetCollection retrieves a single collection by ID.
	// Returns ErrNotFound if the collection doesn't exist.
	GetCollection(ctx context.Context, id core.ID) (*core.Collection, error)

	// GetCollectionByName finds a collection by its unique name.
	// Returns ErrNotFound if no matching collection exists.
	GetCollectionByName(ctx context.Context, name string) (*core.Collection, error)

	// ListCollections retrieves all collections, ordered by name.
	ListCollections(ctx context.Context) ([]*core.Collection, error)

	// DeleteCollection removes a collection and cascades to its documents
	// and chunks. Returns ErrNotFound if the collection doesn't exist.
	DeleteCollection(ctx context.Context, id core.ID) error
}

// DocumentRepository provides operations for managing documents.
type DocumentRepository interface {
	Repository
	// AddDocuments adds one or more documents to storage.
	// For documents with ID=0, generates new IDs from sequence.
	// Sets InsertedAt/UpdatedAt timestamps if not already set.
	// Returns the documents with generated IDs and timestamps populated.
	AddDocuments(ctx context.Context, documents ...*core.Document) ([]*core.Document, error)

	// UpdateDocuments updates existing documents.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any document doesn't exist.
	UpdateDocuments(ctx context.Context, documents ...*core.Document) ([]*core.Document, error)

	// DeleteDocuments removes documents by their IDs, cascading to their
	// chunks. Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocumentsByCollection retrieves all documents in a collection.
	GetDocumentsByCollection(ctx context.Context, collectionID core.ID) ([]*core.Document, error)

	// SetDocumentStatus transitions a document's pipeline status. The error
	// message is stored only for core.StatusError and cleared otherwise.
	// Returns ErrNotFound if the document doesn't exist.
	SetDocumentStatus(ctx context.Context, id core.ID, status core.DocumentStatus, errMsg string) error

	// CollectionEmbedding returns the embedding info the collection is pinned
	// to: that of its earliest completed document. Returns a zero
	// EmbeddingInfo when the collection has no completed documents.
	CollectionEmbedding(ctx context.Context, collectionID core.ID) (core.EmbeddingInfo, error)
}

// ChunkRepository provides operations for managing chunks.
type ChunkRepository interface {
	Repository
	// AddChunks adds one or more chunks to storage.
	// Chunk IDs are content-based (core.ChunkID) and must be set by the caller.
	// Sets InsertedAt timestamp if not already set.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// UpdateChunks replaces existing chunks, used when re-embedding swaps
	// vectors wholesale. Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// DeleteChunksByDocument removes all chunks belonging to a document.
	DeleteChunksByDocument(ctx context.Context, documentID core.ID) error

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunksByDocument retrieves a document's chunks ordered by position.
	GetChunksByDocument(ctx context.Context, documentID core.ID) ([]*core.Chunk, error)

	// GetChunksByCollection retrieves every chunk in a collection whose parent
	// document is complete. Lexical search scans these directly.
	GetChunksByCollection(ctx context.Context, collectionID core.ID) ([]*core.Chunk, error)

	// FindSimilar finds chunks in a collection similar to the given vector.
	// Only chunks of complete documents participate. Returns chunks with
	// similarity >= minSimilarity, up to limit results, ordered by similarity
	// score (highest first).
	FindSimilar(ctx context.Context, collectionID core.ID, vector []float32, minSimilarity float32, limit int) ([]*core.ScoredChunk, error)
}

// UsageRepository provides append-only storage for paid API usage records.
type UsageRepository interface {
	Repository
	// AddUsageRecords appends usage records.
	// For records with ID=0, generates new IDs from sequence.
	// Sets CreatedAt timestamp if not already set.
	AddUsageRecords(ctx context.Context, records ...*core.UsageRecord) ([]*core.UsageRecord, error)

	// GetUsageByPeriod retrieves all usage records for a budget period key
	// (e.g. "2026-08"), ordered by creation time.
	GetUsageByPeriod(ctx context.Context, period string) ([]*core.UsageRecord, error)
}

// AlertRepository provides storage for budget alerts.
type AlertRepository interface {
	Repository
	// AddAlert stores a budget alert.
	// For an alert with ID=0, generates a new ID from sequence.
	// Sets CreatedAt timestamp if not already set.
	AddAlert(ctx context.Context, alert *core.BudgetAlert) (*core.BudgetAlert, error)

	// GetAlertsByPeriod retrieves all alerts raised in a budget period.
	GetAlertsByPeriod(ctx context.Context, period string) ([]*core.BudgetAlert, error)

	// RecentAlerts retrieves the N most recent alerts, newest first.
	RecentAlerts(ctx context.Context, limit int) ([]*core.BudgetAlert, error)

	// AcknowledgeAlert marks an alert as acknowledged.
	// Returns ErrNotFound if the alert doesn't exist.
	AcknowledgeAlert(ctx context.Context, id core.ID) error
}
