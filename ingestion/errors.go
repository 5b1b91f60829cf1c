package ingestion

import "errors"

var (
	// ErrCollectionRepositoryRequired is returned when a collection repository is not provided.
	ErrCollectionRepositoryRequired = errors.New("collection repository required")

	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrRouterRequired is returned when an embedding router is not provided.
	ErrRouterRequired = errors.New("embedding router required")

	// ErrGuardRequired is returned when a budget guard is not provided.
	ErrGuardRequired = errors.New("budget guard required")

	// ErrEmptyDocument is returned when a document's extracted text is empty.
	ErrEmptyDocument = errors.New("document text is empty")

	// ErrDocumentTerminal is returned when ingesting a document that is
	// already complete.
	ErrDocumentTerminal = errors.New("document already ingested")

	// ErrDocumentNotComplete is returned when re-embedding a document that
	// has not finished ingestion.
	ErrDocumentNotComplete = errors.New("document not complete")
)
