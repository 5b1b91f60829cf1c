package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddDocuments adds one or more documents to storage.
func (r *DocumentRepository) AddDocuments(ctx context.Context, documents ...*core.Document) ([]*core.Document, error) {
	for _, document := range documents {
		if err := core.ValidateDocument(document); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, document := range documents {
			if document.Id == 0 {
				next, err := nextID(r.idSeq)
				if err != nil {
					return err
				}
				document.Id = core.ID(next)
			}
			if document.InsertedAt.IsZero() {
				document.InsertedAt = time.Now().UTC()
			}
			document.UpdatedAt = document.InsertedAt

			key := makeRecordKey(documentPrefix, document.Id)
			if err := tx.Set(key, storage.MarshalDocument(document)); err != nil {
				return err
			}

			colKey := makeCompositeKey(documentColPrefix, document.CollectionId, document.Id)
			if err := tx.Set(colKey, storage.MarshalID(document.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return documents, err
}

// UpdateDocuments updates existing documents.
func (r *DocumentRepository) UpdateDocuments(ctx context.Context, documents ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, document := range documents {
			key := makeRecordKey(documentPrefix, document.Id)
			old, err := readDocument(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			document.UpdatedAt = time.Now().UTC()

			if err := tx.Set(key, storage.MarshalDocument(document)); err != nil {
				return err
			}

			// Update collection index if the document moved
			if old.CollectionId != document.CollectionId {
				oldKey := makeCompositeKey(documentColPrefix, old.CollectionId, old.Id)
				if err := tx.Delete(oldKey); err != nil {
					return err
				}
				newKey := makeCompositeKey(documentColPrefix, document.CollectionId, document.Id)
				if err := tx.Set(newKey, storage.MarshalID(document.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return documents, err
}

// DeleteDocuments removes documents by their IDs, cascading to chunks.
func (r *DocumentRepository) DeleteDocuments(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			document, err := readDocument(tx, makeRecordKey(documentPrefix, id))
			if err != nil {
				return err
			}
			if document == nil {
				return storage.ErrNotFound
			}
			if err := deleteDocumentCascade(tx, document.CollectionId, id); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeRecordKey(documentPrefix, id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocumentsByCollection retrieves all documents in a collection.
func (r *DocumentRepository) GetDocumentsByCollection(ctx context.Context, collectionID core.ID) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		docIDs, err := indexScan(tx, makePartialCompositeKey(documentColPrefix, collectionID))
		if err != nil {
			return err
		}
		for _, docID := range docIDs {
			document, err := readDocument(tx, makeRecordKey(documentPrefix, docID))
			if err != nil {
				return err
			}
			if document != nil {
				results = append(results, document)
			}
		}
		return nil
	}, false)
	return results, err
}

// SetDocumentStatus transitions a document's pipeline status.
func (r *DocumentRepository) SetDocumentStatus(ctx context.Context, id core.ID, status core.DocumentStatus, errMsg string) error {
	if err := core.ValidateStatus(status); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRecordKey(documentPrefix, id)
		document, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if document == nil {
			return storage.ErrNotFound
		}

		document.Status = status
		if status == core.StatusError {
			document.Error = errMsg
		} else {
			document.Error = ""
		}
		document.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalDocument(document)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// CollectionEmbedding returns the embedding info of the collection's earliest
// completed document, or a zero EmbeddingInfo when none is complete.
func (r *DocumentRepository) CollectionEmbedding(ctx context.Context, collectionID core.ID) (core.EmbeddingInfo, error) {
	var pinned core.EmbeddingInfo
	var pinnedAt time.Time

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		docIDs, err := indexScan(tx, makePartialCompositeKey(documentColPrefix, collectionID))
		if err != nil {
			return err
		}
		for _, docID := range docIDs {
			document, err := readDocument(tx, makeRecordKey(documentPrefix, docID))
			if err != nil {
				return err
			}
			if document == nil || document.Status != core.StatusComplete || document.Embedding.Zero() {
				continue
			}
			if pinnedAt.IsZero() || document.InsertedAt.Before(pinnedAt) {
				pinned = document.Embedding
				pinnedAt = document.InsertedAt
			}
		}
		return nil
	}, false)

	return pinned, err
}

// readDocument reads a document from the transaction.
// Returns nil without error when the key does not exist.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var document *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		document, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return document, err
}

// deleteDocumentCascade removes a document, its collection index entry, and
// all of its chunks with their index entries. The caller commits.
func deleteDocumentCascade(tx *badger.Txn, collectionID, documentID core.ID) error {
	chunkIDs, err := indexScan(tx, makePartialCompositeKey(chunkDocPrefix, documentID))
	if err != nil {
		return err
	}
	for _, chunkID := range chunkIDs {
		if err := tx.Delete(makeRecordKey(chunkPrefix, chunkID)); err != nil {
			return err
		}
		if err := tx.Delete(makeCompositeKey(chunkDocPrefix, documentID, chunkID)); err != nil {
			return err
		}
		if err := tx.Delete(makeCompositeKey(chunkColPrefix, collectionID, chunkID)); err != nil {
			return err
		}
	}

	if err := tx.Delete(makeCompositeKey(documentColPrefix, collectionID, documentID)); err != nil {
		return err
	}
	return tx.Delete(makeRecordKey(documentPrefix, documentID))
}
