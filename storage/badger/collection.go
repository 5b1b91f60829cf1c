package badger

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

// CollectionRepository implements storage.CollectionRepository for BadgerDB.
type CollectionRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.CollectionRepository = (*CollectionRepository)(nil)

// NewCollectionRepository creates a new CollectionRepository.
func NewCollectionRepository(backend *Backend) (*CollectionRepository, error) {
	idSeq, err := backend.GetSequence(collectionIDSeq)
	if err != nil {
		return nil, err
	}

	return &CollectionRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *CollectionRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *CollectionRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddCollection adds a collection, enforcing name uniqueness.
func (r *CollectionRepository) AddCollection(ctx context.Context, collection *core.Collection) (*core.Collection, error) {
	if err := core.ValidateCollection(collection); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Reject duplicate names via the name index
		nameKey := makeCollectionNameKey(collection.Name)
		if _, err := tx.Get(nameKey); err == nil {
			return storage.ErrDuplicateKey
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		if collection.Id == 0 {
			next, err := nextID(r.idSeq)
			if err != nil {
				return err
			}
			collection.Id = core.ID(next)
		}
		if collection.InsertedAt.IsZero() {
			collection.InsertedAt = time.Now().UTC()
		}

		key := makeRecordKey(collectionPrefix, collection.Id)
		if err := tx.Set(key, storage.MarshalCollection(collection)); err != nil {
			return err
		}
		if err := tx.Set(nameKey, storage.MarshalID(collection.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return collection, err
}

// GetCollection retrieves a single collection by ID.
func (r *CollectionRepository) GetCollection(ctx context.Context, id core.ID) (*core.Collection, error) {
	var result *core.Collection
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readCollection(tx, makeRecordKey(collectionPrefix, id))
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

// GetCollectionByName finds a collection by its unique name.
func (r *CollectionRepository) GetCollectionByName(ctx context.Context, name string) (*core.Collection, error) {
	var result *core.Collection
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeCollectionNameKey(name))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var id core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		result, err = readCollection(tx, makeRecordKey(collectionPrefix, id))
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

// ListCollections retrieves all collections, ordered by name.
func (r *CollectionRepository) ListCollections(ctx context.Context) ([]*core.Collection, error) {
	var results []*core.Collection
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(collectionPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var collection *core.Collection
			err := iter.Item().Value(func(val []byte) error {
				var err error
				collection, err = storage.UnmarshalCollection(val)
				return err
			})
			if err != nil {
				return err
			}
			if collection != nil {
				results = append(results, collection)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Collection) int {
		return strings.Compare(a.Name, b.Name)
	})
	return results, nil
}

// DeleteCollection removes a collection, cascading to documents and chunks.
func (r *CollectionRepository) DeleteCollection(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRecordKey(collectionPrefix, id)
		collection, err := readCollection(tx, key)
		if err != nil {
			return err
		}
		if collection == nil {
			return storage.ErrNotFound
		}

		// Cascade: documents and their chunks
		docIDs, err := indexScan(tx, makePartialCompositeKey(documentColPrefix, id))
		if err != nil {
			return err
		}
		for _, docID := range docIDs {
			if err := deleteDocumentCascade(tx, id, docID); err != nil {
				return err
			}
		}

		if err := tx.Delete(makeCollectionNameKey(collection.Name)); err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readCollection reads a collection from the transaction.
// Returns nil without error when the key does not exist.
func readCollection(tx *badger.Txn, key []byte) (*core.Collection, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var collection *core.Collection
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		collection, unmarshalErr = storage.UnmarshalCollection(val)
		return unmarshalErr
	})
	return collection, err
}

// indexScan collects the ID values stored under an index prefix.
func indexScan(tx *badger.Txn, prefix []byte) ([]core.ID, error) {
	var ids []core.ID
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var id core.ID
		err := iter.Item().Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
