package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
// Chunk IDs are content-based, so no sequence is held.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	return &ChunkRepository{
		backend: backend,
	}, nil
}

// Close releases resources. ChunkRepository has no resources to release.
func (r *ChunkRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddChunks adds one or more chunks to storage.
func (r *ChunkRepository) AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			if chunk.Id == 0 {
				chunk.Id = core.ChunkID(chunk.DocumentId, chunk.Position, chunk.Text)
			}
			if chunk.InsertedAt.IsZero() {
				chunk.InsertedAt = time.Now().UTC()
			}

			key := makeRecordKey(chunkPrefix, chunk.Id)
			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}

			docKey := makeCompositeKey(chunkDocPrefix, chunk.DocumentId, chunk.Id)
			if err := tx.Set(docKey, storage.MarshalID(chunk.Id)); err != nil {
				return err
			}

			colKey := makeCompositeKey(chunkColPrefix, chunk.CollectionId, chunk.Id)
			if err := tx.Set(colKey, storage.MarshalID(chunk.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return chunks, err
}

// UpdateChunks replaces existing chunks. Used by re-embedding, which swaps
// vectors wholesale while keeping chunk identity.
func (r *ChunkRepository) UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			key := makeRecordKey(chunkPrefix, chunk.Id)
			old, err := readChunk(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}
			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return chunks, err
}

// DeleteChunksByDocument removes all chunks belonging to a document.
func (r *ChunkRepository) DeleteChunksByDocument(ctx context.Context, documentID core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		chunkIDs, err := indexScan(tx, makePartialCompositeKey(chunkDocPrefix, documentID))
		if err != nil {
			return err
		}
		for _, chunkID := range chunkIDs {
			chunk, err := readChunk(tx, makeRecordKey(chunkPrefix, chunkID))
			if err != nil {
				return err
			}
			if chunk == nil {
				continue
			}
			if err := tx.Delete(makeRecordKey(chunkPrefix, chunkID)); err != nil {
				return err
			}
			if err := tx.Delete(makeCompositeKey(chunkDocPrefix, documentID, chunkID)); err != nil {
				return err
			}
			if err := tx.Delete(makeCompositeKey(chunkColPrefix, chunk.CollectionId, chunkID)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	var result *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readChunk(tx, makeRecordKey(chunkPrefix, id))
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

// GetChunksByDocument retrieves a document's chunks ordered by position.
func (r *ChunkRepository) GetChunksByDocument(ctx context.Context, documentID core.ID) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		chunkIDs, err := indexScan(tx, makePartialCompositeKey(chunkDocPrefix, documentID))
		if err != nil {
			return err
		}
		for _, chunkID := range chunkIDs {
			chunk, err := readChunk(tx, makeRecordKey(chunkPrefix, chunkID))
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Chunk) int {
		return a.Position - b.Position
	})
	return results, nil
}

// GetChunksByCollection retrieves every chunk in a collection whose parent
// document is complete.
func (r *ChunkRepository) GetChunksByCollection(ctx context.Context, collectionID core.ID) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		chunkIDs, err := indexScan(tx, makePartialCompositeKey(chunkColPrefix, collectionID))
		if err != nil {
			return err
		}

		complete := make(map[core.ID]bool)
		for _, chunkID := range chunkIDs {
			chunk, err := readChunk(tx, makeRecordKey(chunkPrefix, chunkID))
			if err != nil {
				return err
			}
			if chunk == nil {
				continue
			}
			ok, err := documentComplete(tx, complete, chunk.DocumentId)
			if err != nil {
				return err
			}
			if ok {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)
	return results, err
}

// FindSimilar finds chunks in a collection similar to the given vector.
// Chunks of incomplete documents and chunks without vectors are skipped.
func (r *ChunkRepository) FindSimilar(ctx context.Context, collectionID core.ID, vector []float32, minSimilarity float32, limit int) ([]*core.ScoredChunk, error) {
	var results []*core.ScoredChunk

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		chunkIDs, err := indexScan(tx, makePartialCompositeKey(chunkColPrefix, collectionID))
		if err != nil {
			return err
		}

		complete := make(map[core.ID]bool)
		for _, chunkID := range chunkIDs {
			chunk, err := readChunk(tx, makeRecordKey(chunkPrefix, chunkID))
			if err != nil {
				return err
			}
			if chunk == nil || len(chunk.Vector) == 0 {
				continue
			}
			// Mixed-dimension collections can't occur, but a scan must not
			// compare vectors from different models.
			if len(chunk.Vector) != len(vector) {
				continue
			}
			ok, err := documentComplete(tx, complete, chunk.DocumentId)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}

			similarity := dotProduct(vector, chunk.Vector)
			if similarity >= minSimilarity {
				results = append(results, &core.ScoredChunk{
					Chunk: chunk,
					Score: float64(similarity),
				})
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending, chunk ID ascending for stable ties
	slices.SortFunc(results, func(a, b *core.ScoredChunk) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		if a.Chunk.Id < b.Chunk.Id {
			return -1
		}
		if a.Chunk.Id > b.Chunk.Id {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// readChunk reads a chunk from the transaction.
// Returns nil without error when the key does not exist.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	return chunk, err
}

// documentComplete reports whether a document is in StatusComplete, caching
// lookups across one scan.
func documentComplete(tx *badger.Txn, cache map[core.ID]bool, documentID core.ID) (bool, error) {
	if ok, seen := cache[documentID]; seen {
		return ok, nil
	}
	document, err := readDocument(tx, makeRecordKey(documentPrefix, documentID))
	if err != nil {
		return false, err
	}
	ok := document != nil && document.Status == core.StatusComplete
	cache[documentID] = ok
	return ok, nil
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
