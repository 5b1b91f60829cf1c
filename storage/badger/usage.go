package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

// UsageRepository implements storage.UsageRepository for BadgerDB.
// Usage records are append-only; there is no update or delete path.
type UsageRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.UsageRepository = (*UsageRepository)(nil)

// NewUsageRepository creates a new UsageRepository.
func NewUsageRepository(backend *Backend) (*UsageRepository, error) {
	idSeq, err := backend.GetSequence(usageIDSeq)
	if err != nil {
		return nil, err
	}

	return &UsageRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *UsageRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *UsageRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddUsageRecords appends usage records and indexes them by budget period.
func (r *UsageRepository) AddUsageRecords(ctx context.Context, records ...*core.UsageRecord) ([]*core.UsageRecord, error) {
	for _, record := range records {
		if err := core.ValidateUsageRecord(record); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if record.Id == 0 {
				next, err := nextID(r.idSeq)
				if err != nil {
					return err
				}
				record.Id = core.ID(next)
			}
			if record.CreatedAt.IsZero() {
				record.CreatedAt = time.Now().UTC()
			}

			key := makeRecordKey(usagePrefix, record.Id)
			if err := tx.Set(key, storage.MarshalUsageRecord(record)); err != nil {
				return err
			}

			period := core.PeriodOf(record.CreatedAt)
			periodKey := makePeriodKey(usagePeriodPrefix, period, record.Id)
			if err := tx.Set(periodKey, storage.MarshalID(record.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// GetUsageByPeriod retrieves all usage records for a budget period key.
func (r *UsageRepository) GetUsageByPeriod(ctx context.Context, period string) ([]*core.UsageRecord, error) {
	var results []*core.UsageRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		recordIDs, err := indexScan(tx, makePartialPeriodKey(usagePeriodPrefix, period))
		if err != nil {
			return err
		}
		for _, recordID := range recordIDs {
			record, err := readUsageRecord(tx, makeRecordKey(usagePrefix, recordID))
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)
	return results, err
}

// readUsageRecord reads a usage record from the transaction.
// Returns nil without error when the key does not exist.
func readUsageRecord(tx *badger.Txn, key []byte) (*core.UsageRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.UsageRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalUsageRecord(val)
		return unmarshalErr
	})
	return record, err
}
