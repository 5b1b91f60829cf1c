package badger

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

// AlertRepository implements storage.AlertRepository for BadgerDB.
type AlertRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.AlertRepository = (*AlertRepository)(nil)

// NewAlertRepository creates a new AlertRepository.
func NewAlertRepository(backend *Backend) (*AlertRepository, error) {
	idSeq, err := backend.GetSequence(alertIDSeq)
	if err != nil {
		return nil, err
	}

	return &AlertRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *AlertRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *AlertRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddAlert stores a budget alert, indexed by period and recency.
func (r *AlertRepository) AddAlert(ctx context.Context, alert *core.BudgetAlert) (*core.BudgetAlert, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if alert.Id == 0 {
			next, err := nextID(r.idSeq)
			if err != nil {
				return err
			}
			alert.Id = core.ID(next)
		}
		if alert.CreatedAt.IsZero() {
			alert.CreatedAt = time.Now().UTC()
		}

		key := makeRecordKey(alertPrefix, alert.Id)
		if err := tx.Set(key, storage.MarshalBudgetAlert(alert)); err != nil {
			return err
		}

		periodKey := makePeriodKey(alertPeriodPrefix, alert.Period, alert.Id)
		if err := tx.Set(periodKey, storage.MarshalID(alert.Id)); err != nil {
			return err
		}

		dateKey := makeAlertDateKey(alert.CreatedAt.UnixMicro(), alert.Id)
		if err := tx.Set(dateKey, storage.MarshalID(alert.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return alert, err
}

// GetAlertsByPeriod retrieves all alerts raised in a budget period.
func (r *AlertRepository) GetAlertsByPeriod(ctx context.Context, period string) ([]*core.BudgetAlert, error) {
	var results []*core.BudgetAlert
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		alertIDs, err := indexScan(tx, makePartialPeriodKey(alertPeriodPrefix, period))
		if err != nil {
			return err
		}
		for _, alertID := range alertIDs {
			alert, err := readAlert(tx, makeRecordKey(alertPrefix, alertID))
			if err != nil {
				return err
			}
			if alert != nil {
				results = append(results, alert)
			}
		}
		return nil
	}, false)
	return results, err
}

// RecentAlerts retrieves the N most recent alerts, newest first.
func (r *AlertRepository) RecentAlerts(ctx context.Context, limit int) ([]*core.BudgetAlert, error) {
	var results []*core.BudgetAlert
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the end of the date index, then walk backwards
		startKey := makeAlertDateKey(int64(^uint64(0)>>1), core.ID(^uint64(0)))
		prefix := []byte(alertDatePrefix + ":")

		var alertIDs []core.ID
		for iter.Seek(startKey); iter.Valid() && len(alertIDs) < limit; iter.Next() {
			key := iter.Item().Key()
			if !bytes.HasPrefix(key, prefix) {
				break
			}

			var alertID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				alertID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}
			alertIDs = append(alertIDs, alertID)
		}

		for _, alertID := range alertIDs {
			alert, err := readAlert(tx, makeRecordKey(alertPrefix, alertID))
			if err != nil {
				return err
			}
			if alert != nil {
				results = append(results, alert)
			}
		}
		return nil
	}, false)
	return results, err
}

// AcknowledgeAlert marks an alert as acknowledged.
func (r *AlertRepository) AcknowledgeAlert(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRecordKey(alertPrefix, id)
		alert, err := readAlert(tx, key)
		if err != nil {
			return err
		}
		if alert == nil {
			return storage.ErrNotFound
		}

		alert.Acknowledged = true
		if err := tx.Set(key, storage.MarshalBudgetAlert(alert)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readAlert reads a budget alert from the transaction.
// Returns nil without error when the key does not exist.
func readAlert(tx *badger.Txn, key []byte) (*core.BudgetAlert, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var alert *core.BudgetAlert
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		alert, unmarshalErr = storage.UnmarshalBudgetAlert(val)
		return unmarshalErr
	})
	return alert, err
}
