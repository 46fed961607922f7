package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/catalogit/core"
	"github.com/poiesic/catalogit/storage"
)

// RunRepository implements storage.RunRepository for BadgerDB.
type RunRepository struct {
	backend *Backend
}

var _ storage.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository.
func NewRunRepository(backend *Backend) *RunRepository {
	return &RunRepository{
		backend: backend,
	}
}

// SaveRunSummary persists summary as the latest run of its phase.
func (r *RunRepository) SaveRunSummary(ctx context.Context, summary *core.RunSummary) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if summary.FinishedAt.IsZero() {
			summary.FinishedAt = time.Now().UTC()
		}
		value, err := storage.MarshalRunSummary(summary)
		if err != nil {
			return err
		}
		if err := tx.Set(makeRunSummaryKey(summary.Phase), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LastRunSummary retrieves the latest summary for a phase.
// Returns nil, nil if the phase has never run.
func (r *RunRepository) LastRunSummary(ctx context.Context, phase string) (*core.RunSummary, error) {
	var summary *core.RunSummary
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeRunSummaryKey(phase))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			summary, unmarshalErr = storage.UnmarshalRunSummary(val)
			return unmarshalErr
		})
	}, false)

	return summary, err
}
