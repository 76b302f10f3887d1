package operations

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/repokit/repokit/pkg/badgerfx"
)

// Journal persists operation records in badger.
type Journal struct {
	db   *badger.DB
	repo *badgerfx.Repository[*recordModel]

	historyLimit int
}

func NewJournal(db *badger.DB, config Config) *Journal {
	return &Journal{
		db: db,
		repo: badgerfx.NewRepository(
			func() *recordModel { return new(recordModel) },
			recordKey,
		),

		historyLimit: config.HistoryLimit,
	}
}

// Save creates or replaces a record. Records beyond the history limit of
// the record's path are pruned oldest first.
func (j *Journal) Save(_ context.Context, record *Record) error {
	model := newRecordModel(record)

	err := j.db.Update(func(txn *badger.Txn) error {
		if err := j.repo.Write(txn, model); err != nil {
			return err
		}

		return j.prune(txn, model.Path)
	})

	if err != nil {
		return fmt.Errorf("failed to save operation: %w", err)
	}

	return nil
}

// Get retrieves a record by its ID.
func (j *Journal) Get(_ context.Context, id uuid.UUID) (*Record, error) {
	var model *recordModel

	err := j.db.View(func(txn *badger.Txn) error {
		found, err := j.repo.Read(txn, id.String())
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id.String())
		}
		if err != nil {
			return fmt.Errorf("failed to get operation: %w", err)
		}

		model = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return newRecord(model), nil
}

// ListByPath returns the records of one repository, newest first.
// A non-positive limit returns all of them.
func (j *Journal) ListByPath(_ context.Context, path string, limit int) ([]Record, error) {
	var models []*recordModel

	err := j.db.View(func(txn *badger.Txn) error {
		var err error
		models, err = j.repo.ListByIndex(txn, pathPrefix(path), newestFirst(), limit)
		return err
	})
	if err != nil {
		return []Record{}, fmt.Errorf("failed to list operations: %w", err)
	}

	records := make([]Record, 0, len(models))
	for _, m := range models {
		records = append(records, *newRecord(m))
	}

	return records, nil
}

func (j *Journal) prune(txn *badger.Txn, path string) error {
	if j.historyLimit <= 0 {
		return nil
	}

	models, err := j.repo.ListByIndex(txn, pathPrefix(path), newestFirst(), 0)
	if err != nil {
		return err
	}

	for _, m := range models[min(j.historyLimit, len(models)):] {
		if delErr := j.repo.Delete(txn, m.ID.String()); delErr != nil {
			return fmt.Errorf("failed to prune operation: %w", delErr)
		}
	}

	return nil
}

func newestFirst() badger.IteratorOptions {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	opts.PrefetchSize = 10

	return opts
}
