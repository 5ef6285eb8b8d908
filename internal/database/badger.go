package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"rob-assessor/internal/models"

	"github.com/dgraph-io/badger/v4"
)

const assessmentPrefix = "assessment:"

// BadgerStore keeps archive records in an embedded BadgerDB
type BadgerStore struct {
	db  *badger.DB
	log *slog.Logger
}

// NewBadgerStore opens (or creates) a BadgerDB directory
func NewBadgerStore(path string, log *slog.Logger) (*BadgerStore, error) {
	if path == "" {
		return nil, fmt.Errorf("badger path is empty")
	}
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", path, err)
	}
	return NewBadgerStoreFromDB(db, log), nil
}

func NewBadgerStoreFromDB(db *badger.DB, log *slog.Logger) *BadgerStore {
	return &BadgerStore{db: db, log: log}
}

// Keys sort newest first: the timestamp part is inverted so a forward iteration
// walks from the latest record.
func recordKey(rec *models.ArchiveRecord) []byte {
	inverted := uint64(math.MaxInt64 - rec.CreatedAt.UnixNano())
	return []byte(fmt.Sprintf("%s%020d:%s", assessmentPrefix, inverted, rec.ID))
}

func (s *BadgerStore) SaveAssessment(_ context.Context, rec *models.ArchiveRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(rec), data)
	})
	if err != nil {
		return fmt.Errorf("failed to store assessment: %w", err)
	}

	s.log.Debug("Assessment archived", "id", rec.ID, "registration", rec.Source.Registration)
	return nil
}

func (s *BadgerStore) ListAssessments(_ context.Context, limit int) ([]models.ArchiveRecord, error) {
	var records []models.ArchiveRecord
	prefix := []byte(assessmentPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix) && len(records) < limit; it.Next() {
			var rec models.ArchiveRecord
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &rec)
			})
			if err != nil {
				return fmt.Errorf("failed to decode record %s: %w", it.Item().Key(), err)
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}

	return records, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
