//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_store.go -package=mocks
package database

import (
	"context"
	"fmt"
	"log/slog"

	"rob-assessor/internal/models"
)

// Store archives completed assessments
type Store interface {
	SaveAssessment(ctx context.Context, rec *models.ArchiveRecord) error
	// ListAssessments returns the most recent records first
	ListAssessments(ctx context.Context, limit int) ([]models.ArchiveRecord, error)
	Close() error
}

// Open returns the store named by backend. "none" and "" return a nil Store.
func Open(ctx context.Context, backend, postgresURL, badgerPath string, log *slog.Logger) (Store, error) {
	switch backend {
	case "", "none":
		return nil, nil
	case "postgres":
		db, err := NewDB(ctx, postgresURL)
		if err != nil {
			return nil, err
		}
		if err := db.Initialize(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	case "badger":
		store, err := NewBadgerStore(badgerPath, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", backend)
	}
}
