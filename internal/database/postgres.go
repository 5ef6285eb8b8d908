package database

import (
	"context"
	"encoding/json"
	"fmt"

	"rob-assessor/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB represents the database connection
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB creates a new database connection
func NewDB(ctx context.Context, connStr string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Initialize sets up the database tables and indices
func (db *DB) Initialize(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS rob_assessments (
            id UUID PRIMARY KEY,
            created_at TIMESTAMPTZ NOT NULL,
            backend TEXT NOT NULL,
            model TEXT NOT NULL,
            pdf_file TEXT NOT NULL,
            author TEXT NOT NULL,
            year TEXT NOT NULL,
            registration TEXT NOT NULL,
            text_length INTEGER NOT NULL,
            artifact JSONB NOT NULL,
            result JSONB NOT NULL
        )
    `)
	if err != nil {
		return fmt.Errorf("failed to create rob_assessments table: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS rob_assessments_created_idx ON rob_assessments (created_at DESC);
		CREATE INDEX IF NOT EXISTS rob_assessments_registration_idx ON rob_assessments (registration);
	`)
	if err != nil {
		return fmt.Errorf("failed to create indices: %w", err)
	}

	return nil
}

// SaveAssessment stores an archive record
func (db *DB) SaveAssessment(ctx context.Context, rec *models.ArchiveRecord) error {
	artifact, err := json.Marshal(rec.Artifact)
	if err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}
	result, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
        INSERT INTO rob_assessments (
            id, created_at, backend, model, pdf_file, author, year,
            registration, text_length, artifact, result
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `,
		rec.ID,
		rec.CreatedAt,
		rec.Backend,
		rec.Model,
		rec.Source.PDFFile,
		rec.Source.Author,
		rec.Source.Year,
		rec.Source.Registration,
		rec.Source.TextLength,
		artifact,
		result)
	if err != nil {
		return fmt.Errorf("failed to store assessment: %w", err)
	}

	return nil
}

// ListAssessments returns the newest records first
func (db *DB) ListAssessments(ctx context.Context, limit int) ([]models.ArchiveRecord, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id, created_at, backend, model, pdf_file, author, year,
               registration, text_length, artifact, result
        FROM rob_assessments
        ORDER BY created_at DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	return processRows(rows)
}

func processRows(rows pgx.Rows) ([]models.ArchiveRecord, error) {
	defer rows.Close()

	var records []models.ArchiveRecord
	for rows.Next() {
		var rec models.ArchiveRecord
		var artifact, result []byte

		if err := rows.Scan(
			&rec.ID,
			&rec.CreatedAt,
			&rec.Backend,
			&rec.Model,
			&rec.Source.PDFFile,
			&rec.Source.Author,
			&rec.Source.Year,
			&rec.Source.Registration,
			&rec.Source.TextLength,
			&artifact,
			&result); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		if err := json.Unmarshal(artifact, &rec.Artifact); err != nil {
			return nil, fmt.Errorf("failed to decode artifact: %w", err)
		}
		if err := json.Unmarshal(result, &rec.Result); err != nil {
			return nil, fmt.Errorf("failed to decode result: %w", err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	db.Pool.Close()
	return nil
}
