package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDB_SaveAndList(t *testing.T) {
	connStr := os.Getenv("ROB_TEST_POSTGRES_URL")
	if connStr == "" {
		t.Skip("ROB_TEST_POSTGRES_URL not set")
	}

	req := require.New(t)
	ctx := context.Background()

	db, err := NewDB(ctx, connStr)
	req.NoError(err)
	defer db.Close()
	req.NoError(db.Initialize(ctx))

	rec := newRecord("NCT99999999", time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond))
	req.NoError(db.SaveAssessment(ctx, rec))
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), "DELETE FROM rob_assessments WHERE id = $1", rec.ID)
	})

	records, err := db.ListAssessments(ctx, 1)
	req.NoError(err)
	req.Len(records, 1)
	req.Equal(rec.ID, records[0].ID)
	req.Equal(rec.Source, records[0].Source)
	req.Equal(rec.Artifact, records[0].Artifact)
	req.True(rec.CreatedAt.Equal(records[0].CreatedAt))
}
