package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/carestore/internal/models"
	"github.com/iudanet/carestore/internal/storage"
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	t.Helper()
	s, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	return s, func() { _ = s.Close() }
}

func TestNew_Migrations(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	version, err := s.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Records)
	assert.Empty(t, snap.Meta)
}

func TestStorage_EmptyCommit(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	require.NoError(t, s.Commit(context.Background(), &storage.Batch{}))
	require.NoError(t, s.Commit(context.Background(), nil))
}

func TestStorage_CommitLoad(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	first, second := uuid.New(), uuid.New()

	tests := []struct {
		name  string
		batch *storage.Batch
	}{
		{
			name: "insert two records",
			batch: &storage.Batch{Records: []storage.Record{
				{Kind: models.KindCarePlan, ID: first, Data: []byte("plan")},
				{Kind: models.KindOutcome, ID: second, Data: []byte("outcome-v1")},
			}},
		},
		{
			name: "update existing record and meta",
			batch: &storage.Batch{
				Records: []storage.Record{{Kind: models.KindOutcome, ID: second, Data: []byte("outcome-v2")}},
				Meta:    map[string][]byte{"clock": []byte("c")},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, s.Commit(ctx, tt.batch))
		})
	}

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Records, 2)
	assert.Equal(t, first, snap.Records[0].ID, "records keep insertion order")
	assert.Equal(t, models.KindCarePlan, snap.Records[0].Kind)
	assert.Equal(t, []byte("outcome-v2"), snap.Records[1].Data)
	assert.Equal(t, []byte("c"), snap.Meta["clock"])
}

func TestStorage_Reopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "store.db")

	s, err := New(ctx, dbPath)
	require.NoError(t, err)
	id := uuid.New()
	require.NoError(t, s.Commit(ctx, &storage.Batch{
		Records: []storage.Record{{Kind: models.KindPatient, ID: id, Data: []byte("p")}},
	}))
	require.NoError(t, s.Close())

	reopened, err := New(ctx, dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	version, err := reopened.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version, "reopening does not migrate again")

	snap, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, id, snap.Records[0].ID)
}
