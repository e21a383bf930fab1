package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/carestore/internal/models"
	"github.com/iudanet/carestore/internal/storage"
)

func TestStorage_CommitLoad(t *testing.T) {
	ctx := context.Background()
	s := New()
	a, b := uuid.New(), uuid.New()

	require.NoError(t, s.Commit(ctx, &storage.Batch{
		Records: []storage.Record{
			{Kind: models.KindPatient, ID: a, Data: []byte("v1")},
			{Kind: models.KindTask, ID: b, Data: []byte("task")},
		},
		Meta: map[string][]byte{"clock": []byte("c1")},
	}))
	require.NoError(t, s.Commit(ctx, &storage.Batch{
		Records: []storage.Record{{Kind: models.KindPatient, ID: a, Data: []byte("v2")}},
	}))

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Records, 2)
	assert.Equal(t, a, snap.Records[0].ID)
	assert.Equal(t, []byte("v2"), snap.Records[0].Data)
	assert.Equal(t, models.KindTask, snap.Records[1].Kind)
	assert.Equal(t, []byte("c1"), snap.Meta["clock"])

	snap.Records[0].Data[0] = 'x'
	again, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), again.Records[0].Data, "Load returns copies")
}

func TestStorage_Closed(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Close())

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, s.Commit(ctx, &storage.Batch{}), storage.ErrStorageClosed)
}
