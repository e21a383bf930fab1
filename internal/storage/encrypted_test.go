package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/carestore/internal/models"
	"github.com/iudanet/carestore/internal/storage"
	"github.com/iudanet/carestore/internal/storage/memory"
)

func TestEncrypted_RoundTrip(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	id := uuid.New()

	enc := storage.NewEncrypted(inner, "correct horse")
	_, err := enc.Load(ctx)
	require.NoError(t, err)

	plain := []byte(`{"id":"aspirin"}`)
	require.NoError(t, enc.Commit(ctx, &storage.Batch{
		Records: []storage.Record{{Kind: models.KindTask, ID: id, Data: plain}},
		Meta:    map[string][]byte{"clock": []byte("1")},
	}))

	raw, err := inner.Load(ctx)
	require.NoError(t, err)
	require.Len(t, raw.Records, 1)
	assert.NotContains(t, string(raw.Records[0].Data), "aspirin", "данные на диске зашифрованы")

	reopened := storage.NewEncrypted(inner, "correct horse")
	snap, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, plain, snap.Records[0].Data)
	assert.Equal(t, []byte("1"), snap.Meta["clock"])
	assert.Len(t, snap.Meta, 1, "служебные ключи не видны вызывающему")
}

func TestEncrypted_WrongPassphrase(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()

	_, err := storage.NewEncrypted(inner, "first").Load(ctx)
	require.NoError(t, err)

	_, err = storage.NewEncrypted(inner, "second").Load(ctx)
	assert.ErrorIs(t, err, storage.ErrWrongPassphrase)
}

func TestEncrypted_CommitBeforeLoad(t *testing.T) {
	enc := storage.NewEncrypted(memory.New(), "pass")
	err := enc.Commit(context.Background(), &storage.Batch{})
	assert.ErrorIs(t, err, storage.ErrNotLoaded)
}

func TestEncrypted_PropagatesInnerErrors(t *testing.T) {
	boom := errors.New("disk full")
	inner := &storage.BackendMock{
		LoadFunc: func(ctx context.Context) (*storage.Snapshot, error) {
			return &storage.Snapshot{Meta: map[string][]byte{}}, nil
		},
		CommitFunc: func(ctx context.Context, batch *storage.Batch) error {
			return boom
		},
		CloseFunc: func() error { return nil },
	}

	_, err := storage.NewEncrypted(inner, "pass").Load(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Len(t, inner.CommitCalls(), 1)
}
