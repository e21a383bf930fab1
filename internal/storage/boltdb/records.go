package boltdb

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/iudanet/carestore/internal/models"
	"github.com/iudanet/carestore/internal/storage"
)

// Load reads every record and metadata key in one read transaction
func (s *Storage) Load(ctx context.Context) (*storage.Snapshot, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	snap := &storage.Snapshot{Meta: make(map[string][]byte)}

	err := s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil {
			return fmt.Errorf("meta bucket not found")
		}
		// значения bbolt валидны только внутри транзакции - копируем
		if err := meta.ForEach(func(k, v []byte) error {
			snap.Meta[string(k)] = bytes.Clone(v)
			return nil
		}); err != nil {
			return err
		}

		for _, kind := range models.Kinds {
			bucket := tx.Bucket(kindBucket(kind))
			if bucket == nil {
				continue
			}
			err := bucket.ForEach(func(k, v []byte) error {
				id, err := uuid.FromBytes(k)
				if err != nil {
					return fmt.Errorf("invalid %s key: %w", kind, err)
				}
				snap.Records = append(snap.Records, storage.Record{
					Kind: kind,
					ID:   id,
					Data: bytes.Clone(v),
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	return snap, nil
}

// Commit writes the batch in a single update transaction
func (s *Storage) Commit(ctx context.Context, batch *storage.Batch) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		for _, r := range batch.Records {
			bucket, err := tx.CreateBucketIfNotExists(kindBucket(r.Kind))
			if err != nil {
				return fmt.Errorf("failed to create bucket: %w", err)
			}
			if err := bucket.Put(r.ID[:], r.Data); err != nil {
				return fmt.Errorf("failed to save %s %s: %w", r.Kind, r.ID, err)
			}
		}

		if len(batch.Meta) == 0 {
			return nil
		}
		meta := tx.Bucket(bucketMeta)
		if meta == nil {
			return fmt.Errorf("meta bucket not found")
		}
		for k, v := range batch.Meta {
			if err := meta.Put([]byte(k), v); err != nil {
				return fmt.Errorf("failed to save meta %s: %w", k, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}
