// Package boltdb is a Backend on top of a single bbolt file: one bucket per
// entity kind keyed by version uuid, plus a metadata bucket.
package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/carestore/internal/models"
)

var (
	// bucketMeta хранит часы узла и служебные ключи
	bucketMeta = []byte("meta")
)

func kindBucket(k models.Kind) []byte {
	return []byte("records_" + string(k))
}

// Storage represents BoltDB backend
type Storage struct {
	db *bbolt.DB
}

// New opens (or creates) the BoltDB file at dbPath
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db}

	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return s, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// initBuckets создает buckets для всех типов сущностей
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketMeta); err != nil {
			return fmt.Errorf("failed to create meta bucket: %w", err)
		}
		for _, k := range models.Kinds {
			if _, err := tx.CreateBucketIfNotExists(kindBucket(k)); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", k, err)
			}
		}
		return nil
	})
}
