// Package memory is an in-process Backend. Nothing survives Close.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/iudanet/carestore/internal/models"
	"github.com/iudanet/carestore/internal/storage"
)

type recordKey struct {
	kind models.Kind
	id   uuid.UUID
}

// Storage keeps records in maps guarded by a mutex.
type Storage struct {
	records map[recordKey][]byte
	meta    map[string][]byte
	order   []recordKey
	mu      sync.RWMutex
	closed  bool
}

// New creates an empty in-memory backend.
func New() *Storage {
	return &Storage{
		records: make(map[recordKey][]byte),
		meta:    make(map[string][]byte),
	}
}

// Load returns copies of every record in insertion order.
func (s *Storage) Load(ctx context.Context) (*storage.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrStorageClosed
	}

	snap := &storage.Snapshot{
		Meta:    make(map[string][]byte, len(s.meta)),
		Records: make([]storage.Record, 0, len(s.order)),
	}
	for k, v := range s.meta {
		snap.Meta[k] = slices.Clone(v)
	}
	for _, k := range s.order {
		snap.Records = append(snap.Records, storage.Record{
			Kind: k.kind,
			ID:   k.id,
			Data: slices.Clone(s.records[k]),
		})
	}
	return snap, nil
}

// Commit applies the batch under the write lock.
func (s *Storage) Commit(ctx context.Context, batch *storage.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrStorageClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, r := range batch.Records {
		k := recordKey{kind: r.Kind, id: r.ID}
		if _, ok := s.records[k]; !ok {
			s.order = append(s.order, k)
		}
		s.records[k] = slices.Clone(r.Data)
	}
	for k, v := range batch.Meta {
		s.meta[k] = slices.Clone(v)
	}
	return nil
}

// Close marks the backend closed.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
