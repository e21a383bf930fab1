// Package store is the single-store engine: versioned add/update/delete with
// all-or-nothing batches, point-in-time queries and the revision log used
// for peer synchronization.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/carestore/internal/crdt"
	"github.com/iudanet/carestore/internal/metrics"
	"github.com/iudanet/carestore/internal/models"
	"github.com/iudanet/carestore/internal/storage"
)

const metaClock = "clock"

// Store is a versioned entity store over a storage.Backend.
type Store struct {
	backend  storage.Backend
	delegate Delegate
	metrics  metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
	state    *state
	cfg      Config
	writeMu  sync.Mutex   // один писатель: транзакции и слияния не чередуются
	mu       sync.RWMutex // защищает state и delegate
	closed   bool
}

type storedRecord struct {
	Stamp  crdt.KnowledgeVector `json:"stamp"`
	Entity models.Entity        `json:"entity"`
}

type storedClock struct {
	Vector crdt.KnowledgeVector `json:"vector"`
	ID     uuid.UUID            `json:"id"`
}

// Open loads the backend contents and returns a ready store.
func Open(ctx context.Context, backend storage.Backend, cfg Config, opts ...Option) (*Store, error) {
	if cfg.SyncBatchSize <= 0 {
		cfg.SyncBatchSize = DefaultConfig().SyncBatchSize
	}
	if cfg.Name == "" {
		cfg.Name = DefaultConfig().Name
	}

	s := &Store{
		backend: backend,
		cfg:     cfg,
		logger:  slog.Default(),
		metrics: metrics.Noop{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("store", cfg.Name))

	snap, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	clock, fresh, err := decodeClock(snap.Meta[metaClock])
	if err != nil {
		return nil, err
	}
	st := newState(clock)
	for _, r := range snap.Records {
		rec, err := decodeRecord(r)
		if err != nil {
			return nil, err
		}
		st.put(rec)
	}
	s.state = st

	if fresh {
		if err := backend.Commit(ctx, &storage.Batch{Meta: map[string][]byte{metaClock: encodeClock(clock)}}); err != nil {
			return nil, fmt.Errorf("failed to save clock: %w", err)
		}
	}

	s.logger.Debug("store opened",
		slog.Int("versions", len(st.versions)),
		slog.String("clock_id", clock.ID().String()))

	return s, nil
}

// Close closes the backend. Further operations fail.
func (s *Store) Close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.backend.Close()
}

// Name returns the configured store name.
func (s *Store) Name() string { return s.cfg.Name }

// Config returns the store configuration.
func (s *Store) Config() Config { return s.cfg }

// SetDelegate replaces the change notification receiver.
func (s *Store) SetDelegate(d Delegate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delegate = d
}

func decodeClock(data []byte) (*crdt.Clock, bool, error) {
	if data == nil {
		return crdt.NewClock(), true, nil
	}
	var sc storedClock
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal clock: %w", err)
	}
	return crdt.RestoreClock(sc.ID, sc.Vector), false, nil
}

func encodeClock(c *crdt.Clock) []byte {
	// KnowledgeVector и uuid всегда сериализуются
	data, _ := json.Marshal(storedClock{ID: c.ID(), Vector: c.Vector()})
	return data
}

func decodeRecord(r storage.Record) (*record, error) {
	var sr storedRecord
	if err := json.Unmarshal(r.Data, &sr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s %s: %w", r.Kind, r.ID, err)
	}
	if sr.Entity.Value == nil || sr.Entity.Kind() != r.Kind || sr.Entity.Header().LocalVersionID != r.ID {
		return nil, fmt.Errorf("corrupted record %s %s", r.Kind, r.ID)
	}
	if sr.Stamp == nil {
		sr.Stamp = crdt.NewKnowledgeVector()
	}
	// ссылки вперед вычисляются заново при загрузке
	sr.Entity.Header().NextVersionIDs = nil
	return &record{value: sr.Entity.Value, stamp: sr.Stamp}, nil
}

func encodeRecord(r *record) (storage.Record, error) {
	value := r.value.Clone()
	value.Header().NextVersionIDs = nil
	data, err := json.Marshal(storedRecord{Stamp: r.stamp, Entity: models.Wrap(value)})
	if err != nil {
		return storage.Record{}, fmt.Errorf("failed to marshal %s: %w", value.Kind(), err)
	}
	return storage.Record{Kind: value.Kind(), ID: value.Header().LocalVersionID, Data: data}, nil
}

// write runs fn in a serialized transaction. The overlay is persisted in one
// backend commit and only then becomes visible to readers.
func (s *Store) write(ctx context.Context, op string, kind ErrorKind, fn func(t *tx) error) (*tx, error) {
	start := time.Now()
	t, changes, err := s.runWrite(ctx, kind, fn)
	s.metrics.ObserveOperation(s.cfg.Name, op, err == nil, time.Since(start))
	if err != nil {
		s.logger.Debug("write rejected", slog.String("op", op), slog.Any("error", err))
		return nil, err
	}
	s.notify(ctx, changes)
	return t, nil
}

func (s *Store) runWrite(ctx context.Context, kind ErrorKind, fn func(t *tx) error) (*tx, []Change, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.isClosed() {
		return nil, nil, WrapError(kind, "store is closed", storage.ErrStorageClosed)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, WrapError(kind, "context done", err)
	}

	t := newTx(s.state)
	if err := fn(t); err != nil {
		return nil, nil, WrapError(kind, "transaction failed", err)
	}

	if t.empty() && t.clock.Vector().Equal(s.state.clock.Vector()) {
		return t, nil, nil
	}

	batch := &storage.Batch{Meta: map[string][]byte{metaClock: encodeClock(t.clock)}}
	for _, id := range t.order {
		rec, err := encodeRecord(t.puts[id])
		if err != nil {
			return nil, nil, WrapError(kind, "encoding failed", err)
		}
		batch.Records = append(batch.Records, rec)
	}
	if err := s.backend.Commit(ctx, batch); err != nil {
		return nil, nil, WrapError(kind, "commit failed", err)
	}

	s.mu.Lock()
	t.apply()
	changes := t.collectChanges(s.cfg.Name)
	s.mu.Unlock()
	return t, changes, nil
}

// read runs fn against committed state under the read lock.
func (s *Store) read(ctx context.Context, op string, fn func(v view) error) error {
	start := time.Now()
	err := s.runRead(ctx, fn)
	s.metrics.ObserveOperation(s.cfg.Name, op, err == nil, time.Since(start))
	return err
}

func (s *Store) runRead(ctx context.Context, fn func(v view) error) error {
	if err := ctx.Err(); err != nil {
		return WrapError(KindFetchFailed, "context done", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return WrapError(KindFetchFailed, "store is closed", storage.ErrStorageClosed)
	}
	if err := fn(s.state); err != nil {
		return WrapError(KindFetchFailed, "fetch failed", err)
	}
	return nil
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// notify delivers committed changes to the delegate outside of any lock.
func (s *Store) notify(ctx context.Context, changes []Change) {
	s.mu.RLock()
	d := s.delegate
	s.mu.RUnlock()
	if d == nil {
		return
	}
	for _, c := range changes {
		d.StoreDidChange(ctx, c)
	}
}
