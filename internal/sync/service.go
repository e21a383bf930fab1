// Package sync exchanges revision records between a store and a remote peer.
package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/iudanet/carestore/internal/crdt"
	"github.com/iudanet/carestore/internal/metrics"
	"github.com/iudanet/carestore/internal/models"
	"github.com/iudanet/carestore/internal/store"
)

// Store is the local side of a synchronization.
type Store interface {
	store.SyncableStore
	Name() string
}

// SyncResult contains sync operation results
type SyncResult struct {
	PushErr        error             // ошибка отправки, синхронизация при этом считается успешной
	Merge          store.MergeResult // результат слияния полученных записей
	PulledRecords  int               // количество полученных revision records
	PulledEntities int               // количество полученных версий
	PushedRecords  int               // количество отправленных revision records
	PushedEntities int               // количество отправленных версий
}

// Service synchronizes one store. Calls to Sync are serialized.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics metrics.Recorder
	sem     chan struct{}
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.Recorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewService creates a sync service for s.
func NewService(s Store, opts ...Option) *Service {
	svc := &Service{
		store:   s,
		logger:  slog.Default(),
		metrics: metrics.Noop{},
		sem:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Sync performs full synchronization with remote
// 1. Pulls remote revisions the local store does not know
// 2. Merges them, resolving conflicts
// 3. Pushes local revisions the remote does not know
//
// A failed pull fails the sync. A failed push is logged and reported in the
// result: the local store has already advanced and the next sync retries it.
func (s *Service) Sync(ctx context.Context, remote Remote) (result *SyncResult, err error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, store.WrapError(store.KindRemoteSyncFailed, "waiting for running sync", ctx.Err())
	}
	defer func() { <-s.sem }()

	started := time.Now()
	defer func() {
		s.metrics.ObserveOperation(s.store.Name(), "sync", err == nil, time.Since(started))
	}()

	local := s.store.KnowledgeVector()
	s.logger.Info("Starting synchronization",
		slog.String("store", s.store.Name()),
		slog.String("clock", s.store.ClockID().String()))

	pulled, err := remote.PullRevisions(ctx, local)
	if err != nil {
		return nil, store.WrapError(store.KindRemoteSyncFailed, "failed to pull revisions", err)
	}

	result = &SyncResult{PulledRecords: len(pulled), PulledEntities: countEntities(pulled)}
	remoteKnows := crdt.NewKnowledgeVector()
	for _, r := range pulled {
		remoteKnows.Merge(r.KnowledgeVector)
	}

	result.Merge, err = s.store.MergeRevisions(ctx, pulled)
	if err != nil {
		return nil, err
	}

	outgoing, err := s.store.Revisions(ctx, remoteKnows)
	if err != nil {
		return nil, store.WrapError(store.KindRemoteSyncFailed, "failed to compute revisions", err)
	}
	result.PushedRecords = len(outgoing)
	result.PushedEntities = countEntities(outgoing)

	if err := remote.PushRevisions(ctx, outgoing, s.store.KnowledgeVector()); err != nil {
		s.logger.Warn("Failed to push revisions",
			slog.String("store", s.store.Name()),
			slog.Int("records", len(outgoing)),
			slog.Any("error", err))
		result.PushErr = err
		result.PushedRecords, result.PushedEntities = 0, 0
	}

	s.logger.Info("Synchronization completed",
		slog.String("store", s.store.Name()),
		slog.Int("pulled", result.PulledEntities),
		slog.Int("pushed", result.PushedEntities),
		slog.Int("inserted", result.Merge.Inserted),
		slog.Int("updated", result.Merge.Updated),
		slog.Int("skipped", result.Merge.Skipped),
		slog.Int("conflicts", result.Merge.Conflicts))
	return result, nil
}

func countEntities(records []models.RevisionRecord) int {
	n := 0
	for _, r := range records {
		n += len(r.Entities)
	}
	return n
}
