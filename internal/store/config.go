package store

import (
	"log/slog"
	"time"

	"github.com/iudanet/carestore/internal/metrics"
)

// CurrentSchemaVersion is stamped on every version written by this store.
const CurrentSchemaVersion = "2.1.0"

// Config holds the behavior flags of a store.
type Config struct {
	// Name identifies the store in logs, metrics and notifications.
	Name string
	// Versioning makes updates create new versions instead of overwriting.
	Versioning bool
	// AllowsEntitiesWithMissingRelationships skips relationship checks on add/update.
	AllowsEntitiesWithMissingRelationships bool
	// Timezone is stamped on written versions that carry none. Empty leaves it unset.
	Timezone string
	// SyncBatchSize caps the entities per revision record.
	SyncBatchSize int
}

// DefaultConfig returns a versioned store that tolerates missing relationships.
func DefaultConfig() Config {
	return Config{
		Name:                                   "store",
		Versioning:                             true,
		AllowsEntitiesWithMissingRelationships: true,
		SyncBatchSize:                          500,
	}
}

// Option configures optional collaborators of a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the operation metrics recorder.
func WithMetrics(recorder metrics.Recorder) Option {
	return func(s *Store) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithDelegate sets the receiver of change notifications.
func WithDelegate(d Delegate) Option {
	return func(s *Store) { s.SetDelegate(d) }
}

// WithNow overrides the wall clock used for audit dates.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}
