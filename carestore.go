// Package carestore opens care-plan stores described by a configuration file.
package carestore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iudanet/carestore/internal/config"
	"github.com/iudanet/carestore/internal/metrics"
	"github.com/iudanet/carestore/internal/storage"
	"github.com/iudanet/carestore/internal/storage/boltdb"
	"github.com/iudanet/carestore/internal/storage/memory"
	"github.com/iudanet/carestore/internal/storage/sqlite"
	"github.com/iudanet/carestore/internal/store"
)

type (
	Store  = store.Store
	Config = config.Config
)

type options struct {
	logger     *slog.Logger
	registerer prometheus.Registerer
	output     io.Writer
	storeOpts  []store.Option
}

// Option configures Open.
type Option func(*options)

// WithLogger sets the logger. By default a text logger writing to stderr at
// the configured level is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithLogOutput changes where the default logger writes.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// WithRegisterer enables Prometheus metrics registered with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithStoreOptions passes extra options to the store.
func WithStoreOptions(opts ...store.Option) Option {
	return func(o *options) { o.storeOpts = append(o.storeOpts, opts...) }
}

// OpenFile loads the YAML configuration at path and opens the store it describes.
func OpenFile(ctx context.Context, path string, opts ...Option) (*Store, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return Open(ctx, cfg, opts...)
}

// Open creates the backend named by cfg, wraps it in encryption when a
// passphrase is set, and opens a store on top of it.
func Open(ctx context.Context, cfg *Config, opts ...Option) (*Store, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := options{output: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		level, err := cfg.Level()
		if err != nil {
			return nil, err
		}
		o.logger = slog.New(slog.NewTextHandler(o.output, &slog.HandlerOptions{Level: level}))
	}

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.EncryptionPassphrase != "" {
		backend = storage.NewEncrypted(backend, cfg.EncryptionPassphrase)
	}

	storeOpts := []store.Option{store.WithLogger(o.logger)}
	if o.registerer != nil {
		storeOpts = append(storeOpts, store.WithMetrics(metrics.New(o.registerer)))
	}
	storeOpts = append(storeOpts, o.storeOpts...)

	s, err := store.Open(ctx, backend, cfg.StoreConfig(), storeOpts...)
	if err != nil {
		if cerr := backend.Close(); cerr != nil {
			o.logger.Warn("Failed to close backend", slog.Any("error", cerr))
		}
		return nil, err
	}

	o.logger.Info("Store opened",
		slog.String("store", cfg.Name),
		slog.String("backend", string(cfg.Backend)),
		slog.Bool("encrypted", cfg.EncryptionPassphrase != ""))
	return s, nil
}

func openBackend(ctx context.Context, cfg *Config) (storage.Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendBolt:
		b, err := boltdb.New(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt backend: %w", err)
		}
		return b, nil
	case config.BackendSQLite:
		b, err := sqlite.New(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite backend: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
