// Package config loads the YAML configuration of a carestore instance.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iudanet/carestore/internal/store"
)

// Backend names a persistence backend.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendBolt   Backend = "bolt"
	BackendSQLite Backend = "sqlite"
)

// DefaultSyncBatchSize is the number of entities per revision record.
const DefaultSyncBatchSize = 500

// Config описывает хранилище: backend, поведение версионирования и логирование
type Config struct {
	// Versioning makes updates create new versions. Defaults to true.
	Versioning *bool `yaml:"versioning,omitempty"`
	// AllowsEntitiesWithMissingRelationships skips relationship checks. Defaults to true.
	AllowsEntitiesWithMissingRelationships *bool `yaml:"allows_entities_with_missing_relationships,omitempty"`

	Name    string  `yaml:"name"`
	Backend Backend `yaml:"backend"`
	// Path is the database file for bolt and sqlite.
	Path string `yaml:"path,omitempty"`
	// Timezone is an IANA name stamped on written versions.
	Timezone string `yaml:"timezone,omitempty"`
	// EncryptionPassphrase enables at-rest encryption of entity data.
	EncryptionPassphrase string `yaml:"encryption_passphrase,omitempty"`
	LogLevel             string `yaml:"log_level,omitempty"`
	SyncBatchSize        int    `yaml:"sync_batch_size,omitempty"`
}

// Default returns an in-memory versioned store configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates the YAML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and validates the result.
// Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func boolPtr(b bool) *bool { return &b }

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "store"
	}
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.Versioning == nil {
		c.Versioning = boolPtr(true)
	}
	if c.AllowsEntitiesWithMissingRelationships == nil {
		c.AllowsEntitiesWithMissingRelationships = boolPtr(true)
	}
	if c.SyncBatchSize == 0 {
		c.SyncBatchSize = DefaultSyncBatchSize
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendBolt, BackendSQLite:
		if c.Path == "" {
			return fmt.Errorf("backend %s requires a path", c.Backend)
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	if c.SyncBatchSize < 0 {
		return fmt.Errorf("sync_batch_size cannot be negative")
	}

	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
		}
	}

	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// StoreConfig returns the behavior flags passed to the store.
func (c *Config) StoreConfig() store.Config {
	cfg := store.DefaultConfig()
	cfg.Name = c.Name
	cfg.Timezone = c.Timezone
	cfg.SyncBatchSize = c.SyncBatchSize
	if c.Versioning != nil {
		cfg.Versioning = *c.Versioning
	}
	if c.AllowsEntitiesWithMissingRelationships != nil {
		cfg.AllowsEntitiesWithMissingRelationships = *c.AllowsEntitiesWithMissingRelationships
	}
	return cfg
}
