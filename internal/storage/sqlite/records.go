// Package sqlite is a Backend on top of an embedded SQLite database. Every
// entity version is one row of the records table, keyed by kind and version
// uuid; the store clock and other metadata live in the meta table.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"net/url"
	"slices"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/iudanet/carestore/internal/models"
	"github.com/iudanet/carestore/internal/storage"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// pragmas are applied by the driver on every new connection.
var pragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
}

// Storage keeps entity records in SQLite
type Storage struct {
	db     *sql.DB
	schema *goose.Provider
}

var _ storage.Backend = (*Storage)(nil)

// New opens the record database at dbPath and brings its schema up to date.
// Use ":memory:" for a throwaway database.
func New(ctx context.Context, dbPath string) (*Storage, error) {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	db, err := sql.Open("sqlite", dbPath+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// один писатель; для ":memory:" еще и единственная копия базы
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s, err := open(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func open(ctx context.Context, db *sql.DB) (*Storage, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	schema, err := goose.NewProvider(goose.DialectSQLite3, db, migrations)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare migrations: %w", err)
	}
	if _, err := schema.Up(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate records schema: %w", err)
	}

	return &Storage{db: db, schema: schema}, nil
}

// SchemaVersion returns the applied migration version of the records schema.
func (s *Storage) SchemaVersion(ctx context.Context) (int64, error) {
	return s.schema.GetDBVersion(ctx)
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// Load reads all records and metadata from one read transaction, so the
// clock always matches the records it was saved with.
func (s *Storage) Load(ctx context.Context) (*storage.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin read: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	snap := &storage.Snapshot{Meta: make(map[string][]byte)}
	if err := loadMeta(ctx, tx, snap); err != nil {
		return nil, err
	}
	if err := loadRecords(ctx, tx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func loadMeta(ctx context.Context, tx *sql.Tx, snap *storage.Snapshot) error {
	rows, err := tx.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return fmt.Errorf("failed to query meta: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("failed to scan meta: %w", err)
		}
		snap.Meta[key] = value
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating meta: %w", err)
	}
	return nil
}

// loadRecords returns versions in the order they were first saved.
func loadRecords(ctx context.Context, tx *sql.Tx, snap *storage.Snapshot) error {
	rows, err := tx.QueryContext(ctx, `SELECT kind, id, data FROM records ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("failed to query records: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var (
			kind string
			id   string
			data []byte
		)
		if err := rows.Scan(&kind, &id, &data); err != nil {
			return fmt.Errorf("failed to scan record: %w", err)
		}
		versionID, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("invalid record id %q: %w", id, err)
		}
		if !slices.Contains(models.Kinds, models.Kind(kind)) {
			return fmt.Errorf("record %s has unknown kind %q", id, kind)
		}
		snap.Records = append(snap.Records, storage.Record{
			Kind: models.Kind(kind),
			ID:   versionID,
			Data: data,
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating records: %w", err)
	}
	return nil
}

// Commit upserts records and metadata in one transaction. A version saved
// again keeps its original position in the load order.
func (s *Storage) Commit(ctx context.Context, batch *storage.Batch) error {
	if batch.Empty() {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	upsertRecord, err := tx.PrepareContext(ctx, `
		INSERT INTO records (kind, id, data) VALUES (?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare record upsert: %w", err)
	}
	defer upsertRecord.Close()

	for _, r := range batch.Records {
		if _, err := upsertRecord.ExecContext(ctx, string(r.Kind), r.ID.String(), r.Data); err != nil {
			return fmt.Errorf("failed to save %s %s: %w", r.Kind, r.ID, err)
		}
	}

	for k, v := range batch.Meta {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, v)
		if err != nil {
			return fmt.Errorf("failed to save meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
