// Package storage provides the SQLite-backed snapshot store for the
// cached catalog and the scanned-products ledger.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/stocktake-app/stocktake/internal/common"
	"github.com/stocktake-app/stocktake/internal/model"
)

// SQLiteStorage implements the service.Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// SaveSnapshot overwrites the persisted state with the given snapshot
// inside one transaction. The overwrite is idempotent; saving the same
// snapshot twice leaves the database identical.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, snapshot *model.Snapshot) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSnapshot(snapshot); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", common.ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM products`,
		`DELETE FROM scanned_entries`,
		`DELETE FROM snapshot_meta`,
	} {
		if _, execErr := tx.ExecContext(ctx, stmt); execErr != nil {
			return fmt.Errorf("%w: clear tables: %v", common.ErrPersistence, execErr)
		}
	}

	productStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO products (position, code, name, default_quantity) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare products: %v", common.ErrPersistence, err)
	}
	defer func() { _ = productStmt.Close() }()

	for i, p := range snapshot.Products {
		if _, execErr := productStmt.ExecContext(ctx, i, p.Code, p.Name, p.DefaultQuantity); execErr != nil {
			return fmt.Errorf("%w: insert product %q: %v", common.ErrPersistence, p.Code, execErr)
		}
	}

	entryStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO scanned_entries (id, code, name, quantity, committed_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare entries: %v", common.ErrPersistence, err)
	}
	defer func() { _ = entryStmt.Close() }()

	for _, e := range snapshot.Entries {
		if _, execErr := entryStmt.ExecContext(ctx, e.ID, e.Code, e.Name, e.Quantity,
			e.CommittedAt.UTC().Format(time.RFC3339Nano)); execErr != nil {
			return fmt.Errorf("%w: insert entry %d: %v", common.ErrPersistence, e.ID, execErr)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (id, catalog_version, synced_at, saved_at) VALUES (1, ?, ?, ?)`,
		snapshot.CatalogVersion,
		snapshot.SyncedAt.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("%w: save meta: %v", common.ErrPersistence, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", common.ErrPersistence, err)
	}

	return nil
}

// LoadSnapshot reads the persisted state. It returns common.ErrNotFound
// when nothing has been saved yet.
func (s *SQLiteStorage) LoadSnapshot(ctx context.Context) (*model.Snapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	snapshot := &model.Snapshot{}

	var syncedAt, savedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT catalog_version, synced_at, saved_at FROM snapshot_meta WHERE id = 1`).
		Scan(&snapshot.CatalogVersion, &syncedAt, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no snapshot saved", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot meta: %w", err)
	}

	if snapshot.SyncedAt, err = parseTime(syncedAt); err != nil {
		return nil, fmt.Errorf("failed to parse synced_at: %w", err)
	}
	if snapshot.SavedAt, err = parseTime(savedAt); err != nil {
		return nil, fmt.Errorf("failed to parse saved_at: %w", err)
	}

	if snapshot.Products, err = s.loadProducts(ctx); err != nil {
		return nil, err
	}
	if snapshot.Entries, err = s.loadEntries(ctx); err != nil {
		return nil, err
	}

	return snapshot, nil
}

func (s *SQLiteStorage) loadProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, name, default_quantity FROM products ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.Code, &p.Name, &p.DefaultQuantity); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

func (s *SQLiteStorage) loadEntries(ctx context.Context) ([]model.ScannedEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, name, quantity, committed_at FROM scanned_entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to read scanned entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.ScannedEntry
	for rows.Next() {
		var (
			e           model.ScannedEntry
			committedAt string
		)
		if err := rows.Scan(&e.ID, &e.Code, &e.Name, &e.Quantity, &committedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if e.CommittedAt, err = parseTime(committedAt); err != nil {
			return nil, fmt.Errorf("failed to parse committed_at: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func parseTime(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, raw)
}
