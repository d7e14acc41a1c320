package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/stocktake-app/stocktake/internal/catalog"
	"github.com/stocktake-app/stocktake/internal/common"
	"github.com/stocktake-app/stocktake/internal/config"
	"github.com/stocktake-app/stocktake/internal/ledger"
	"github.com/stocktake-app/stocktake/internal/storage"
)

// app bundles the collaborators every command needs: the snapshot
// store, the cached catalog, its loader, and the ledger.
type app struct {
	storage *storage.SQLiteStorage
	catalog *catalog.Store
	loader  *catalog.Loader
	ledger  *ledger.Ledger
}

func databasePath() (string, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".local", "share", "stocktake", "stocktake.db")
	}
	return config.ExpandPath(dbPath), nil
}

// loadApp opens the snapshot store, migrates it, and primes the
// catalog and ledger from the persisted snapshot when one exists.
func loadApp(ctx context.Context) (*app, error) {
	dbPath, err := databasePath()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	catStore := catalog.NewStore()
	loader := catalog.NewLoader(config.ExpandPath(viper.GetString("catalog.source")), catStore)
	gate := ledger.NewStaticGate(viper.GetString("ledger.secret"))
	led := ledger.New(store, catStore, gate)

	snapshot, err := store.LoadSnapshot(ctx)
	switch {
	case errors.Is(err, common.ErrNotFound):
		// First run; nothing cached yet.
	case err != nil:
		_ = store.Close()
		return nil, fmt.Errorf("failed to load cached snapshot: %w", err)
	default:
		loader.RestoreFromSnapshot(snapshot)
		led.Restore(snapshot.Entries)
	}

	return &app{
		storage: store,
		catalog: catStore,
		loader:  loader,
		ledger:  led,
	}, nil
}

func (a *app) Close() {
	_ = a.storage.Close()
}
