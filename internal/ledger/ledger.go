// Package ledger implements the accumulated list of committed scan
// results, with persistence and export hooks.
package ledger

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/stocktake-app/stocktake/internal/catalog"
	"github.com/stocktake-app/stocktake/internal/common"
	"github.com/stocktake-app/stocktake/internal/model"
	"github.com/stocktake-app/stocktake/internal/service"
)

// Ledger is the ordered, persisted sequence of committed scans.
// Append order is preserved and never reordered. Every mutation
// persists the whole catalog+ledger snapshot.
type Ledger struct {
	clock   func() time.Time
	storage service.Storage
	catalog *catalog.Store
	gate    service.AuthGate
	entries []model.ScannedEntry
	lastID  int64
	mu      sync.Mutex
}

// New creates a ledger backed by the given snapshot store and gated by
// the given auth gate for bulk deletion.
func New(storage service.Storage, cat *catalog.Store, gate service.AuthGate) *Ledger {
	return &Ledger{
		clock:   time.Now,
		storage: storage,
		catalog: cat,
		gate:    gate,
	}
}

// Restore primes the ledger from a persisted snapshot at startup.
func (l *Ledger) Restore(entries []model.ScannedEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append([]model.ScannedEntry(nil), entries...)
	for _, e := range entries {
		if e.ID > l.lastID {
			l.lastID = e.ID
		}
	}
}

// Append commits a new entry. The identity is derived from the commit
// time and bumped past the previous one, so ids stay strictly
// monotonic even when two commits land in the same millisecond.
// A persistence failure is surfaced but the entry stays committed in
// memory; the caller decides whether to warn the user.
func (l *Ledger) Append(ctx context.Context, code, name string, quantity int) (model.ScannedEntry, error) {
	if quantity <= 0 {
		return model.ScannedEntry{}, fmt.Errorf("%w: quantity must be positive, got %d", common.ErrValidation, quantity)
	}

	l.mu.Lock()
	now := l.clock()
	id := now.UnixMilli()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	l.lastID = id

	entry := model.ScannedEntry{
		ID:          id,
		Code:        code,
		Name:        name,
		Quantity:    quantity,
		CommittedAt: now,
	}
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	if err := l.persist(ctx); err != nil {
		return entry, err
	}
	return entry, nil
}

// EditQuantity updates the quantity of an existing entry in place.
func (l *Ledger) EditQuantity(ctx context.Context, id int64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", common.ErrValidation, quantity)
	}

	l.mu.Lock()
	found := false
	for i := range l.entries {
		if l.entries[i].ID == id {
			l.entries[i].Quantity = quantity
			found = true
			break
		}
	}
	l.mu.Unlock()

	if !found {
		return fmt.Errorf("%w: entry %d", common.ErrNotFound, id)
	}

	return l.persist(ctx)
}

// ClearAll empties the ledger. This is the only delete path; it is
// gated by the auth secret and there is no per-item delete.
func (l *Ledger) ClearAll(ctx context.Context, secret string) error {
	if err := l.gate.Authorize(secret); err != nil {
		return err
	}

	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()

	return l.persist(ctx)
}

// Entries returns a copy of the ledger in append order.
func (l *Ledger) Entries() []model.ScannedEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.ScannedEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of committed entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// ExportRows returns a restartable sequence of (code, name, quantity)
// rows in append order. It is a pure read: iterating, stopping early,
// or iterating twice never mutates the ledger.
func (l *Ledger) ExportRows() iter.Seq[model.ExportRow] {
	snapshot := l.Entries()
	return func(yield func(model.ExportRow) bool) {
		for _, e := range snapshot {
			if !yield(e.Row()) {
				return
			}
		}
	}
}

// Stats recomputes the display statistics.
func (l *Ledger) Stats() service.LedgerStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := 0
	for _, e := range l.entries {
		total += e.Quantity
	}

	return service.LedgerStats{
		CatalogProducts: l.catalog.Len(),
		ScannedEntries:  len(l.entries),
		TotalQuantity:   total,
	}
}

// Persist writes the current catalog+ledger snapshot. Exposed so the
// catalog loader path can persist after a reload as well.
func (l *Ledger) Persist(ctx context.Context) error {
	return l.persist(ctx)
}

func (l *Ledger) persist(ctx context.Context) error {
	snapshot := &model.Snapshot{
		Products:       l.catalog.Products(),
		Entries:        l.Entries(),
		CatalogVersion: l.catalog.Version(),
		SyncedAt:       l.catalog.SyncedAt(),
	}

	if err := l.storage.SaveSnapshot(ctx, snapshot); err != nil {
		// Non-fatal: the in-memory ledger stays correct, it just may
		// not survive a restart.
		slog.Warn("Failed to persist snapshot", "error", err)
		return fmt.Errorf("%w: %v", common.ErrPersistence, err)
	}
	return nil
}
