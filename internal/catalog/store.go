// Package catalog holds the locally cached product catalog and its
// synchronization with the tabular source document.
package catalog

import (
	"sync"
	"time"

	"github.com/stocktake-app/stocktake/internal/model"
)

// Store is the in-memory product catalog. The catalog is replaced
// wholesale on every refresh, never patched row by row. Codes are
// normalized once at load time; Lookup is exact-match.
type Store struct {
	syncedAt time.Time
	index    map[string]int
	version  string
	products []model.Product
	mu       sync.RWMutex
}

// NewStore creates an empty catalog store.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// Replace swaps in a freshly loaded catalog. Duplicate codes keep the
// first occurrence, matching the source data's first-match-wins rule.
func (s *Store) Replace(products []model.Product, version string, syncedAt time.Time) {
	index := make(map[string]int, len(products))
	for i, p := range products {
		if _, ok := index[p.Code]; !ok {
			index[p.Code] = i
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
	s.index = index
	s.version = version
	s.syncedAt = syncedAt
}

// Lookup finds the catalog entry for a detected code.
func (s *Store) Lookup(code string) (model.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[code]
	if !ok {
		return model.Product{}, false
	}
	return s.products[i], true
}

// Products returns a copy of the catalog in source order.
func (s *Store) Products() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Len returns the number of catalog rows.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// Version returns the source version marker from the last sync.
func (s *Store) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// SyncedAt returns the time of the last successful sync.
func (s *Store) SyncedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncedAt
}
