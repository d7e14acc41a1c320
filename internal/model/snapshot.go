package model

import "time"

// Snapshot is the whole persisted state: the cached catalog, the
// accumulated ledger, and the catalog version marker. Persistence is
// always a wholesale overwrite of the previous snapshot.
type Snapshot struct {
	SyncedAt       time.Time
	SavedAt        time.Time
	CatalogVersion string
	Products       []Product
	Entries        []ScannedEntry
}
