package model

import "time"

// ScannedEntry is one committed scan result in the ledger.
// Entries are created only by the commit transition of a scan session,
// never constructed ad hoc.
type ScannedEntry struct {
	CommittedAt time.Time
	Code        string
	Name        string
	ID          int64
	Quantity    int
}

// ExportRow is the tabular projection of a ledger entry handed to the
// spreadsheet exporter.
type ExportRow struct {
	Code     string
	Name     string
	Quantity int
}

// Row returns the export projection of the entry.
func (e ScannedEntry) Row() ExportRow {
	return ExportRow{Code: e.Code, Name: e.Name, Quantity: e.Quantity}
}
