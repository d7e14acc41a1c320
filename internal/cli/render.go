package cli

import (
	"fmt"
	"io"

	"github.com/stocktake-app/stocktake/internal/model"
)

// RenderEntries prints the ledger as a table in append order.
func RenderEntries(w io.Writer, entries []model.ScannedEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, SubtleStyle.Render("no products scanned yet"))
		return
	}

	fmt.Fprintln(w, TableHeaderStyle.Render(fmt.Sprintf("%-15s %-16s %-32s %8s  %s",
		"ID", "CODE", "NAME", "QTY", "COMMITTED")))
	for _, e := range entries {
		fmt.Fprintf(w, "%-15d %-16s %-32s %8d  %s\n",
			e.ID, e.Code, e.Name, e.Quantity,
			SubtleStyle.Render(e.CommittedAt.Format("2006-01-02 15:04:05")))
	}
}
