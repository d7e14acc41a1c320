// Package export writes the scanned-products ledger as an xlsx
// workbook for handoff to the warehouse spreadsheet workflow.
package export

import (
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/stocktake-app/stocktake/internal/model"
)

// SheetName labels the exported worksheet.
const SheetName = "المنتجات المسحوبة"

// header is the fixed 3-column header row of every export.
var header = []any{"باركود المنتج", "اسم المنتج", "الكمية المسحوبة"}

// column widths: barcode, product name, quantity
var columnWidths = []float64{15, 30, 10}

// Write renders the rows into an xlsx workbook on w. The row sequence
// is consumed once, in order.
func Write(w io.Writer, rows iter.Seq[model.ExportRow]) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for i, width := range columnWidths {
		col, colErr := excelize.ColumnNumberToName(i + 1)
		if colErr != nil {
			return fmt.Errorf("failed to resolve column: %w", colErr)
		}
		if widthErr := f.SetColWidth(SheetName, col, col, width); widthErr != nil {
			return fmt.Errorf("failed to set column width: %w", widthErr)
		}
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	rowNum := 2
	for row := range rows {
		cell, cellErr := excelize.CoordinatesToCellName(1, rowNum)
		if cellErr != nil {
			return fmt.Errorf("failed to resolve cell: %w", cellErr)
		}
		values := []any{row.Code, row.Name, row.Quantity}
		if rowErr := f.SetSheetRow(SheetName, cell, &values); rowErr != nil {
			return fmt.Errorf("failed to write row %d: %w", rowNum, rowErr)
		}
		rowNum++
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Filename builds the export filename embedding the current date and
// time, e.g. scanned_products_2026-09-01_14-30-05.xlsx.
func Filename(now time.Time) string {
	return fmt.Sprintf("scanned_products_%s_%s.xlsx",
		now.Format("2006-01-02"),
		now.Format("15-04-05"))
}
