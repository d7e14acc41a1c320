package catalog

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/stocktake-app/stocktake/internal/common"
	"github.com/stocktake-app/stocktake/internal/model"
)

// ReadProducts parses product rows from the first sheet of an xlsx
// workbook. The first row is a header; data rows are [code, name,
// quantity]. Rows missing a code or a name are skipped, and cell
// values are trimmed here so the store never sees unnormalized codes.
func ReadProducts(r io.Reader) ([]model.Product, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDataLoad, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", common.ErrDataLoad)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDataLoad, err)
	}

	products := make([]model.Product, 0, max(0, len(rows)-1))
	for i, row := range rows {
		if i == 0 {
			// Header row
			continue
		}
		product := model.NewProduct(cell(row, 0), cell(row, 1), parseQuantity(cell(row, 2)))
		if !product.Valid() {
			continue
		}
		products = append(products, product)
	}

	return products, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}

func parseQuantity(raw string) int {
	q, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return q
}
