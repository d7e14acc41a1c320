package catalog

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/stocktake-app/stocktake/internal/common"
	"github.com/stocktake-app/stocktake/internal/model"
)

// buildWorkbook assembles an xlsx workbook from raw rows, header
// included.
func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadProducts(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"الباركود", "اسم المنتج", "الكمية"},
		{"6221031954016", "شاي العروسة", 3},
		{"  6223000350034  ", "  سكر الأسرة  ", "2"},
		{"", "no code", 1},
		{"7777777777777", "", 1},
		{"8888888888888", "no quantity cell"},
		{"9999999999999", "bad quantity", "abc"},
	})

	products, err := ReadProducts(bytes.NewReader(data))
	require.NoError(t, err)

	require.Len(t, products, 4)
	assert.Equal(t, model.Product{Code: "6221031954016", Name: "شاي العروسة", DefaultQuantity: 3}, products[0])

	// Cell values are trimmed before they reach the store.
	assert.Equal(t, "6223000350034", products[1].Code)
	assert.Equal(t, "سكر الأسرة", products[1].Name)
	assert.Equal(t, 2, products[1].DefaultQuantity)

	// A missing or unparseable quantity defaults to zero.
	assert.Equal(t, 0, products[2].DefaultQuantity)
	assert.Equal(t, 0, products[3].DefaultQuantity)
}

func TestReadProducts_HeaderOnly(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"الباركود", "اسم المنتج", "الكمية"},
	})

	products, err := ReadProducts(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestReadProducts_ManyRows(t *testing.T) {
	rows := [][]any{{"code", "name", "qty"}}
	for i := 0; i < 200; i++ {
		rows = append(rows, []any{fmt.Sprintf("62%011d", i), fmt.Sprintf("product %d", i), 1})
	}

	products, err := ReadProducts(bytes.NewReader(buildWorkbook(t, rows)))
	require.NoError(t, err)
	assert.Len(t, products, 200)
}

func TestReadProducts_NotAWorkbook(t *testing.T) {
	_, err := ReadProducts(strings.NewReader("this is not an xlsx file"))
	require.ErrorIs(t, err, common.ErrDataLoad)
}
