package inventory

import (
	"bytes"
	"testing"

	"ems-inventory/internal/query"
	"ems-inventory/internal/stock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadSheet_WithHeader(t *testing.T) {
	buf := workbook(t, [][]any{
		{"Location", "Supply Name", "Qty", "Category"},
		{"Shelf A", "Oral Airway", 10, "Airway Management"},
		{"", "", 4, "skipped"},
		{"Truck 2", "Cold Pack", "3.0", "Burn Care"},
	})

	rows, bad, err := ReadSheet(buf)
	require.NoError(t, err)
	assert.Empty(t, bad)
	require.Len(t, rows, 2)

	assert.Equal(t, "Oral Airway", rows[0].Name)
	assert.Equal(t, "Shelf A", rows[0].Location)
	assert.Equal(t, "Airway Management", rows[0].Category)
	require.NotNil(t, rows[0].Quantity)
	assert.Equal(t, 10, *rows[0].Quantity)
	assert.Nil(t, rows[0].MinThreshold)
	assert.Equal(t, 2, rows[0].Line)

	require.NotNil(t, rows[1].Quantity)
	assert.Equal(t, 3, *rows[1].Quantity)
	assert.Equal(t, 4, rows[1].Line)
}

func TestReadSheet_DefaultColumns(t *testing.T) {
	buf := workbook(t, [][]any{
		{"Nasal Cannula", "Airway Management", 15, 10, "pieces", "Cabinet 1"},
		{"Saline 1L", "Medications", -4},
		{"Gloves", "PPE", 10, "ten"},
	})

	rows, bad, err := ReadSheet(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "pieces", rows[0].Unit)
	assert.Equal(t, 10, *rows[0].MinThreshold)
	// negative quantities parse here and are rejected by the ledger
	assert.Equal(t, -4, *rows[1].Quantity)

	require.Len(t, bad, 1)
	assert.Equal(t, 3, bad[0].Line)
	assert.Equal(t, "Gloves", bad[0].Name)
}

func TestReadSheet_RejectsNonWorkbook(t *testing.T) {
	_, _, err := ReadSheet(bytes.NewBufferString("name,quantity\n"))
	assert.Error(t, err)
}

func TestWriteSheet_RoundTrip(t *testing.T) {
	supplies := []query.SupplyView{
		{Name: "Oral Airway", CategoryName: "Airway Management", CurrentQuantity: 5, MinThreshold: 10, Unit: "pieces", Level: stock.Derive(5, 10)},
		{Name: "Cold Pack", CategoryName: "Burn Care", CurrentQuantity: 40, MinThreshold: 10, Unit: "packs", Level: stock.Derive(40, 10)},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteSheet(&buf, supplies))

	rows, bad, err := ReadSheet(&buf)
	require.NoError(t, err)
	assert.Empty(t, bad)
	require.Len(t, rows, 2)
	assert.Equal(t, "Oral Airway", rows[0].Name)
	assert.Equal(t, 5, *rows[0].Quantity)
	assert.Equal(t, 10, *rows[0].MinThreshold)
	assert.Equal(t, "packs", rows[1].Unit)
}
