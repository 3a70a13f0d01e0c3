package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ems-inventory/internal/apperr"
	"ems-inventory/internal/ledger"
	"ems-inventory/internal/query"

	"github.com/xuri/excelize/v2"
)

// SheetRow is one supply line of an uploaded stock sheet.
type SheetRow struct {
	Line         int
	Name         string
	Category     string
	Quantity     *int
	MinThreshold *int
	Unit         string
	Location     string
}

type RowError struct {
	Line  int    `json:"line"`
	Name  string `json:"name,omitempty"`
	Error string `json:"error"`
}

type ImportReport struct {
	Created   int        `json:"created"`
	Updated   int        `json:"updated"`
	Unchanged int        `json:"unchanged"`
	Errors    []RowError `json:"errors"`
}

var exportHeader = []string{"Name", "Category", "Quantity", "Min Threshold", "Unit", "Location", "Status", "Stock %"}

const (
	colName = iota
	colCategory
	colQuantity
	colThreshold
	colUnit
	colLocation
)

var headerAliases = map[string]int{
	"name":             colName,
	"supply":           colName,
	"supply name":      colName,
	"category":         colCategory,
	"quantity":         colQuantity,
	"qty":              colQuantity,
	"current quantity": colQuantity,
	"min threshold":    colThreshold,
	"threshold":        colThreshold,
	"min":              colThreshold,
	"unit":             colUnit,
	"location":         colLocation,
}

// ReadSheet parses the first sheet of an xlsx workbook. A header row is
// optional; without one the columns are name, category, quantity, min
// threshold, unit and location.
func ReadSheet(r io.Reader) ([]SheetRow, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, apperr.Validation("Could not read spreadsheet")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, apperr.Validation("Spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, apperr.Validation("Could not read sheet %q", sheets[0])
	}
	if len(rows) == 0 {
		return nil, nil, apperr.Validation("Spreadsheet is empty")
	}

	cols := []int{colName, colCategory, colQuantity, colThreshold, colUnit, colLocation}
	start := 0
	if mapped, ok := headerColumns(rows[0]); ok {
		cols, start = mapped, 1
	}

	var out []SheetRow
	var bad []RowError
	for i := start; i < len(rows); i++ {
		cells := make([]string, colLocation+1)
		for j, v := range rows[i] {
			if j < len(cols) && cols[j] >= 0 {
				cells[cols[j]] = strings.TrimSpace(v)
			}
		}
		if cells[colName] == "" {
			continue
		}

		row := SheetRow{
			Line:     i + 1,
			Name:     cells[colName],
			Category: cells[colCategory],
			Unit:     cells[colUnit],
			Location: cells[colLocation],
		}
		var perr error
		if row.Quantity, perr = optionalInt(cells[colQuantity]); perr != nil {
			bad = append(bad, RowError{Line: row.Line, Name: row.Name, Error: "quantity must be a whole number"})
			continue
		}
		if row.MinThreshold, perr = optionalInt(cells[colThreshold]); perr != nil {
			bad = append(bad, RowError{Line: row.Line, Name: row.Name, Error: "min threshold must be a whole number"})
			continue
		}
		out = append(out, row)
	}
	return out, bad, nil
}

func headerColumns(first []string) ([]int, bool) {
	cols := make([]int, len(first))
	found := false
	for i, v := range first {
		c, ok := headerAliases[strings.ToLower(strings.TrimSpace(v))]
		if !ok {
			cols[i] = -1
			continue
		}
		cols[i] = c
		if c == colName {
			found = true
		}
	}
	return cols, found
}

func optionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	// Spreadsheet numbers may come back as "12.0".
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		v := int(f)
		return &v, nil
	}
	return nil, fmt.Errorf("not an integer: %q", s)
}

// Importer applies stock sheets through the ledger. Each row commits on
// its own: known supplies get their counted quantity booked as an
// adjustment, unknown ones are created with a seed restock.
type Importer struct {
	Ledger *ledger.Engine
	Query  *query.Service
}

func (im *Importer) Apply(ctx context.Context, rows []SheetRow, by ledger.Actor) ImportReport {
	rep := ImportReport{Errors: []RowError{}}
	for _, row := range rows {
		changed, created, err := im.applyRow(ctx, row, by)
		switch {
		case err != nil:
			rep.Errors = append(rep.Errors, RowError{Line: row.Line, Name: row.Name, Error: publicMessage(err)})
		case created:
			rep.Created++
		case changed:
			rep.Updated++
		default:
			rep.Unchanged++
		}
	}
	return rep
}

func (im *Importer) applyRow(ctx context.Context, row SheetRow, by ledger.Actor) (changed, created bool, err error) {
	existing, err := im.Query.FindSupplyByName(ctx, row.Name)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return false, false, err
	}

	if existing != nil {
		upd := ledger.SupplyUpdate{}
		if row.Quantity != nil && *row.Quantity != existing.CurrentQuantity {
			upd.CurrentQuantity = row.Quantity
			changed = true
		}
		if row.MinThreshold != nil && *row.MinThreshold != existing.MinThreshold {
			upd.MinThreshold = row.MinThreshold
			changed = true
		}
		if row.Unit != "" && row.Unit != existing.Unit {
			upd.Unit = &row.Unit
			changed = true
		}
		if row.Location != "" && row.Location != existing.Location {
			upd.Location = &row.Location
			changed = true
		}
		if !changed {
			return false, false, nil
		}
		_, _, err := im.Ledger.UpdateSupply(ctx, existing.ID, upd, by)
		return err == nil, false, err
	}

	if row.Category == "" {
		return false, false, apperr.Validation("category is required for new supplies")
	}
	cat, err := im.Query.FindCategoryByName(ctx, row.Category)
	if errors.Is(err, apperr.ErrNotFound) {
		cat, err = im.Ledger.CreateCategory(ctx, row.Category, by)
	}
	if err != nil {
		return false, false, err
	}

	_, err = im.Ledger.CreateSupply(ctx, ledger.SupplyInput{
		Name:            row.Name,
		CategoryID:      cat.ID,
		CurrentQuantity: row.Quantity,
		MinThreshold:    row.MinThreshold,
		Unit:            row.Unit,
		Location:        row.Location,
	}, by)
	return err == nil, err == nil, err
}

func publicMessage(err error) string {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "unexpected error"
}

// WriteSheet renders supplies as an xlsx workbook with the import columns
// first, so an export can be edited and uploaded again.
func WriteSheet(w io.Writer, supplies []query.SupplyView) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Supplies"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}
	header := make([]any, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, s := range supplies {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{s.Name, s.CategoryName, s.CurrentQuantity, s.MinThreshold, s.Unit, s.Location, string(s.Status), s.Percentage}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "B", 32); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}
