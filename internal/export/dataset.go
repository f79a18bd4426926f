// =============================================================================
// POS Scenario Synthesizer - Workbook Export
// =============================================================================
//
// This package writes datasets and scenario reports to .xlsx workbooks so a
// run can be inspected in a spreadsheet without a database client. Dataset
// workbooks can also be read back, which lets the verify command check an
// exported file offline.
//
//   dataset workbook | headers | sale_id | market_id | total_amount | sold_at | total_quantity
//                    | lines   | sale_id | product_id | quantity | unit_price
//
// =============================================================================

package export

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/pos-scenario-synth/internal/types"
)

// Sheet names of a dataset workbook.
const (
	HeadersSheet = "headers"
	LinesSheet   = "lines"
)

var (
	headerColumns = []interface{}{"sale_id", "market_id", "total_amount", "sold_at", "total_quantity"}
	lineColumns   = []interface{}{"sale_id", "product_id", "quantity", "unit_price"}
)

// =============================================================================
// WRITE
// =============================================================================

// WriteDataset streams ds into a new workbook at path.
func WriteDataset(path string, ds *types.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), HeadersSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(LinesSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	err := streamRows(f, HeadersSheet, headerColumns, len(ds.Headers), func(i int) []interface{} {
		h := ds.Headers[i]
		return []interface{}{
			h.ID, h.MarketID, h.TotalAmount.InexactFloat64(),
			h.Timestamp.UTC().Format(time.DateTime), h.TotalQuantity.InexactFloat64(),
		}
	})
	if err != nil {
		return err
	}

	err = streamRows(f, LinesSheet, lineColumns, len(ds.Lines), func(i int) []interface{} {
		l := ds.Lines[i]
		return []interface{}{l.TransactionID, l.ProductID, l.Quantity.InexactFloat64(), l.UnitPrice.InexactFloat64()}
	})
	if err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func streamRows(f *excelize.File, sheet string, columns []interface{}, n int, row func(int) []interface{}) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to open stream for sheet %q: %w", sheet, err)
	}
	if err := sw.SetRow("A1", columns); err != nil {
		return fmt.Errorf("sheet %q: %w", sheet, err)
	}
	for i := 0; i < n; i++ {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, row(i)); err != nil {
			return fmt.Errorf("sheet %q row %d: %w", sheet, i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("sheet %q: %w", sheet, err)
	}
	return nil
}

// =============================================================================
// READ
// =============================================================================

// ReadDataset loads a workbook written by WriteDataset.
func ReadDataset(path string) (*types.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset workbook: %w", err)
	}
	defer f.Close()

	ds := &types.Dataset{}

	rows, err := dataRows(f, HeadersSheet, len(headerColumns))
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		var h types.TransactionHeader
		var errs [5]error
		h.ID, errs[0] = strconv.ParseInt(row[0], 10, 64)
		h.MarketID, errs[1] = strconv.ParseInt(row[1], 10, 64)
		h.TotalAmount, errs[2] = decimal.NewFromString(row[2])
		h.Timestamp, errs[3] = time.ParseInLocation(time.DateTime, row[3], time.UTC)
		h.TotalQuantity, errs[4] = decimal.NewFromString(row[4])
		for col, err := range errs {
			if err != nil {
				return nil, fmt.Errorf("sheet %q row %d: column %q: %w", HeadersSheet, i+2, headerColumns[col], err)
			}
		}
		ds.Headers = append(ds.Headers, h)
	}

	rows, err = dataRows(f, LinesSheet, len(lineColumns))
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		var l types.LineItem
		var errs [4]error
		l.TransactionID, errs[0] = strconv.ParseInt(row[0], 10, 64)
		l.ProductID, errs[1] = strconv.ParseInt(row[1], 10, 64)
		l.Quantity, errs[2] = decimal.NewFromString(row[2])
		l.UnitPrice, errs[3] = decimal.NewFromString(row[3])
		for col, err := range errs {
			if err != nil {
				return nil, fmt.Errorf("sheet %q row %d: column %q: %w", LinesSheet, i+2, lineColumns[col], err)
			}
		}
		ds.Lines = append(ds.Lines, l)
	}
	return ds, nil
}

// dataRows returns the rows below the header row, padded to width.
func dataRows(f *excelize.File, sheet string, width int) ([][]string, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}

	out := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		for len(row) < width {
			row = append(row, "")
		}
		out = append(out, row)
	}
	return out, nil
}
