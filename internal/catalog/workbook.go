package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// =============================================================================
// WORKBOOK LAYOUT
// =============================================================================
//
// The workbook holds one sheet per entity. Row 1 carries column headers; the
// parser locates columns by header name, so column order is free.
//
//   markets    | market_id | district_id | region_id (optional)
//   products   | product_id | name | category_id | base_price (optional)
//   categories | category_id | name
//
// =============================================================================

// Sheet names expected in a catalog workbook.
const (
	MarketsSheet    = "markets"
	ProductsSheet   = "products"
	CategoriesSheet = "categories"
)

// WorkbookProvider loads a catalog from an .xlsx file.
type WorkbookProvider struct {
	Path string
}

// NewWorkbookProvider returns a provider for the workbook at path.
func NewWorkbookProvider(path string) *WorkbookProvider {
	return &WorkbookProvider{Path: path}
}

// LoadCatalog reads all three sheets and returns a normalized catalog.
func (w *WorkbookProvider) LoadCatalog(ctx context.Context) (*Catalog, error) {
	f, err := excelize.OpenFile(w.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog workbook: %w", err)
	}
	defer f.Close()

	cat := &Catalog{}

	markets, err := readSheet(f, MarketsSheet, "market_id", "district_id")
	if err != nil {
		return nil, err
	}
	for _, row := range markets {
		m := Market{}
		if m.ID, err = row.int("market_id"); err != nil {
			return nil, err
		}
		if m.District, err = row.int("district_id"); err != nil {
			return nil, err
		}
		if row.has("region_id") {
			if m.Region, err = row.int("region_id"); err != nil {
				return nil, err
			}
		}
		cat.Markets = append(cat.Markets, m)
	}

	products, err := readSheet(f, ProductsSheet, "product_id", "category_id")
	if err != nil {
		return nil, err
	}
	for _, row := range products {
		p := Product{Name: row.str("name")}
		if p.ID, err = row.int("product_id"); err != nil {
			return nil, err
		}
		if p.CategoryID, err = row.int("category_id"); err != nil {
			return nil, err
		}
		if row.has("base_price") {
			price, err := row.float("base_price")
			if err != nil {
				return nil, err
			}
			p.BasePrice = &price
		}
		cat.Products = append(cat.Products, p)
	}

	categories, err := readSheet(f, CategoriesSheet, "category_id", "name")
	if err != nil {
		return nil, err
	}
	for _, row := range categories {
		c := Category{Name: row.str("name")}
		if c.ID, err = row.int("category_id"); err != nil {
			return nil, err
		}
		cat.Categories = append(cat.Categories, c)
	}

	cat.Normalize()
	return cat, nil
}

// =============================================================================
// SHEET PARSING
// =============================================================================

// sheetRow is one data row keyed by lower-cased header name.
type sheetRow struct {
	sheet  string
	number int
	cells  map[string]string
}

// readSheet returns the non-empty data rows of a sheet. Required columns must
// be present in the header row.
func readSheet(f *excelize.File, sheet string, required ...string) ([]sheetRow, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	headers := make([]string, len(rows[0]))
	present := make(map[string]bool, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
		present[headers[i]] = true
	}
	for _, col := range required {
		if !present[col] {
			return nil, fmt.Errorf("sheet %q is missing column %q", sheet, col)
		}
	}

	var out []sheetRow
	for i := 1; i < len(rows); i++ {
		if isRowEmpty(rows[i]) {
			continue
		}
		row := sheetRow{sheet: sheet, number: i + 1, cells: make(map[string]string, len(headers))}
		for col, value := range rows[i] {
			if col < len(headers) && headers[col] != "" {
				row.cells[headers[col]] = strings.TrimSpace(value)
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// isRowEmpty checks if all cells in a row are empty.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func (r sheetRow) has(col string) bool {
	return r.cells[col] != ""
}

func (r sheetRow) str(col string) string {
	return r.cells[col]
}

func (r sheetRow) int(col string) (int64, error) {
	v, err := strconv.ParseInt(r.cells[col], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sheet %q row %d: column %q: %q is not an integer", r.sheet, r.number, col, r.cells[col])
	}
	return v, nil
}

func (r sheetRow) float(col string) (float64, error) {
	v, err := strconv.ParseFloat(r.cells[col], 64)
	if err != nil {
		return 0, fmt.Errorf("sheet %q row %d: column %q: %q is not a number", r.sheet, r.number, col, r.cells[col])
	}
	return v, nil
}
