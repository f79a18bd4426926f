// =============================================================================
// POS Scenario Synthesizer - Catalog Module
// =============================================================================
//
// The catalog is the read-only input of a run: markets (branches) with their
// district and region, products with their category and optional base price,
// and the category names scenario rules refer to.
//
// CATALOG SOURCES:
//   - The relational store (see internal/store, three SELECT queries)
//   - An .xlsx workbook with "markets", "products" and "categories" sheets
//
// The catalog is loaded once at startup and normalized (sorted by id) so that
// every consumer iterates it in the same order. That order is what makes a
// seeded run reproducible.
//
// =============================================================================

package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ginjaninja78/pos-scenario-synth/internal/config"
)

// ErrEmptyCatalog is returned when there are no markets or no products.
var ErrEmptyCatalog = errors.New("catalog has no markets or no products")

// =============================================================================
// CATALOG TYPES
// =============================================================================

// Market is a point-of-sale location.
type Market struct {
	ID       int64
	District int64

	// Region groups districts (a city or province). Zero means the source
	// has no region for the market; region rules never match it.
	Region int64
}

// Category is a product category such as produce or cleaning.
type Category struct {
	ID   int64
	Name string
}

// Product is a sellable item.
type Product struct {
	ID         int64
	Name       string
	CategoryID int64

	// BasePrice is nil when the source has no price; the generator then
	// synthesizes one per run.
	BasePrice *float64
}

// Catalog is the full input of a generation run.
type Catalog struct {
	Markets    []Market
	Products   []Product
	Categories []Category
}

// Provider loads a catalog from some source.
type Provider interface {
	LoadCatalog(ctx context.Context) (*Catalog, error)
}

// =============================================================================
// NORMALIZATION AND VALIDATION
// =============================================================================

// Normalize sorts every list by id.
func (c *Catalog) Normalize() {
	sort.SliceStable(c.Markets, func(i, j int) bool { return c.Markets[i].ID < c.Markets[j].ID })
	sort.SliceStable(c.Products, func(i, j int) bool { return c.Products[i].ID < c.Products[j].ID })
	sort.SliceStable(c.Categories, func(i, j int) bool { return c.Categories[i].ID < c.Categories[j].ID })
}

// HasRegion reports whether the catalog supplied a region for the market.
func (m Market) HasRegion() bool {
	return m.Region != 0
}

// Validate reports an empty catalog as a configuration error.
func (c *Catalog) Validate() error {
	if c == nil || len(c.Markets) == 0 || len(c.Products) == 0 {
		markets, products := 0, 0
		if c != nil {
			markets, products = len(c.Markets), len(c.Products)
		}
		return fmt.Errorf("%w: %w (markets=%d, products=%d)", config.ErrInvalid, ErrEmptyCatalog, markets, products)
	}
	return nil
}

// =============================================================================
// LOOKUPS
// =============================================================================

// CategoryByName finds a category by exact, case-insensitive name.
func (c *Catalog) CategoryByName(name string) (Category, bool) {
	want := strings.TrimSpace(name)
	for _, cat := range c.Categories {
		if strings.EqualFold(cat.Name, want) {
			return cat, true
		}
	}
	return Category{}, false
}

// ProductByRef finds a product by numeric id or by exact, case-insensitive name.
func (c *Catalog) ProductByRef(ref string) (Product, bool) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		for _, p := range c.Products {
			if p.ID == id {
				return p, true
			}
		}
	}
	for _, p := range c.Products {
		if strings.EqualFold(p.Name, ref) {
			return p, true
		}
	}
	return Product{}, false
}

// HasMarket reports whether a market id exists.
func (c *Catalog) HasMarket(id int64) bool {
	for _, m := range c.Markets {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Districts returns the distinct district ids in ascending order.
func (c *Catalog) Districts() []int64 {
	seen := make(map[int64]bool)
	var districts []int64
	for _, m := range c.Markets {
		if !seen[m.District] {
			seen[m.District] = true
			districts = append(districts, m.District)
		}
	}
	sort.Slice(districts, func(i, j int) bool { return districts[i] < districts[j] })
	return districts
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary describes a catalog for the catalog command.
type Summary struct {
	Markets            int
	Districts          int
	Products           int
	Categories         int
	ProductsPerCat     map[string]int
	PricedProducts     int
	UncategorizedProds int
}

// Summarize counts what the catalog holds.
func (c *Catalog) Summarize() Summary {
	names := make(map[int64]string, len(c.Categories))
	for _, cat := range c.Categories {
		names[cat.ID] = cat.Name
	}

	s := Summary{
		Markets:        len(c.Markets),
		Districts:      len(c.Districts()),
		Products:       len(c.Products),
		Categories:     len(c.Categories),
		ProductsPerCat: make(map[string]int),
	}
	for _, p := range c.Products {
		if p.BasePrice != nil {
			s.PricedProducts++
		}
		name, ok := names[p.CategoryID]
		if !ok {
			s.UncategorizedProds++
			continue
		}
		s.ProductsPerCat[name]++
	}
	return s
}
