package store

import (
	"context"

	"github.com/ginjaninja78/pos-scenario-synth/internal/catalog"
	"github.com/ginjaninja78/pos-scenario-synth/internal/config"
)

type marketRow struct {
	MarketID   int64  `gorm:"column:market_id"`
	DistrictID int64  `gorm:"column:district_id"`
	RegionID   *int64 `gorm:"column:region_id"`
}

type productRow struct {
	ProductID  int64    `gorm:"column:product_id"`
	Name       string   `gorm:"column:name"`
	CategoryID int64    `gorm:"column:category_id"`
	BasePrice  *float64 `gorm:"column:base_price"`
}

type categoryRow struct {
	CategoryID int64  `gorm:"column:category_id"`
	Name       string `gorm:"column:name"`
}

// CatalogProvider reads the catalog with the configured SELECT queries.
type CatalogProvider struct {
	store *Store
	cfg   config.CatalogConfig
}

// CatalogProvider returns a provider bound to this store.
func (s *Store) CatalogProvider(cfg config.CatalogConfig) *CatalogProvider {
	return &CatalogProvider{store: s, cfg: cfg}
}

// LoadCatalog runs the three catalog queries and returns a normalized
// catalog. An empty result is returned as is; Catalog.Validate decides
// whether it is usable.
func (p *CatalogProvider) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	db := p.store.db.WithContext(ctx)

	var markets []marketRow
	if err := db.Raw(p.cfg.MarketsQuery).Scan(&markets).Error; err != nil {
		return nil, classify("load markets", err)
	}
	var products []productRow
	if err := db.Raw(p.cfg.ProductsQuery).Scan(&products).Error; err != nil {
		return nil, classify("load products", err)
	}
	var categories []categoryRow
	if err := db.Raw(p.cfg.CategoriesQuery).Scan(&categories).Error; err != nil {
		return nil, classify("load categories", err)
	}

	cat := &catalog.Catalog{
		Markets:    make([]catalog.Market, 0, len(markets)),
		Products:   make([]catalog.Product, 0, len(products)),
		Categories: make([]catalog.Category, 0, len(categories)),
	}
	for _, m := range markets {
		market := catalog.Market{ID: m.MarketID, District: m.DistrictID}
		if m.RegionID != nil {
			market.Region = *m.RegionID
		}
		cat.Markets = append(cat.Markets, market)
	}
	for _, r := range products {
		cat.Products = append(cat.Products, catalog.Product{
			ID:         r.ProductID,
			Name:       r.Name,
			CategoryID: r.CategoryID,
			BasePrice:  r.BasePrice,
		})
	}
	for _, r := range categories {
		cat.Categories = append(cat.Categories, catalog.Category{ID: r.CategoryID, Name: r.Name})
	}
	cat.Normalize()

	p.store.log.Info().
		Int("markets", len(cat.Markets)).
		Int("products", len(cat.Products)).
		Int("categories", len(cat.Categories)).
		Msg("catalog loaded")
	return cat, nil
}
