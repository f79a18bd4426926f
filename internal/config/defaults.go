package config

import "time"

// Defaults are the values the production data set was generated with.
const (
	DefaultDialect      = "mysql"
	DefaultDSN          = "root:@tcp(127.0.0.1:3306)/market?parseTime=true&charset=utf8mb4"
	DefaultHeadersTable = "sales"
	DefaultLinesTable   = "sale_items"
	DefaultChunkSize    = 5000
	DefaultTransactions = 20000
	DefaultNoiseStddev  = 0.1

	DefaultMarketsQuery = `SELECT m.market_id, m.district_id, d.region_id
FROM markets m LEFT JOIN districts d ON d.district_id = m.district_id`
	DefaultProductsQuery   = `SELECT product_id, name, category_id FROM products`
	DefaultCategoriesQuery = `SELECT category_id, name FROM categories`
)

// preset returns the values that must be in place before decoding: settings
// for which zero is a valid choice, so only an absent key gets the default.
func preset() Config {
	return Config{
		Pricing: PricingConfig{NoiseStddev: DefaultNoiseStddev},
	}
}

// ApplyDefaults fills every unset field.
//
// Zero is treated as "unset" for numeric settings that must be positive. Tier
// fractions and the opportunity district count are left alone because zero
// is a meaningful value for them (the overlay is disabled).
func ApplyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if cfg.Database.Dialect == "" {
		cfg.Database.Dialect = DefaultDialect
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = DefaultDSN
	}

	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = "database"
	}
	if cfg.Catalog.MarketsQuery == "" {
		cfg.Catalog.MarketsQuery = DefaultMarketsQuery
	}
	if cfg.Catalog.ProductsQuery == "" {
		cfg.Catalog.ProductsQuery = DefaultProductsQuery
	}
	if cfg.Catalog.CategoriesQuery == "" {
		cfg.Catalog.CategoriesQuery = DefaultCategoriesQuery
	}

	applyOutputDefaults(&cfg.Output)
	applyGenerationDefaults(&cfg.Generation)
	applyPricingDefaults(&cfg.Pricing)

	if cfg.Tiers.Order == "" {
		cfg.Tiers.Order = "random"
	}
	if cfg.Tiers.RiskyWeight == 0 {
		cfg.Tiers.RiskyWeight = 0.4
	}
	if cfg.Tiers.StandardWeight == 0 {
		cfg.Tiers.StandardWeight = 1.0
	}
	if cfg.Tiers.StarWeight == 0 {
		cfg.Tiers.StarWeight = 1.8
	}
	if cfg.Opportunity.Multiplier == 0 {
		cfg.Opportunity.Multiplier = 2.5
	}
}

func applyOutputDefaults(out *OutputConfig) {
	if out.HeadersTable == "" {
		out.HeadersTable = DefaultHeadersTable
	}
	if out.LinesTable == "" {
		out.LinesTable = DefaultLinesTable
	}
	if out.ChunkSize == 0 {
		out.ChunkSize = DefaultChunkSize
	}
	if out.ReportDir == "" {
		out.ReportDir = "./reports"
	}
	if out.FileNameFormat == "" {
		out.FileNameFormat = "{kind}_{timestamp}_{uuid}.xlsx"
	}
}

func applyGenerationDefaults(gen *GenerationConfig) {
	if gen.Transactions == 0 {
		gen.Transactions = DefaultTransactions
	}
	if gen.StartDate.IsZero() {
		gen.StartDate = NewDate(2023, time.January, 1)
	}
	if gen.EndDate.IsZero() {
		gen.EndDate = NewDate(2025, time.December, 31)
	}
	if gen.BusinessHours.Open == 0 && gen.BusinessHours.Close == 0 {
		gen.BusinessHours = BusinessHours{Open: 8, Close: 22}
	}
	if len(gen.BasketSizes) == 0 {
		for size := 1; size <= 7; size++ {
			gen.BasketSizes = append(gen.BasketSizes, BasketSize{Size: size, Weight: 1})
		}
	}

	q := &gen.Quantity
	if q.Min == 0 {
		q.Min = 1
	}
	if q.Max == 0 {
		q.Max = 4
	}
	if q.BoomThreshold == 0 {
		q.BoomThreshold = 1.5
	}
	if q.BoomMin == 0 {
		q.BoomMin = 3
	}
	if q.BoomMax == 0 {
		q.BoomMax = 9
	}
	if q.PerishableMin == 0 {
		q.PerishableMin = 0.5
	}
	if q.PerishableMax == 0 {
		q.PerishableMax = 3.5
	}
}

func applyPricingDefaults(p *PricingConfig) {
	if p.BasePriceMin == 0 {
		p.BasePriceMin = 20
	}
	if p.BasePriceMax == 0 {
		p.BasePriceMax = 200
	}
	if p.Floor == 0 {
		p.Floor = 0.5
	}
	if p.DefaultRegionFactor == 0 {
		p.DefaultRegionFactor = 1.0
	}
}

// Default returns a fully defaulted configuration with no scenarios.
func Default() *Config {
	cfg := preset()
	ApplyDefaults(&cfg)
	return &cfg
}
