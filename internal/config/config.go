// =============================================================================
// POS Scenario Synthesizer - Configuration Module
// =============================================================================
//
// This module loads the single YAML configuration file that drives a
// generation run. The file describes:
//   - Where the catalog comes from and where output is written
//   - The generation window, basket and quantity distributions
//   - Pricing noise, floor and regional factors
//   - Market weight tiers and opportunity zones
//   - The declarative scenario rules (decline, growth, skews, dead stock,
//     seasonality)
//
// Scenario rules reference catalog entities by id or by name. Names are
// resolved against the loaded catalog once, in the scenario package, never
// during generation.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid marks configuration problems, including an unusable catalog.
// Commands treat it as fatal before generation starts.
var ErrInvalid = errors.New("invalid configuration")

// =============================================================================
// ROOT CONFIGURATION STRUCTURE
// =============================================================================

// Config holds everything a generation run needs.
type Config struct {
	// Seed drives the single run-local random generator.
	// Two runs with the same seed and configuration produce identical output.
	Seed uint64 `yaml:"seed"`

	Log         LogConfig         `yaml:"log"`
	Database    DatabaseConfig    `yaml:"database"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Output      OutputConfig      `yaml:"output"`
	Generation  GenerationConfig  `yaml:"generation"`
	Pricing     PricingConfig     `yaml:"pricing"`
	Tiers       TierConfig        `yaml:"tiers"`
	Opportunity OpportunityConfig `yaml:"opportunity"`
	Scenarios   ScenarioConfig    `yaml:"scenarios"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// DatabaseConfig describes the relational store.
type DatabaseConfig struct {
	// Dialect selects the gorm dialector: "mysql", "postgres" or "sqlite".
	Dialect string `yaml:"dialect" validate:"oneof=mysql postgres sqlite"`

	// DSN is passed to the dialector unchanged.
	DSN string `yaml:"dsn"`

	// AutoMigrate creates the output tables when they do not exist.
	AutoMigrate bool `yaml:"auto_migrate"`
}

// CatalogConfig describes where markets, products and categories come from.
type CatalogConfig struct {
	// Source is "database" (SELECT queries below) or "workbook" (an .xlsx file).
	Source string `yaml:"source" validate:"oneof=database workbook"`

	// Workbook is the .xlsx path used when Source is "workbook".
	Workbook string `yaml:"workbook" validate:"required_if=Source workbook"`

	// MarketsQuery must yield market_id, district_id and optionally region_id.
	MarketsQuery string `yaml:"markets_query"`

	// ProductsQuery must yield product_id, name, category_id and optionally
	// base_price.
	ProductsQuery string `yaml:"products_query"`

	// CategoriesQuery must yield category_id and name.
	CategoriesQuery string `yaml:"categories_query"`
}

// OutputConfig controls persistence and run artefacts.
type OutputConfig struct {
	HeadersTable string `yaml:"headers_table" validate:"required"`
	LinesTable   string `yaml:"lines_table" validate:"required"`

	// ChunkSize is the number of rows inserted and committed per chunk.
	ChunkSize int `yaml:"chunk_size" validate:"gt=0"`

	// ReportDir receives report and export workbooks.
	ReportDir string `yaml:"report_dir"`

	// FileNameFormat names report/export files.
	// Placeholders: {uuid}, {timestamp}, {date}, {time}, {kind}, {seed}.
	FileNameFormat string `yaml:"file_name_format"`

	// MetricsTextfile, when set, receives the run metrics in the Prometheus
	// textfile exposition format.
	MetricsTextfile string `yaml:"metrics_textfile"`
}

// =============================================================================
// GENERATION SETTINGS
// =============================================================================

// GenerationConfig controls the transaction stream.
type GenerationConfig struct {
	// Transactions is the number of slots drawn. Declined or empty slots do
	// not produce a transaction, so fewer may be retained.
	Transactions int `yaml:"transactions" validate:"gt=0"`

	// StartDate is inclusive, EndDate exclusive.
	StartDate Date `yaml:"start_date"`
	EndDate   Date `yaml:"end_date"`

	BusinessHours BusinessHours `yaml:"business_hours"`

	// BasketSizes is the distribution of basket sizes for standard markets.
	// Weights are normalized, so they need not sum to 1.
	BasketSizes []BasketSize `yaml:"basket_sizes" validate:"min=1,dive"`

	Quantity QuantityConfig `yaml:"quantity"`
}

// BusinessHours bounds the drawn hour to [Open, Close).
type BusinessHours struct {
	Open  int `yaml:"open" validate:"gte=0,lte=23"`
	Close int `yaml:"close" validate:"gte=1,lte=24"`
}

// BasketSize is one entry of a discrete basket-size distribution.
type BasketSize struct {
	Size   int     `yaml:"size" validate:"gte=0"`
	Weight float64 `yaml:"weight" validate:"gt=0"`
}

// QuantityConfig controls per-line quantities.
type QuantityConfig struct {
	Min int `yaml:"min" validate:"gte=1"`
	Max int `yaml:"max" validate:"gtefield=Min"`

	// BoomThreshold is the seasonal multiplier above which the boom range is used.
	BoomThreshold float64 `yaml:"boom_threshold" validate:"gt=0"`
	BoomMin       int     `yaml:"boom_min" validate:"gte=1"`
	BoomMax       int     `yaml:"boom_max" validate:"gtefield=BoomMin"`

	// PerishableCategories are category names sold by weight.
	PerishableCategories []string `yaml:"perishable_categories"`
	PerishableMin        float64  `yaml:"perishable_min" validate:"gt=0"`
	PerishableMax        float64  `yaml:"perishable_max" validate:"gtefield=PerishableMin"`
}

// =============================================================================
// PRICING SETTINGS
// =============================================================================

// PricingConfig controls unit prices.
type PricingConfig struct {
	// Base prices are synthesized in this range when the catalog has none.
	BasePriceMin float64 `yaml:"base_price_min" validate:"gt=0"`
	BasePriceMax float64 `yaml:"base_price_max" validate:"gtefield=BasePriceMin"`

	// NoiseStddev is the standard deviation of the gaussian price noise (mean 1).
	NoiseStddev float64 `yaml:"noise_stddev" validate:"gte=0"`

	// Floor is the minimum unit price.
	Floor float64 `yaml:"floor" validate:"gt=0"`

	DefaultRegionFactor float64        `yaml:"default_region_factor" validate:"gt=0"`
	RegionFactors       []RegionFactor `yaml:"region_factors" validate:"dive"`
}

// RegionFactor scales base prices for markets in the listed districts or regions.
// An entry with neither list matches every market.
type RegionFactor struct {
	Districts []int64 `yaml:"districts"`
	Regions   []int64 `yaml:"regions"`
	Factor    float64 `yaml:"factor" validate:"gt=0"`
}

// =============================================================================
// WEIGHT TIERS AND OPPORTUNITY ZONES
// =============================================================================

// TierConfig partitions markets into risky, standard and star tiers.
type TierConfig struct {
	// Order decides which markets are "bottom" and "top": "random" uses a
	// permutation from the run generator, "market_id" sorts ascending.
	Order string `yaml:"order" validate:"oneof=random market_id"`

	RiskyFraction  float64 `yaml:"risky_fraction" validate:"gte=0,lte=1"`
	StarFraction   float64 `yaml:"star_fraction" validate:"gte=0,lte=1"`
	RiskyWeight    float64 `yaml:"risky_weight" validate:"gt=0"`
	StandardWeight float64 `yaml:"standard_weight" validate:"gt=0"`
	StarWeight     float64 `yaml:"star_weight" validate:"gt=0"`
}

// OpportunityConfig selects random districts whose markets get extra demand.
type OpportunityConfig struct {
	// Districts is the number of distinct districts to select. Zero disables.
	Districts  int     `yaml:"districts" validate:"gte=0"`
	Multiplier float64 `yaml:"multiplier" validate:"gt=0"`
}

// =============================================================================
// SCENARIO RULES
// =============================================================================

// ScenarioConfig lists the declarative scenario rules.
type ScenarioConfig struct {
	Decline   []DeclineRule   `yaml:"decline" validate:"dive"`
	Growth    []GrowthRule    `yaml:"growth" validate:"dive"`
	Skews     []SkewRule      `yaml:"skews" validate:"dive"`
	DeadStock []DeadStockRule `yaml:"dead_stock" validate:"dive"`
	Seasonal  []SeasonalTable `yaml:"seasonal" validate:"dive"`
}

// DeclineRule rejects a growing share of a market's transactions over the
// trailing window before the end date.
type DeclineRule struct {
	Name         string  `yaml:"name"`
	Market       int64   `yaml:"market"`
	WindowMonths float64 `yaml:"window_months" validate:"gt=0"`
	RatePerMonth float64 `yaml:"rate_per_month" validate:"gte=0,lte=1"`
}

// GrowthRule widens the basket size range for the listed markets.
type GrowthRule struct {
	Name      string  `yaml:"name"`
	Markets   []int64 `yaml:"markets" validate:"min=1"`
	BasketMin int     `yaml:"basket_min" validate:"gte=1"`
	BasketMax int     `yaml:"basket_max" validate:"gtefield=BasketMin"`
}

// SkewRule biases category selection for the listed markets.
type SkewRule struct {
	Name    string  `yaml:"name"`
	Markets []int64 `yaml:"markets" validate:"min=1"`

	// ApplyProbability is the chance the skew is considered for a line.
	ApplyProbability float64 `yaml:"apply_probability" validate:"gte=0,lte=1"`

	// ForceProbability is the chance, once applied, of picking a force category.
	ForceProbability float64 `yaml:"force_probability" validate:"gte=0,lte=1"`

	ForceCategories []string `yaml:"force_categories"`
	AvoidCategories []string `yaml:"avoid_categories"`
}

// DeadStockRule suppresses a product everywhere except its home market.
type DeadStockRule struct {
	// Product is a product id or an exact (case-insensitive) product name.
	Product           string  `yaml:"product" validate:"required"`
	HomeMarket        int64   `yaml:"home_market"`
	RerollProbability float64 `yaml:"reroll_probability" validate:"gte=0,lte=1"`
}

// SeasonalTable assigns monthly, region-aware multipliers to one category.
type SeasonalTable struct {
	Category string         `yaml:"category" validate:"required"`
	Rules    []SeasonalRule `yaml:"rules" validate:"min=1,dive"`
}

// SeasonalRule matches a month and, optionally, districts or regions.
// Rules are evaluated in order; the first match wins.
type SeasonalRule struct {
	Months     []int   `yaml:"months" validate:"min=1,dive,gte=1,lte=12"`
	Districts  []int64 `yaml:"districts"`
	Regions    []int64 `yaml:"regions"`
	Multiplier float64 `yaml:"multiplier" validate:"gt=0"`
}

// =============================================================================
// DATE TYPE
// =============================================================================

// Date is a calendar day in YAML ("2006-01-02"), held as UTC midnight.
type Date struct {
	time.Time
}

// UnmarshalYAML parses a YYYY-MM-DD scalar.
func (d *Date) UnmarshalYAML(node *yaml.Node) error {
	t, err := time.Parse(time.DateOnly, node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid date %q, expected YYYY-MM-DD", node.Line, node.Value)
	}
	d.Time = t
	return nil
}

// MarshalYAML renders the day as YYYY-MM-DD.
func (d Date) MarshalYAML() (interface{}, error) {
	return d.Format(time.DateOnly), nil
}

// NewDate builds a Date from calendar fields.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load reads, defaults and validates the configuration file.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := preset()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config file: %v", ErrInvalid, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
