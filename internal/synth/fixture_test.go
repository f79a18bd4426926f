package synth

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/pos-scenario-synth/internal/catalog"
	"github.com/ginjaninja78/pos-scenario-synth/internal/config"
	"github.com/ginjaninja78/pos-scenario-synth/internal/scenario"
	"github.com/ginjaninja78/pos-scenario-synth/internal/types"
)

// Category ids used by the fixture catalog.
const (
	catProduce  int64 = 1
	catStaple   int64 = 2
	catCleaning int64 = 3
	catCare     int64 = 4
	catSnack    int64 = 5
)

func fixtureCatalog() *catalog.Catalog {
	c := &catalog.Catalog{
		Categories: []catalog.Category{
			{ID: catProduce, Name: "Meyve/Sebze"},
			{ID: catStaple, Name: "Temel Gıda"},
			{ID: catCleaning, Name: "Temizlik"},
			{ID: catCare, Name: "Kişisel Bakım"},
			{ID: catSnack, Name: "Atıştırmalık"},
		},
		Products: []catalog.Product{
			{ID: 1, Name: "Muz", CategoryID: catProduce},
			{ID: 2, Name: "Elma", CategoryID: catProduce},
			{ID: 3, Name: "Domates", CategoryID: catProduce},
			{ID: 4, Name: "Pirinç", CategoryID: catStaple},
			{ID: 5, Name: "Makarna", CategoryID: catStaple},
			{ID: 6, Name: "Deterjan", CategoryID: catCleaning},
			{ID: 7, Name: "Sabun", CategoryID: catCleaning},
			{ID: 8, Name: "Şampuan", CategoryID: catCare},
			{ID: 9, Name: "Cips", CategoryID: catSnack},
			{ID: 10, Name: "Çikolata", CategoryID: catSnack},
		},
	}
	for id := int64(1); id <= 12; id++ {
		district := []int64{10, 11, 20, 21}[(id-1)/3]
		region := int64(35)
		if district >= 20 {
			region = 45
		}
		c.Markets = append(c.Markets, catalog.Market{ID: id, District: district, Region: region})
	}
	c.Normalize()
	return c
}

// fixtureConfig applies the reference scenario set to the fixture catalog.
func fixtureConfig(seed uint64) *config.Config {
	cfg := config.Default()
	cfg.Seed = seed
	cfg.Generation.StartDate = config.NewDate(2023, time.January, 1)
	cfg.Generation.EndDate = config.NewDate(2025, time.January, 1)
	cfg.Generation.Quantity.PerishableCategories = []string{"Meyve/Sebze"}
	cfg.Pricing.RegionFactors = []config.RegionFactor{{Districts: []int64{21}, Factor: 0.95}}
	cfg.Tiers = config.TierConfig{
		Order: "random", RiskyFraction: 0.2, StarFraction: 0.2,
		RiskyWeight: 0.4, StandardWeight: 1.0, StarWeight: 1.8,
	}
	cfg.Opportunity = config.OpportunityConfig{Districts: 1, Multiplier: 2.5}
	cfg.Scenarios = config.ScenarioConfig{
		Decline: []config.DeclineRule{{Name: "risky-branch", Market: 11, WindowMonths: 8, RatePerMonth: 0.05}},
		Growth:  []config.GrowthRule{{Name: "star-branches", Markets: []int64{2, 3}, BasketMin: 5, BasketMax: 14}},
		Skews: []config.SkewRule{
			{Name: "risky-branch", Markets: []int64{11}, ApplyProbability: 0.7, ForceProbability: 0.9,
				ForceCategories: []string{"Temel Gıda"}, AvoidCategories: []string{"Temizlik"}},
			{Name: "star-branches", Markets: []int64{2, 3}, ApplyProbability: 0.6, ForceProbability: 0.7,
				ForceCategories: []string{"Kişisel Bakım", "Atıştırmalık"}},
		},
		DeadStock: []config.DeadStockRule{{Product: "Muz", HomeMarket: 3, RerollProbability: 0.9}},
		Seasonal: []config.SeasonalTable{{Category: "Meyve/Sebze", Rules: []config.SeasonalRule{
			{Months: []int{6, 7, 8}, Multiplier: 2.0},
			{Months: []int{12, 1, 2}, Regions: []int64{45}, Multiplier: 0.2},
			{Months: []int{12, 1, 2}, Multiplier: 1.5},
		}}},
	}
	return cfg
}

// plainConfig has no scenarios and a single tier.
func plainConfig(seed uint64) *config.Config {
	cfg := config.Default()
	cfg.Seed = seed
	cfg.Generation.StartDate = config.NewDate(2024, time.January, 1)
	cfg.Generation.EndDate = config.NewDate(2025, time.January, 1)
	return cfg
}

func newGenerator(t *testing.T, cfg *config.Config, cat *catalog.Catalog, opts ...Option) *Generator {
	t.Helper()
	plan := scenario.Compile(cfg, cat, zerolog.Nop())
	g, err := New(cfg, cat, plan, opts...)
	require.NoError(t, err)
	return g
}

func generate(t *testing.T, cfg *config.Config, cat *catalog.Catalog, n int) (*types.Dataset, *Generator) {
	t.Helper()
	g := newGenerator(t, cfg, cat)
	ds, err := g.Run(n)
	require.NoError(t, err)
	return ds, g
}

func categoryOf(cat *catalog.Catalog) map[int64]int64 {
	m := make(map[int64]int64, len(cat.Products))
	for _, p := range cat.Products {
		m[p.ID] = p.CategoryID
	}
	return m
}

func marketOf(ds *types.Dataset) map[int64]int64 {
	m := make(map[int64]int64, len(ds.Headers))
	for _, h := range ds.Headers {
		m[h.ID] = h.MarketID
	}
	return m
}

func isTwoDecimal(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}
