package scenario

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/pos-scenario-synth/internal/catalog"
	"github.com/ginjaninja78/pos-scenario-synth/internal/config"
)

func testCatalog() *catalog.Catalog {
	c := &catalog.Catalog{
		Markets: []catalog.Market{
			{ID: 2, District: 10, Region: 35},
			{ID: 3, District: 11, Region: 35},
			{ID: 11, District: 20, Region: 45},
		},
		Products: []catalog.Product{
			{ID: 1, Name: "Muz", CategoryID: 1},
			{ID: 2, Name: "Pirinç", CategoryID: 2},
			{ID: 3, Name: "Cips", CategoryID: 4},
		},
		Categories: []catalog.Category{
			{ID: 1, Name: "Meyve/Sebze"},
			{ID: 2, Name: "Temel Gıda"},
			{ID: 3, Name: "Temizlik"},
			{ID: 4, Name: "Atıştırmalık"},
			{ID: 5, Name: "Kişisel Bakım"},
		},
	}
	c.Normalize()
	return c
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Generation.Quantity.PerishableCategories = []string{"meyve/sebze"}
	cfg.Scenarios = config.ScenarioConfig{
		Decline: []config.DeclineRule{
			{Name: "risky-branch", Market: 11, WindowMonths: 8, RatePerMonth: 0.05},
			{Name: "ghost", Market: 99, WindowMonths: 8, RatePerMonth: 0.05},
		},
		Growth: []config.GrowthRule{
			{Name: "star-branches", Markets: []int64{2, 3, 42}, BasketMin: 5, BasketMax: 14},
		},
		Skews: []config.SkewRule{
			{Name: "risky-branch", Markets: []int64{11}, ApplyProbability: 0.7, ForceProbability: 0.9,
				ForceCategories: []string{"Temel Gıda"}, AvoidCategories: []string{"Temizlik"}},
			{Name: "star-branches", Markets: []int64{2, 3}, ApplyProbability: 0.6, ForceProbability: 0.7,
				ForceCategories: []string{"Kişisel Bakım", "Atıştırmalık"}},
			{Name: "unknown-only", Markets: []int64{2}, ForceCategories: []string{"Elektronik"}},
		},
		DeadStock: []config.DeadStockRule{
			{Product: "muz", HomeMarket: 3, RerollProbability: 0.9},
			{Product: "Armut", HomeMarket: 3, RerollProbability: 0.9},
		},
		Seasonal: []config.SeasonalTable{
			{Category: "Meyve/Sebze", Rules: []config.SeasonalRule{
				{Months: []int{6, 7, 8}, Multiplier: 2.0},
				{Months: []int{12, 1, 2}, Regions: []int64{45}, Multiplier: 0.2},
				{Months: []int{12, 1, 2}, Multiplier: 1.5},
			}},
			{Category: "Meyve", Rules: []config.SeasonalRule{{Months: []int{1}, Multiplier: 3}}},
		},
	}
	return cfg
}

func TestCompile_ResolvesRules(t *testing.T) {
	plan := Compile(testConfig(), testCatalog(), zerolog.Nop())

	d, ok := plan.DeclineFor(11)
	require.True(t, ok)
	assert.Equal(t, 8.0, d.WindowMonths)
	_, ok = plan.DeclineFor(99)
	assert.False(t, ok)

	g, ok := plan.GrowthFor(3)
	require.True(t, ok)
	assert.Equal(t, []int64{2, 3}, g.MarketIDs)
	assert.True(t, plan.IsGrowthMarket(2))
	assert.False(t, plan.IsGrowthMarket(11))

	s, ok := plan.SkewFor(11)
	require.True(t, ok)
	assert.Equal(t, []int64{2}, s.ForceCategories)
	assert.True(t, s.AvoidCategories[3])

	s, ok = plan.SkewFor(2)
	require.True(t, ok)
	assert.Equal(t, "star-branches", s.Name, "first rule naming the market wins")
	assert.Equal(t, []int64{4}, s.ForceCategories, "categories without products are dropped")

	ds, ok := plan.DeadStockFor(1)
	require.True(t, ok)
	assert.Equal(t, int64(3), ds.HomeMarket)
	assert.Len(t, plan.DeadStock, 1)

	assert.True(t, plan.Perishable[1])
	assert.Len(t, plan.Seasonal, 1, "substring category names do not resolve")
}

func TestCompile_CollectsWarnings(t *testing.T) {
	plan := Compile(testConfig(), testCatalog(), zerolog.Nop())

	joined := ""
	for _, w := range plan.Warnings {
		joined += w + "\n"
	}
	assert.Contains(t, joined, `decline "ghost": market 99 not in catalog`)
	assert.Contains(t, joined, `growth "star-branches": market 42 not in catalog`)
	assert.Contains(t, joined, `category "Kişisel Bakım" has no products`)
	assert.Contains(t, joined, `skew "unknown-only": no usable categories`)
	assert.Contains(t, joined, `product "Armut" not in catalog`)
	assert.Contains(t, joined, `category "Meyve" not in catalog`)
}

func TestSeasonalMultiplier(t *testing.T) {
	cat := testCatalog()
	plan := Compile(testConfig(), cat, zerolog.Nop())

	izmir := catalog.Market{ID: 2, District: 10, Region: 35}
	manisa := catalog.Market{ID: 11, District: 20, Region: 45}
	// District 45 without a known region must not pass for region 45.
	noRegion := catalog.Market{ID: 3, District: 45}

	tests := []struct {
		name   string
		catID  int64
		month  time.Month
		market catalog.Market
		want   float64
	}{
		{"summer boom", 1, time.July, izmir, 2.0},
		{"summer boom everywhere", 1, time.June, manisa, 2.0},
		{"winter suppressed in region", 1, time.January, manisa, 0.2},
		{"winter boosted elsewhere", 1, time.December, izmir, 1.5},
		{"spring default", 1, time.April, izmir, 1.0},
		{"district id is not a region id", 1, time.January, noRegion, 1.5},
		{"category without table", 2, time.July, izmir, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, plan.SeasonalMultiplier(tt.catID, tt.month, tt.market))
		})
	}
	assert.True(t, plan.HasSeasonal(1))
	assert.False(t, plan.HasSeasonal(2))
}

func TestSeasonalRule_DistrictMatch(t *testing.T) {
	rule := SeasonalRule{Districts: map[int64]bool{20: true}, Multiplier: 0.5}
	rule.Months[time.March] = true

	assert.True(t, rule.Matches(time.March, catalog.Market{District: 20}))
	assert.False(t, rule.Matches(time.March, catalog.Market{District: 21}))
	assert.False(t, rule.Matches(time.April, catalog.Market{District: 20}))
}

func TestCompile_EmptyScenarios(t *testing.T) {
	plan := Compile(config.Default(), testCatalog(), zerolog.Nop())

	assert.Empty(t, plan.Warnings)
	_, ok := plan.SkewFor(2)
	assert.False(t, ok)
	assert.Equal(t, 1.0, plan.SeasonalMultiplier(1, time.July, catalog.Market{}))
}
