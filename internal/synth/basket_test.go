package synth

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/pos-scenario-synth/internal/catalog"
	"github.com/ginjaninja78/pos-scenario-synth/internal/config"
	"github.com/ginjaninja78/pos-scenario-synth/internal/scenario"
	"github.com/ginjaninja78/pos-scenario-synth/internal/types"
)

func produceCatalog() *catalog.Catalog {
	c := &catalog.Catalog{
		Markets: []catalog.Market{
			{ID: 1, District: 10, Region: 35},
			{ID: 2, District: 20, Region: 45},
		},
		Products: []catalog.Product{
			{ID: 1, Name: "Elma", CategoryID: 1},
			{ID: 2, Name: "Domates", CategoryID: 1},
		},
		Categories: []catalog.Category{{ID: 1, Name: "Meyve/Sebze"}},
	}
	c.Normalize()
	return c
}

func seasonalConfig(seed uint64) *config.Config {
	cfg := plainConfig(seed)
	cfg.Generation.BasketSizes = []config.BasketSize{{Size: 1, Weight: 1}}
	cfg.Scenarios.Seasonal = []config.SeasonalTable{{Category: "Meyve/Sebze", Rules: []config.SeasonalRule{
		{Months: []int{6, 7, 8}, Multiplier: 2.0},
		{Months: []int{12, 1, 2}, Regions: []int64{45}, Multiplier: 0.2},
	}}}
	return cfg
}

func isSummer(m time.Month) bool { return m >= time.June && m <= time.August }

func isWinter(m time.Month) bool {
	return m == time.December || m == time.January || m == time.February
}

func TestSeasonal_SummerExceedsWinter(t *testing.T) {
	cfg := seasonalConfig(31)
	g := newGenerator(t, cfg, produceCatalog())

	var summerQty, winterQty decimal.Decimal
	summerN, winterN := 0, 0
	err := g.Each(20_000, func(h types.TransactionHeader, lines []types.LineItem) error {
		if h.MarketID != 1 {
			return nil
		}
		for _, l := range lines {
			switch m := h.Timestamp.Month(); {
			case isSummer(m):
				summerQty = summerQty.Add(l.Quantity)
				summerN++
			case isWinter(m):
				winterQty = winterQty.Add(l.Quantity)
				winterN++
			}
		}
		return nil
	})
	require.NoError(t, err)
	require.Positive(t, summerN)
	require.Positive(t, winterN)

	summerAvg, _ := summerQty.Div(decimal.NewFromInt(int64(summerN))).Float64()
	winterAvg, _ := winterQty.Div(decimal.NewFromInt(int64(winterN))).Float64()
	assert.GreaterOrEqual(t, summerAvg, winterAvg*2.0-0.25)
}

func TestSeasonal_SuppressionFloorsAtOne(t *testing.T) {
	cfg := seasonalConfig(32)
	ds, _ := generate(t, cfg, produceCatalog(), 5000)

	byTxn := ds.LinesByTransaction()
	seen := 0
	for _, h := range ds.Headers {
		if h.MarketID != 2 || !isWinter(h.Timestamp.Month()) {
			continue
		}
		for _, l := range byTxn[h.ID] {
			assert.True(t, l.Quantity.Equal(decimal.NewFromInt(1)), "suppressed quantity %s", l.Quantity)
			seen++
		}
	}
	assert.Positive(t, seen)
}

func TestDrawQuantity(t *testing.T) {
	cat := produceCatalog()
	cfg := seasonalConfig(1)
	cfg.Generation.Quantity.PerishableCategories = []string{"Meyve/Sebze"}
	plan := scenario.Compile(cfg, cat, zerolog.Nop())
	rng := rand.New(rand.NewPCG(5, 6))
	dist := AssignWeights(cat.Markets, cfg.Tiers, cfg.Opportunity, rng, zerolog.Nop())
	c := NewComposer(cfg, cat, dist, plan, rng, newStats())

	for i := 0; i < 500; i++ {
		q := c.drawQuantity(rng, 1, 0.2)
		assert.True(t, q.GreaterThanOrEqual(decimal.NewFromFloat(0.5)), "suppressed perishable %s", q)
		assert.True(t, q.LessThanOrEqual(decimal.NewFromFloat(0.7)))

		q = c.drawQuantity(rng, 1, 2.0)
		assert.True(t, q.GreaterThanOrEqual(decimal.NewFromInt(3)))
		assert.True(t, q.LessThanOrEqual(decimal.NewFromInt(9)))
		assert.True(t, isTwoDecimal(q))

		q = c.drawQuantity(rng, 99, 2.0)
		assert.True(t, q.IsInteger())
		assert.True(t, q.GreaterThanOrEqual(decimal.NewFromInt(3)))

		q = c.drawQuantity(rng, 99, 1.0)
		assert.True(t, q.GreaterThanOrEqual(decimal.NewFromInt(1)))
		assert.True(t, q.LessThanOrEqual(decimal.NewFromInt(4)))
	}
}

func TestRegionFactor(t *testing.T) {
	p := config.PricingConfig{
		DefaultRegionFactor: 1.0,
		RegionFactors: []config.RegionFactor{
			{Districts: []int64{5}, Factor: 0.95},
			{Regions: []int64{45}, Factor: 1.05},
		},
	}
	assert.Equal(t, 0.95, regionFactor(p, catalog.Market{District: 5, Region: 45}))
	assert.Equal(t, 1.05, regionFactor(p, catalog.Market{District: 6, Region: 45}))
	assert.Equal(t, 1.0, regionFactor(p, catalog.Market{District: 6, Region: 35}))
	assert.Equal(t, 1.0, regionFactor(p, catalog.Market{District: 45}), "district id is not a region id")

	p.RegionFactors = append(p.RegionFactors, config.RegionFactor{Factor: 1.2})
	assert.Equal(t, 1.2, regionFactor(p, catalog.Market{District: 6, Region: 35}))
}

func TestRegionFactor_ScalesPrices(t *testing.T) {
	cat := produceCatalog()
	price := 100.0
	for i := range cat.Products {
		cat.Products[i].BasePrice = &price
	}
	cfg := plainConfig(3)
	cfg.Pricing.NoiseStddev = 0
	cfg.Pricing.RegionFactors = []config.RegionFactor{{Districts: []int64{20}, Factor: 0.95}}
	ds, _ := generate(t, cfg, cat, 200)

	market := marketOf(ds)
	for _, l := range ds.Lines {
		want := "100"
		if market[l.TransactionID] == 2 {
			want = "95"
		}
		assert.True(t, l.UnitPrice.Equal(decimal.RequireFromString(want)), "price %s", l.UnitPrice)
	}
}
