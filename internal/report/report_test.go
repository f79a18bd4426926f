package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/pos-scenario-synth/internal/catalog"
	"github.com/ginjaninja78/pos-scenario-synth/internal/config"
	"github.com/ginjaninja78/pos-scenario-synth/internal/scenario"
	"github.com/ginjaninja78/pos-scenario-synth/internal/synth"
	"github.com/ginjaninja78/pos-scenario-synth/internal/types"
)

var windowEnd = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

func reportCatalog() *catalog.Catalog {
	c := &catalog.Catalog{
		Markets: []catalog.Market{
			{ID: 1, District: 10, Region: 35},
			{ID: 2, District: 10, Region: 35},
			{ID: 3, District: 20, Region: 45},
		},
		Categories: []catalog.Category{{ID: 1, Name: "Dondurma"}, {ID: 2, Name: "Fırın"}},
		Products: []catalog.Product{
			{ID: 1, Name: "Külah", CategoryID: 1},
			{ID: 2, Name: "Ekmek", CategoryID: 2},
			{ID: 3, Name: "Eski Kraker", CategoryID: 2},
		},
	}
	c.Normalize()
	return c
}

func reportPlan(t *testing.T, cat *catalog.Catalog) *scenario.Plan {
	t.Helper()
	cfg := config.Default()
	cfg.Scenarios = config.ScenarioConfig{
		Decline:   []config.DeclineRule{{Name: "fading", Market: 1, WindowMonths: 2, RatePerMonth: 0.1}},
		Growth:    []config.GrowthRule{{Name: "busy", Markets: []int64{2}, BasketMin: 3, BasketMax: 5}},
		DeadStock: []config.DeadStockRule{{Product: "Eski Kraker", HomeMarket: 3, RerollProbability: 0.9}},
		Seasonal: []config.SeasonalTable{{
			Category: "Dondurma",
			Rules:    []config.SeasonalRule{{Months: []int{6, 7, 8}, Multiplier: 2}},
		}},
	}
	plan := scenario.Compile(cfg, cat, zerolog.Nop())
	require.Empty(t, plan.Warnings)
	return plan
}

// builder appends consistent transactions with unit price 1.00.
type builder struct {
	ds types.Dataset
}

func (b *builder) add(market int64, ts time.Time, lines ...[2]int64) {
	id := int64(len(b.ds.Headers) + 1)
	var items []types.LineItem
	qty := decimal.Zero
	for _, l := range lines {
		q := decimal.NewFromInt(l[1])
		items = append(items, types.LineItem{TransactionID: id, ProductID: l[0], Quantity: q, UnitPrice: decimal.NewFromInt(1)})
		qty = qty.Add(q)
	}
	b.ds.Append(types.TransactionHeader{ID: id, MarketID: market, TotalAmount: qty.Round(2), Timestamp: ts, TotalQuantity: qty}, items)
}

func reportDataset() *types.Dataset {
	var b builder
	bread := [2]int64{2, 1}
	day := 24 * time.Hour

	// Market 1: one sale in the final month, two in the month before, four
	// in the baseline month and one outside the window.
	b.add(1, windowEnd.Add(-1*day), bread)
	b.add(1, windowEnd.Add(-40*day), bread)
	b.add(1, windowEnd.Add(-41*day), bread)
	for i := 0; i < 4; i++ {
		b.add(1, windowEnd.Add(-time.Duration(70+i)*day), bread)
	}
	b.add(1, windowEnd.Add(-200*day), bread)

	// Market 2 sells ice cream in July.
	july := time.Date(2024, time.July, 10, 12, 0, 0, 0, time.UTC)
	b.add(2, july, [2]int64{1, 4}, [2]int64{2, 2})
	b.add(2, july.Add(day), [2]int64{1, 4}, [2]int64{2, 2})

	// Market 3 sells ice cream in January and the dead-stock product.
	b.add(3, time.Date(2024, time.January, 5, 10, 0, 0, 0, time.UTC), [2]int64{1, 2}, [2]int64{3, 1})
	return &b.ds
}

func TestBuild_Totals(t *testing.T) {
	cat := reportCatalog()
	r := Build(reportDataset(), cat, reportPlan(t, cat), Options{End: windowEnd})

	assert.Equal(t, 11, r.Transactions)
	assert.Equal(t, 14, r.Lines)
	assert.Equal(t, "23.00", r.TotalAmount.StringFixed(2))
	assert.Empty(t, r.Violations)
}

func TestBuild_DeclineTrend(t *testing.T) {
	cat := reportCatalog()
	r := Build(reportDataset(), cat, reportPlan(t, cat), Options{End: windowEnd})

	require.Len(t, r.Declines, 1)
	d := r.Declines[0]
	assert.Equal(t, "fading", d.Rule)
	require.Len(t, d.Buckets, 3)
	assert.Equal(t, []int{1, 2, 4}, []int{d.Buckets[0].Count, d.Buckets[1].Count, d.Buckets[2].Count})
	assert.Equal(t, 1, d.Final)
	assert.Equal(t, 4, d.Baseline)
	assert.InDelta(t, 0.25, d.FinalRatio(), 1e-9)
	assert.Equal(t, windowEnd.Add(-30*24*time.Hour), d.Buckets[0].Start)
}

func TestBuild_GrowthComparison(t *testing.T) {
	cat := reportCatalog()
	r := Build(reportDataset(), cat, reportPlan(t, cat), Options{End: windowEnd})

	require.Len(t, r.Growth, 1)
	g := r.Growth[0]
	assert.Equal(t, BasketStats{Transactions: 2, AvgLines: 2, AvgQuantity: 6, AvgAmount: 6}, g.Growth)
	assert.Equal(t, 9, g.Others.Transactions)
	assert.InDelta(t, 10.0/9.0, g.Others.AvgLines, 1e-9)
	assert.InDelta(t, 11.0/9.0, g.Others.AvgQuantity, 1e-9)
}

func TestBuild_SeasonalComparison(t *testing.T) {
	cat := reportCatalog()
	r := Build(reportDataset(), cat, reportPlan(t, cat), Options{End: windowEnd})

	require.Len(t, r.Seasonal, 1)
	s := r.Seasonal[0]
	assert.Equal(t, "Dondurma", s.CategoryName)
	assert.Equal(t, 2, s.SummerLines)
	assert.Equal(t, 1, s.WinterLines)
	assert.InDelta(t, 4.0, s.SummerAvgQty, 1e-9)
	assert.InDelta(t, 2.0, s.WinterAvgQty, 1e-9)
	assert.InDelta(t, 2.0, s.Ratio(), 1e-9)
}

func TestBuild_DeadStockShare(t *testing.T) {
	cat := reportCatalog()
	r := Build(reportDataset(), cat, reportPlan(t, cat), Options{End: windowEnd})

	require.Len(t, r.DeadStock, 1)
	d := r.DeadStock[0]
	assert.Equal(t, int64(3), d.ProductID)
	assert.Equal(t, 1, d.HomeLines)
	assert.InDelta(t, 0.5, d.HomeShare, 1e-9)
	assert.Zero(t, d.AwayLines)
	assert.Zero(t, d.AwayShare)
}

func TestBuild_MarketShares(t *testing.T) {
	cat := reportCatalog()
	weights := []synth.MarketWeight{
		{Market: cat.Markets[0], Tier: synth.TierRisky, Probability: 0.5},
		{Market: cat.Markets[1], Tier: synth.TierStar, Opportunity: true, Probability: 0.3},
		{Market: cat.Markets[2], Probability: 0.2},
	}
	r := Build(reportDataset(), cat, reportPlan(t, cat), Options{End: windowEnd, Weights: weights})

	require.Len(t, r.MarketShares, 3)
	m1 := r.MarketShares[0]
	assert.Equal(t, int64(1), m1.MarketID)
	assert.Equal(t, "risky", m1.Tier)
	assert.Equal(t, 8, m1.Transactions)
	assert.InDelta(t, 8.0/11.0, m1.Observed, 1e-9)
	assert.InDelta(t, 0.5, m1.Expected, 1e-9)
	assert.True(t, r.MarketShares[1].Opportunity)
}

func TestBuild_EmptyPlan(t *testing.T) {
	cat := reportCatalog()
	plan := scenario.Compile(config.Default(), cat, zerolog.Nop())
	r := Build(&types.Dataset{}, cat, plan, Options{End: windowEnd})

	assert.Zero(t, r.Transactions)
	assert.Empty(t, r.Declines)
	assert.Empty(t, r.Growth)
	assert.Empty(t, r.Seasonal)
	assert.Len(t, r.MarketShares, 3)
	assert.Zero(t, r.MarketShares[0].Observed)
}

func TestWriteText(t *testing.T) {
	cat := reportCatalog()
	r := Build(reportDataset(), cat, reportPlan(t, cat), Options{End: windowEnd})

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, r))
	out := buf.String()

	assert.Contains(t, out, `Decline "fading" (market 1)`)
	assert.Contains(t, out, "Growth markets")
	assert.Contains(t, out, "Dondurma")
	assert.Contains(t, out, "Eski Kraker")
	assert.Contains(t, out, "No integrity violations.")
	assert.True(t, strings.HasPrefix(out, "Transactions:"))
}
