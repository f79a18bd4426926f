// =============================================================================
// POS Scenario Synthesizer - Scenario Report
// =============================================================================
//
// This package measures a dataset against the scenarios that shaped it. Every
// section answers one question an analyst would ask of the data: did the
// declining market decline, do growth markets sell bigger baskets, is the
// seasonal category seasonal, does the dead-stock product only sell at home,
// and does the market mix follow the drawn weights.
//
// The report only reads the dataset, so it works the same for a freshly
// generated run and for a dataset loaded back from the store.
//
// =============================================================================

package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/pos-scenario-synth/internal/catalog"
	"github.com/ginjaninja78/pos-scenario-synth/internal/scenario"
	"github.com/ginjaninja78/pos-scenario-synth/internal/synth"
	"github.com/ginjaninja78/pos-scenario-synth/internal/types"
)

// bucketLength matches the month the decline overlay works with.
const bucketLength = 30 * 24 * time.Hour

// Months of the seasonal comparison.
var (
	summerMonths = map[time.Month]bool{time.June: true, time.July: true, time.August: true}
	winterMonths = map[time.Month]bool{time.December: true, time.January: true, time.February: true}
)

// =============================================================================
// REPORT TYPES
// =============================================================================

// Report is the scenario summary of one dataset.
type Report struct {
	Transactions int
	Lines        int
	TotalAmount  decimal.Decimal

	Declines     []DeclineTrend
	Growth       []GrowthComparison
	Seasonal     []SeasonalComparison
	DeadStock    []DeadStockShare
	MarketShares []MarketShare
	Violations   []Violation
}

// DeclineTrend counts a declining market's transactions in 30-day buckets
// counted back from the end of the window. Buckets[0] is the final month.
type DeclineTrend struct {
	Rule     string
	MarketID int64
	Buckets  []Bucket

	// Baseline is the bucket just before the decline window opens.
	Baseline int
	Final    int
}

// Bucket is one 30-day slice of a DeclineTrend.
type Bucket struct {
	Start time.Time
	Count int
}

// FinalRatio returns Final / Baseline, or 0 without a baseline.
func (d DeclineTrend) FinalRatio() float64 {
	if d.Baseline == 0 {
		return 0
	}
	return float64(d.Final) / float64(d.Baseline)
}

// GrowthComparison compares one growth rule's markets against all other
// markets.
type GrowthComparison struct {
	Rule   string
	Growth BasketStats
	Others BasketStats
}

// BasketStats averages basket shape over a set of transactions.
type BasketStats struct {
	Transactions int
	AvgLines     float64
	AvgQuantity  float64
	AvgAmount    float64
}

// SeasonalComparison compares the average quantity per line of a category in
// summer (June to August) and winter (December to February).
type SeasonalComparison struct {
	CategoryID   int64
	CategoryName string
	SummerLines  int
	SummerAvgQty float64
	WinterLines  int
	WinterAvgQty float64
}

// Ratio returns summer over winter average quantity, or 0 without winter sales.
func (s SeasonalComparison) Ratio() float64 {
	if s.WinterAvgQty == 0 {
		return 0
	}
	return s.SummerAvgQty / s.WinterAvgQty
}

// DeadStockShare is the share of lines carrying a dead-stock product at its
// home market and everywhere else.
type DeadStockShare struct {
	ProductID   int64
	ProductName string
	HomeMarket  int64
	HomeLines   int
	HomeShare   float64
	AwayLines   int
	AwayShare   float64
}

// MarketShare compares a market's observed share of transactions with the
// probability it was drawn with.
type MarketShare struct {
	MarketID     int64
	Tier         string
	Opportunity  bool
	Transactions int
	Observed     float64
	Expected     float64
}

// Options carries the run context a dataset alone does not record.
type Options struct {
	// End is the exclusive end of the generation window.
	End time.Time

	// Weights are the market probabilities of the run. Without them the
	// market section only reports observed shares.
	Weights []synth.MarketWeight

	// PriceFloor enables the price floor integrity check when positive.
	PriceFloor decimal.Decimal
}

// =============================================================================
// BUILD
// =============================================================================

// Build measures ds against the compiled plan.
func Build(ds *types.Dataset, cat *catalog.Catalog, plan *scenario.Plan, opts Options) *Report {
	r := &Report{
		Transactions: len(ds.Headers),
		Lines:        len(ds.Lines),
		TotalAmount:  decimal.Zero,
	}
	for _, h := range ds.Headers {
		r.TotalAmount = r.TotalAmount.Add(h.TotalAmount)
	}

	marketOf := make(map[int64]int64, len(ds.Headers))
	for _, h := range ds.Headers {
		marketOf[h.ID] = h.MarketID
	}

	r.Declines = declineTrends(ds, plan, opts.End)
	r.Growth = growthComparisons(ds, plan)
	r.Seasonal = seasonalComparisons(ds, cat, plan)
	r.DeadStock = deadStockShares(ds, plan, marketOf)
	r.MarketShares = marketShares(ds, cat, opts.Weights)
	r.Violations = CheckIntegrity(ds, opts.PriceFloor)
	return r
}

func declineTrends(ds *types.Dataset, plan *scenario.Plan, end time.Time) []DeclineTrend {
	var out []DeclineTrend
	for _, rule := range plan.Declines {
		// One bucket per month of the window plus the baseline bucket.
		n := int(rule.WindowMonths)
		if float64(n) < rule.WindowMonths {
			n++
		}
		n++

		trend := DeclineTrend{Rule: rule.Name, MarketID: rule.MarketID, Buckets: make([]Bucket, n)}
		for i := range trend.Buckets {
			trend.Buckets[i].Start = end.Add(-time.Duration(i+1) * bucketLength)
		}
		for _, h := range ds.Headers {
			if h.MarketID != rule.MarketID || !h.Timestamp.Before(end) {
				continue
			}
			if i := int(end.Sub(h.Timestamp) / bucketLength); i < n {
				trend.Buckets[i].Count++
			}
		}
		trend.Final = trend.Buckets[0].Count
		trend.Baseline = trend.Buckets[n-1].Count
		out = append(out, trend)
	}
	return out
}

func growthComparisons(ds *types.Dataset, plan *scenario.Plan) []GrowthComparison {
	if len(plan.Growths) == 0 {
		return nil
	}

	lineCount := make(map[int64]int, len(ds.Headers))
	for _, l := range ds.Lines {
		lineCount[l.TransactionID]++
	}

	var out []GrowthComparison
	for _, rule := range plan.Growths {
		members := make(map[int64]bool, len(rule.MarketIDs))
		for _, id := range rule.MarketIDs {
			members[id] = true
		}

		var growth, others basketAcc
		for _, h := range ds.Headers {
			switch {
			case members[h.MarketID]:
				growth.add(h, lineCount[h.ID])
			case !plan.IsGrowthMarket(h.MarketID):
				others.add(h, lineCount[h.ID])
			}
		}
		out = append(out, GrowthComparison{Rule: rule.Name, Growth: growth.stats(), Others: others.stats()})
	}
	return out
}

type basketAcc struct {
	n      int
	lines  int
	qty    float64
	amount float64
}

func (a *basketAcc) add(h types.TransactionHeader, lines int) {
	a.n++
	a.lines += lines
	a.qty += h.TotalQuantity.InexactFloat64()
	a.amount += h.TotalAmount.InexactFloat64()
}

func (a basketAcc) stats() BasketStats {
	if a.n == 0 {
		return BasketStats{}
	}
	n := float64(a.n)
	return BasketStats{
		Transactions: a.n,
		AvgLines:     float64(a.lines) / n,
		AvgQuantity:  a.qty / n,
		AvgAmount:    a.amount / n,
	}
}

func seasonalComparisons(ds *types.Dataset, cat *catalog.Catalog, plan *scenario.Plan) []SeasonalComparison {
	if len(plan.Seasonal) == 0 {
		return nil
	}

	categoryOf := make(map[int64]int64, len(cat.Products))
	for _, p := range cat.Products {
		categoryOf[p.ID] = p.CategoryID
	}
	monthOf := make(map[int64]time.Month, len(ds.Headers))
	for _, h := range ds.Headers {
		monthOf[h.ID] = h.Timestamp.Month()
	}

	var out []SeasonalComparison
	for _, table := range plan.Seasonal {
		var summerQty, winterQty float64
		cmp := SeasonalComparison{CategoryID: table.CategoryID, CategoryName: table.CategoryName}
		for _, l := range ds.Lines {
			if categoryOf[l.ProductID] != table.CategoryID {
				continue
			}
			m := monthOf[l.TransactionID]
			switch {
			case summerMonths[m]:
				cmp.SummerLines++
				summerQty += l.Quantity.InexactFloat64()
			case winterMonths[m]:
				cmp.WinterLines++
				winterQty += l.Quantity.InexactFloat64()
			}
		}
		if cmp.SummerLines > 0 {
			cmp.SummerAvgQty = summerQty / float64(cmp.SummerLines)
		}
		if cmp.WinterLines > 0 {
			cmp.WinterAvgQty = winterQty / float64(cmp.WinterLines)
		}
		out = append(out, cmp)
	}
	return out
}

func deadStockShares(ds *types.Dataset, plan *scenario.Plan, marketOf map[int64]int64) []DeadStockShare {
	var out []DeadStockShare
	for _, rule := range plan.DeadStock {
		share := DeadStockShare{ProductID: rule.ProductID, ProductName: rule.ProductName, HomeMarket: rule.HomeMarket}
		var homeTotal, awayTotal int
		for _, l := range ds.Lines {
			home := marketOf[l.TransactionID] == rule.HomeMarket
			if home {
				homeTotal++
			} else {
				awayTotal++
			}
			if l.ProductID != rule.ProductID {
				continue
			}
			if home {
				share.HomeLines++
			} else {
				share.AwayLines++
			}
		}
		if homeTotal > 0 {
			share.HomeShare = float64(share.HomeLines) / float64(homeTotal)
		}
		if awayTotal > 0 {
			share.AwayShare = float64(share.AwayLines) / float64(awayTotal)
		}
		out = append(out, share)
	}
	return out
}

func marketShares(ds *types.Dataset, cat *catalog.Catalog, weights []synth.MarketWeight) []MarketShare {
	counts := make(map[int64]int)
	for _, h := range ds.Headers {
		counts[h.MarketID]++
	}

	byID := make(map[int64]MarketShare, len(cat.Markets))
	for _, m := range cat.Markets {
		byID[m.ID] = MarketShare{MarketID: m.ID}
	}
	for _, w := range weights {
		byID[w.Market.ID] = MarketShare{
			MarketID:    w.Market.ID,
			Tier:        w.Tier.String(),
			Opportunity: w.Opportunity,
			Expected:    w.Probability,
		}
	}
	// Markets seen in the data but missing from the catalog still show up.
	for id := range counts {
		if _, ok := byID[id]; !ok {
			byID[id] = MarketShare{MarketID: id}
		}
	}

	out := make([]MarketShare, 0, len(byID))
	for id, share := range byID {
		share.Transactions = counts[id]
		if len(ds.Headers) > 0 {
			share.Observed = float64(share.Transactions) / float64(len(ds.Headers))
		}
		out = append(out, share)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MarketID < out[j].MarketID })
	return out
}
