// =============================================================================
// POS Scenario Synthesizer - Scenario Plan
// =============================================================================
//
// Scenario rules are written in YAML against human-readable names (category
// names, product names) and catalog ids. Compile resolves every reference once
// against the loaded catalog and produces a Plan keyed by integer ids, so the
// generator never compares strings while it runs.
//
// A rule whose references cannot be resolved is dropped with a warning. The
// run continues with the remaining rules.
//
// =============================================================================

package scenario

import (
	"time"

	"github.com/ginjaninja78/pos-scenario-synth/internal/catalog"
)

// Plan is the compiled, id-keyed form of the scenario configuration.
//
// The exported slices keep configuration order for reporting. Lookups go
// through the For methods.
type Plan struct {
	Declines  []Decline
	Growths   []Growth
	Skews     []Skew
	DeadStock []DeadStock
	Seasonal  []Seasonal

	// Perishable holds the ids of categories sold by weight.
	Perishable map[int64]bool

	// Warnings lists every reference that could not be resolved.
	Warnings []string

	declineByMarket map[int64]int
	growthByMarket  map[int64]int
	skewByMarket    map[int64]int
	deadByProduct   map[int64]int
	seasonByCat     map[int64]int
}

// Decline rejects a growing share of one market's transactions near the end
// of the generation window.
type Decline struct {
	Name         string
	MarketID     int64
	WindowMonths float64
	RatePerMonth float64
}

// Growth widens the basket size range of its markets.
type Growth struct {
	Name      string
	MarketIDs []int64
	BasketMin int
	BasketMax int
}

// Skew biases category choice for its markets.
type Skew struct {
	Name             string
	MarketIDs        []int64
	ApplyProbability float64
	ForceProbability float64

	// ForceCategories only holds categories that have at least one product.
	ForceCategories []int64
	AvoidCategories map[int64]bool
}

// DeadStock suppresses a product outside its home market.
type DeadStock struct {
	ProductID         int64
	ProductName       string
	HomeMarket        int64
	RerollProbability float64
}

// Seasonal is the multiplier table of one category.
type Seasonal struct {
	CategoryID   int64
	CategoryName string
	Rules        []SeasonalRule
}

// SeasonalRule matches a set of months and, optionally, districts or regions.
type SeasonalRule struct {
	Months     [13]bool
	Districts  map[int64]bool
	Regions    map[int64]bool
	Multiplier float64
}

// =============================================================================
// LOOKUPS
// =============================================================================

// DeclineFor returns the decline rule of a market.
func (p *Plan) DeclineFor(marketID int64) (Decline, bool) {
	i, ok := p.declineByMarket[marketID]
	if !ok {
		return Decline{}, false
	}
	return p.Declines[i], true
}

// GrowthFor returns the growth rule of a market.
func (p *Plan) GrowthFor(marketID int64) (Growth, bool) {
	i, ok := p.growthByMarket[marketID]
	if !ok {
		return Growth{}, false
	}
	return p.Growths[i], true
}

// SkewFor returns the first skew rule that names the market.
func (p *Plan) SkewFor(marketID int64) (*Skew, bool) {
	i, ok := p.skewByMarket[marketID]
	if !ok {
		return nil, false
	}
	return &p.Skews[i], true
}

// DeadStockFor returns the dead-stock rule of a product.
func (p *Plan) DeadStockFor(productID int64) (DeadStock, bool) {
	i, ok := p.deadByProduct[productID]
	if !ok {
		return DeadStock{}, false
	}
	return p.DeadStock[i], true
}

// IsGrowthMarket reports whether any growth rule covers the market.
func (p *Plan) IsGrowthMarket(marketID int64) bool {
	_, ok := p.growthByMarket[marketID]
	return ok
}

// SeasonalMultiplier returns the multiplier for a category sold at a market
// in the given month. Categories without a table, and months no rule
// matches, return 1.
func (p *Plan) SeasonalMultiplier(categoryID int64, month time.Month, market catalog.Market) float64 {
	i, ok := p.seasonByCat[categoryID]
	if !ok {
		return 1.0
	}
	for _, rule := range p.Seasonal[i].Rules {
		if rule.Matches(month, market) {
			return rule.Multiplier
		}
	}
	return 1.0
}

// HasSeasonal reports whether a category has a multiplier table.
func (p *Plan) HasSeasonal(categoryID int64) bool {
	_, ok := p.seasonByCat[categoryID]
	return ok
}

// Matches reports whether the rule applies to the month and market.
// A rule without districts and regions applies to every market.
func (r SeasonalRule) Matches(month time.Month, market catalog.Market) bool {
	if month < time.January || month > time.December || !r.Months[month] {
		return false
	}
	if len(r.Districts) == 0 && len(r.Regions) == 0 {
		return true
	}
	return r.Districts[market.District] || (market.HasRegion() && r.Regions[market.Region])
}
