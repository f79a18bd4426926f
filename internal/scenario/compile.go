package scenario

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/pos-scenario-synth/internal/catalog"
	"github.com/ginjaninja78/pos-scenario-synth/internal/config"
)

// compiler carries the catalog indexes used while resolving rules.
type compiler struct {
	cat          *catalog.Catalog
	log          zerolog.Logger
	plan         *Plan
	withProducts map[int64]bool
}

// Compile resolves the scenario rules of cfg against the catalog.
// It never fails: unresolvable rules are dropped and reported in
// Plan.Warnings and the log.
func Compile(cfg *config.Config, cat *catalog.Catalog, log zerolog.Logger) *Plan {
	c := &compiler{
		cat: cat,
		log: log,
		plan: &Plan{
			Perishable:      make(map[int64]bool),
			declineByMarket: make(map[int64]int),
			growthByMarket:  make(map[int64]int),
			skewByMarket:    make(map[int64]int),
			deadByProduct:   make(map[int64]int),
			seasonByCat:     make(map[int64]int),
		},
		withProducts: make(map[int64]bool),
	}
	for _, p := range cat.Products {
		c.withProducts[p.CategoryID] = true
	}

	sc := cfg.Scenarios
	for _, rule := range sc.Decline {
		c.decline(rule)
	}
	for _, rule := range sc.Growth {
		c.growth(rule)
	}
	for _, rule := range sc.Skews {
		c.skew(rule)
	}
	for _, rule := range sc.DeadStock {
		c.deadStock(rule)
	}
	for _, table := range sc.Seasonal {
		c.seasonal(table)
	}
	for _, name := range cfg.Generation.Quantity.PerishableCategories {
		if cat, ok := c.category(name, "perishable categories"); ok {
			c.plan.Perishable[cat.ID] = true
		}
	}

	c.log.Debug().
		Int("decline", len(c.plan.Declines)).
		Int("growth", len(c.plan.Growths)).
		Int("skews", len(c.plan.Skews)).
		Int("dead_stock", len(c.plan.DeadStock)).
		Int("seasonal", len(c.plan.Seasonal)).
		Int("warnings", len(c.plan.Warnings)).
		Msg("scenario plan compiled")

	return c.plan
}

func (c *compiler) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	c.plan.Warnings = append(c.plan.Warnings, msg)
	c.log.Warn().Msg(msg)
}

// markets keeps the ids that exist in the catalog.
func (c *compiler) markets(rule string, ids []int64) []int64 {
	var kept []int64
	for _, id := range ids {
		if !c.cat.HasMarket(id) {
			c.warn("%s: market %d not in catalog, ignored", rule, id)
			continue
		}
		kept = append(kept, id)
	}
	return kept
}

func (c *compiler) category(name, rule string) (catalog.Category, bool) {
	cat, ok := c.cat.CategoryByName(name)
	if !ok {
		c.warn("%s: category %q not in catalog, ignored", rule, name)
	}
	return cat, ok
}

// =============================================================================
// RULE COMPILERS
// =============================================================================

func (c *compiler) decline(rule config.DeclineRule) {
	label := ruleLabel("decline", rule.Name)
	if !c.cat.HasMarket(rule.Market) {
		c.warn("%s: market %d not in catalog, rule skipped", label, rule.Market)
		return
	}
	if _, dup := c.plan.declineByMarket[rule.Market]; dup {
		c.warn("%s: market %d already has a decline rule, rule skipped", label, rule.Market)
		return
	}
	c.plan.declineByMarket[rule.Market] = len(c.plan.Declines)
	c.plan.Declines = append(c.plan.Declines, Decline{
		Name:         rule.Name,
		MarketID:     rule.Market,
		WindowMonths: rule.WindowMonths,
		RatePerMonth: rule.RatePerMonth,
	})
}

func (c *compiler) growth(rule config.GrowthRule) {
	label := ruleLabel("growth", rule.Name)
	ids := c.markets(label, rule.Markets)
	if len(ids) == 0 {
		c.warn("%s: no known markets, rule skipped", label)
		return
	}
	idx := len(c.plan.Growths)
	for _, id := range ids {
		if _, dup := c.plan.growthByMarket[id]; !dup {
			c.plan.growthByMarket[id] = idx
		}
	}
	c.plan.Growths = append(c.plan.Growths, Growth{
		Name:      rule.Name,
		MarketIDs: ids,
		BasketMin: rule.BasketMin,
		BasketMax: rule.BasketMax,
	})
}

func (c *compiler) skew(rule config.SkewRule) {
	label := ruleLabel("skew", rule.Name)
	ids := c.markets(label, rule.Markets)
	if len(ids) == 0 {
		c.warn("%s: no known markets, rule skipped", label)
		return
	}

	skew := Skew{
		Name:             rule.Name,
		MarketIDs:        ids,
		ApplyProbability: rule.ApplyProbability,
		ForceProbability: rule.ForceProbability,
		AvoidCategories:  make(map[int64]bool),
	}
	for _, name := range rule.ForceCategories {
		cat, ok := c.category(name, label)
		if !ok {
			continue
		}
		if !c.withProducts[cat.ID] {
			c.warn("%s: category %q has no products, ignored", label, name)
			continue
		}
		skew.ForceCategories = append(skew.ForceCategories, cat.ID)
	}
	for _, name := range rule.AvoidCategories {
		if cat, ok := c.category(name, label); ok {
			skew.AvoidCategories[cat.ID] = true
		}
	}
	if len(skew.ForceCategories) == 0 && len(skew.AvoidCategories) == 0 {
		c.warn("%s: no usable categories, rule skipped", label)
		return
	}

	idx := len(c.plan.Skews)
	for _, id := range ids {
		if _, dup := c.plan.skewByMarket[id]; !dup {
			c.plan.skewByMarket[id] = idx
		}
	}
	c.plan.Skews = append(c.plan.Skews, skew)
}

func (c *compiler) deadStock(rule config.DeadStockRule) {
	product, ok := c.cat.ProductByRef(rule.Product)
	if !ok {
		c.warn("dead stock: product %q not in catalog, rule skipped", rule.Product)
		return
	}
	if _, dup := c.plan.deadByProduct[product.ID]; dup {
		c.warn("dead stock: product %q already has a rule, rule skipped", rule.Product)
		return
	}
	if !c.cat.HasMarket(rule.HomeMarket) {
		c.warn("dead stock: home market %d of product %q not in catalog, product is suppressed everywhere",
			rule.HomeMarket, rule.Product)
	}
	c.plan.deadByProduct[product.ID] = len(c.plan.DeadStock)
	c.plan.DeadStock = append(c.plan.DeadStock, DeadStock{
		ProductID:         product.ID,
		ProductName:       product.Name,
		HomeMarket:        rule.HomeMarket,
		RerollProbability: rule.RerollProbability,
	})
}

func (c *compiler) seasonal(table config.SeasonalTable) {
	cat, ok := c.category(table.Category, "seasonal")
	if !ok {
		return
	}
	if _, dup := c.plan.seasonByCat[cat.ID]; dup {
		c.warn("seasonal: category %q already has a table, table skipped", table.Category)
		return
	}

	compiled := Seasonal{CategoryID: cat.ID, CategoryName: cat.Name}
	for _, r := range table.Rules {
		rule := SeasonalRule{Multiplier: r.Multiplier}
		for _, m := range r.Months {
			if m >= 1 && m <= 12 {
				rule.Months[m] = true
			}
		}
		rule.Districts = idSet(r.Districts)
		rule.Regions = idSet(r.Regions)
		compiled.Rules = append(compiled.Rules, rule)
	}

	c.plan.seasonByCat[cat.ID] = len(c.plan.Seasonal)
	c.plan.Seasonal = append(c.plan.Seasonal, compiled)
}

func idSet(ids []int64) map[int64]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func ruleLabel(kind, name string) string {
	if name == "" {
		return kind
	}
	return fmt.Sprintf("%s %q", kind, name)
}
