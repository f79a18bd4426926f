package synth

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/pos-scenario-synth/internal/catalog"
	"github.com/ginjaninja78/pos-scenario-synth/internal/config"
	"github.com/ginjaninja78/pos-scenario-synth/internal/scenario"
)

// Line is one composed basket line before it gets a transaction id.
type Line struct {
	ProductID int64
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Composer builds baskets for accepted slots.
type Composer struct {
	plan     *scenario.Plan
	quantity config.QuantityConfig
	events   Observer

	products   []catalog.Product
	basePrices []float64

	// byCategory maps a category id to product indexes; categories lists the
	// ids with at least one product in ascending order.
	byCategory map[int64][]int
	categories []int64

	// regionFactors is indexed like the distribution's markets.
	regionFactors []float64

	sizes      []int
	sizeCumul  []float64
	priceFloor decimal.Decimal
	noise      float64
	floor      float64
}

// NewComposer prepares product indexes, base prices and basket sizes.
// Missing base prices are drawn from rng in ascending product id order.
func NewComposer(cfg *config.Config, cat *catalog.Catalog, dist *Distribution, plan *scenario.Plan,
	rng *rand.Rand, events Observer) *Composer {

	c := &Composer{
		plan:       plan,
		quantity:   cfg.Generation.Quantity,
		events:     events,
		products:   cat.Products,
		basePrices: make([]float64, len(cat.Products)),
		byCategory: make(map[int64][]int),
		priceFloor: decimal.NewFromFloat(cfg.Pricing.Floor).RoundCeil(2),
		noise:      cfg.Pricing.NoiseStddev,
		floor:      cfg.Pricing.Floor,
	}

	pricing := cfg.Pricing
	for i, p := range cat.Products {
		if p.BasePrice != nil && *p.BasePrice > 0 {
			c.basePrices[i] = *p.BasePrice
		} else {
			c.basePrices[i] = pricing.BasePriceMin + rng.Float64()*(pricing.BasePriceMax-pricing.BasePriceMin)
		}
		if _, ok := c.byCategory[p.CategoryID]; !ok {
			c.categories = append(c.categories, p.CategoryID)
		}
		c.byCategory[p.CategoryID] = append(c.byCategory[p.CategoryID], i)
	}
	sort.Slice(c.categories, func(i, j int) bool { return c.categories[i] < c.categories[j] })

	for _, w := range dist.Weights() {
		c.regionFactors = append(c.regionFactors, regionFactor(pricing, w.Market))
	}

	total := 0.0
	for _, bs := range cfg.Generation.BasketSizes {
		total += bs.Weight
		c.sizes = append(c.sizes, bs.Size)
		c.sizeCumul = append(c.sizeCumul, total)
	}
	return c
}

// regionFactor returns the first matching factor, or the default.
func regionFactor(p config.PricingConfig, m catalog.Market) float64 {
	for _, rf := range p.RegionFactors {
		if len(rf.Districts) == 0 && len(rf.Regions) == 0 {
			return rf.Factor
		}
		for _, d := range rf.Districts {
			if d == m.District {
				return rf.Factor
			}
		}
		for _, r := range rf.Regions {
			if m.HasRegion() && r == m.Region {
				return rf.Factor
			}
		}
	}
	return p.DefaultRegionFactor
}

// BasePrice returns the base price used for a product index.
func (c *Composer) BasePrice(i int) float64 {
	return c.basePrices[i]
}

// =============================================================================
// BASKET COMPOSITION
// =============================================================================

// Compose draws a basket for the slot. The result may be empty.
func (c *Composer) Compose(rng *rand.Rand, slot Slot) []Line {
	size := c.basketSize(rng, slot.Market.ID)
	if size <= 0 {
		return nil
	}

	lines := make([]Line, 0, size)
	month := slot.Timestamp.Month()
	for k := 0; k < size; k++ {
		idx := c.pickProduct(rng, slot.Market.ID)
		product := c.products[idx]

		if rule, ok := c.plan.DeadStockFor(product.ID); ok && slot.Market.ID != rule.HomeMarket && len(c.products) > 1 {
			if rng.Float64() < rule.RerollProbability {
				j := rng.IntN(len(c.products) - 1)
				if j >= idx {
					j++
				}
				idx = j
				c.events.DeadStockRerolled(product.ID)
				product = c.products[idx]
			}
		}

		multiplier := c.plan.SeasonalMultiplier(product.CategoryID, month, slot.Market)
		lines = append(lines, Line{
			ProductID: product.ID,
			Quantity:  c.drawQuantity(rng, product.CategoryID, multiplier),
			UnitPrice: c.drawPrice(rng, idx, slot.MarketIndex),
		})
	}
	return lines
}

func (c *Composer) basketSize(rng *rand.Rand, marketID int64) int {
	if g, ok := c.plan.GrowthFor(marketID); ok {
		return g.BasketMin + rng.IntN(g.BasketMax-g.BasketMin+1)
	}
	if len(c.sizes) == 1 {
		return c.sizes[0]
	}
	n := len(c.sizeCumul)
	u := rng.Float64() * c.sizeCumul[n-1]
	i := sort.Search(n, func(i int) bool { return c.sizeCumul[i] > u })
	if i >= n {
		i = n - 1
	}
	return c.sizes[i]
}

// pickProduct applies the market's skew rule, falling back to a uniform
// draw over the whole catalog.
func (c *Composer) pickProduct(rng *rand.Rand, marketID int64) int {
	skew, ok := c.plan.SkewFor(marketID)
	if !ok || rng.Float64() >= skew.ApplyProbability {
		return rng.IntN(len(c.products))
	}

	if len(skew.ForceCategories) > 0 && rng.Float64() < skew.ForceProbability {
		cat := skew.ForceCategories[rng.IntN(len(skew.ForceCategories))]
		if members := c.byCategory[cat]; len(members) > 0 {
			c.events.SkewApplied(skew.Name)
			return members[rng.IntN(len(members))]
		}
	} else if len(skew.AvoidCategories) > 0 {
		allowed := make([]int64, 0, len(c.categories))
		for _, cat := range c.categories {
			if !skew.AvoidCategories[cat] {
				allowed = append(allowed, cat)
			}
		}
		if len(allowed) > 0 {
			members := c.byCategory[allowed[rng.IntN(len(allowed))]]
			c.events.SkewApplied(skew.Name)
			return members[rng.IntN(len(members))]
		}
	}
	return rng.IntN(len(c.products))
}

// drawQuantity draws a line quantity under the seasonal multiplier.
func (c *Composer) drawQuantity(rng *rand.Rand, categoryID int64, multiplier float64) decimal.Decimal {
	q := c.quantity
	boom := multiplier > q.BoomThreshold

	if c.plan.Perishable[categoryID] {
		var v float64
		switch {
		case boom:
			v = float64(q.BoomMin) + rng.Float64()*float64(q.BoomMax-q.BoomMin)
		default:
			v = q.PerishableMin + rng.Float64()*(q.PerishableMax-q.PerishableMin)
			if multiplier < 1 {
				v = math.Max(v*multiplier, q.PerishableMin)
			}
		}
		d := decimal.NewFromFloat(v).Round(2)
		if !d.IsPositive() {
			d = decimal.New(1, -2)
		}
		return d
	}

	if boom {
		return decimal.NewFromInt(int64(q.BoomMin + rng.IntN(q.BoomMax-q.BoomMin+1)))
	}
	n := q.Min + rng.IntN(q.Max-q.Min+1)
	if multiplier < 1 {
		n = int(math.Floor(float64(n) * multiplier))
		if n < 1 {
			n = 1
		}
	}
	return decimal.NewFromInt(int64(n))
}

// drawPrice applies regional factor and gaussian noise, rounds to cents and
// clamps to the floor.
func (c *Composer) drawPrice(rng *rand.Rand, productIdx, marketIdx int) decimal.Decimal {
	price := c.basePrices[productIdx] * c.regionFactors[marketIdx] * (1 + c.noise*rng.NormFloat64())
	if math.IsNaN(price) || price < c.floor {
		price = c.floor
	}
	d := decimal.NewFromFloat(price).Round(2)
	if d.LessThan(c.priceFloor) {
		d = c.priceFloor
	}
	return d
}
