package synth

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/pos-scenario-synth/internal/catalog"
	"github.com/ginjaninja78/pos-scenario-synth/internal/config"
)

// Tier is the demand class of a market.
type Tier int

const (
	TierStandard Tier = iota
	TierRisky
	TierStar
)

func (t Tier) String() string {
	switch t {
	case TierRisky:
		return "risky"
	case TierStar:
		return "star"
	default:
		return "standard"
	}
}

// MarketWeight describes how a market's sampling probability was derived.
type MarketWeight struct {
	Market      catalog.Market
	Tier        Tier
	Opportunity bool

	// Weight is the raw tier weight times the opportunity multiplier.
	Weight float64

	// Probability is Weight normalized over all markets.
	Probability float64
}

// Distribution is a categorical distribution over markets.
type Distribution struct {
	weights    []MarketWeight
	cumulative []float64
}

// AssignWeights partitions markets into tiers, applies opportunity zones and
// normalizes the result. It consumes random draws only for the "random" tier
// order and for opportunity district selection.
func AssignWeights(markets []catalog.Market, tiers config.TierConfig, opp config.OpportunityConfig,
	rng *rand.Rand, log zerolog.Logger) *Distribution {

	n := len(markets)
	weights := make([]MarketWeight, n)
	for i, m := range markets {
		weights[i] = MarketWeight{Market: m, Tier: TierStandard, Weight: tiers.StandardWeight}
	}

	// order[k] is the index of the k-th market from the bottom.
	var order []int
	if tiers.Order == "market_id" {
		order = make([]int, n)
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return markets[order[a]].ID < markets[order[b]].ID })
	} else {
		order = rng.Perm(n)
	}

	riskyN := int(math.Round(tiers.RiskyFraction * float64(n)))
	starN := int(math.Round(tiers.StarFraction * float64(n)))
	if riskyN > n {
		riskyN = n
	}
	if riskyN+starN > n {
		starN = n - riskyN
	}
	for k := 0; k < riskyN; k++ {
		weights[order[k]].Tier = TierRisky
		weights[order[k]].Weight = tiers.RiskyWeight
	}
	for k := n - starN; k < n; k++ {
		weights[order[k]].Tier = TierStar
		weights[order[k]].Weight = tiers.StarWeight
	}

	if opp.Districts > 0 {
		districts := (&catalog.Catalog{Markets: markets}).Districts()
		if len(districts) < opp.Districts {
			log.Warn().
				Int("requested", opp.Districts).
				Int("available", len(districts)).
				Msg("not enough districts for opportunity zones, skipping")
		} else {
			chosen := make(map[int64]bool, opp.Districts)
			for _, i := range rng.Perm(len(districts))[:opp.Districts] {
				chosen[districts[i]] = true
			}
			for i := range weights {
				if chosen[weights[i].Market.District] {
					weights[i].Opportunity = true
					weights[i].Weight *= opp.Multiplier
				}
			}
		}
	}

	return newDistribution(weights)
}

func newDistribution(weights []MarketWeight) *Distribution {
	total := 0.0
	for _, w := range weights {
		total += w.Weight
	}

	d := &Distribution{weights: weights, cumulative: make([]float64, len(weights))}
	running := 0.0
	for i := range weights {
		weights[i].Probability = weights[i].Weight / total
		running += weights[i].Probability
		d.cumulative[i] = running
	}
	return d
}

// Draw returns the index of a market chosen with its probability.
func (d *Distribution) Draw(rng *rand.Rand) int {
	n := len(d.cumulative)
	u := rng.Float64() * d.cumulative[n-1]
	i := sort.Search(n, func(i int) bool { return d.cumulative[i] > u })
	if i >= n {
		i = n - 1
	}
	return i
}

// Weights returns the per-market weights in catalog order.
func (d *Distribution) Weights() []MarketWeight {
	return d.weights
}

// Len returns the number of markets.
func (d *Distribution) Len() int {
	return len(d.weights)
}
