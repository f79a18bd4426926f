package synth

import (
	"math/rand/v2"
	"time"

	"github.com/ginjaninja78/pos-scenario-synth/internal/catalog"
	"github.com/ginjaninja78/pos-scenario-synth/internal/config"
	"github.com/ginjaninja78/pos-scenario-synth/internal/scenario"
)

// monthLength is the month used by the decline overlay.
const monthLength = 30 * 24 * time.Hour

// Slot is one drawn transaction slot.
type Slot struct {
	Market      catalog.Market
	MarketIndex int
	Timestamp   time.Time
}

// Sampler draws markets and timestamps and applies the decline overlay.
type Sampler struct {
	dist  *Distribution
	plan  *scenario.Plan
	start time.Time
	end   time.Time
	days  int
	open  int
	hours int
}

// NewSampler builds a sampler over [StartDate, EndDate) and the business hours.
func NewSampler(dist *Distribution, plan *scenario.Plan, gen config.GenerationConfig) *Sampler {
	days := int(gen.EndDate.Sub(gen.StartDate.Time) / (24 * time.Hour))
	if days < 1 {
		days = 1
	}
	return &Sampler{
		dist:  dist,
		plan:  plan,
		start: gen.StartDate.Time,
		end:   gen.EndDate.Time,
		days:  days,
		open:  gen.BusinessHours.Open,
		hours: gen.BusinessHours.Close - gen.BusinessHours.Open,
	}
}

// Next draws one slot. The second result is false when the decline overlay
// rejected the slot.
func (s *Sampler) Next(rng *rand.Rand) (Slot, bool) {
	idx := s.dist.Draw(rng)
	market := s.dist.weights[idx].Market

	day := rng.IntN(s.days)
	hour := s.open + rng.IntN(s.hours)
	minute := rng.IntN(60)
	ts := s.start.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)

	slot := Slot{Market: market, MarketIndex: idx, Timestamp: ts}

	if rule, ok := s.plan.DeclineFor(market.ID); ok {
		if p := RejectProbability(rule, s.end, ts); p > 0 && rng.Float64() < p {
			return slot, false
		}
	}
	return slot, true
}

// RejectProbability is the chance a decline rule discards a transaction at ts.
// It grows linearly from zero at the window start to
// WindowMonths x RatePerMonth at the end date.
func RejectProbability(rule scenario.Decline, end, ts time.Time) float64 {
	monthsFromNow := float64(end.Sub(ts)) / float64(monthLength)
	if monthsFromNow >= rule.WindowMonths {
		return 0
	}
	if monthsFromNow < 0 {
		monthsFromNow = 0
	}
	return (rule.WindowMonths - monthsFromNow) * rule.RatePerMonth
}
