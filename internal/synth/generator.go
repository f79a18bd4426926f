// =============================================================================
// POS Scenario Synthesizer - Generation Engine
// =============================================================================
//
// This module turns a catalog and a compiled scenario plan into a stream of
// sale headers and line items.
//
// GENERATION PIPELINE (per slot):
//   1. Draw a market from the weighted distribution
//   2. Draw a timestamp inside the window and business hours
//   3. Apply the decline overlay (the slot may be rejected)
//   4. Compose the basket: size, products, quantities, prices
//   5. Roll the lines up into a header with the next dense id
//
// DETERMINISM:
//   All randomness comes from one generator seeded from the configuration.
//   Catalog slices are sorted before use and no step iterates a map, so a
//   seed and a configuration fully determine the output.
//
// =============================================================================

package synth

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/pos-scenario-synth/internal/catalog"
	"github.com/ginjaninja78/pos-scenario-synth/internal/config"
	"github.com/ginjaninja78/pos-scenario-synth/internal/scenario"
	"github.com/ginjaninja78/pos-scenario-synth/internal/types"
)

// seedStream is mixed into the second PCG word.
const seedStream = 0x9e3779b97f4a7c15

// ErrStop can be returned from an Each callback to end generation early
// without an error.
var ErrStop = errors.New("stop generation")

// =============================================================================
// GENERATOR STRUCTURE
// =============================================================================

// Generator produces transactions for one run. It is not safe for
// concurrent use.
type Generator struct {
	cfg  *config.Config
	plan *scenario.Plan
	log  zerolog.Logger

	rng      *rand.Rand
	dist     *Distribution
	sampler  *Sampler
	composer *Composer
	acc      Accumulator

	stats    *Stats
	events   observers
	external []Observer
}

// Option customizes a Generator.
type Option func(*Generator)

// WithObserver registers an observer for generation events.
func WithObserver(o Observer) Option {
	return func(g *Generator) {
		g.external = append(g.external, o)
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(g *Generator) {
		g.log = log
	}
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New builds a generator. The catalog must be normalized; an empty catalog
// is a configuration error.
func New(cfg *config.Config, cat *catalog.Catalog, plan *scenario.Plan, opts ...Option) (*Generator, error) {
	if err := cat.Validate(); err != nil {
		return nil, err
	}

	g := &Generator{
		cfg:   cfg,
		plan:  plan,
		log:   zerolog.Nop(),
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^seedStream)),
		stats: newStats(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.events = append(observers{g.stats}, g.external...)

	g.dist = AssignWeights(cat.Markets, cfg.Tiers, cfg.Opportunity, g.rng, g.log)
	g.sampler = NewSampler(g.dist, plan, cfg.Generation)
	g.composer = NewComposer(cfg, cat, g.dist, plan, g.rng, g.events)

	if g.log.GetLevel() <= zerolog.DebugLevel {
		for _, w := range g.dist.Weights() {
			g.log.Debug().
				Int64("market_id", w.Market.ID).
				Str("tier", w.Tier.String()).
				Bool("opportunity", w.Opportunity).
				Float64("probability", w.Probability).
				Msg("market weight")
		}
	}
	return g, nil
}

// =============================================================================
// GENERATION
// =============================================================================

// Each draws n slots and calls fn for every retained transaction in order.
// Generation stops at the first error from fn; ErrStop stops it silently.
func (g *Generator) Each(n int, fn func(types.TransactionHeader, []types.LineItem) error) error {
	for i := 0; i < n; i++ {
		slot, ok := g.sampler.Next(g.rng)
		g.events.SlotDrawn(slot.Market.ID)
		if !ok {
			g.events.SlotDeclined(slot.Market.ID)
			continue
		}

		lines := g.composer.Compose(g.rng, slot)
		header, items, ok := g.acc.Accept(slot, lines)
		if !ok {
			g.events.BasketEmpty(slot.Market.ID)
			continue
		}
		g.events.TransactionRetained(header, len(items))

		if err := fn(header, items); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return fmt.Errorf("transaction %d: %w", header.ID, err)
		}
	}

	g.log.Info().
		Int("requested", g.stats.Requested).
		Int("retained", g.stats.Retained).
		Int("declined", g.stats.Declined).
		Int("empty", g.stats.Empty).
		Int("lines", g.stats.Lines).
		Msg("generation finished")
	return nil
}

// Run draws n slots and collects the retained transactions.
func (g *Generator) Run(n int) (*types.Dataset, error) {
	ds := &types.Dataset{}
	err := g.Each(n, func(h types.TransactionHeader, lines []types.LineItem) error {
		ds.Append(h, lines)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// Stats returns the counters of the run so far.
func (g *Generator) Stats() Stats {
	return *g.stats
}

// Weights returns the market weights of the run.
func (g *Generator) Weights() []MarketWeight {
	return g.dist.Weights()
}

// BasePrice returns the base price used for a product, synthesized or not.
func (g *Generator) BasePrice(productID int64) (float64, bool) {
	for i, p := range g.composer.products {
		if p.ID == productID {
			return g.composer.BasePrice(i), true
		}
	}
	return 0, false
}
