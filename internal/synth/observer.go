package synth

import "github.com/ginjaninja78/pos-scenario-synth/internal/types"

// Observer receives generation events. Implementations must be cheap; they
// are called on the hot path.
type Observer interface {
	SlotDrawn(marketID int64)
	SlotDeclined(marketID int64)
	BasketEmpty(marketID int64)
	TransactionRetained(header types.TransactionHeader, lines int)
	SkewApplied(rule string)
	DeadStockRerolled(productID int64)
}

// Stats summarizes one generation run.
type Stats struct {
	Requested        int
	Declined         int
	Empty            int
	Retained         int
	Lines            int
	DeadStockRerolls int
	SkewsApplied     map[string]int
	MarketDraws      map[int64]int
}

func newStats() *Stats {
	return &Stats{
		SkewsApplied: make(map[string]int),
		MarketDraws:  make(map[int64]int),
	}
}

func (s *Stats) SlotDrawn(marketID int64) {
	s.Requested++
	s.MarketDraws[marketID]++
}

func (s *Stats) SlotDeclined(int64) { s.Declined++ }

func (s *Stats) BasketEmpty(int64) { s.Empty++ }

func (s *Stats) TransactionRetained(_ types.TransactionHeader, lines int) {
	s.Retained++
	s.Lines += lines
}

func (s *Stats) SkewApplied(rule string) { s.SkewsApplied[rule]++ }

func (s *Stats) DeadStockRerolled(int64) { s.DeadStockRerolls++ }

// observers fans events out to several observers.
type observers []Observer

func (o observers) SlotDrawn(marketID int64) {
	for _, x := range o {
		x.SlotDrawn(marketID)
	}
}

func (o observers) SlotDeclined(marketID int64) {
	for _, x := range o {
		x.SlotDeclined(marketID)
	}
}

func (o observers) BasketEmpty(marketID int64) {
	for _, x := range o {
		x.BasketEmpty(marketID)
	}
}

func (o observers) TransactionRetained(header types.TransactionHeader, lines int) {
	for _, x := range o {
		x.TransactionRetained(header, lines)
	}
}

func (o observers) SkewApplied(rule string) {
	for _, x := range o {
		x.SkewApplied(rule)
	}
}

func (o observers) DeadStockRerolled(productID int64) {
	for _, x := range o {
		x.DeadStockRerolled(productID)
	}
}
