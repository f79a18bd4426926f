package synth

import (
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/pos-scenario-synth/internal/types"
)

// Accumulator turns composed baskets into headers with dense ids.
type Accumulator struct {
	lastID int64
}

// Accept rolls the lines up into a header. Baskets whose total quantity is
// not positive are discarded and consume no id.
func (a *Accumulator) Accept(slot Slot, lines []Line) (types.TransactionHeader, []types.LineItem, bool) {
	amount := decimal.Zero
	quantity := decimal.Zero
	for _, l := range lines {
		amount = amount.Add(l.Quantity.Mul(l.UnitPrice))
		quantity = quantity.Add(l.Quantity)
	}
	if !quantity.IsPositive() {
		return types.TransactionHeader{}, nil, false
	}

	a.lastID++
	header := types.TransactionHeader{
		ID:            a.lastID,
		MarketID:      slot.Market.ID,
		TotalAmount:   amount.Round(2),
		Timestamp:     slot.Timestamp,
		TotalQuantity: quantity,
	}

	items := make([]types.LineItem, len(lines))
	for i, l := range lines {
		items[i] = types.LineItem{
			TransactionID: header.ID,
			ProductID:     l.ProductID,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice,
		}
	}
	return header, items, true
}

// LastID returns the id of the most recently retained transaction.
func (a *Accumulator) LastID() int64 {
	return a.lastID
}
