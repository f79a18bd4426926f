// =============================================================================
// POS Scenario Synthesizer - Shared Types
// =============================================================================
//
// This package contains the output record types shared by the generator, the
// store, the report and the export packages. Keeping them here avoids import
// cycles between those packages.
//
// =============================================================================

package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TRANSACTION TYPES
// =============================================================================

// TransactionHeader is one retained sale.
//
// TotalAmount is always the 2-decimal rounding of the sum of its lines'
// quantity x unit price, and TotalQuantity is the exact sum of the line
// quantities. A header is only ever emitted when TotalQuantity > 0.
type TransactionHeader struct {
	// ID is dense and 1-based over retained transactions.
	ID int64

	// MarketID is the market (branch) the sale happened at.
	MarketID int64

	TotalAmount   decimal.Decimal
	Timestamp     time.Time
	TotalQuantity decimal.Decimal
}

// LineItem is one basket line belonging to a TransactionHeader.
type LineItem struct {
	TransactionID int64
	ProductID     int64

	// Quantity is integral for standard categories and a 2-decimal real for
	// perishable ones.
	Quantity decimal.Decimal

	// UnitPrice is rounded to 2 decimals and never below the price floor.
	UnitPrice decimal.Decimal
}

// Total returns quantity x unit price, unrounded.
func (l LineItem) Total() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// =============================================================================
// DATASET
// =============================================================================

// Dataset is the ordered output of one generation run.
// Lines are grouped by transaction and appear in header order.
type Dataset struct {
	Headers []TransactionHeader
	Lines   []LineItem
}

// Append adds one transaction and its lines to the dataset.
func (d *Dataset) Append(header TransactionHeader, lines []LineItem) {
	d.Headers = append(d.Headers, header)
	d.Lines = append(d.Lines, lines...)
}

// LinesByTransaction groups the dataset's lines by transaction id.
func (d *Dataset) LinesByTransaction() map[int64][]LineItem {
	grouped := make(map[int64][]LineItem, len(d.Headers))
	for _, line := range d.Lines {
		grouped[line.TransactionID] = append(grouped[line.TransactionID], line)
	}
	return grouped
}
