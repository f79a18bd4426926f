package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/pos-scenario-synth/internal/types"
)

// Violation kinds reported by CheckIntegrity.
const (
	KindAmount       = "amount"
	KindQuantity     = "quantity"
	KindZeroQuantity = "zero-quantity"
	KindNoLines      = "no-lines"
	KindOrphanLine   = "orphan-line"
	KindIDGap        = "id-gap"
	KindNegative     = "negative"
	KindPriceFloor   = "price-floor"
)

// Violation is one broken dataset invariant.
type Violation struct {
	Kind          string
	TransactionID int64
	Message       string
}

// Error implements the error interface.
func (v Violation) Error() string {
	return fmt.Sprintf("[%s] transaction %d: %s", strings.ToUpper(v.Kind), v.TransactionID, v.Message)
}

// CheckIntegrity verifies the header/line invariants of a dataset:
// totals match their lines, quantities are positive, every line has a
// header, and ids run 1..N without gaps. Prices below floor are reported
// when floor is positive.
func CheckIntegrity(ds *types.Dataset, floor decimal.Decimal) []Violation {
	var out []Violation
	byTxn := ds.LinesByTransaction()
	known := make(map[int64]bool, len(ds.Headers))

	for i, h := range ds.Headers {
		known[h.ID] = true
		if want := int64(i + 1); h.ID != want {
			out = append(out, Violation{KindIDGap, h.ID, fmt.Sprintf("expected id %d at position %d", want, i+1)})
		}

		lines := byTxn[h.ID]
		if len(lines) == 0 {
			out = append(out, Violation{KindNoLines, h.ID, "header has no lines"})
		}

		amount, qty := decimal.Zero, decimal.Zero
		for _, l := range lines {
			amount = amount.Add(l.Total())
			qty = qty.Add(l.Quantity)
			if l.Quantity.IsNegative() || l.UnitPrice.IsNegative() {
				out = append(out, Violation{KindNegative, h.ID,
					fmt.Sprintf("product %d has quantity %s and price %s", l.ProductID, l.Quantity, l.UnitPrice)})
			}
			if floor.IsPositive() && l.UnitPrice.LessThan(floor) {
				out = append(out, Violation{KindPriceFloor, h.ID,
					fmt.Sprintf("product %d price %s below floor %s", l.ProductID, l.UnitPrice, floor)})
			}
		}

		if want := amount.Round(2); !h.TotalAmount.Equal(want) {
			out = append(out, Violation{KindAmount, h.ID,
				fmt.Sprintf("total_amount %s, lines sum to %s", h.TotalAmount, want)})
		}
		if !h.TotalQuantity.Equal(qty) {
			out = append(out, Violation{KindQuantity, h.ID,
				fmt.Sprintf("total_quantity %s, lines sum to %s", h.TotalQuantity, qty)})
		}
		if !h.TotalQuantity.IsPositive() {
			out = append(out, Violation{KindZeroQuantity, h.ID,
				fmt.Sprintf("total_quantity is %s", h.TotalQuantity)})
		}
	}

	seen := make(map[int64]bool)
	for _, l := range ds.Lines {
		if !known[l.TransactionID] && !seen[l.TransactionID] {
			seen[l.TransactionID] = true
			out = append(out, Violation{KindOrphanLine, l.TransactionID, "line references a missing header"})
		}
	}
	return out
}

// FormatViolations renders at most limit violations, one per line.
// A non-positive limit prints all of them.
func FormatViolations(violations []Violation, limit int) string {
	if len(violations) == 0 {
		return "No integrity violations."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d integrity violation(s):\n", len(violations))
	for i, v := range violations {
		if limit > 0 && i >= limit {
			fmt.Fprintf(&sb, "  ... and %d more\n", len(violations)-limit)
			break
		}
		fmt.Fprintf(&sb, "  %s\n", v.Error())
	}
	return sb.String()
}
