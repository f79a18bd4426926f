package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/pos-scenario-synth/internal/types"
)

func kinds(vs []Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Kind
	}
	return out
}

func TestCheckIntegrity_Clean(t *testing.T) {
	assert.Empty(t, CheckIntegrity(reportDataset(), decimal.RequireFromString("0.50")))
}

func TestCheckIntegrity_Violations(t *testing.T) {
	ts := time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)
	one := decimal.NewFromInt(1)

	tests := []struct {
		name   string
		mutate func(ds *types.Dataset)
		want   []string
	}{
		{
			name:   "amount mismatch",
			mutate: func(ds *types.Dataset) { ds.Headers[0].TotalAmount = decimal.RequireFromString("9.99") },
			want:   []string{KindAmount},
		},
		{
			name:   "quantity mismatch",
			mutate: func(ds *types.Dataset) { ds.Headers[1].TotalQuantity = decimal.NewFromInt(5) },
			want:   []string{KindQuantity},
		},
		{
			name: "id gap",
			mutate: func(ds *types.Dataset) {
				ds.Headers[1].ID = 3
				ds.Lines[1].TransactionID = 3
			},
			want: []string{KindIDGap},
		},
		{
			name:   "orphan line",
			mutate: func(ds *types.Dataset) { ds.Lines = append(ds.Lines, types.LineItem{TransactionID: 9, ProductID: 1, Quantity: one, UnitPrice: one}) },
			want:   []string{KindOrphanLine},
		},
		{
			name: "header without lines",
			mutate: func(ds *types.Dataset) {
				ds.Headers = append(ds.Headers, types.TransactionHeader{ID: 3, MarketID: 1, Timestamp: ts})
			},
			want: []string{KindNoLines, KindZeroQuantity},
		},
		{
			name:   "price floor",
			mutate: func(ds *types.Dataset) { ds.Lines[0].UnitPrice = decimal.RequireFromString("0.40") },
			want:   []string{KindPriceFloor, KindAmount},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b builder
			b.add(1, ts, [2]int64{1, 2})
			b.add(2, ts, [2]int64{2, 1})
			tt.mutate(&b.ds)

			got := CheckIntegrity(&b.ds, decimal.RequireFromString("0.50"))
			assert.Equal(t, tt.want, kinds(got))
		})
	}
}

func TestFormatViolations(t *testing.T) {
	assert.Equal(t, "No integrity violations.", FormatViolations(nil, 5))

	vs := []Violation{
		{KindAmount, 1, "a"},
		{KindQuantity, 2, "b"},
		{KindIDGap, 4, "c"},
	}
	out := FormatViolations(vs, 2)
	require.Contains(t, out, "3 integrity violation(s):")
	assert.Contains(t, out, "[AMOUNT] transaction 1: a")
	assert.Contains(t, out, "[QUANTITY] transaction 2: b")
	assert.NotContains(t, out, "[ID-GAP]")
	assert.Contains(t, out, "... and 1 more")

	assert.Contains(t, FormatViolations(vs, 0), "[ID-GAP] transaction 4: c")
}
