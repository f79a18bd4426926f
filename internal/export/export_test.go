package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/pos-scenario-synth/internal/report"
	"github.com/ginjaninja78/pos-scenario-synth/internal/types"
)

func sampleDataset() *types.Dataset {
	ds := &types.Dataset{}
	ts := time.Date(2024, time.August, 3, 14, 25, 0, 0, time.UTC)
	for i := int64(1); i <= 3; i++ {
		lines := []types.LineItem{
			{TransactionID: i, ProductID: 4, Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("12.49")},
			{TransactionID: i, ProductID: 1, Quantity: decimal.RequireFromString("1.35"), UnitPrice: decimal.RequireFromString("4.20")},
		}
		ds.Append(types.TransactionHeader{
			ID:            i,
			MarketID:      i + 10,
			TotalAmount:   decimal.RequireFromString("43.14"),
			Timestamp:     ts.Add(time.Duration(i) * time.Minute),
			TotalQuantity: decimal.RequireFromString("4.35"),
		}, lines)
	}
	return ds
}

func TestDataset_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.xlsx")
	want := sampleDataset()
	require.NoError(t, WriteDataset(path, want))

	got, err := ReadDataset(path)
	require.NoError(t, err)
	require.Len(t, got.Headers, 3)
	require.Len(t, got.Lines, 6)

	for i, h := range got.Headers {
		w := want.Headers[i]
		assert.Equal(t, w.ID, h.ID)
		assert.Equal(t, w.MarketID, h.MarketID)
		assert.True(t, w.TotalAmount.Equal(h.TotalAmount), "amount %s", h.TotalAmount)
		assert.True(t, w.TotalQuantity.Equal(h.TotalQuantity), "quantity %s", h.TotalQuantity)
		assert.True(t, w.Timestamp.Equal(h.Timestamp))
	}
	for i, l := range got.Lines {
		w := want.Lines[i]
		assert.Equal(t, w.TransactionID, l.TransactionID)
		assert.Equal(t, w.ProductID, l.ProductID)
		assert.True(t, w.Quantity.Equal(l.Quantity))
		assert.True(t, w.UnitPrice.Equal(l.UnitPrice))
	}
}

func TestReadDataset_Errors(t *testing.T) {
	_, err := ReadDataset(filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", HeadersSheet))
	require.NoError(t, f.SetSheetRow(HeadersSheet, "A1", &headerColumns))
	require.NoError(t, f.SetSheetRow(HeadersSheet, "A2", &[]interface{}{"x", 1, 1.5, "2024-01-01 10:00:00", 1}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err = ReadDataset(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "sale_id"`)
}

func TestWriteReport(t *testing.T) {
	r := &report.Report{
		Transactions: 10,
		Lines:        25,
		TotalAmount:  decimal.RequireFromString("512.40"),
		Declines: []report.DeclineTrend{{
			Rule: "fading", MarketID: 7,
			Buckets: []report.Bucket{
				{Start: time.Date(2024, time.December, 2, 0, 0, 0, 0, time.UTC), Count: 1},
				{Start: time.Date(2024, time.November, 2, 0, 0, 0, 0, time.UTC), Count: 3},
			},
		}},
		MarketShares: []report.MarketShare{{MarketID: 7, Tier: "risky", Transactions: 10, Observed: 1}},
		Violations:   []report.Violation{{Kind: report.KindIDGap, TransactionID: 4, Message: "gap"}},
	}

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteReport(path, r))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		SummarySheet, DeclineSheet, GrowthSheet, SeasonalSheet, DeadStockSheet, MarketsSheet, ViolationsSheet,
	}, f.GetSheetList())

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"transactions", "10"}, summary[1])

	decline, err := f.GetRows(DeclineSheet)
	require.NoError(t, err)
	require.Len(t, decline, 3)
	assert.Equal(t, []string{"fading", "7", "2024-11-02", "3"}, decline[1])

	violations, err := f.GetRows(ViolationsSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"id-gap", "4", "gap"}, violations[1])
}
