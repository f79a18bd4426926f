package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/pos-scenario-synth/internal/report"
)

// Sheet names of a report workbook.
const (
	SummarySheet    = "summary"
	DeclineSheet    = "decline"
	GrowthSheet     = "growth"
	SeasonalSheet   = "seasonal"
	DeadStockSheet  = "dead_stock"
	MarketsSheet    = "markets"
	ViolationsSheet = "violations"
)

type sheet struct {
	name string
	rows [][]interface{}
}

// WriteReport writes one sheet per report section to a new workbook.
func WriteReport(path string, r *report.Report) error {
	sheets := []sheet{
		{SummarySheet, [][]interface{}{
			{"metric", "value"},
			{"transactions", r.Transactions},
			{"lines", r.Lines},
			{"total_amount", r.TotalAmount.InexactFloat64()},
			{"violations", len(r.Violations)},
		}},
		{DeclineSheet, declineRows(r)},
		{GrowthSheet, growthRows(r)},
		{SeasonalSheet, seasonalRows(r)},
		{DeadStockSheet, deadStockRows(r)},
		{MarketsSheet, marketRows(r)},
		{ViolationsSheet, violationRows(r)},
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				return fmt.Errorf("failed to name sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", s.name, err)
		}

		for j, row := range s.rows {
			cell, _ := excelize.CoordinatesToCellName(1, j+1)
			if err := f.SetSheetRow(s.name, cell, &row); err != nil {
				return fmt.Errorf("sheet %q row %d: %w", s.name, j+1, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func declineRows(r *report.Report) [][]interface{} {
	rows := [][]interface{}{{"rule", "market_id", "bucket_start", "sales"}}
	for _, d := range r.Declines {
		for i := len(d.Buckets) - 1; i >= 0; i-- {
			rows = append(rows, []interface{}{d.Rule, d.MarketID, d.Buckets[i].Start.Format(time.DateOnly), d.Buckets[i].Count})
		}
	}
	return rows
}

func growthRows(r *report.Report) [][]interface{} {
	rows := [][]interface{}{{"rule", "group", "sales", "avg_lines", "avg_quantity", "avg_amount"}}
	for _, g := range r.Growth {
		rows = append(rows,
			[]interface{}{g.Rule, "growth", g.Growth.Transactions, g.Growth.AvgLines, g.Growth.AvgQuantity, g.Growth.AvgAmount},
			[]interface{}{g.Rule, "others", g.Others.Transactions, g.Others.AvgLines, g.Others.AvgQuantity, g.Others.AvgAmount},
		)
	}
	return rows
}

func seasonalRows(r *report.Report) [][]interface{} {
	rows := [][]interface{}{{"category_id", "category", "summer_lines", "summer_avg_qty", "winter_lines", "winter_avg_qty", "ratio"}}
	for _, s := range r.Seasonal {
		rows = append(rows, []interface{}{
			s.CategoryID, s.CategoryName, s.SummerLines, s.SummerAvgQty, s.WinterLines, s.WinterAvgQty, s.Ratio(),
		})
	}
	return rows
}

func deadStockRows(r *report.Report) [][]interface{} {
	rows := [][]interface{}{{"product_id", "product", "home_market", "home_lines", "home_share", "away_lines", "away_share"}}
	for _, d := range r.DeadStock {
		rows = append(rows, []interface{}{
			d.ProductID, d.ProductName, d.HomeMarket, d.HomeLines, d.HomeShare, d.AwayLines, d.AwayShare,
		})
	}
	return rows
}

func marketRows(r *report.Report) [][]interface{} {
	rows := [][]interface{}{{"market_id", "tier", "opportunity", "sales", "observed", "expected"}}
	for _, m := range r.MarketShares {
		rows = append(rows, []interface{}{m.MarketID, m.Tier, m.Opportunity, m.Transactions, m.Observed, m.Expected})
	}
	return rows
}

func violationRows(r *report.Report) [][]interface{} {
	rows := [][]interface{}{{"kind", "sale_id", "message"}}
	for _, v := range r.Violations {
		rows = append(rows, []interface{}{v.Kind, v.TransactionID, v.Message})
	}
	return rows
}
