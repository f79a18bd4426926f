package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// maxViolations caps the violations printed by WriteText.
const maxViolations = 20

// WriteText renders the report as aligned plain-text tables.
func WriteText(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Transactions:\t%d\n", r.Transactions)
	fmt.Fprintf(tw, "Lines:\t%d\n", r.Lines)
	fmt.Fprintf(tw, "Total amount:\t%s\n", r.TotalAmount.StringFixed(2))

	for _, d := range r.Declines {
		fmt.Fprintf(tw, "\nDecline %q (market %d)\n", d.Rule, d.MarketID)
		fmt.Fprintln(tw, "  month from\tsales")
		for i := len(d.Buckets) - 1; i >= 0; i-- {
			fmt.Fprintf(tw, "  %s\t%d\n", d.Buckets[i].Start.Format(time.DateOnly), d.Buckets[i].Count)
		}
		fmt.Fprintf(tw, "  final/baseline\t%.2f\n", d.FinalRatio())
	}

	if len(r.Growth) > 0 {
		fmt.Fprintln(tw, "\nGrowth markets")
		fmt.Fprintln(tw, "  rule\tgroup\tsales\tavg lines\tavg quantity\tavg amount")
		for _, g := range r.Growth {
			for _, row := range []struct {
				group string
				s     BasketStats
			}{{"growth", g.Growth}, {"others", g.Others}} {
				fmt.Fprintf(tw, "  %s\t%s\t%d\t%.2f\t%.2f\t%.2f\n",
					g.Rule, row.group, row.s.Transactions, row.s.AvgLines, row.s.AvgQuantity, row.s.AvgAmount)
			}
		}
	}

	if len(r.Seasonal) > 0 {
		fmt.Fprintln(tw, "\nSeasonal categories")
		fmt.Fprintln(tw, "  category\tsummer lines\tsummer qty/line\twinter lines\twinter qty/line\tratio")
		for _, s := range r.Seasonal {
			fmt.Fprintf(tw, "  %s\t%d\t%.2f\t%d\t%.2f\t%.2f\n",
				s.CategoryName, s.SummerLines, s.SummerAvgQty, s.WinterLines, s.WinterAvgQty, s.Ratio())
		}
	}

	if len(r.DeadStock) > 0 {
		fmt.Fprintln(tw, "\nDead stock")
		fmt.Fprintln(tw, "  product\thome\thome lines\thome share\taway lines\taway share")
		for _, d := range r.DeadStock {
			fmt.Fprintf(tw, "  %s\t%d\t%d\t%.4f\t%d\t%.4f\n",
				d.ProductName, d.HomeMarket, d.HomeLines, d.HomeShare, d.AwayLines, d.AwayShare)
		}
	}

	if len(r.MarketShares) > 0 {
		fmt.Fprintln(tw, "\nMarket mix")
		fmt.Fprintln(tw, "  market\ttier\topportunity\tsales\tobserved\texpected")
		for _, m := range r.MarketShares {
			tier := m.Tier
			if tier == "" {
				tier = "-"
			}
			fmt.Fprintf(tw, "  %d\t%s\t%t\t%d\t%.4f\t%.4f\n",
				m.MarketID, tier, m.Opportunity, m.Transactions, m.Observed, m.Expected)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	_, err := fmt.Fprintf(w, "\n%s\n", FormatViolations(r.Violations, maxViolations))
	return err
}
