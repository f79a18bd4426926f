package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pos-scenario-synth/internal/scenario"
	"github.com/ginjaninja78/pos-scenario-synth/internal/store"
	"github.com/ginjaninja78/pos-scenario-synth/internal/synth"
)

var catalogWeights bool

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Load the catalog and check the scenario references",
	Long: `The catalog command loads markets, products and categories from the
configured source, prints what it found and resolves every scenario rule
against it. Rules that would be dropped at generation time are listed.

With --weights it also prints the market tiers and probabilities the
configured seed produces.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		var st *store.Store
		if needsStoreForCatalog(cfg) {
			if st, err = openStore(ctx, cfg); err != nil {
				return err
			}
			defer st.Close()
		}

		cat, err := loadCatalog(ctx, cfg, st)
		if err != nil {
			return err
		}
		plan := scenario.Compile(cfg, cat, log)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		s := cat.Summarize()
		fmt.Fprintf(tw, "Markets:\t%d\t(%d districts)\n", s.Markets, s.Districts)
		fmt.Fprintf(tw, "Products:\t%d\t(%d priced, %d uncategorized)\n", s.Products, s.PricedProducts, s.UncategorizedProds)
		fmt.Fprintf(tw, "Categories:\t%d\n", s.Categories)

		names := make([]string, 0, len(s.ProductsPerCat))
		for name := range s.ProductsPerCat {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(tw, "  %s\t%d\n", name, s.ProductsPerCat[name])
		}

		fmt.Fprintf(tw, "\nScenario rules:\t%d decline, %d growth, %d skew, %d dead stock, %d seasonal\n",
			len(plan.Declines), len(plan.Growths), len(plan.Skews), len(plan.DeadStock), len(plan.Seasonal))

		if catalogWeights {
			gen, err := synth.New(cfg, cat, plan)
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "\nmarket\tdistrict\tregion\ttier\topportunity\tprobability")
			for _, w := range gen.Weights() {
				fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%t\t%.4f\n",
					w.Market.ID, w.Market.District, w.Market.Region, w.Tier, w.Opportunity, w.Probability)
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if len(plan.Warnings) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "\nAll scenario references resolved.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d scenario warning(s):\n", len(plan.Warnings))
		for _, w := range plan.Warnings {
			fmt.Fprintf(cmd.OutOrStdout(), "  ! %s\n", w)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.Flags().BoolVar(&catalogWeights, "weights", false, "Print the market weights of the configured seed")
}
