package cmd

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pos-scenario-synth/internal/config"
)

// pruneStream separates the prune draw from the generation stream of the
// same seed.
const pruneStream = 0x5851f42d4c957f2d

var (
	prunePercent float64
	pruneSeed    uint64
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete a random percentage of the stored sales",
	Long: `The prune command deletes a random share of the stored sales together with
their lines, in one database transaction. The choice is driven by the
configured seed, so the same seed prunes the same sales of the same data.

Pruned ids leave gaps, which verify reports as id-gap violations.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		if prunePercent <= 0 || prunePercent > 100 {
			return fmt.Errorf("%w: --percent must be in (0, 100]", config.ErrInvalid)
		}

		cfg, _, err := setup(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = pruneSeed
		}
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		rng := rand.New(rand.NewPCG(cfg.Seed, pruneStream))
		res, err := st.Prune(ctx, prunePercent, rng)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d sales and %d lines\n", res.Headers, res.Lines)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().Float64Var(&prunePercent, "percent", 0, "Percentage of sales to delete")
	pruneCmd.Flags().Uint64Var(&pruneSeed, "seed", 0, "Seed for the deletion draw (default from config)")
	pruneCmd.MarkFlagRequired("percent")
}
