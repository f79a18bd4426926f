package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var truncateCmd = &cobra.Command{
	Use:   "truncate",
	Short: "Empty the sales and sale line tables",
	Long: `The truncate command removes every row from the output tables, lines first,
with referential checks disabled for the duration. The catalog tables are not
touched.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Truncate(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Truncated %s and %s\n", cfg.Output.LinesTable, cfg.Output.HeadersTable)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(truncateCmd)
}
