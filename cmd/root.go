// =============================================================================
// POS Scenario Synthesizer - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI and the setup shared by
// every subcommand: configuration loading, logging, the store connection and
// catalog provider selection.
//
// COBRA CLI STRUCTURE:
//   rootCmd (possynth)
//   ├── generateCmd (possynth generate)
//   ├── truncateCmd (possynth truncate)
//   ├── verifyCmd   (possynth verify)
//   ├── pruneCmd    (possynth prune)
//   ├── catalogCmd  (possynth catalog)
//   └── versionCmd  (possynth version)
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pos-scenario-synth/internal/catalog"
	"github.com/ginjaninja78/pos-scenario-synth/internal/config"
	"github.com/ginjaninja78/pos-scenario-synth/internal/logger"
	"github.com/ginjaninja78/pos-scenario-synth/internal/store"
	"github.com/ginjaninja78/pos-scenario-synth/pkg/utils"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging regardless of log.level.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "possynth",
	Short: "POS scenario synthesizer - seeded retail transaction data with planted business scenarios",
	Long: `possynth generates synthetic point-of-sale transactions for a retail chain
and writes them to a relational database. Market weights, a declining branch,
growth branches, category skews, dead stock and seasonal demand are declared
in the configuration file, so analytics pipelines have known patterns to find.

The same seed and configuration always produce the same data.

Example Usage:
  possynth catalog                      # Check the catalog and scenario references
  possynth generate --truncate --report # Replace the tables and print the report
  possynth verify                       # Re-check the stored data
  possynth prune --percent 10           # Delete a random 10% of the sales`,

	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. This is called by main.main(). An interrupt cancels
// the command context, which stops the writer before its next chunk.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file (default is config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// setup loads the configuration and attaches a logger to the command context.
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	if !utils.FileExists(cfgFile) {
		return nil, zerolog.Nop(), fmt.Errorf("%w: config file %s not found", config.ErrInvalid, cfgFile)
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	log := logger.New(level)
	cmd.SetContext(logger.WithContext(cmd.Context(), log))

	log.Debug().Str("config", cfgFile).Uint64("seed", cfg.Seed).Msg("configuration loaded")
	return cfg, log, nil
}

// openStore connects to the configured database.
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	log := logger.FromContext(ctx)
	st, err := store.Open(ctx, cfg.Database, cfg.Output, log)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := st.AutoMigrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
	}
	return st, nil
}

// catalogProvider picks the workbook or the database as catalog source.
// st may be nil when the source is a workbook.
func catalogProvider(cfg *config.Config, st *store.Store) catalog.Provider {
	if cfg.Catalog.Source == "workbook" {
		return catalog.NewWorkbookProvider(cfg.Catalog.Workbook)
	}
	return st.CatalogProvider(cfg.Catalog)
}

// needsStoreForCatalog reports whether loading the catalog requires a
// database connection.
func needsStoreForCatalog(cfg *config.Config) bool {
	return cfg.Catalog.Source != "workbook"
}

// loadCatalog loads and validates the catalog.
func loadCatalog(ctx context.Context, cfg *config.Config, st *store.Store) (*catalog.Catalog, error) {
	cat, err := catalogProvider(cfg, st).LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}
