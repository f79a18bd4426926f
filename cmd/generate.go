// =============================================================================
// POS Scenario Synthesizer - Generate Command
// =============================================================================
//
// This file defines the 'generate' command, the main command of the tool. It
// orchestrates the whole run.
//
// COMMAND USAGE:
//   possynth generate [flags]
//
// FLAGS:
//   --count     : Number of transaction slots to draw (overrides the config)
//   --seed      : Run seed (overrides the config)
//   --truncate  : Empty the output tables before writing
//   --dry-run   : Generate without writing to the database
//   --report    : Print the scenario report and save it as a workbook
//   --export    : Also write the dataset to this .xlsx file
//
// PIPELINE:
//   1. Load configuration, connect, load the catalog
//   2. Compile the scenario rules against the catalog
//   3. Generate the dataset
//   4. Truncate (optional) and write in chunks
//   5. Report, export, run summary and metrics
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pos-scenario-synth/internal/config"
	"github.com/ginjaninja78/pos-scenario-synth/internal/export"
	"github.com/ginjaninja78/pos-scenario-synth/internal/logger"
	"github.com/ginjaninja78/pos-scenario-synth/internal/metrics"
	"github.com/ginjaninja78/pos-scenario-synth/internal/report"
	"github.com/ginjaninja78/pos-scenario-synth/internal/scenario"
	"github.com/ginjaninja78/pos-scenario-synth/internal/store"
	"github.com/ginjaninja78/pos-scenario-synth/internal/synth"
	"github.com/ginjaninja78/pos-scenario-synth/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	genCount    int
	genSeed     uint64
	genTruncate bool
	genDryRun   bool
	genReport   bool
	genExport   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate transactions and write them to the database",
	Long: `The generate command draws the configured number of transaction slots,
applies every scenario rule and writes the retained sales and their lines to
the output tables in chunks of output.chunk_size rows.

Generated ids start at 1. The command refuses to write into non-empty tables
unless --truncate is given.

Each chunk is committed on its own. If a chunk fails, the run stops and the
chunks already committed stay in place.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().IntVar(&genCount, "count", 0, "Number of transaction slots to draw (default from config)")
	generateCmd.Flags().Uint64Var(&genSeed, "seed", 0, "Run seed (default from config)")
	generateCmd.Flags().BoolVar(&genTruncate, "truncate", false, "Empty the output tables before writing")
	generateCmd.Flags().BoolVar(&genDryRun, "dry-run", false, "Generate without writing to the database")
	generateCmd.Flags().BoolVar(&genReport, "report", false, "Print the scenario report and save it as a workbook")
	generateCmd.Flags().StringVar(&genExport, "export", "", "Also write the dataset to this .xlsx file")
}

// =============================================================================
// MAIN GENERATION FUNCTION
// =============================================================================

func runGenerate(cmd *cobra.Command) error {
	startTime := time.Now()

	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("count") {
		if genCount <= 0 {
			return fmt.Errorf("%w: --count must be positive", config.ErrInvalid)
		}
		cfg.Generation.Transactions = genCount
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = genSeed
	}

	runID := uuid.NewString()
	log = logger.WithRun(log, runID, cfg.Seed)
	ctx := logger.WithContext(cmd.Context(), log)

	m := metrics.New()
	m.SetRunInfo(runID, cfg.Seed)
	phase := func(name string, since time.Time) {
		d := time.Since(since)
		m.ObservePhase(name, d)
		log.Debug().Str("phase", name).Dur("took", d).Msg("phase finished")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== POS Scenario Synthesizer ===")

	// =========================================================================
	// STEP 1: CONNECT AND LOAD THE CATALOG
	// =========================================================================

	var st *store.Store
	if !genDryRun || needsStoreForCatalog(cfg) {
		if st, err = openStore(ctx, cfg); err != nil {
			return err
		}
		defer st.Close()
	}

	if !genDryRun && !genTruncate {
		if err := st.EnsureEmpty(ctx); err != nil {
			return fmt.Errorf("%w (use --truncate to replace them)", err)
		}
	}

	t := time.Now()
	cat, err := loadCatalog(ctx, cfg, st)
	if err != nil {
		return err
	}
	phase("catalog", t)
	fmt.Fprintf(out, "Catalog: %d markets, %d products, %d categories\n",
		len(cat.Markets), len(cat.Products), len(cat.Categories))

	// =========================================================================
	// STEP 2: COMPILE SCENARIOS
	// =========================================================================

	plan := scenario.Compile(cfg, cat, log)
	for _, w := range plan.Warnings {
		fmt.Fprintf(out, "  ! %s\n", w)
	}

	// =========================================================================
	// STEP 3: GENERATE
	// =========================================================================

	t = time.Now()
	gen, err := synth.New(cfg, cat, plan, synth.WithObserver(m), synth.WithLogger(log))
	if err != nil {
		return err
	}
	ds, err := gen.Run(cfg.Generation.Transactions)
	if err != nil {
		return err
	}
	phase("generate", t)
	stats := gen.Stats()
	fmt.Fprintf(out, "Generated %d sales with %d lines from %d slots\n", stats.Retained, stats.Lines, stats.Requested)

	// =========================================================================
	// STEP 4: WRITE
	// =========================================================================

	var written store.WriteResult
	if genDryRun {
		fmt.Fprintln(out, "Dry run: nothing written to the database")
	} else {
		if genTruncate {
			t = time.Now()
			if err := st.Truncate(ctx); err != nil {
				return err
			}
			phase("truncate", t)
		}

		t = time.Now()
		w := st.Writer()
		w.OnChunk = m.ChunkWritten
		written, err = w.Write(ctx, ds)
		phase("write", t)
		if err != nil {
			writeRunArtefacts(ctx, cfg, m, summaryFor(runID, cfg, startTime, stats, written, plan, nil))
			return err
		}
		fmt.Fprintf(out, "Wrote %d sales and %d lines in %d chunks\n", written.HeaderRows, written.LineRows, written.Chunks)
	}

	// =========================================================================
	// STEP 5: REPORT, EXPORT AND SUMMARY
	// =========================================================================

	var artefacts []string
	if genReport || genExport != "" {
		if err := utils.EnsureDir(cfg.Output.ReportDir); err != nil {
			return err
		}
	}

	if genReport {
		r := report.Build(ds, cat, plan, report.Options{
			End:        cfg.Generation.EndDate.Time,
			Weights:    gen.Weights(),
			PriceFloor: decimal.NewFromFloat(cfg.Pricing.Floor),
		})
		fmt.Fprintln(out)
		if err := report.WriteText(out, r); err != nil {
			return err
		}

		path := artefactPath(cfg, "report", ".xlsx")
		if err := export.WriteReport(path, r); err != nil {
			return err
		}
		artefacts = append(artefacts, path)
	}

	if genExport != "" {
		t = time.Now()
		if err := export.WriteDataset(genExport, ds); err != nil {
			return err
		}
		phase("export", t)
		artefacts = append(artefacts, genExport)
	}

	summary := summaryFor(runID, cfg, startTime, stats, written, plan, artefacts)
	if path := writeRunArtefacts(ctx, cfg, m, summary); path != "" {
		fmt.Fprintf(out, "Run summary: %s\n", path)
	}
	for _, a := range artefacts {
		fmt.Fprintf(out, "Wrote %s\n", a)
	}

	fmt.Fprintln(out, "\n=== Generation Complete ===")
	fmt.Fprintf(out, "Run ID:       %s\n", runID)
	fmt.Fprintf(out, "Seed:         %d\n", cfg.Seed)
	fmt.Fprintf(out, "Time elapsed: %s\n", time.Since(startTime).Round(time.Millisecond))
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func summaryFor(runID string, cfg *config.Config, start time.Time, stats synth.Stats,
	written store.WriteResult, plan *scenario.Plan, artefacts []string) utils.RunSummary {
	return utils.RunSummary{
		RunID:        runID,
		Seed:         cfg.Seed,
		StartTime:    start,
		EndTime:      time.Now(),
		Requested:    stats.Requested,
		Declined:     stats.Declined,
		Empty:        stats.Empty,
		Transactions: stats.Retained,
		LineItems:    stats.Lines,
		Rerolls:      stats.DeadStockRerolls,
		SkewsApplied: stats.SkewsApplied,
		HeaderRows:   written.HeaderRows,
		LineRows:     written.LineRows,
		Chunks:       written.Chunks,
		DryRun:       genDryRun,
		Warnings:     plan.Warnings,
		Artefacts:    artefacts,
	}
}

// writeRunArtefacts writes the run summary and the metrics textfile. Failures
// are logged; they never fail a run whose data is already written.
func writeRunArtefacts(ctx context.Context, cfg *config.Config, m *metrics.RunMetrics, summary utils.RunSummary) string {
	log := logger.FromContext(ctx)

	var path string
	if err := utils.EnsureDir(cfg.Output.ReportDir); err != nil {
		log.Warn().Err(err).Msg("run summary skipped")
	} else if path, err = utils.WriteSummaryLog(summary, cfg.Output.ReportDir); err != nil {
		log.Warn().Err(err).Msg("run summary skipped")
	}

	if cfg.Output.MetricsTextfile != "" {
		if err := m.WriteTextfile(cfg.Output.MetricsTextfile); err != nil {
			log.Warn().Err(err).Msg("metrics textfile skipped")
		} else {
			log.Info().Str("path", cfg.Output.MetricsTextfile).Msg("metrics written")
		}
	}
	return path
}

// artefactPath names a report or export file inside the report directory.
func artefactPath(cfg *config.Config, kind, ext string) string {
	name := utils.GenerateOutputFileName(cfg.Output.FileNameFormat, map[string]string{
		"kind": kind,
		"seed": strconv.FormatUint(cfg.Seed, 10),
	}, ext)
	return filepath.Join(cfg.Output.ReportDir, name)
}
