// =============================================================================
// POS Scenario Synthesizer - Main Entry Point
// =============================================================================
//
// possynth generates seeded synthetic point-of-sale data for a retail chain,
// with business scenarios planted in it, and writes it to a relational store.
//
// USAGE:
//   possynth generate   - Generate and write transactions
//   possynth verify     - Re-check stored data against the scenarios
//   possynth catalog    - Inspect the catalog and scenario references
//   possynth truncate   - Empty the output tables
//   possynth prune      - Delete a random share of the stored sales
//   possynth version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/                : CLI command definitions (Cobra)
//   - internal/catalog    : markets, products, categories and their sources
//   - internal/scenario   : scenario rules compiled against the catalog
//   - internal/synth      : the seeded generation engine
//   - internal/store      : gorm persistence (mysql, postgres, sqlite)
//   - internal/report     : scenario report and integrity check
//   - internal/export     : .xlsx export
//   - pkg/utils           : run artefact files
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/pos-scenario-synth/cmd"
)

func main() {
	cmd.Execute()
}
