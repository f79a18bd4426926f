// =============================================================================
// POS Scenario Synthesizer - Run Artefact Files
// =============================================================================
//
// This module names and writes the files a run leaves behind next to the
// database rows:
//   - Report and export workbooks (named from output.file_name_format)
//   - The plain-text run summary
//
// Every artefact of a run goes into output.report_dir, which is created on
// demand.
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDir creates dir and its parents if they don't exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a unique artefact file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {uuid}      - A random UUID
//     {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Current date (YYYYMMDD)
//     {time}      - Current time (HHMMSS)
//     {kind}      - Artefact kind ("report", "dataset", "summary")
//     {seed}      - Run seed
//   - params: A map of placeholder values.
//   - ext: The extension the name must end with, e.g. ".xlsx".
//
// EXAMPLE:
//
//	format: "{kind}_{seed}_{date}.xlsx"
//	params: {"kind": "report", "seed": "42"}
//	output: "report_42_20250115.xlsx"
func GenerateOutputFileName(format string, params map[string]string, ext string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// The format usually names the workbook extension; swap it for other kinds.
	if e := filepath.Ext(result); e != "" && !strings.EqualFold(e, ext) {
		result = strings.TrimSuffix(result, e)
	}
	if !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}
	return result
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary contains summary information about a generation run.
type RunSummary struct {
	RunID     string
	Seed      uint64
	StartTime time.Time
	EndTime   time.Time

	Requested    int
	Declined     int
	Empty        int
	Transactions int
	LineItems    int
	Rerolls      int
	SkewsApplied map[string]int

	HeaderRows int
	LineRows   int
	Chunks     int
	DryRun     bool

	Warnings  []string
	Artefacts []string
}

// WriteSummaryLog writes a run summary to a text file in outputDir.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary RunSummary, outputDir string) (string, error) {
	name := fmt.Sprintf("run_summary_%s_%s.txt", summary.StartTime.Format("20060102_150405"), summary.RunID)
	summaryPath := filepath.Join(outputDir, name)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	persisted := "yes"
	if summary.DryRun {
		persisted = "no (dry run)"
	}

	fmt.Fprintf(writer, "POS Scenario Synthesizer - Run Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Seed:           %d\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Generation:\n"+
		"  Slots Drawn:        %d\n"+
		"  Declined:           %d\n"+
		"  Empty Baskets:      %d\n"+
		"  Transactions:       %d\n"+
		"  Line Items:         %d\n"+
		"  Dead-Stock Rerolls: %d\n\n"+
		"Persistence:\n"+
		"  Persisted:      %s\n"+
		"  Header Rows:    %d\n"+
		"  Line Rows:      %d\n"+
		"  Chunks:         %d\n\n",
		summary.RunID,
		summary.Seed,
		summary.StartTime.Format(time.DateTime),
		summary.EndTime.Format(time.DateTime),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.Requested,
		summary.Declined,
		summary.Empty,
		summary.Transactions,
		summary.LineItems,
		summary.Rerolls,
		persisted,
		summary.HeaderRows,
		summary.LineRows,
		summary.Chunks)

	if len(summary.SkewsApplied) > 0 {
		rules := make([]string, 0, len(summary.SkewsApplied))
		for rule := range summary.SkewsApplied {
			rules = append(rules, rule)
		}
		sort.Strings(rules)

		writer.WriteString("Skews Applied:\n")
		for _, rule := range rules {
			fmt.Fprintf(writer, "  %-20s %d\n", rule, summary.SkewsApplied[rule])
		}
		writer.WriteString("\n")
	}

	if len(summary.Warnings) > 0 {
		writer.WriteString("Scenario Warnings:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(writer, "  %s\n", w)
		}
		writer.WriteString("\n")
	}

	if len(summary.Artefacts) > 0 {
		writer.WriteString("Artefacts:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, a := range summary.Artefacts {
			fmt.Fprintf(writer, "  %s\n", a)
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}
	return summaryPath, nil
}
