// =============================================================================
// POS Scenario Synthesizer - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   possynth version
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// These variables are set at build time using ldflags:
//
//	go build -ldflags "-X 'github.com/ginjaninja78/pos-scenario-synth/cmd.Version=1.0.0'"
var (
	// Version is the application version.
	Version = "dev"

	// BuildDate is the date the application was built.
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Long:  `Display the application version, build date, and Go runtime version.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "POS Scenario Synthesizer")
		fmt.Fprintf(out, "Version:    %s\n", Version)
		fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
		fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
