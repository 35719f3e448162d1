package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/phone-core/internal"
	"github.com/spf13/cobra"
)

var (
	verbose        bool
	transcriptPath string
	version        string = "dev"
	commit         string = "unknown"
	date           string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "phone-core",
	Short: "Simulate and inspect phone-overlay conversations",
	Long: `Developer harness for the phone-core conversation engine.

The engine itself is a library: it keeps per-conversation message logs,
selects group responders, and reconciles its state against an external
transcript. This tool drives the library with scripted scenarios and
inspects transcript databases.

Quick Start:
  phone-core simulate scenario.yaml       # Replay a scripted conversation
  phone-core inspect --db transcript.db   # Dump tagged transcript entries
  phone-core reconstruct --db transcript.db individual:sam
  phone-core export --format md scenario.yaml`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&transcriptPath, "db", "", "Path to a transcript database file")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
