package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/phone-core/internal"
	"github.com/iksnae/phone-core/internal/export"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <scenario.yaml>",
	Short: "Run a scenario and export the conversation log",
	Long:  `Replay a scenario and write the resulting conversation log in the chosen format (jsonl, md, yaml, json).`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scn, err := internal.LoadScenario(args[0])
		if err != nil {
			return err
		}

		exporter, err := export.NewExporter(exportFormat)
		if err != nil {
			return err
		}

		mirror, cleanup, err := openMirror()
		if err != nil {
			return err
		}
		defer cleanup()

		store, err := scn.Run(mirror, stderrNotifier{})
		if err != nil {
			return err
		}

		key := scn.Key()
		log := export.NewLog(key, store.List(key))

		if exportOutput == "" {
			return exporter.Export(log, os.Stdout)
		}

		if err := os.MkdirAll(exportOutput, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		filename := fmt.Sprintf("conversation_%s.%s", key.ID, exporter.Extension())
		path := filepath.Join(exportOutput, filename)

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()

		if err := exporter.Export(log, f); err != nil {
			return err
		}
		internal.LogInfo("Exported %s", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&exportOutput, "out", "o", "", "Output directory (stdout if unset)")
}
