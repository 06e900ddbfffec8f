package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"togimport/output"
	"togimport/storage"

	"github.com/spf13/cobra"
)

var (
	exportRunID  int64
	exportFormat string
	exportMode   string
	exportOutput string
	exportDBPath string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a recorded run's outcomes to CSV/Excel",
	Long: `Export the outcomes of one recorded import run.

Modes:
- raw: export each entry outcome (kind, reason, work package, created record)
- daily: export per-day aggregates (outcome counts and imported hours)

Output format can be selected explicitly via --format or inferred from --output extension.`,
	Example: `
  # Export run 3 outcomes to CSV
  togimport export --run 3 --output ./outcomes.csv

  # Export run 3 outcomes to Excel
  togimport export --run 3 --output ./outcomes.xlsx

  # Export daily aggregates to CSV
  togimport export --run 3 --mode daily --output ./daily-summary.csv

  # Force Excel format independent of extension
  togimport export --run 3 --mode daily --format excel --output ./daily-summary.out
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := exportFormat
		if strings.TrimSpace(format) == "" {
			format = detectExportFormat(exportOutput)
		}

		store, err := storage.OpenSQLite(resolveHistoryDBPath(exportDBPath))
		if err != nil {
			return err
		}
		defer store.Close()

		if _, err := store.GetRun(exportRunID); err != nil {
			return fmt.Errorf("run %d: %w", exportRunID, err)
		}
		outcomes, err := store.ListOutcomes(exportRunID)
		if err != nil {
			return err
		}

		mode := strings.TrimSpace(strings.ToLower(exportMode))
		switch mode {
		case "", "raw":
			writer, writerErr := output.WriterForFormat(format)
			if writerErr != nil {
				return writerErr
			}
			if err := writer.Write(exportOutput, outcomes); err != nil {
				return err
			}
			fmt.Printf("Export completed. Rows: %d, Mode: raw, Format: %s, File: %s\n", len(outcomes), format, exportOutput)
		case "daily":
			summaries := output.BuildDailySummaries(outcomes)
			if err := output.WriteDailySummaries(exportOutput, format, summaries); err != nil {
				return err
			}
			fmt.Printf("Export completed. Days: %d, Mode: daily, Format: %s, File: %s\n", len(summaries), format, exportOutput)
		default:
			return fmt.Errorf("unsupported export mode: %s (supported: raw, daily)", exportMode)
		}
		return nil
	},
}

func detectExportFormat(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "csv":
		return "csv"
	case "xlsx", "xlsm", "xls":
		return "excel"
	default:
		return "csv"
	}
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().Int64Var(&exportRunID, "run", 0, "Run id to export (see \"togimport history\")")
	exportCmd.Flags().StringVar(&exportMode, "mode", "raw", "Export mode: raw|daily")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: csv|excel (optional, inferred from output extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")
	exportCmd.Flags().StringVar(&exportDBPath, "db", "", "Path to run history SQLite database (defaults to history.db from config)")

	_ = exportCmd.MarkFlagRequired("run")
	_ = exportCmd.MarkFlagRequired("output")
}
