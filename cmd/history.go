package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"togimport/config"
	"togimport/internal/timeutil"
	"togimport/storage"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	historyDBPath string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded import runs",
	Long: `List import runs recorded in the local history database, newest first.

Each line shows the run id, start time, imported date range, and per-kind
outcome counts. Use "history show <run-id>" for the run's full outcome list.`,
	Example: `
  # List the 20 most recent runs
  togimport history

  # List more runs from a custom database
  togimport history --limit 50 --db ./togimport.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.OpenSQLite(resolveHistoryDBPath(historyDBPath))
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.ListRuns(historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		for _, run := range runs {
			fmt.Println(formatRunLine(run))
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one recorded run with its outcomes",
	Args:  cobra.ExactArgs(1),
	Example: `
  # Show run 3
  togimport history show 3
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q", args[0])
		}

		store, err := storage.OpenSQLite(resolveHistoryDBPath(historyDBPath))
		if err != nil {
			return err
		}
		defer store.Close()

		run, err := store.GetRun(id)
		if err != nil {
			return fmt.Errorf("run %d: %w", id, err)
		}
		outcomes, err := store.ListOutcomes(id)
		if err != nil {
			return err
		}

		fmt.Printf("Run %d (%s)\n", run.ID, run.UID)
		fmt.Printf("Started:    %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Finished:   %s\n", run.FinishedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Range:      %s..%s\n", timeutil.FormatDay(run.From), timeutil.FormatDay(run.To))
		fmt.Printf("Dry-run:    %t\n", run.DryRun)
		fmt.Printf("Fetched:    %d\n", run.Fetched)
		fmt.Printf("Imported:   %d\n", run.Imported)
		fmt.Printf("Duplicates: %d\n", run.Duplicates)
		fmt.Printf("Unresolved: %d\n", run.Unresolved)
		fmt.Printf("Failed:     %d\n", run.Failed)

		if len(outcomes) == 0 {
			return nil
		}
		fmt.Println("Outcomes:")
		for _, outcome := range outcomes {
			fmt.Printf("  %s\n", formatOutcomeLine(outcome))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyCmd.PersistentFlags().StringVar(&historyDBPath, "db", "", "Path to run history SQLite database (defaults to history.db from config)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list")
}

func resolveHistoryDBPath(flagValue string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	return viper.GetString(config.KeyHistoryDB)
}

func formatRunLine(run storage.RunRecord) string {
	suffix := ""
	if run.DryRun {
		suffix = " (dry-run)"
	}
	return fmt.Sprintf(
		"Run %d: started %s, range %s..%s, fetched %d, imported %d, duplicates %d, unresolved %d, failed %d%s",
		run.ID,
		run.StartedAt.Format("2006-01-02 15:04:05"),
		timeutil.FormatDay(run.From),
		timeutil.FormatDay(run.To),
		run.Fetched,
		run.Imported,
		run.Duplicates,
		run.Unresolved,
		run.Failed,
		suffix,
	)
}

func formatOutcomeLine(record storage.OutcomeRecord) string {
	line := fmt.Sprintf("[%s] entry %d %q", record.Kind, record.SourceID, record.Description)
	if record.WorkPackageID > 0 {
		line += fmt.Sprintf(" -> work package %d", record.WorkPackageID)
	}
	if record.RecordID > 0 {
		line += fmt.Sprintf(" (time entry %d)", record.RecordID)
	}
	if record.Detail != "" {
		line += ": " + record.Detail
	}
	return line
}
