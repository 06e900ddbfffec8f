package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"togimport/config"
	"togimport/internal/timeutil"
	"togimport/openproject"
	"togimport/pipeline"
	"togimport/storage"
	"togimport/toggl"

	"github.com/spf13/cobra"
)

var (
	importFromDay   string
	importToDay     string
	importDryRun    bool
	importWorkers   int
	importDBPath    string
	importNoHistory bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import Toggl time entries into OpenProject",
	Long: `Fetch Toggl Track time entries for a date range and book them on OpenProject.

For each fetched entry the command:
- extracts a work package reference ("#482" or "[OP#482]") from the description
- resolves the work package (and optionally user/project names) against OpenProject
- skips entries whose fingerprint is already present on the work package
- creates a time entry with the configured activity, retrying transient failures

Entries without a reference, with an unknown work package, or with unmapped
names are skipped and reported; they never abort the run. Only rejected
credentials or an unreachable Toggl API stop the import.

In --dry-run mode existing OpenProject entries are still loaded to detect
duplicates, but no time entry is created. Reported counts match a real run.`,
	Example: `
  # Import a date range (inclusive on both ends)
  togimport import --from 2026-08-01 --to 2026-08-21

  # Import a single day
  togimport import --from 2026-08-21

  # Preview without creating anything
  togimport import --from 2026-08-01 --to 2026-08-21 --dry-run

  # More workers, custom history database
  togimport import --from 2026-08-01 --to 2026-08-21 --workers 8 --db ./togimport.db

  # Import with custom config file
  togimport --configFile ./custom-togimport.yaml import --from 2026-08-01
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		from, to, err := parseImportRange(importFromDay, importToDay)
		if err != nil {
			return err
		}

		source, err := toggl.NewClient(toggl.ClientConfig{
			APIToken:    cfg.Toggl.APIToken,
			WorkspaceID: cfg.Toggl.WorkspaceID,
			RateLimit:   cfg.Toggl.RateLimit,
			RateBurst:   cfg.Toggl.RateBurst,
			MaxAttempts: cfg.Import.MaxAttempts,
		})
		if err != nil {
			return err
		}

		target, err := openproject.NewClient(openproject.ClientConfig{
			BaseURL:   cfg.OpenProject.URL,
			APIKey:    cfg.OpenProject.APIKey,
			RateLimit: cfg.OpenProject.RateLimit,
			RateBurst: cfg.OpenProject.RateBurst,
		})
		if err != nil {
			return err
		}

		account, err := source.Me(cmd.Context())
		if err != nil {
			return fmt.Errorf("verify source credentials: %w", err)
		}
		fmt.Printf("Importing entries for %s (%s).\n", account.FullName, account.Email)

		workers := importWorkers
		if workers <= 0 {
			workers = cfg.Import.Workers
		}

		pipe, err := pipeline.New(pipeline.Config{
			Source:          source,
			Target:          target,
			ActivityID:      cfg.OpenProject.ActivityID,
			Workers:         workers,
			DryRun:          importDryRun,
			MinDuration:     cfg.Import.MinDuration(),
			DurationSource:  pipeline.DurationSource(cfg.Import.DurationSource),
			MaxAttempts:     cfg.Import.MaxAttempts,
			ResolveUsers:    cfg.Import.ResolveUsers,
			ResolveProjects: cfg.Import.ResolveProjects,
			PinnedUsers:     cfg.UserRules(),
			PinnedProjects:  cfg.ProjectRules(),
			Logger:          newLogger(),
		})
		if err != nil {
			return err
		}

		if importDryRun {
			fmt.Println("Import dry-run mode: validating against existing OpenProject entries without creating any.")
		}

		startedAt := time.Now()
		report, err := pipe.Run(cmd.Context(), from, to)
		if err != nil {
			return err
		}
		finishedAt := time.Now()

		for _, outcome := range report.Outcomes {
			switch outcome.Kind {
			case pipeline.OutcomeUnresolved:
				fmt.Printf("Warning: entry %d %q skipped: %s\n", outcome.Entry.ID, outcome.Entry.Description, outcome.Detail)
			case pipeline.OutcomeFailed:
				fmt.Printf("Warning: entry %d %q failed: %s\n", outcome.Entry.ID, outcome.Entry.Description, outcome.Detail)
			}
		}

		counts := report.Counts()
		if importDryRun {
			fmt.Println("Dry-run summary:")
			fmt.Printf("  Entries fetched:      %d\n", counts.Fetched)
			fmt.Printf("  Would import:         %d\n", counts.Imported)
			fmt.Printf("  Duplicates (skipped): %d\n", counts.Duplicates)
			fmt.Printf("  Unresolved (skipped): %d\n", counts.Unresolved)
			fmt.Printf("  Failed:               %d\n", counts.Failed)
		} else {
			fmt.Printf("Import completed. Fetched: %d, Imported: %d, Duplicates: %d, Unresolved: %d, Failed: %d\n",
				counts.Fetched,
				counts.Imported,
				counts.Duplicates,
				counts.Unresolved,
				counts.Failed,
			)
		}

		if !importNoHistory {
			if err := recordRunHistory(resolveHistoryDBPath(importDBPath), report, startedAt, finishedAt); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not record run history: %v\n", err)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importFromDay, "from", "", "Start day (inclusive), format YYYY-MM-DD")
	importCmd.Flags().StringVar(&importToDay, "to", "", "End day (inclusive), format YYYY-MM-DD (defaults to --from)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate against existing OpenProject entries without creating any")
	importCmd.Flags().IntVar(&importWorkers, "workers", 0, "Concurrent import workers (defaults to import.workers from config)")
	importCmd.Flags().StringVar(&importDBPath, "db", "", "Path to run history SQLite database (defaults to history.db from config)")
	importCmd.Flags().BoolVar(&importNoHistory, "no-history", false, "Do not record this run in the history database")

	_ = importCmd.MarkFlagRequired("from")
}

func parseImportRange(fromValue, toValue string) (time.Time, time.Time, error) {
	trimmedFrom := strings.TrimSpace(fromValue)
	if trimmedFrom == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("--from is required (format YYYY-MM-DD)")
	}
	from, err := timeutil.ParseDay(trimmedFrom)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from value %q (expected YYYY-MM-DD)", fromValue)
	}

	to := from
	if trimmedTo := strings.TrimSpace(toValue); trimmedTo != "" {
		to, err = timeutil.ParseDay(trimmedTo)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to value %q (expected YYYY-MM-DD)", toValue)
		}
	}

	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid range: --from must be <= --to")
	}
	return from, to, nil
}

func recordRunHistory(path string, report pipeline.Report, startedAt, finishedAt time.Time) error {
	store, err := storage.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.SaveReport(report, startedAt, finishedAt)
	if err != nil {
		return err
	}

	fmt.Printf("Run recorded in history with id %d.\n", run.ID)
	return nil
}
