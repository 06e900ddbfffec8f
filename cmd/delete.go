package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	deleteDBPath string
)

var (
	deletePromptInput  io.Reader = os.Stdin
	deletePromptOutput io.Writer = os.Stdout
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the run history SQLite database file",
	Long: `Destructive history cleanup command.

This command always deletes the complete history database file, including
every recorded run and its outcomes. It never touches OpenProject.
Before deletion, an interactive security prompt requires typing exactly "Y".`,
	Example: `
  # Delete the history database (requires interactive confirmation)
  togimport delete --db ./togimport.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := resolveHistoryDBPath(deleteDBPath)

		confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput, dbPath)
		if err != nil {
			return err
		}
		if !confirmed {
			return fmt.Errorf("delete aborted: confirmation was not 'Y'")
		}

		if err := removeDatabaseFile(dbPath); err != nil {
			return err
		}
		fmt.Printf("Deleted history database file: %s\n", dbPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().StringVar(&deleteDBPath, "db", "", "Path to run history SQLite database (defaults to history.db from config)")
}

func confirmDeletePrompt(input io.Reader, output io.Writer, path string) (bool, error) {
	if input == nil {
		return false, fmt.Errorf("delete confirmation input is not available")
	}

	if output == nil {
		output = io.Discard
	}

	if _, err := fmt.Fprintf(output, "Delete history database file %q? Type Y to confirm: ", path); err != nil {
		return false, fmt.Errorf("write delete confirmation prompt: %w", err)
	}

	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			line = strings.TrimSpace(line)
			return line == "Y", nil
		}
		return false, fmt.Errorf("read delete confirmation: %w", err)
	}
	return strings.TrimSpace(line) == "Y", nil
}

func removeDatabaseFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("history database file not found: %s", path)
		}
		return fmt.Errorf("stat history database file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("history database path is a directory: %s", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete history database file: %w", err)
	}
	return nil
}
