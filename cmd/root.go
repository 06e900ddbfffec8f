/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/spf13/cobra"
	"togimport/config"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "togimport",
	Short: "Import Toggl Track time entries into OpenProject work packages.",
	Long: `
**********************************************
*               TOGIMPORT                    *
**********************************************

This CLI fetches Toggl Track time entries for a date range, extracts work
package references like "#482" or "[OP#482]" from their descriptions, and
books matching time entries on the referenced OpenProject work packages.

Entries already present on the work package (recognized by the "<id> - "
comment prefix written on import) are skipped, so re-running over an
overlapping range never books time twice. Every run is recorded in a local
SQLite history database for auditing and export.
`,
	Example: `
  # Create configuration file
  togimport config create

  # Import a date range
  togimport import --from 2026-08-01 --to 2026-08-21

  # Preview against existing OpenProject entries (no writes)
  togimport import --from 2026-08-01 --to 2026-08-21 --dry-run

  # List recorded runs and inspect one
  togimport history
  togimport history show 3

  # Export a run's outcomes
  togimport export --run 3 --output ./outcomes.csv

  # Pin a user name to an OpenProject id
  togimport config rule add --kind user --name "Jane Doe" --id 42
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.togimport.yaml, then ./.togimport.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline diagnostics to stderr at debug level")

	// Optional: Validate configuration
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if !requiresConfig(cmd) {
			return nil
		}

		_, err := config.LoadAndValidate()
		return err
	}
}

func requiresConfig(cmd *cobra.Command) bool {
	return cmd != nil && cmd.Name() == "import"
}

// newLogger builds the diagnostic logger. User-facing output goes through
// fmt.Printf, not this logger.
func newLogger() *slog.Logger {
	if verbose {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.DiscardHandler)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".togimport" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".togimport")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found. Create one first with: togimport config create")
	}
}
