package cmd

import "github.com/spf13/cobra"

var configRuleCmd = &cobra.Command{
	Use:   "rule",
	Short: "Manage name-to-ID mapping rules in config.",
	Long: `Manage mapping rules stored under config key rules.

Rules pin a Toggl user or project name to a fixed OpenProject id, so the
import never has to resolve that name against the OpenProject catalog.`,
}

func init() {
	configCmd.AddCommand(configRuleCmd)
}
