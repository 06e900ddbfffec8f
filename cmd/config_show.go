package cmd

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/spf13/cobra"
	"togimport/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values.
Secrets are shown masked, never in full.`,
	Example: `
  # Show active configuration
  togimport config show
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			fmt.Println("Invalid config:", err)
			return
		}

		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Println("Config file loaded from:", configPath)
			fmt.Println("Configuration:")
			fmt.Printf("toggl.api_token: %s\n", maskSecret(cfg.Toggl.APIToken))
			fmt.Printf("toggl.workspace_id: %d\n", cfg.Toggl.WorkspaceID)
			fmt.Printf("openproject.url: %s\n", cfg.OpenProject.URL)
			fmt.Printf("openproject.api_key: %s\n", maskSecret(cfg.OpenProject.APIKey))
			fmt.Printf("openproject.activity_id: %d\n", cfg.OpenProject.ActivityID)
			fmt.Printf("import.workers: %d\n", cfg.Import.Workers)
			fmt.Printf("import.min_duration_seconds: %d\n", cfg.Import.MinDurationSeconds)
			fmt.Printf("import.duration_source: %s\n", cfg.Import.DurationSource)
			fmt.Printf("import.max_attempts: %d\n", cfg.Import.MaxAttempts)
			fmt.Printf("import.resolve_users: %t\n", cfg.Import.ResolveUsers)
			fmt.Printf("import.resolve_projects: %t\n", cfg.Import.ResolveProjects)
			fmt.Printf("history.db: %s\n", cfg.History.DB)
			fmt.Printf("rules: %d\n", len(cfg.Rules))
			for i, rule := range cfg.Rules {
				fmt.Printf("rules[%d].kind: %s\n", i, rule.Kind)
				fmt.Printf("rules[%d].name: %s\n", i, rule.Name)
				fmt.Printf("rules[%d].id: %d\n", i, rule.ID)
			}
		}

	},
}

func maskSecret(value string) string {
	if value == "" {
		return "(not set)"
	}
	return "****"
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
