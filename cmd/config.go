package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage togimport configuration file values.",
	Long: `Create, edit, display, and delete the togimport configuration file.

The configuration stores credentials, import tuning, and mapping rules:
- toggl.api_token / toggl.workspace_id
- openproject.url / openproject.api_key / openproject.activity_id
- import.workers / import.min_duration_seconds / import.duration_source
- history.db
- rules[].kind+name+id (pin user/project names to OpenProject ids)`,
	Example: `
  # Create default config in $HOME/.togimport.yaml
  togimport config create

  # Show active config and source file
  togimport config show

  # Open active config in editor (creates example if missing)
  togimport config edit

  # Pin a user name to an OpenProject id
  togimport config rule add --kind user --name "Jane Doe" --id 42

  # Delete active config file
  togimport config delete
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
