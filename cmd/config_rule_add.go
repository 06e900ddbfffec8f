package cmd

import (
	"fmt"
	"os"
	"strings"

	"togimport/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var (
	configRuleAddKind string
	configRuleAddName string
	configRuleAddID   int64
)

var configRuleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add one name-to-ID mapping rule to config.",
	Long: `Store a new rules entry in the active config file.

A rule pins a Toggl name to a fixed OpenProject id:
  kind user:    entries whose Toggl user matches the name are logged as this OpenProject user id
  kind project: entries whose Toggl project matches the name land in this OpenProject project id

Pinned names are matched case-insensitively and skip the catalog lookup entirely,
which also makes them immune to ambiguous-name failures.`,
	Example: `
  # Pin a Toggl project name to OpenProject project 14
  togimport config rule add --kind project --name "Website Relaunch" --id 14

  # Pin a Toggl user to OpenProject user 7
  togimport config rule add --kind user --name "Jo Doe" --id 7
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}

		_, err = ensureConfigFileWithTemplate(configPath)
		if err != nil {
			return err
		}

		newRule := config.Rule{
			Kind: strings.ToLower(strings.TrimSpace(configRuleAddKind)),
			Name: strings.TrimSpace(configRuleAddName),
			ID:   configRuleAddID,
		}

		current, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("read config file: %w", err)
		}

		updated, err := appendRuleToConfigYAML(current, newRule)
		if err != nil {
			return err
		}

		if err := os.WriteFile(configPath, updated, 0o600); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		fmt.Println("Rule added successfully.")
		fmt.Printf("Config: %s\n", configPath)
		fmt.Printf("Kind:   %s\n", newRule.Kind)
		fmt.Printf("Name:   %s\n", newRule.Name)
		fmt.Printf("ID:     %d\n", newRule.ID)
		return nil
	},
}

func appendRuleToConfigYAML(content []byte, rule config.Rule) ([]byte, error) {
	kind := strings.ToLower(strings.TrimSpace(rule.Kind))
	if kind != "user" && kind != "project" {
		return nil, fmt.Errorf("rule kind must be user or project, got %q", rule.Kind)
	}
	if strings.TrimSpace(rule.Name) == "" {
		return nil, fmt.Errorf("rule name is required")
	}
	if rule.ID <= 0 {
		return nil, fmt.Errorf("rule id must be > 0")
	}

	doc := map[string]any{}
	if strings.TrimSpace(string(content)) != "" {
		if err := yaml.Unmarshal(content, &doc); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	rulesList, err := ensureSliceAny(doc, "rules")
	if err != nil {
		return nil, err
	}

	for _, existing := range rulesList {
		ruleMap, ok := existing.(map[string]any)
		if !ok {
			continue
		}
		existingKind, _ := ruleMap["kind"].(string)
		existingName, _ := ruleMap["name"].(string)
		if strings.EqualFold(strings.TrimSpace(existingKind), kind) &&
			strings.EqualFold(strings.TrimSpace(existingName), strings.TrimSpace(rule.Name)) {
			return nil, fmt.Errorf("%s rule for %q already exists", kind, rule.Name)
		}
	}

	rulesList = append(rulesList, map[string]any{
		"kind": kind,
		"name": rule.Name,
		"id":   rule.ID,
	})
	doc["rules"] = rulesList

	updated, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal updated config yaml: %w", err)
	}

	var parsed struct {
		Rules []config.Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(updated, &parsed); err != nil {
		return nil, fmt.Errorf("reparse updated config yaml: %w", err)
	}
	if err := config.ValidateRules(parsed.Rules); err != nil {
		return nil, fmt.Errorf("updated config is invalid: %w", err)
	}
	return updated, nil
}

func ensureSliceAny(doc map[string]any, key string) ([]any, error) {
	raw, exists := doc[key]
	if !exists || raw == nil {
		result := []any{}
		doc[key] = result
		return result, nil
	}
	result, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("config key %q must be a list", key)
	}
	return result, nil
}

func init() {
	configRuleCmd.AddCommand(configRuleAddCmd)

	configRuleAddCmd.Flags().StringVar(&configRuleAddKind, "kind", "", "Rule kind: user or project")
	configRuleAddCmd.Flags().StringVar(&configRuleAddName, "name", "", "Toggl name the rule matches (case-insensitive)")
	configRuleAddCmd.Flags().Int64Var(&configRuleAddID, "id", 0, "OpenProject id the name is pinned to")
	_ = configRuleAddCmd.MarkFlagRequired("kind")
	_ = configRuleAddCmd.MarkFlagRequired("name")
	_ = configRuleAddCmd.MarkFlagRequired("id")
}
