package cmd

import (
	"strings"
	"testing"

	"togimport/config"
)

func TestAppendRuleToConfigYAML_AppendsRule(t *testing.T) {
	t.Parallel()

	input := []byte(`toggl:
  api_token: "secret-token"
  workspace_id: 42
openproject:
  url: "https://openproject.example.com"
  api_key: "secret-key"
  activity_id: 1
import:
  workers: 4
rules:
  - kind: "project"
    name: "Website Relaunch"
    id: 14
`)

	newRule := config.Rule{
		Kind: "user",
		Name: "Jo Doe",
		ID:   7,
	}

	updated, err := appendRuleToConfigYAML(input, newRule)
	if err != nil {
		t.Fatalf("append rule failed: %v", err)
	}

	cfg, err := config.ValidateYAMLContent(updated)
	if err != nil {
		t.Fatalf("updated yaml should validate: %v", err)
	}

	if len(cfg.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(cfg.Rules))
	}
	last := cfg.Rules[1]
	if last.Kind != "user" || last.Name != "Jo Doe" || last.ID != 7 {
		t.Fatalf("unexpected last rule: %+v", last)
	}
}

func TestAppendRuleToConfigYAML_DuplicateRule(t *testing.T) {
	t.Parallel()

	input := []byte(`rules:
  - kind: "project"
    name: "Website Relaunch"
    id: 14
`)

	_, err := appendRuleToConfigYAML(input, config.Rule{
		Kind: "Project",
		Name: "website relaunch",
		ID:   99,
	})
	if err == nil {
		t.Fatalf("expected duplicate rule error")
	}
	if !strings.Contains(strings.ToLower(err.Error()), "already exists") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAppendRuleToConfigYAML_SameNameDifferentKindAllowed(t *testing.T) {
	t.Parallel()

	input := []byte(`rules:
  - kind: "project"
    name: "Atlas"
    id: 14
`)

	updated, err := appendRuleToConfigYAML(input, config.Rule{
		Kind: "user",
		Name: "Atlas",
		ID:   7,
	})
	if err != nil {
		t.Fatalf("append rule failed: %v", err)
	}
	if !strings.Contains(string(updated), "kind: user") {
		t.Fatalf("expected user rule in updated yaml, got:\n%s", string(updated))
	}
}

func TestAppendRuleToConfigYAML_WorksOnFreshTemplate(t *testing.T) {
	t.Parallel()

	updated, err := appendRuleToConfigYAML([]byte(config.ExampleYAML()), config.Rule{
		Kind: "project",
		Name: "Website Relaunch",
		ID:   14,
	})
	if err != nil {
		t.Fatalf("append rule on template failed: %v", err)
	}
	if !strings.Contains(string(updated), "Website Relaunch") {
		t.Fatalf("expected rule in updated yaml, got:\n%s", string(updated))
	}
}

func TestAppendRuleToConfigYAML_RejectsInvalidRule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rule config.Rule
	}{
		{name: "unknown kind", rule: config.Rule{Kind: "team", Name: "Ops", ID: 3}},
		{name: "empty name", rule: config.Rule{Kind: "user", Name: "   ", ID: 3}},
		{name: "zero id", rule: config.Rule{Kind: "user", Name: "Jo Doe", ID: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := appendRuleToConfigYAML(nil, tt.rule); err == nil {
				t.Fatalf("expected error for %s", tt.name)
			}
		})
	}
}
