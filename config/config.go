package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	KeyTogglAPIToken         = "toggl.api_token"
	KeyTogglWorkspaceID      = "toggl.workspace_id"
	KeyTogglRateLimit        = "toggl.rate_limit"
	KeyTogglRateBurst        = "toggl.rate_burst"
	KeyOpenProjectURL        = "openproject.url"
	KeyOpenProjectAPIKey     = "openproject.api_key"
	KeyOpenProjectActivityID = "openproject.activity_id"
	KeyOpenProjectRateLimit  = "openproject.rate_limit"
	KeyOpenProjectRateBurst  = "openproject.rate_burst"
	KeyImportWorkers         = "import.workers"
	KeyImportMinDuration     = "import.min_duration_seconds"
	KeyImportDurationSource  = "import.duration_source"
	KeyImportMaxAttempts     = "import.max_attempts"
	KeyImportResolveUsers    = "import.resolve_users"
	KeyImportResolveProjects = "import.resolve_projects"
	KeyHistoryDB             = "history.db"
	KeyRules                 = "rules"
)

type Config struct {
	Toggl       TogglConfig       `mapstructure:"toggl" validate:"required"`
	OpenProject OpenProjectConfig `mapstructure:"openproject" validate:"required"`
	Import      ImportConfig      `mapstructure:"import"`
	History     HistoryConfig     `mapstructure:"history"`
	Rules       []Rule            `mapstructure:"rules"`
}

type TogglConfig struct {
	APIToken    string  `mapstructure:"api_token" validate:"required"`
	WorkspaceID int64   `mapstructure:"workspace_id" validate:"gte=0"`
	RateLimit   float64 `mapstructure:"rate_limit" validate:"gte=0"`
	RateBurst   int     `mapstructure:"rate_burst" validate:"gte=0"`
}

type OpenProjectConfig struct {
	URL        string  `mapstructure:"url" validate:"required,url"`
	APIKey     string  `mapstructure:"api_key" validate:"required"`
	ActivityID int64   `mapstructure:"activity_id" validate:"gt=0"`
	RateLimit  float64 `mapstructure:"rate_limit" validate:"gte=0"`
	RateBurst  int     `mapstructure:"rate_burst" validate:"gte=0"`
}

type ImportConfig struct {
	Workers            int    `mapstructure:"workers" validate:"gte=0"`
	MinDurationSeconds int64  `mapstructure:"min_duration_seconds" validate:"gte=0"`
	DurationSource     string `mapstructure:"duration_source" validate:"oneof=reported derived"`
	MaxAttempts        int    `mapstructure:"max_attempts" validate:"gte=0"`
	ResolveUsers       bool   `mapstructure:"resolve_users"`
	ResolveProjects    bool   `mapstructure:"resolve_projects"`
}

type HistoryConfig struct {
	DB string `mapstructure:"db"`
}

// Rule pins a source name onto a target id so the importer never has to
// look it up.
type Rule struct {
	Kind string `mapstructure:"kind"`
	Name string `mapstructure:"name"`
	ID   int64  `mapstructure:"id"`
}

// MinDuration returns the minimum entry length as a duration.
func (c ImportConfig) MinDuration() time.Duration {
	return time.Duration(c.MinDurationSeconds) * time.Second
}

// UserRules returns the pinned user name mappings.
func (c *Config) UserRules() map[string]int64 {
	return c.rulesOfKind("user")
}

// ProjectRules returns the pinned project name mappings.
func (c *Config) ProjectRules() map[string]int64 {
	return c.rulesOfKind("project")
}

func (c *Config) rulesOfKind(kind string) map[string]int64 {
	out := make(map[string]int64)
	for _, rule := range c.Rules {
		if strings.EqualFold(strings.TrimSpace(rule.Kind), kind) {
			out[strings.TrimSpace(rule.Name)] = rule.ID
		}
	}
	return out
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# togimport configuration
toggl:
  api_token: ""
  workspace_id: 0

openproject:
  url: "https://openproject.example.com"
  api_key: ""
  activity_id: 1

import:
  workers: 4
  min_duration_seconds: 60
  duration_source: "reported"
  max_attempts: 3
  resolve_users: false
  resolve_projects: false

history:
  db: "togimport.db"

rules: []
`
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := ValidateRules(cfg.Rules); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyImportWorkers, 4)
	v.SetDefault(KeyImportMinDuration, 60)
	v.SetDefault(KeyImportDurationSource, "reported")
	v.SetDefault(KeyImportMaxAttempts, 3)
	v.SetDefault(KeyHistoryDB, "togimport.db")
	v.SetDefault(KeyRules, []map[string]any{})
}

// ValidateRules checks mapping rules independently of the rest of the
// configuration so callers can validate partial documents.
func ValidateRules(rules []Rule) error {
	validKinds := map[string]bool{
		"user":    true,
		"project": true,
	}
	seen := make(map[string]struct{}, len(rules))
	for i, rule := range rules {
		kind := strings.ToLower(strings.TrimSpace(rule.Kind))
		if kind == "" {
			return fmt.Errorf("validation failed: rules[%d].kind is required", i)
		}
		if !validKinds[kind] {
			return fmt.Errorf(
				"validation failed: rules[%d].kind %q is not supported (valid: user, project)",
				i,
				rule.Kind,
			)
		}
		name := strings.TrimSpace(rule.Name)
		if name == "" {
			return fmt.Errorf("validation failed: rules[%d].name is required", i)
		}
		key := kind + "/" + strings.ToLower(name)
		if _, exists := seen[key]; exists {
			return fmt.Errorf("validation failed: duplicate %s rule %q", kind, name)
		}
		seen[key] = struct{}{}
		if rule.ID <= 0 {
			return fmt.Errorf("validation failed: rules[%d].id must be > 0", i)
		}
	}
	return nil
}
