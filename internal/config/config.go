// Package config provides hierarchical configuration for planops using
// koanf. Values are loaded with priority: environment variables > project
// config (.planops/config.yml) > user config (~/.config/planops/config.yml)
// > defaults. Legacy JSON project configs (.planops/config.json) still
// load, with a migration warning.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Configuration holds every planops setting.
type Configuration struct {
	// PlanningDir is the directory holding the ledger documents.
	PlanningDir string `koanf:"planning_dir"`
	// ArtifactsDir receives the generated artifacts.
	ArtifactsDir string `koanf:"artifacts_dir"`
	// Weeks is the schedule window width in weeks.
	Weeks int `koanf:"weeks"`
	// ColumnBudget is the text chart width in columns. Zero means derive
	// from the terminal at startup.
	ColumnBudget int `koanf:"column_budget"`
	// LabelWidth is the fixed label field width in the text charts.
	LabelWidth int `koanf:"label_width"`
	// LaneMode selects collapsed or expanded Gantt rendering.
	LaneMode string `koanf:"lane_mode"`
	// Board is the board id rendered into summary artifacts.
	Board string `koanf:"board"`
	// CascadeReset makes reopening mutations revert completed dependents.
	CascadeReset bool `koanf:"cascade_reset"`
	// WatchDebounceMS is the quiet period for the watch command.
	WatchDebounceMS int `koanf:"watch_debounce_ms"`
	// LogLevel is debug, info, warn, or error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text, json, or logfmt.
	LogFormat string `koanf:"log_format"`
}

// LoadOptions configures how configuration is loaded.
type LoadOptions struct {
	// ProjectConfigPath overrides the project config path.
	ProjectConfigPath string
	// WarningWriter receives migration warnings. Defaults to stderr.
	WarningWriter io.Writer
	// SkipWarnings suppresses migration warnings.
	SkipWarnings bool
}

// Load loads configuration from user, project, and environment sources.
func Load(projectConfigPath string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectConfigPath: projectConfigPath})
}

// LoadWithOptions loads configuration with custom options.
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")
	warningWriter := opts.WarningWriter
	if warningWriter == nil {
		warningWriter = os.Stderr
	}

	for key, value := range Defaults() {
		k.Set(key, value)
	}

	if userPath, err := UserConfigPath(); err == nil && fileExists(userPath) {
		if err := k.Load(file.Provider(userPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading user config %s: %w", userPath, err)
		}
	}

	if err := loadProjectConfig(k, opts.ProjectConfigPath, warningWriter, opts.SkipWarnings); err != nil {
		return nil, err
	}

	if err := k.Load(env.Provider("PLANOPS_", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment config: %w", err)
	}

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadProjectConfig prefers YAML and falls back to legacy JSON with a
// migration warning.
func loadProjectConfig(k *koanf.Koanf, customPath string, warningWriter io.Writer, skipWarnings bool) error {
	yamlPath := ProjectConfigPath()
	if customPath != "" {
		yamlPath = customPath
	}
	legacyPath := LegacyProjectConfigPath()

	switch {
	case fileExists(yamlPath):
		if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
			return fmt.Errorf("loading project config %s: %w", yamlPath, err)
		}
	case customPath == "" && fileExists(legacyPath):
		if err := k.Load(file.Provider(legacyPath), json.Parser()); err != nil {
			return fmt.Errorf("loading legacy project config %s: %w", legacyPath, err)
		}
		if !skipWarnings {
			fmt.Fprintf(warningWriter, "Warning: using deprecated JSON config at %s; move it to %s\n", legacyPath, yamlPath)
		}
	}
	return nil
}

// envTransform maps PLANOPS_COLUMN_BUDGET onto column_budget.
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, "PLANOPS_"))
}

func validate(cfg *Configuration) error {
	if cfg.Weeks < 1 {
		return fmt.Errorf("weeks must be at least 1, got %d", cfg.Weeks)
	}
	if cfg.ColumnBudget < 0 {
		return fmt.Errorf("column_budget must not be negative, got %d", cfg.ColumnBudget)
	}
	if cfg.LabelWidth < 8 {
		return fmt.Errorf("label_width must be at least 8, got %d", cfg.LabelWidth)
	}
	if cfg.LaneMode != "collapsed" && cfg.LaneMode != "expanded" {
		return fmt.Errorf("lane_mode must be collapsed or expanded, got %q", cfg.LaneMode)
	}
	if cfg.WatchDebounceMS < 0 {
		return fmt.Errorf("watch_debounce_ms must not be negative, got %d", cfg.WatchDebounceMS)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
