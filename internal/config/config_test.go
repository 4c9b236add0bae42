package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadWithOptions(LoadOptions{
		ProjectConfigPath: filepath.Join(t.TempDir(), "nope.yml"),
		SkipWarnings:      true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PlanningDir != "planning" {
		t.Errorf("planning_dir default wrong: %q", cfg.PlanningDir)
	}
	if cfg.Weeks != 13 {
		t.Errorf("weeks default wrong: %d", cfg.Weeks)
	}
	if cfg.LaneMode != "collapsed" {
		t.Errorf("lane_mode default wrong: %q", cfg.LaneMode)
	}
	if cfg.CascadeReset {
		t.Error("cascade_reset should default to off")
	}
}

func TestLoadProjectConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := "planning_dir: ledger\nweeks: 26\nlane_mode: expanded\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWithOptions(LoadOptions{ProjectConfigPath: path, SkipWarnings: true})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PlanningDir != "ledger" {
		t.Errorf("planning_dir not overridden: %q", cfg.PlanningDir)
	}
	if cfg.Weeks != 26 {
		t.Errorf("weeks not overridden: %d", cfg.Weeks)
	}
	// Untouched keys keep their defaults.
	if cfg.LabelWidth != 30 {
		t.Errorf("label_width default lost: %d", cfg.LabelWidth)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte("weeks: 26\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PLANOPS_WEEKS", "8")
	t.Setenv("PLANOPS_CASCADE_RESET", "true")

	cfg, err := LoadWithOptions(LoadOptions{ProjectConfigPath: path, SkipWarnings: true})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Weeks != 8 {
		t.Errorf("env did not override file: %d", cfg.Weeks)
	}
	if !cfg.CascadeReset {
		t.Error("env bool not applied")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"zero weeks":      "weeks: 0\n",
		"narrow labels":   "label_width: 4\n",
		"bad lane mode":   "lane_mode: sideways\n",
		"negative budget": "column_budget: -5\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadWithOptions(LoadOptions{ProjectConfigPath: path, SkipWarnings: true}); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLegacyJSONConfigWarns(t *testing.T) {
	dir := t.TempDir()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(prev) })

	if err := os.MkdirAll(".planops", 0o755); err != nil {
		t.Fatal(err)
	}
	legacy := `{"weeks": 20}`
	if err := os.WriteFile(filepath.Join(".planops", "config.json"), []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	var warnings bytes.Buffer
	cfg, err := LoadWithOptions(LoadOptions{WarningWriter: &warnings})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Weeks != 20 {
		t.Errorf("legacy JSON not loaded: %d", cfg.Weeks)
	}
	if !strings.Contains(warnings.String(), "deprecated JSON config") {
		t.Errorf("migration warning missing: %q", warnings.String())
	}
}
