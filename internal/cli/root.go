// Package cli implements the planops command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/luvatrix/planops/internal/config"
	"github.com/luvatrix/planops/internal/logging"
)

// fallbackBudget is the chart width used when stdout is not a terminal
// and the config does not pin one.
const fallbackBudget = 91

var rootCmd = &cobra.Command{
	Use:   "planops",
	Short: "Milestone and task planning from a versioned JSON ledger",
	Long: `planops maintains a milestone/task ledger with a dependency graph and
renders it into deterministic Gantt, board, and feed artifacts.

Mutations are dry runs by default: planops validates the would-be ledger
and reports the outcome without writing. Pass --apply to persist and
regenerate artifacts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to project config file (default: .planops/config.yml)")
	rootCmd.PersistentFlags().String("planning-dir", "", "Planning directory holding the ledger documents")
	rootCmd.PersistentFlags().String("artifacts-dir", "", "Directory receiving generated artifacts")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
}

// Execute runs the command tree and formats any failure for the
// terminal.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprint(os.Stderr, FormatError(WrapError(err)))
	}
	return err
}

// loadConfig loads configuration and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("planning-dir"); v != "" {
		cfg.PlanningDir = v
	}
	if v, _ := cmd.Flags().GetString("artifacts-dir"); v != "" {
		cfg.ArtifactsDir = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}

	if cfg.ColumnBudget == 0 {
		cfg.ColumnBudget = terminalBudget(cfg.LabelWidth)
	}
	return cfg, nil
}

// terminalBudget derives the chart width from the terminal, leaving room
// for the label field and the annotation column.
func terminalBudget(labelWidth int) int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackBudget
	}
	budget := width - labelWidth - 40
	if budget < 13 {
		budget = 13
	}
	return budget
}

// newLogger builds the command logger from config.
func newLogger(cfg *config.Configuration) *log.Logger {
	return logging.New(os.Stderr, logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
}
