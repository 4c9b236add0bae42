package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/luvatrix/planops/internal/check"
	"github.com/luvatrix/planops/internal/ledger"
)

var validateSkipRender bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the full integrity suite over the ledger",
	Long: `Validate every record in both partitions, the dependency graph, the
state-transition invariants, and render idempotence. All findings are
reported, not just the first.`,
	Example: `  planops validate

  # Skip the render-idempotence stage for a faster check
  planops validate --skip-render`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateSkipRender, "skip-render", false, "Skip the render-idempotence stage")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	snap, err := ledger.Load(cfg.PlanningDir)
	if err != nil {
		return err
	}

	violations := check.Run(snap, check.Options{
		Weeks:           cfg.Weeks,
		Budget:          cfg.ColumnBudget,
		LabelWidth:      cfg.LabelWidth,
		BoardID:         cfg.Board,
		SkipRenderCheck: validateSkipRender,
	})

	out := cmd.OutOrStdout()
	if len(violations) == 0 {
		fmt.Fprintln(out, color.GreenString("✓")+" ledger is consistent")
		return nil
	}

	for _, v := range violations {
		fmt.Fprintf(out, "%s %s: %s\n", color.RedString("✗"), v.Kind, v.Message)
	}
	return &CLIError{
		Category: CategoryValidation,
		Message:  fmt.Sprintf("%d violation(s) found", len(violations)),
		Remediation: []string{
			"Fix the listed records, then rerun 'planops validate'",
		},
	}
}
