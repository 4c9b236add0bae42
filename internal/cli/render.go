package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/luvatrix/planops/internal/config"
	"github.com/luvatrix/planops/internal/gitmeta"
	"github.com/luvatrix/planops/internal/ledger"
	"github.com/luvatrix/planops/internal/pipeline"
)

var (
	renderMode    string
	renderBoard   string
	renderStdout  bool
	renderArtFile string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Regenerate all artifacts from the ledger",
	Long: `Render the ledger into every artifact: collapsed and expanded Gantt
charts, the board, the Markdown report, the PNG chart, and the feed
manifest. Writes are atomic; a failed render leaves the previous
artifacts untouched.`,
	Example: `  # Regenerate everything under the configured artifacts directory
  planops render

  # Print one artifact to stdout instead of writing
  planops render --stdout --artifact gantt_summary.txt`,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderMode, "mode", "", "Gantt lane mode: collapsed or expanded")
	renderCmd.Flags().StringVar(&renderBoard, "board", "", "Board id to render")
	renderCmd.Flags().BoolVar(&renderStdout, "stdout", false, "Print one artifact to stdout instead of writing")
	renderCmd.Flags().StringVar(&renderArtFile, "artifact", pipeline.SummaryFile, "Artifact to print with --stdout")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if renderMode != "" {
		cfg.LaneMode = renderMode
	}
	if renderBoard != "" {
		cfg.Board = renderBoard
	}

	snap, err := ledger.Load(cfg.PlanningDir)
	if err != nil {
		return err
	}

	opts := pipelineOptions(cfg)
	if renderStdout {
		// Render into a scratch directory and print the requested file.
		opts.ArtifactsDir = filepath.Join(os.TempDir(), fmt.Sprintf("planops-render-%d", os.Getpid()))
		defer os.RemoveAll(opts.ArtifactsDir)
	}

	spin := newSpinner("Rendering artifacts...")
	if spin != nil {
		spin.Start()
	}
	res, err := pipeline.Regenerate(cmd.Context(), snap, opts)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}

	if renderStdout {
		data, err := os.ReadFile(filepath.Join(opts.ArtifactsDir, renderArtFile))
		if err != nil {
			return fmt.Errorf("artifact %s not produced: %w", renderArtFile, err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	}

	for _, p := range res.Paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}

// pipelineOptions maps the configuration onto pipeline options.
func pipelineOptions(cfg *config.Configuration) pipeline.Options {
	return pipeline.Options{
		ArtifactsDir: cfg.ArtifactsDir,
		Weeks:        cfg.Weeks,
		Budget:       cfg.ColumnBudget,
		LabelWidth:   cfg.LabelWidth,
		BoardID:      cfg.Board,
		SummaryMode:  cfg.LaneMode,
		SourcePath:   filepath.Join(cfg.PlanningDir, ledger.MilestonesActiveFile),
		SourceRev:    sourceRev(cfg.PlanningDir),
		Logger:       newLogger(cfg),
	}
}

// sourceRev stamps artifacts with the ledger repository's HEAD when one
// exists.
func sourceRev(dir string) string {
	return gitmeta.SourceRev(dir)
}

// newSpinner returns a spinner when stderr is a terminal, nil otherwise.
func newSpinner(msg string) *spinner.Spinner {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + msg
	return s
}
