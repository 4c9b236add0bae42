// Package pipeline regenerates every artifact from a ledger snapshot.
// The graph, layout, and render trees are built once; the export adapters
// then run concurrently, each into its own buffer. Nothing touches disk
// until every adapter has succeeded, so a failed run leaves the previous
// artifacts intact.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/luvatrix/planops/internal/export"
	"github.com/luvatrix/planops/internal/graph"
	"github.com/luvatrix/planops/internal/layout"
	"github.com/luvatrix/planops/internal/ledger"
	"github.com/luvatrix/planops/internal/render"
)

// Artifact filenames, fixed so downstream consumers can address them.
const (
	SummaryFile  = "gantt_summary.txt"
	DetailedFile = "gantt_detailed.txt"
	MarkdownFile = "gantt.md"
	RasterFile   = "gantt.png"
	ManifestFile = "feed_manifest.json"
)

// Options configures one regeneration run.
type Options struct {
	// ArtifactsDir receives the generated files.
	ArtifactsDir string
	// Weeks is the schedule window width.
	Weeks int
	// Budget is the column budget shared by the text adapters.
	Budget int
	// LabelWidth is the fixed label field width.
	LabelWidth int
	// BoardID selects the board rendered into the summary and report.
	BoardID string
	// SummaryMode picks the Gantt mode for the summary artifact:
	// collapsed (default) or expanded.
	SummaryMode string
	// SourcePath names the canonical ledger document in the report footer.
	SourcePath string
	// SourceRev is the VCS revision stamp, empty when unknown.
	SourceRev string
	// MaxParallel caps concurrent adapters. Zero means one per adapter.
	MaxParallel int
	// Logger receives progress lines. Nil disables logging.
	Logger *log.Logger
}

// Result reports what a run produced.
type Result struct {
	// Paths lists every written artifact, sorted.
	Paths []string
	// ContentHash is the manifest's hash over the rendered artifacts.
	ContentHash string
}

// Regenerate renders all artifacts from snap and writes them atomically
// under opts.ArtifactsDir. The snapshot is read only; callers holding a
// dirty in-memory copy must pass the state they want rendered.
func Regenerate(ctx context.Context, snap *ledger.Snapshot, opts Options) (*Result, error) {
	trees, err := buildTrees(snap, opts)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buffers, err := renderConcurrently(trees, snap, opts)
	if err != nil {
		return nil, err
	}

	// Hash in fixed adapter order so the manifest is stable.
	hashed := [][]byte{
		buffers[SummaryFile],
		buffers[DetailedFile],
		buffers[MarkdownFile],
		buffers[RasterFile],
	}
	manifest := export.BuildManifest(snap, trees.board, opts.SourceRev, hashed...)
	encoded, err := export.EncodeManifest(manifest)
	if err != nil {
		return nil, err
	}
	buffers[ManifestFile] = encoded

	paths, err := writeAll(opts.ArtifactsDir, buffers, opts.Logger)
	if err != nil {
		return nil, err
	}

	return &Result{Paths: paths, ContentHash: manifest.ContentHash}, nil
}

// renderTrees bundles the structures every adapter reads.
type renderTrees struct {
	collapsed *render.GanttTree
	expanded  *render.GanttTree
	board     *render.BoardTree
}

// buildTrees constructs graph, layout, and render trees once. Any graph
// failure aborts here, before a single byte is rendered or written.
func buildTrees(snap *ledger.Snapshot, opts Options) (*renderTrees, error) {
	baseline, err := snap.BaselineStart()
	if err != nil {
		return nil, err
	}
	mapper, err := layout.NewMapper(baseline, opts.Weeks, opts.Budget)
	if err != nil {
		return nil, err
	}

	g := graph.Build(snap)

	collapsed, err := render.BuildGantt(snap, g, mapper, render.GanttOptions{
		Mode: render.Collapsed, LabelWidth: opts.LabelWidth,
	})
	if err != nil {
		return nil, err
	}
	expanded, err := render.BuildGantt(snap, g, mapper, render.GanttOptions{
		Mode: render.Expanded, LabelWidth: opts.LabelWidth,
	})
	if err != nil {
		return nil, err
	}

	boardDef, ok := snap.Board(opts.BoardID)
	if !ok {
		return nil, fmt.Errorf("board %q not found in registry", opts.BoardID)
	}
	board, err := render.BuildBoard(snap, g, boardDef)
	if err != nil {
		return nil, err
	}

	return &renderTrees{collapsed: collapsed, expanded: expanded, board: board}, nil
}

// renderConcurrently fans the adapters out on an errgroup and collects
// their buffers. The adapters are pure in-memory renders, so the group
// carries no context; cancellation is checked before the fan-out.
func renderConcurrently(trees *renderTrees, snap *ledger.Snapshot, opts Options) (map[string][]byte, error) {
	var g errgroup.Group
	limit := opts.MaxParallel
	if limit <= 0 {
		limit = 4
	}
	g.SetLimit(limit)

	buffers := make(map[string][]byte, 5)
	var mu sync.Mutex
	put := func(name string, data []byte) {
		mu.Lock()
		buffers[name] = data
		mu.Unlock()
	}

	summaryTree := trees.collapsed
	if opts.SummaryMode == "expanded" {
		summaryTree = trees.expanded
	}
	g.Go(func() error {
		summary := append(export.ASCIIGantt(summaryTree), export.ASCIIBoard(trees.board)...)
		put(SummaryFile, summary)
		return nil
	})
	g.Go(func() error {
		put(DetailedFile, export.ASCIIGantt(trees.expanded))
		return nil
	})
	g.Go(func() error {
		md := export.Markdown(trees.expanded, trees.board, snap, export.MarkdownOptions{
			SourcePath: opts.SourcePath,
			SourceRev:  opts.SourceRev,
		})
		put(MarkdownFile, md)
		return nil
	})
	g.Go(func() error {
		data, err := export.RasterGantt(trees.expanded)
		if err != nil {
			return fmt.Errorf("rendering %s: %w", RasterFile, err)
		}
		put(RasterFile, data)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return buffers, nil
}

// writeAll writes every buffer atomically and returns the sorted paths.
func writeAll(dir string, buffers map[string][]byte, logger *log.Logger) ([]string, error) {
	names := make([]string, 0, len(buffers))
	for name := range buffers {
		names = append(names, name)
	}
	sort.Strings(names)

	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := ledger.AtomicWriteFile(path, buffers[name]); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
		if logger != nil {
			logger.Debug("wrote artifact", "path", path, "bytes", len(buffers[name]))
		}
		paths = append(paths, path)
	}
	return paths, nil
}
