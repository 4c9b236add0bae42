// Package check runs the full integrity suite over a ledger snapshot:
// schema validation for every record, graph acyclicity, reference
// resolution, state-transition invariants, and render idempotence. It
// collects every violation so operators can fix the ledger in one pass.
package check

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/luvatrix/planops/internal/export"
	"github.com/luvatrix/planops/internal/graph"
	"github.com/luvatrix/planops/internal/layout"
	"github.com/luvatrix/planops/internal/ledger"
	"github.com/luvatrix/planops/internal/render"
	"github.com/luvatrix/planops/internal/schema"
)

// Violation is one finding of the suite.
type Violation struct {
	// Kind is the error-taxonomy name, e.g. "CycleDetected".
	Kind string `json:"kind"`
	// Message is the human-readable description.
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Kind, v.Message)
}

// Options configures the render-idempotence stage.
type Options struct {
	Weeks      int
	Budget     int
	LabelWidth int
	BoardID    string
	// SkipRenderCheck disables the idempotence stage (used by the
	// mutation dry-run, which re-renders on apply anyway).
	SkipRenderCheck bool
}

// Run executes the suite and returns every violation found.
func Run(snap *ledger.Snapshot, opts Options) []Violation {
	var out []Violation

	out = append(out, schemaStage(snap)...)
	out = append(out, ownershipStage(snap)...)

	g := graph.Build(snap)
	out = append(out, graphStage(g)...)
	out = append(out, transitionStage(snap, g)...)

	// A broken graph makes rendering undefined; stop before the
	// idempotence stage rather than report render noise.
	if len(out) == 0 && !opts.SkipRenderCheck {
		out = append(out, renderStage(snap, g, opts)...)
	}

	return out
}

// schemaStage validates every record in both partitions.
func schemaStage(snap *ledger.Snapshot) []Violation {
	var out []Violation
	for i := range snap.ActiveMilestones.Milestones {
		out = append(out, classifyAll(schema.ValidateMilestone(&snap.ActiveMilestones.Milestones[i]))...)
	}
	for i := range snap.ArchivedMilestones.Milestones {
		out = append(out, classifyAll(schema.ValidateMilestone(&snap.ArchivedMilestones.Milestones[i]))...)
	}
	for i := range snap.ActiveTasks.Tasks {
		out = append(out, classifyAll(schema.ValidateTask(&snap.ActiveTasks.Tasks[i]))...)
	}
	for i := range snap.ArchivedTasks.Tasks {
		out = append(out, classifyAll(schema.ValidateTask(&snap.ArchivedTasks.Tasks[i]))...)
	}
	out = append(out, duplicateIDStage(snap)...)
	return out
}

// duplicateIDStage enforces id uniqueness across the partition union.
func duplicateIDStage(snap *ledger.Snapshot) []Violation {
	var out []Violation
	seen := make(map[string]string)
	note := func(id, where string) {
		if prev, ok := seen[id]; ok {
			out = append(out, Violation{
				Kind:    "DuplicateID",
				Message: fmt.Sprintf("id %s appears in both %s and %s", id, prev, where),
			})
			return
		}
		seen[id] = where
	}
	for _, m := range snap.ActiveMilestones.Milestones {
		note(m.ID, "active milestones")
	}
	for _, m := range snap.ArchivedMilestones.Milestones {
		note(m.ID, "archived milestones")
	}
	for _, t := range snap.ActiveTasks.Tasks {
		note(t.ID, "active tasks")
	}
	for _, t := range snap.ArchivedTasks.Tasks {
		note(t.ID, "archived tasks")
	}
	return out
}

// ownershipStage enforces milestone<->task link consistency: every
// task_ids entry names a task whose milestone_id points back, and every
// active task is listed by the milestone it names. Unresolvable ids are
// the graph stage's concern.
func ownershipStage(snap *ledger.Snapshot) []Violation {
	var out []Violation

	for _, m := range snap.ActiveMilestones.Milestones {
		for _, tid := range m.TaskIDs {
			task, _, ok := snap.Task(tid)
			if !ok || task.MilestoneID == m.ID {
				continue
			}
			out = append(out, Violation{
				Kind:    "OwnershipViolation",
				Message: fmt.Sprintf("task %s belongs to milestone %s but is listed by %s", tid, task.MilestoneID, m.ID),
			})
		}
	}

	for _, t := range snap.ActiveTasks.Tasks {
		m, archived, ok := snap.Milestone(t.MilestoneID)
		if !ok || archived {
			continue
		}
		listed := false
		for _, tid := range m.TaskIDs {
			if tid == t.ID {
				listed = true
				break
			}
		}
		if !listed {
			out = append(out, Violation{
				Kind:    "OwnershipViolation",
				Message: fmt.Sprintf("task %s names milestone %s but is missing from its task_ids", t.ID, m.ID),
			})
		}
	}

	return out
}

// graphStage reports dangling references and cycles.
func graphStage(g *graph.Graph) []Violation {
	var out []Violation
	out = append(out, classifyAll(g.ResolveRefs())...)
	out = append(out, classifyAll(g.CheckAcyclic())...)
	return out
}

// transitionStage enforces the unlock and completeness invariants on the
// stored statuses.
func transitionStage(snap *ledger.Snapshot, g *graph.Graph) []Violation {
	var out []Violation

	for _, t := range snap.ActiveTasks.Tasks {
		if t.Status == schema.TaskDone && !g.Unlocked(t.ID) {
			out = append(out, Violation{
				Kind:    "UnlockRuleViolation",
				Message: fmt.Sprintf("task %s is Done but its dependencies are not all Done", t.ID),
			})
		}
	}

	for _, m := range snap.ActiveMilestones.Milestones {
		if m.Status != schema.MilestoneComplete {
			continue
		}
		for _, tid := range m.TaskIDs {
			task, archived, ok := snap.Task(tid)
			if !ok {
				continue // dangling: already reported by the graph stage
			}
			if !archived && task.Status != schema.TaskDone {
				out = append(out, Violation{
					Kind:    "UnlockRuleViolation",
					Message: fmt.Sprintf("milestone %s is Complete but task %s is %s", m.ID, tid, task.Status),
				})
			}
		}
	}

	return out
}

// renderStage renders the corpus twice and asserts byte-for-byte equal
// output from every adapter.
func renderStage(snap *ledger.Snapshot, g *graph.Graph, opts Options) []Violation {
	first, err := renderAll(snap, g, opts)
	if err != nil {
		return []Violation{{Kind: "RenderFailure", Message: err.Error()}}
	}
	second, err := renderAll(snap, g, opts)
	if err != nil {
		return []Violation{{Kind: "RenderFailure", Message: err.Error()}}
	}

	var out []Violation
	for name, data := range first {
		if !bytes.Equal(data, second[name]) {
			out = append(out, Violation{
				Kind:    "RenderNotIdempotent",
				Message: fmt.Sprintf("%s adapter produced different bytes across identical renders", name),
			})
		}
	}
	return out
}

// renderAll produces one output per adapter, keyed by adapter name.
// Kept in sync with the pipeline's artifact set.
func renderAll(snap *ledger.Snapshot, g *graph.Graph, opts Options) (map[string][]byte, error) {
	baseline, err := snap.BaselineStart()
	if err != nil {
		return nil, err
	}
	mapper, err := layout.NewMapper(baseline, opts.Weeks, opts.Budget)
	if err != nil {
		return nil, err
	}

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

	board, ok := snap.Board(opts.BoardID)
	if !ok {
		return nil, fmt.Errorf("board %q not found in registry", opts.BoardID)
	}
	boardTree, err := render.BuildBoard(snap, g, board)
	if err != nil {
		return nil, err
	}

	raster, err := export.RasterGantt(expanded)
	if err != nil {
		return nil, err
	}

	summary := append(export.ASCIIGantt(collapsed), export.ASCIIBoard(boardTree)...)
	return map[string][]byte{
		"ascii-summary":  summary,
		"ascii-detailed": export.ASCIIGantt(expanded),
		"markdown":       export.Markdown(expanded, boardTree, snap, export.MarkdownOptions{}),
		"raster":         raster,
	}, nil
}

// classifyAll maps domain errors onto taxonomy kinds.
func classifyAll(errs []error) []Violation {
	out := make([]Violation, 0, len(errs))
	for _, err := range errs {
		out = append(out, classify(err))
	}
	return out
}

func classify(err error) Violation {
	var (
		missing  *schema.MissingFieldError
		badID    *schema.BadIDFormatError
		badStat  *schema.BadStatusError
		badRef   *schema.BadBoardRefError
		cycle    *graph.CycleError
		dangling *graph.DanglingDependencyError
	)
	switch {
	case errors.As(err, &missing):
		if missing.Field == "task_ids" {
			return Violation{Kind: "NonEmptyTaskIdsViolation", Message: err.Error()}
		}
		return Violation{Kind: "MissingField", Message: err.Error()}
	case errors.As(err, &badID):
		return Violation{Kind: "BadIdFormat", Message: err.Error()}
	case errors.As(err, &badStat):
		return Violation{Kind: "BadStatusValue", Message: err.Error()}
	case errors.As(err, &badRef):
		return Violation{Kind: "BadBoardRef", Message: err.Error()}
	case errors.As(err, &cycle):
		return Violation{Kind: "CycleDetected", Message: err.Error()}
	case errors.As(err, &dangling):
		return Violation{Kind: "DanglingDependency", Message: err.Error()}
	default:
		return Violation{Kind: "Invalid", Message: err.Error()}
	}
}
