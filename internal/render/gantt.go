package render

import (
	"fmt"
	"sort"
	"time"

	"github.com/luvatrix/planops/internal/graph"
	"github.com/luvatrix/planops/internal/layout"
	"github.com/luvatrix/planops/internal/ledger"
	"github.com/luvatrix/planops/internal/schema"
)

// LaneMode selects the Gantt rendering resolution.
type LaneMode string

const (
	// Collapsed compresses historical milestones to a single column.
	Collapsed LaneMode = "collapsed"
	// Expanded renders full per-week resolution for every row.
	Expanded LaneMode = "expanded"
)

// Valid reports whether m is a known lane mode.
func (m LaneMode) Valid() bool {
	return m == Collapsed || m == Expanded
}

// GanttRow is one milestone bar of the chart.
type GanttRow struct {
	ID    string
	Label string
	// Status drives the glyph/color via the status table.
	Status schema.MilestoneStatus
	// StartCol..EndCol is the inclusive occupied column range.
	StartCol, EndCol int
	// Annotation trails the bar (status text, completion date).
	Annotation string
	// Historical marks archived or Complete milestones; collapsed mode
	// compresses these to one column.
	Historical bool
}

// Connector is a dependency line between two rows: From must finish
// before To begins.
type Connector struct {
	From, To string
	// FromCol is From's last occupied column, ToCol is To's first.
	FromCol, ToCol int
	// Overlap is set when the two column ranges intersect.
	Overlap bool
}

// GanttTree is the structured output of the Gantt renderer, consumed by
// the export adapters.
type GanttTree struct {
	Title         string
	BaselineStart time.Time
	Weeks         int
	Columns       int
	LabelWidth    int
	Mode          LaneMode
	Rows          []GanttRow
	Connectors    []Connector
	Mapper        *layout.Mapper
}

// GanttOptions configures the Gantt renderer.
type GanttOptions struct {
	Mode       LaneMode
	LabelWidth int
}

// BuildGantt renders the milestone schedule into a Gantt tree. Rows are
// ordered archived and Complete milestones first (lexicographic), then
// the remainder in deterministic topological order. The graph must
// already be validated: a cycle or dangling reference aborts the render.
func BuildGantt(snap *ledger.Snapshot, g *graph.Graph, m *layout.Mapper, opts GanttOptions) (*GanttTree, error) {
	if errs := g.ResolveRefs(); len(errs) > 0 {
		return nil, fmt.Errorf("refusing to render: %w", errs[0])
	}
	if errs := g.CheckAcyclic(); len(errs) > 0 {
		return nil, fmt.Errorf("refusing to render: %w", errs[0])
	}
	if !opts.Mode.Valid() {
		return nil, fmt.Errorf("unknown lane mode %q", opts.Mode)
	}
	if opts.LabelWidth < 8 {
		return nil, fmt.Errorf("label width %d too narrow", opts.LabelWidth)
	}

	tree := &GanttTree{
		Title:         snap.ActiveMilestones.Title,
		BaselineStart: m.WeekStart(1),
		Weeks:         m.Weeks(),
		Columns:       m.Budget(),
		LabelWidth:    opts.LabelWidth,
		Mode:          opts.Mode,
		Mapper:        m,
	}

	ordered := orderMilestones(snap, g)
	rowByID := make(map[string]*GanttRow, len(ordered))
	for _, om := range ordered {
		row := buildRow(om, m, opts)
		tree.Rows = append(tree.Rows, row)
		rowByID[row.ID] = &tree.Rows[len(tree.Rows)-1]
	}

	tree.Connectors = buildConnectors(ordered, rowByID)
	return tree, nil
}

type orderedMilestone struct {
	m          *schema.Milestone
	historical bool
}

// orderMilestones returns archived/Complete milestones first in id order,
// then the rest in topological order.
func orderMilestones(snap *ledger.Snapshot, g *graph.Graph) []orderedMilestone {
	var historical, forward []orderedMilestone

	for i := range snap.ArchivedMilestones.Milestones {
		historical = append(historical, orderedMilestone{&snap.ArchivedMilestones.Milestones[i], true})
	}
	active := make(map[string]*schema.Milestone)
	for i := range snap.ActiveMilestones.Milestones {
		m := &snap.ActiveMilestones.Milestones[i]
		if m.Status == schema.MilestoneComplete {
			historical = append(historical, orderedMilestone{m, true})
		} else {
			active[m.ID] = m
		}
	}

	sort.Slice(historical, func(i, j int) bool {
		return historical[i].m.ID < historical[j].m.ID
	})

	for _, id := range g.TopoOrder() {
		if m, ok := active[id]; ok {
			forward = append(forward, orderedMilestone{m, false})
		}
	}

	return append(historical, forward...)
}

// buildRow maps one milestone onto its columns.
func buildRow(om orderedMilestone, m *layout.Mapper, opts GanttOptions) GanttRow {
	start, end := m.Span(om.m.StartWeek, om.m.EndWeek)
	if opts.Mode == Collapsed && om.historical {
		end = start
	}

	return GanttRow{
		ID:         om.m.ID,
		Label:      padLabel(milestoneLabel(om.m), opts.LabelWidth),
		Status:     om.m.Status,
		StartCol:   start,
		EndCol:     end,
		Annotation: statusAnnotation(om.m),
		Historical: om.historical,
	}
}

// milestoneLabel joins id, optional emoji, and title.
func milestoneLabel(m *schema.Milestone) string {
	if m.Emoji != "" {
		return fmt.Sprintf("%s %s %s", m.ID, m.Emoji, m.Title)
	}
	return fmt.Sprintf("%s %s", m.ID, m.Title)
}

// padLabel truncates or pads a label to the configured width.
func padLabel(label string, width int) string {
	runes := []rune(label)
	if len(runes) > width {
		return string(runes[:width])
	}
	return fmt.Sprintf("%-*s", width, label)
}

// statusAnnotation is the trailing text after a bar.
func statusAnnotation(m *schema.Milestone) string {
	if m.Status == schema.MilestoneComplete && m.CompletedOn != "" {
		return fmt.Sprintf("Complete (%s)", m.CompletedOn)
	}
	return string(m.Status)
}

// buildConnectors emits one connector per milestone dependency edge,
// sorted for reproducible output.
func buildConnectors(ordered []orderedMilestone, rows map[string]*GanttRow) []Connector {
	var out []Connector
	for _, om := range ordered {
		to := rows[om.m.ID]
		deps := append([]string(nil), om.m.DependsOn...)
		sort.Strings(deps)
		for _, dep := range deps {
			from, ok := rows[dep]
			if !ok {
				continue
			}
			out = append(out, Connector{
				From:    from.ID,
				To:      to.ID,
				FromCol: from.EndCol,
				ToCol:   to.StartCol,
				Overlap: from.EndCol >= to.StartCol && to.EndCol >= from.StartCol,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}
