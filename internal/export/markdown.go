package export

import (
	"fmt"
	"strings"

	"github.com/luvatrix/planops/internal/ledger"
	"github.com/luvatrix/planops/internal/render"
	"github.com/luvatrix/planops/internal/schema"
)

// MarkdownOptions carries document-level context the trees do not hold.
type MarkdownOptions struct {
	// SourcePath names the canonical ledger document in the footer.
	SourcePath string
	// SourceRev is an optional VCS revision stamp.
	SourceRev string
}

// Markdown serializes the Gantt and board trees into one report. Glyph
// selection is the renderer's; only escaping and framing differ from the
// ASCII adapter.
func Markdown(tree *render.GanttTree, board *render.BoardTree, snap *ledger.Snapshot, opts MarkdownOptions) []byte {
	var sb strings.Builder

	title := tree.Title
	if title == "" {
		title = "Milestone Gantt"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	writeWeekLine(&sb, tree)
	sb.WriteString("Legend: \U0001F535 In Progress | ⚪ Planned | \U0001F7E0 At Risk | \U0001F534 Blocked | \U0001F7E2 Complete\n\n")

	writeMarkdownChart(&sb, tree)
	writeMilestoneDetails(&sb, snap)
	writeBoardTable(&sb, board)
	writeFooter(&sb, opts)

	return []byte(sb.String())
}

func writeWeekLine(sb *strings.Builder, tree *render.GanttTree) {
	parts := make([]string, tree.Weeks)
	for w := 1; w <= tree.Weeks; w++ {
		parts[w-1] = fmt.Sprintf("W%02d", w)
	}
	fmt.Fprintf(sb, "Weeks: %s\n\n", strings.Join(parts, " "))
}

// writeMarkdownChart emits a per-week bar per milestone inside a code
// block, one character per week regardless of the column budget.
func writeMarkdownChart(sb *strings.Builder, tree *render.GanttTree) {
	sb.WriteString("```text\n")
	for _, row := range tree.Rows {
		bar := weekBar(row, tree)
		style := render.StyleFor(row.Status)
		fmt.Fprintf(sb, "%s  %s  %s %s\n", row.Label, bar, style.Emoji, row.Annotation)
	}
	sb.WriteString("```\n\n")
}

// weekBar renders one █/· cell per week from the row's column range.
func weekBar(row render.GanttRow, tree *render.GanttTree) string {
	var bar strings.Builder
	for w := 1; w <= tree.Weeks; w++ {
		start := tree.Mapper.ColumnStart(w)
		if start >= row.StartCol && start <= row.EndCol {
			bar.WriteString("█")
		} else {
			bar.WriteString("·")
		}
	}
	return bar.String()
}

func writeMilestoneDetails(sb *strings.Builder, snap *ledger.Snapshot) {
	sb.WriteString("## Milestone Details\n\n")
	writeMilestoneSection(sb, snap.ActiveMilestones.Milestones, false)
	writeMilestoneSection(sb, snap.ArchivedMilestones.Milestones, true)
}

func writeMilestoneSection(sb *strings.Builder, milestones []schema.Milestone, archived bool) {
	for i := range milestones {
		m := &milestones[i]
		fmt.Fprintf(sb, "### %s %s\n", m.ID, m.Title)
		status := string(m.Status)
		if archived {
			status += " (archived)"
		}
		fmt.Fprintf(sb, "- Status: %s\n", status)
		fmt.Fprintf(sb, "- Target window: Week %d-%d\n", m.StartWeek, m.EndWeek)
		if m.CompletedOn != "" {
			fmt.Fprintf(sb, "- Completed on: %s\n", m.CompletedOn)
		}
		if len(m.DependsOn) > 0 {
			fmt.Fprintf(sb, "- Depends on: `%s`\n", strings.Join(m.DependsOn, "`, `"))
		}
		if len(m.TaskIDs) > 0 {
			fmt.Fprintf(sb, "- Tasks: `%s`\n", strings.Join(m.TaskIDs, "`, `"))
		}
		if len(m.SuccessCriteria) > 0 {
			sb.WriteString("- Success criteria:\n")
			for _, c := range m.SuccessCriteria {
				fmt.Fprintf(sb, "  - %s\n", c)
			}
		}
		sb.WriteString("\n")
	}
}

// writeBoardTable renders the board as one markdown table, lanes as rows.
func writeBoardTable(sb *strings.Builder, board *render.BoardTree) {
	title := board.Title
	if title == "" {
		title = board.BoardID
	}
	fmt.Fprintf(sb, "## Board: %s\n\n", title)

	header := make([]string, 0, len(render.BoardColumns)+1)
	header = append(header, "Lane")
	for _, col := range render.BoardColumns {
		header = append(header, string(col))
	}
	sb.WriteString("| " + strings.Join(header, " | ") + " |\n")
	sb.WriteString("|" + strings.Repeat(" --- |", len(header)) + "\n")

	for _, lane := range board.Lanes {
		cells := make([]string, 0, len(render.BoardColumns)+1)
		cells = append(cells, escapePipes(lane.ID))
		for _, col := range render.BoardColumns {
			cards := lane.Cells[col]
			if len(cards) == 0 {
				cells = append(cells, "—")
				continue
			}
			cells = append(cells, escapePipes(joinCards(cards)))
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	sb.WriteString("\n")
}

// escapePipes keeps card titles from breaking table cells.
func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func writeFooter(sb *strings.Builder, opts MarkdownOptions) {
	if opts.SourcePath != "" {
		fmt.Fprintf(sb, "Canonical schedule source: `%s`\n", opts.SourcePath)
	}
	if opts.SourceRev != "" {
		fmt.Fprintf(sb, "Generated from revision `%s`\n", opts.SourceRev)
	}
}
