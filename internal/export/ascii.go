// Package export serializes render trees into the published artifact
// formats. Every adapter is a pure function of its tree: identical input
// yields byte-identical output, which the validation suite asserts.
package export

import (
	"fmt"
	"strings"

	"github.com/luvatrix/planops/internal/render"
)

// ASCIIGantt serializes a Gantt tree as a fixed-width monospace chart
// with a legend block.
func ASCIIGantt(tree *render.GanttTree) []byte {
	var sb strings.Builder

	writeGanttHeader(&sb, tree)
	writeGanttRows(&sb, tree)
	writeGanttConnectors(&sb, tree)
	writeGanttLegend(&sb)

	return []byte(sb.String())
}

func writeGanttHeader(sb *strings.Builder, tree *render.GanttTree) {
	title := tree.Title
	if title == "" {
		title = "Milestone Gantt"
	}
	sb.WriteString(title + "\n")
	fmt.Fprintf(sb, "Baseline start: %s  |  Window: %d weeks  |  Mode: %s\n\n",
		tree.BaselineStart.Format("2006-01-02"), tree.Weeks, tree.Mode)

	pad := strings.Repeat(" ", tree.LabelWidth)
	fmt.Fprintf(sb, "%s|%s|\n", pad, weekHeader(tree))
	if tree.Mode == render.Expanded {
		fmt.Fprintf(sb, "%s|%s|\n", pad, dateHeader(tree))
	}
	fmt.Fprintf(sb, "%s+%s+\n", strings.Repeat("-", tree.LabelWidth), strings.Repeat("-", tree.Columns))
}

// weekHeader stamps a W%02d label at each week's first column.
func weekHeader(tree *render.GanttTree) string {
	row := blankRow(tree.Columns)
	for w := 1; w <= tree.Weeks; w++ {
		stamp(row, tree.Mapper.ColumnStart(w), fmt.Sprintf("W%02d", w))
	}
	return string(row)
}

// dateHeader stamps the MM/DD each week begins at its first column.
func dateHeader(tree *render.GanttTree) string {
	row := blankRow(tree.Columns)
	for w := 1; w <= tree.Weeks; w++ {
		stamp(row, tree.Mapper.ColumnStart(w), tree.Mapper.WeekStart(w).Format("01/02"))
	}
	return string(row)
}

func blankRow(width int) []byte {
	row := make([]byte, width)
	for i := range row {
		row[i] = ' '
	}
	return row
}

// stamp writes label into row starting at col, clipped to the row.
func stamp(row []byte, col int, label string) {
	for i := 0; i < len(label) && col+i < len(row); i++ {
		if row[col+i] == ' ' {
			row[col+i] = label[i]
		}
	}
}

func writeGanttRows(sb *strings.Builder, tree *render.GanttTree) {
	for _, r := range tree.Rows {
		row := blankRow(tree.Columns)
		glyph := render.StyleFor(r.Status).Glyph
		for c := r.StartCol; c <= r.EndCol && c < len(row); c++ {
			row[c] = glyph
		}
		fmt.Fprintf(sb, "%s|%s| %s\n", r.Label, row, r.Annotation)
	}
}

func writeGanttConnectors(sb *strings.Builder, tree *render.GanttTree) {
	if len(tree.Connectors) == 0 {
		return
	}
	sb.WriteString("\nDependencies:\n")
	pad := strings.Repeat(" ", tree.LabelWidth)
	for _, c := range tree.Connectors {
		fmt.Fprintf(sb, "%s|%s| %s -> %s\n", pad, connectorRow(c, tree.Columns), c.From, c.To)
	}
}

// connectorRow draws one dependency line: '+' across the overlap when the
// ranges intersect, otherwise a dashed run ending in an arrow head.
func connectorRow(c render.Connector, width int) string {
	row := blankRow(width)
	lo, hi := c.FromCol, c.ToCol
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi > width-1 {
		hi = width - 1
	}
	if c.Overlap {
		for i := lo; i <= hi; i++ {
			row[i] = '+'
		}
		return string(row)
	}
	for i := lo; i <= hi; i++ {
		row[i] = '-'
	}
	if c.ToCol >= c.FromCol {
		row[hi] = '>'
	} else {
		row[lo] = '<'
	}
	return string(row)
}

func writeGanttLegend(sb *strings.Builder) {
	sb.WriteString("\nLegend: '=' Complete  '#' In Progress  '~' Planned  '!' At Risk  'x' Blocked\n")
	sb.WriteString("Connectors: '+' ranges overlap  '--->' must finish before\n")
}

// ASCIIBoard serializes a board tree as fixed-width text with one section
// per lane and one line per column.
func ASCIIBoard(tree *render.BoardTree) []byte {
	var sb strings.Builder

	title := tree.Title
	if title == "" {
		title = tree.BoardID
	}
	fmt.Fprintf(&sb, "Board: %s (%s)\n", title, tree.BoardID)
	sb.WriteString(strings.Repeat("=", len(title)+len(tree.BoardID)+10) + "\n")

	for _, lane := range tree.Lanes {
		writeLane(&sb, lane)
	}

	sb.WriteString("\nLegend: [!] forced Blocked by unfinished dependencies\n")
	return []byte(sb.String())
}

func writeLane(sb *strings.Builder, lane render.BoardLane) {
	fmt.Fprintf(sb, "\n[%s] %s\n", lane.ID, lane.Title)
	for _, col := range render.BoardColumns {
		cards := lane.Cells[col]
		if len(cards) == 0 {
			fmt.Fprintf(sb, "  %-12s: -\n", col)
			continue
		}
		fmt.Fprintf(sb, "  %-12s: %s\n", col, joinCards(cards))
	}
}

func joinCards(cards []render.Card) string {
	parts := make([]string, len(cards))
	for i, card := range cards {
		if card.Forced {
			parts[i] = fmt.Sprintf("%s[!]", card.ID)
		} else {
			parts[i] = card.ID
		}
	}
	return strings.Join(parts, ", ")
}
