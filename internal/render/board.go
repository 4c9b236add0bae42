package render

import (
	"fmt"
	"sort"

	"github.com/luvatrix/planops/internal/graph"
	"github.com/luvatrix/planops/internal/ledger"
	"github.com/luvatrix/planops/internal/schema"
)

// Column is one agile board column.
type Column string

const (
	ColBacklog    Column = "Backlog"
	ColReady      Column = "Ready"
	ColInProgress Column = "In Progress"
	ColReview     Column = "Review"
	ColDone       Column = "Done"
	// ColBlocked is the displayed home of blocked cards: stored-Blocked
	// tasks plus tasks forced out of Ready/In Progress by the unlock rule.
	ColBlocked Column = "Blocked"
)

// BoardColumns is the display order of the board columns.
var BoardColumns = []Column{ColBacklog, ColReady, ColInProgress, ColReview, ColDone, ColBlocked}

// Card is one task on the board.
type Card struct {
	ID    string
	Title string
	// Stored is the task's ledger status, untouched by display rules.
	Stored schema.TaskStatus
	// Forced is set when the unlock rule moved the card into Blocked.
	Forced bool
}

// BoardLane is one swimlane with its cells.
type BoardLane struct {
	ID    string
	Title string
	Cells map[Column][]Card
}

// BoardTree is the structured output of the board renderer.
type BoardTree struct {
	BoardID string
	Title   string
	Lanes   []BoardLane
}

// BuildBoard places every active task onto the configured board. The
// renderer is agnostic to lane semantics: the board config decides whether
// lanes are milestones or teams. Placement is the stored status, except a
// task is force-displayed as Blocked when its dependencies are not all
// satisfied and its stored status is Ready or In Progress. Cards within a
// cell are ordered by ascending id. Stored statuses are never rewritten.
func BuildBoard(snap *ledger.Snapshot, g *graph.Graph, board *ledger.Board) (*BoardTree, error) {
	if errs := g.ResolveRefs(); len(errs) > 0 {
		return nil, fmt.Errorf("refusing to render: %w", errs[0])
	}
	if errs := g.CheckAcyclic(); len(errs) > 0 {
		return nil, fmt.Errorf("refusing to render: %w", errs[0])
	}

	lanes, err := boardLanes(snap, board)
	if err != nil {
		return nil, err
	}

	tree := &BoardTree{BoardID: board.ID, Title: board.Title}
	byLane := make(map[string]*BoardLane, len(lanes))
	for _, lane := range lanes {
		tree.Lanes = append(tree.Lanes, BoardLane{
			ID:    lane.ID,
			Title: lane.Title,
			Cells: make(map[Column][]Card),
		})
		byLane[lane.ID] = &tree.Lanes[len(tree.Lanes)-1]
	}

	for i := range snap.ActiveTasks.Tasks {
		task := &snap.ActiveTasks.Tasks[i]
		lane, ok := byLane[laneFor(task, board)]
		if !ok {
			continue // task not on this board
		}
		col, forced := placeCard(task, g)
		lane.Cells[col] = append(lane.Cells[col], Card{
			ID:     task.ID,
			Title:  task.Title,
			Stored: task.Status,
			Forced: forced,
		})
	}

	for i := range tree.Lanes {
		for col := range tree.Lanes[i].Cells {
			cards := tree.Lanes[i].Cells[col]
			sort.Slice(cards, func(a, b int) bool { return cards[a].ID < cards[b].ID })
		}
	}

	return tree, nil
}

// boardLanes resolves the lane list: explicit lanes for team boards,
// active milestones (id order) for milestone boards without explicit lanes.
func boardLanes(snap *ledger.Snapshot, board *ledger.Board) ([]ledger.Lane, error) {
	if len(board.Lanes) > 0 {
		return board.Lanes, nil
	}
	if board.LaneBy != string(schema.RefMilestone) {
		return nil, fmt.Errorf("board %s: lane_by %q requires an explicit lane list", board.ID, board.LaneBy)
	}

	lanes := make([]ledger.Lane, 0, len(snap.ActiveMilestones.Milestones))
	for _, m := range snap.ActiveMilestones.Milestones {
		lanes = append(lanes, ledger.Lane{ID: m.ID, Title: m.Title})
	}
	sort.Slice(lanes, func(i, j int) bool { return lanes[i].ID < lanes[j].ID })
	return lanes, nil
}

// laneFor picks the lane id a task belongs to on this board.
func laneFor(task *schema.Task, board *ledger.Board) string {
	if board.LaneBy == string(schema.RefTeam) {
		for _, ref := range task.BoardRefs {
			if ref.Kind == schema.RefTeam {
				return ref.Value
			}
		}
		return ""
	}
	return task.MilestoneID
}

// placeCard applies the forced-Blocked display rule.
func placeCard(task *schema.Task, g *graph.Graph) (Column, bool) {
	if task.Status == schema.TaskBlocked {
		return ColBlocked, false
	}
	locked := !g.Unlocked(task.ID)
	if locked && (task.Status == schema.TaskReady || task.Status == schema.TaskInProgress) {
		return ColBlocked, true
	}
	return Column(task.Status), false
}
