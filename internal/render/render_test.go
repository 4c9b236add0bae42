package render

import (
	"strings"
	"testing"
	"time"

	"github.com/luvatrix/planops/internal/graph"
	"github.com/luvatrix/planops/internal/layout"
	"github.com/luvatrix/planops/internal/ledger"
	"github.com/luvatrix/planops/internal/schema"
)

var baseline = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func renderSnapshot() *ledger.Snapshot {
	return &ledger.Snapshot{
		ActiveMilestones: ledger.ScheduleDoc{
			Title:             "Platform Roadmap",
			BaselineStartDate: "2026-01-05",
			Milestones: []schema.Milestone{
				{
					ID: "M-008", Title: "Sensor core", Status: schema.MilestoneComplete,
					StartWeek: 1, EndWeek: 3, TaskIDs: []string{"T-801"},
					CompletedOn: "2026-01-23",
				},
				{
					ID: "M-010", Title: "Frame pipeline", Status: schema.MilestoneInProgress,
					StartWeek: 3, EndWeek: 7, TaskIDs: []string{"T-1001", "T-1002"},
					DependsOn: []string{"M-008"},
				},
				{
					ID: "M-011", Title: "Display runtime", Status: schema.MilestonePlanned,
					StartWeek: 10, EndWeek: 10, TaskIDs: []string{"T-1101"},
					DependsOn: []string{"M-010"},
				},
			},
		},
		ActiveTasks: ledger.TaskDoc{
			Tasks: []schema.Task{
				{ID: "T-801", Title: "calibrate", MilestoneID: "M-008", Status: schema.TaskDone},
				{ID: "T-1001", Title: "decode frames", MilestoneID: "M-010", Status: schema.TaskInProgress},
				{ID: "T-1002", Title: "present frames", MilestoneID: "M-010", Status: schema.TaskReady,
					DependsOn: []string{"T-1001"}},
				{ID: "T-1101", Title: "compose pages", MilestoneID: "M-011", Status: schema.TaskBacklog,
					DependsOn: []string{"T-1002"}},
			},
		},
		Boards: ledger.BoardsDoc{
			Boards: []ledger.Board{
				{ID: "default", Title: "Delivery", LaneBy: "milestone"},
				{ID: "teams", Title: "Teams", LaneBy: "team", Lanes: []ledger.Lane{
					{ID: "runtime", Title: "Runtime"},
				}},
			},
		},
	}
}

func buildFixtures(t *testing.T, snap *ledger.Snapshot, weeks, budget int) (*graph.Graph, *layout.Mapper) {
	t.Helper()
	g := graph.Build(snap)
	m, err := layout.NewMapper(baseline, weeks, budget)
	if err != nil {
		t.Fatal(err)
	}
	return g, m
}

func TestBuildGanttRowOrder(t *testing.T) {
	t.Parallel()

	snap := renderSnapshot()
	g, m := buildFixtures(t, snap, 13, 91)

	tree, err := BuildGantt(snap, g, m, GanttOptions{Mode: Expanded, LabelWidth: 30})
	if err != nil {
		t.Fatal(err)
	}

	if len(tree.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(tree.Rows))
	}
	// Complete first, then topo order of the remainder.
	if tree.Rows[0].ID != "M-008" {
		t.Fatalf("first row %s, want the Complete milestone", tree.Rows[0].ID)
	}
	if !tree.Rows[0].Historical {
		t.Fatal("Complete milestone should be historical")
	}
}

func TestBuildGanttMinimumWidth(t *testing.T) {
	t.Parallel()

	snap := renderSnapshot()
	g, m := buildFixtures(t, snap, 13, 13)

	tree, err := BuildGantt(snap, g, m, GanttOptions{Mode: Expanded, LabelWidth: 30})
	if err != nil {
		t.Fatal(err)
	}

	for _, row := range tree.Rows {
		if row.ID == "M-011" {
			if row.EndCol < row.StartCol {
				t.Fatalf("M-011 bar collapsed: [%d,%d]", row.StartCol, row.EndCol)
			}
			return
		}
	}
	t.Fatal("M-011 row missing")
}

func TestBuildGanttCollapsedCompressesHistory(t *testing.T) {
	t.Parallel()

	snap := renderSnapshot()
	g, m := buildFixtures(t, snap, 13, 91)

	tree, err := BuildGantt(snap, g, m, GanttOptions{Mode: Collapsed, LabelWidth: 30})
	if err != nil {
		t.Fatal(err)
	}

	for _, row := range tree.Rows {
		if row.Historical && row.EndCol != row.StartCol {
			t.Fatalf("historical row %s spans [%d,%d] in collapsed mode", row.ID, row.StartCol, row.EndCol)
		}
	}
}

func TestBuildGanttConnectors(t *testing.T) {
	t.Parallel()

	snap := renderSnapshot()
	g, m := buildFixtures(t, snap, 13, 91)

	tree, err := BuildGantt(snap, g, m, GanttOptions{Mode: Expanded, LabelWidth: 30})
	if err != nil {
		t.Fatal(err)
	}

	if len(tree.Connectors) != 2 {
		t.Fatalf("got %d connectors, want 2", len(tree.Connectors))
	}
	first := tree.Connectors[0]
	if first.From != "M-008" || first.To != "M-010" {
		t.Fatalf("connector %s -> %s, want M-008 -> M-010", first.From, first.To)
	}
	// M-008 ends week 3, M-010 starts week 3: ranges intersect.
	if !first.Overlap {
		t.Fatal("M-008 -> M-010 should be an overlap connector")
	}
	second := tree.Connectors[1]
	if second.Overlap {
		t.Fatal("M-010 -> M-011 should be an arrow connector")
	}
}

func TestBuildGanttRefusesBrokenGraph(t *testing.T) {
	t.Parallel()

	snap := renderSnapshot()
	snap.ActiveTasks.Tasks[1].DependsOn = []string{"T-9999"}
	g, m := buildFixtures(t, snap, 13, 91)

	if _, err := BuildGantt(snap, g, m, GanttOptions{Mode: Expanded, LabelWidth: 30}); err == nil {
		t.Fatal("dangling reference must abort the render")
	}

	snap2 := renderSnapshot()
	snap2.ActiveTasks.Tasks[1].DependsOn = []string{"T-1002"} // T-1001 <-> T-1002
	g2, m2 := buildFixtures(t, snap2, 13, 91)

	_, err := BuildGantt(snap2, g2, m2, GanttOptions{Mode: Expanded, LabelWidth: 30})
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("cycle must abort the render, got %v", err)
	}
}

func TestBuildBoardRefusesBrokenGraph(t *testing.T) {
	t.Parallel()

	snap := renderSnapshot()
	snap.ActiveTasks.Tasks[1].DependsOn = []string{"T-9999"}
	g := graph.Build(snap)
	board, _ := snap.Board("default")

	if _, err := BuildBoard(snap, g, board); err == nil {
		t.Fatal("dangling reference must abort the render")
	}
}

func TestBuildBoardPlacement(t *testing.T) {
	t.Parallel()

	snap := renderSnapshot()
	g := graph.Build(snap)
	board, _ := snap.Board("default")

	tree, err := BuildBoard(snap, g, board)
	if err != nil {
		t.Fatal(err)
	}

	lanes := map[string]*BoardLane{}
	for i := range tree.Lanes {
		lanes[tree.Lanes[i].ID] = &tree.Lanes[i]
	}

	// T-1001 is In Progress with no deps: stays put.
	if cards := lanes["M-010"].Cells[ColInProgress]; len(cards) != 1 || cards[0].ID != "T-1001" {
		t.Fatalf("In Progress cell = %v, want [T-1001]", cards)
	}
	// T-1002 is Ready but T-1001 is not Done: forced into Blocked.
	blocked := lanes["M-010"].Cells[ColBlocked]
	if len(blocked) != 1 || blocked[0].ID != "T-1002" || !blocked[0].Forced {
		t.Fatalf("Blocked cell = %v, want forced T-1002", blocked)
	}
	if blocked[0].Stored != schema.TaskReady {
		t.Fatal("forcing must not rewrite the stored status")
	}
	// T-1101 is Backlog with unsatisfied deps: Backlog is allowed.
	if cards := lanes["M-011"].Cells[ColBacklog]; len(cards) != 1 || cards[0].ID != "T-1101" {
		t.Fatalf("Backlog cell = %v, want [T-1101]", cards)
	}
}

func TestBuildBoardCardOrdering(t *testing.T) {
	t.Parallel()

	snap := renderSnapshot()
	snap.ActiveTasks.Tasks = append(snap.ActiveTasks.Tasks,
		schema.Task{ID: "T-1000", Title: "zzz", MilestoneID: "M-010", Status: schema.TaskInProgress},
	)
	snap.ActiveMilestones.Milestones[1].TaskIDs = append(
		snap.ActiveMilestones.Milestones[1].TaskIDs, "T-1000")

	g := graph.Build(snap)
	board, _ := snap.Board("default")
	tree, err := BuildBoard(snap, g, board)
	if err != nil {
		t.Fatal(err)
	}

	for _, lane := range tree.Lanes {
		if lane.ID != "M-010" {
			continue
		}
		cards := lane.Cells[ColInProgress]
		if len(cards) != 2 || cards[0].ID != "T-1000" || cards[1].ID != "T-1001" {
			t.Fatalf("cards %v not in ascending id order", cards)
		}
	}
}

func TestBuildBoardTeamLanes(t *testing.T) {
	t.Parallel()

	snap := renderSnapshot()
	snap.ActiveTasks.Tasks[1].BoardRefs = []schema.BoardRef{{Kind: schema.RefTeam, Value: "runtime"}}
	g := graph.Build(snap)
	board, _ := snap.Board("teams")

	tree, err := BuildBoard(snap, g, board)
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Lanes) != 1 || tree.Lanes[0].ID != "runtime" {
		t.Fatalf("lanes = %v, want the configured runtime lane", tree.Lanes)
	}
	if cards := tree.Lanes[0].Cells[ColInProgress]; len(cards) != 1 || cards[0].ID != "T-1001" {
		t.Fatalf("runtime lane cards = %v, want [T-1001]", cards)
	}
}
