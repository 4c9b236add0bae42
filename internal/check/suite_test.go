package check

import (
	"strings"
	"testing"

	"github.com/luvatrix/planops/internal/ledger"
	"github.com/luvatrix/planops/internal/schema"
)

func checkOptions() Options {
	return Options{Weeks: 13, Budget: 91, LabelWidth: 30, BoardID: "default"}
}

func cleanSnapshot() *ledger.Snapshot {
	return &ledger.Snapshot{
		ActiveMilestones: ledger.ScheduleDoc{
			Title:             "Roadmap",
			BaselineStartDate: "2026-01-05",
			Milestones: []schema.Milestone{
				{ID: "M-008", Title: "Sensor core", Status: schema.MilestoneComplete,
					StartWeek: 1, EndWeek: 3, TaskIDs: []string{"T-801"}, CompletedOn: "2026-01-23"},
				{ID: "M-010", Title: "Frame pipeline", Status: schema.MilestoneInProgress,
					StartWeek: 3, EndWeek: 7, TaskIDs: []string{"T-1001", "T-1002"},
					DependsOn: []string{"M-008"}},
			},
		},
		ActiveTasks: ledger.TaskDoc{
			Tasks: []schema.Task{
				{ID: "T-801", Title: "calibrate", MilestoneID: "M-008", Status: schema.TaskDone},
				{ID: "T-1001", Title: "decode frames", MilestoneID: "M-010", Status: schema.TaskInProgress},
				{ID: "T-1002", Title: "present frames", MilestoneID: "M-010", Status: schema.TaskReady,
					DependsOn: []string{"T-1001"}},
			},
		},
		Boards: ledger.BoardsDoc{
			Boards: []ledger.Board{{ID: "default", Title: "Delivery", LaneBy: "milestone"}},
		},
	}
}

func kinds(violations []Violation) []string {
	out := make([]string, len(violations))
	for i, v := range violations {
		out[i] = v.Kind
	}
	return out
}

func assertKind(t *testing.T, violations []Violation, kind string) {
	t.Helper()
	for _, v := range violations {
		if v.Kind == kind {
			return
		}
	}
	t.Errorf("expected a %s violation, got %v", kind, kinds(violations))
}

func TestRunCleanLedger(t *testing.T) {
	t.Parallel()

	got := Run(cleanSnapshot(), checkOptions())
	if len(got) != 0 {
		t.Fatalf("clean ledger reported violations: %v", got)
	}
}

func TestRunCollectsAllViolations(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mutate func(*ledger.Snapshot)
		kind   string
	}{
		"bad milestone id": {
			mutate: func(s *ledger.Snapshot) { s.ActiveMilestones.Milestones[0].ID = "MS-8" },
			kind:   "BadIdFormat",
		},
		"bad status value": {
			mutate: func(s *ledger.Snapshot) { s.ActiveTasks.Tasks[0].Status = "Doing" },
			kind:   "BadStatusValue",
		},
		"empty task ids": {
			mutate: func(s *ledger.Snapshot) { s.ActiveMilestones.Milestones[1].TaskIDs = nil },
			kind:   "NonEmptyTaskIdsViolation",
		},
		"dangling dependency": {
			mutate: func(s *ledger.Snapshot) {
				s.ActiveTasks.Tasks[2].DependsOn = []string{"T-9999"}
			},
			kind: "DanglingDependency",
		},
		"dependency cycle": {
			mutate: func(s *ledger.Snapshot) {
				s.ActiveTasks.Tasks[1].DependsOn = []string{"T-1002"}
			},
			kind: "CycleDetected",
		},
		"done task with unfinished dependency": {
			mutate: func(s *ledger.Snapshot) { s.ActiveTasks.Tasks[2].Status = schema.TaskDone },
			kind:   "UnlockRuleViolation",
		},
		"complete milestone with open task": {
			mutate: func(s *ledger.Snapshot) { s.ActiveTasks.Tasks[0].Status = schema.TaskReady },
			kind:   "UnlockRuleViolation",
		},
		"task listed by a foreign milestone": {
			mutate: func(s *ledger.Snapshot) {
				s.ActiveMilestones.Milestones[0].TaskIDs = append(
					s.ActiveMilestones.Milestones[0].TaskIDs, "T-1001")
			},
			kind: "OwnershipViolation",
		},
		"task missing from its milestone's task_ids": {
			mutate: func(s *ledger.Snapshot) {
				s.ActiveMilestones.Milestones[1].TaskIDs = []string{"T-1001"}
			},
			kind: "OwnershipViolation",
		},
		"duplicate id across partitions": {
			mutate: func(s *ledger.Snapshot) {
				s.ArchivedTasks.Tasks = append(s.ArchivedTasks.Tasks, schema.Task{
					ID: "T-801", Title: "calibrate", MilestoneID: "M-008", Status: schema.TaskDone,
				})
			},
			kind: "DuplicateID",
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			snap := cleanSnapshot()
			tc.mutate(snap)
			got := Run(snap, checkOptions())
			if len(got) == 0 {
				t.Fatal("expected violations, got none")
			}
			assertKind(t, got, tc.kind)
		})
	}
}

func TestRunReportsMultipleFindings(t *testing.T) {
	t.Parallel()

	snap := cleanSnapshot()
	snap.ActiveMilestones.Milestones[0].ID = "MS-8"
	snap.ActiveTasks.Tasks[2].DependsOn = []string{"T-9999"}

	got := Run(snap, checkOptions())
	assertKind(t, got, "BadIdFormat")
	assertKind(t, got, "DanglingDependency")
}

func TestRunStopsBeforeRenderOnBrokenGraph(t *testing.T) {
	t.Parallel()

	snap := cleanSnapshot()
	snap.ActiveTasks.Tasks[1].DependsOn = []string{"T-1002"}

	got := Run(snap, checkOptions())
	for _, v := range got {
		if strings.HasPrefix(v.Kind, "Render") {
			t.Fatalf("render stage ran on a broken graph: %v", got)
		}
	}
}

func TestViolationString(t *testing.T) {
	t.Parallel()

	v := Violation{Kind: "CycleDetected", Message: "T-204 -> T-205 -> T-204"}
	if got := v.String(); got != "CycleDetected: T-204 -> T-205 -> T-204" {
		t.Fatalf("unexpected string: %q", got)
	}
}
