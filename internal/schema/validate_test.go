package schema

import (
	"strings"
	"testing"
)

func validMilestone() *Milestone {
	return &Milestone{
		ID:        "M-011",
		Title:     "Runtime hardening",
		Status:    MilestoneInProgress,
		StartWeek: 3,
		EndWeek:   5,
		TaskIDs:   []string{"T-1101", "T-1102"},
	}
}

func validTask() *Task {
	return &Task{
		ID:          "T-1101",
		Title:       "Wire sensor pipeline",
		MilestoneID: "M-011",
		Status:      TaskReady,
		BoardRefs:   []BoardRef{{Kind: RefTeam, Value: "runtime"}},
	}
}

func TestValidateMilestone(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mutate       func(m *Milestone)
		wantErrs     int
		wantContains []string
	}{
		"valid milestone": {
			mutate:   func(m *Milestone) {},
			wantErrs: 0,
		},
		"missing id": {
			mutate:       func(m *Milestone) { m.ID = "" },
			wantErrs:     1,
			wantContains: []string{"id", "<unknown>"},
		},
		"bad id format": {
			mutate:       func(m *Milestone) { m.ID = "MS-11" },
			wantErrs:     1,
			wantContains: []string{"MS-11", "must match"},
		},
		"missing title": {
			mutate:       func(m *Milestone) { m.Title = "" },
			wantErrs:     1,
			wantContains: []string{"title"},
		},
		"bad status": {
			mutate:       func(m *Milestone) { m.Status = "Doing" },
			wantErrs:     1,
			wantContains: []string{"Doing", "valid statuses"},
		},
		"empty task_ids": {
			mutate:       func(m *Milestone) { m.TaskIDs = nil },
			wantErrs:     1,
			wantContains: []string{"task_ids", "non-empty"},
		},
		"bad task id in task_ids": {
			mutate:       func(m *Milestone) { m.TaskIDs = []string{"T-1101", "task-2"} },
			wantErrs:     1,
			wantContains: []string{"task-2", "task_ids"},
		},
		"bad dep id format": {
			mutate:       func(m *Milestone) { m.DependsOn = []string{"milestone-8"} },
			wantErrs:     1,
			wantContains: []string{"milestone-8", "depends_on"},
		},
		"end before start": {
			mutate:       func(m *Milestone) { m.StartWeek = 6; m.EndWeek = 4 },
			wantErrs:     1,
			wantContains: []string{"end_week 4", "start_week 6"},
		},
		"missing weeks": {
			mutate:       func(m *Milestone) { m.StartWeek = 0; m.EndWeek = 0 },
			wantErrs:     2,
			wantContains: []string{"start_week", "end_week"},
		},
		"multiple violations collected": {
			mutate: func(m *Milestone) {
				m.Title = ""
				m.Status = "???"
				m.TaskIDs = nil
			},
			wantErrs: 3,
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			m := validMilestone()
			tc.mutate(m)

			errs := ValidateMilestone(m)
			if len(errs) != tc.wantErrs {
				t.Fatalf("got %d errors, want %d: %v", len(errs), tc.wantErrs, errs)
			}
			assertErrorsContain(t, errs, tc.wantContains)
		})
	}
}

func TestValidateTask(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mutate       func(task *Task)
		wantErrs     int
		wantContains []string
	}{
		"valid task": {
			mutate:   func(task *Task) {},
			wantErrs: 0,
		},
		"missing milestone_id": {
			mutate:       func(task *Task) { task.MilestoneID = "" },
			wantErrs:     1,
			wantContains: []string{"milestone_id"},
		},
		"bad milestone_id format": {
			mutate:       func(task *Task) { task.MilestoneID = "M11" },
			wantErrs:     1,
			wantContains: []string{"M11", "milestone_id"},
		},
		"bad status": {
			mutate:       func(task *Task) { task.Status = "WIP" },
			wantErrs:     1,
			wantContains: []string{"WIP", "valid statuses"},
		},
		"bad dep format": {
			mutate:       func(task *Task) { task.DependsOn = []string{"1101"} },
			wantErrs:     1,
			wantContains: []string{"1101", "depends_on"},
		},
		"bad board ref kind": {
			mutate: func(task *Task) {
				task.BoardRefs = []BoardRef{{Kind: "squad", Value: "runtime"}}
			},
			wantErrs:     1,
			wantContains: []string{"squad", "kind"},
		},
		"empty board ref value": {
			mutate: func(task *Task) {
				task.BoardRefs = []BoardRef{{Kind: RefTeam}}
			},
			wantErrs:     1,
			wantContains: []string{"empty value"},
		},
		"suffixed task id accepted": {
			mutate:   func(task *Task) { task.ID = "T-1101-02" },
			wantErrs: 0,
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			task := validTask()
			tc.mutate(task)

			errs := ValidateTask(task)
			if len(errs) != tc.wantErrs {
				t.Fatalf("got %d errors, want %d: %v", len(errs), tc.wantErrs, errs)
			}
			assertErrorsContain(t, errs, tc.wantContains)
		})
	}
}

func assertErrorsContain(t *testing.T, errs []error, wants []string) {
	t.Helper()
	joined := ""
	for _, err := range errs {
		joined += err.Error() + "\n"
	}
	for _, want := range wants {
		if !strings.Contains(joined, want) {
			t.Errorf("errors %q do not mention %q", joined, want)
		}
	}
}
