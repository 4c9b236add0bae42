package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luvatrix/planops/internal/schema"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		ActiveMilestones: ScheduleDoc{
			Title:             "Test Schedule",
			BaselineStartDate: "2026-01-05",
			Milestones: []schema.Milestone{
				{
					ID: "M-001", Title: "Foundations", Status: schema.MilestoneInProgress,
					StartWeek: 1, EndWeek: 3, TaskIDs: []string{"T-101"},
				},
			},
		},
		ActiveTasks: TaskDoc{
			Tasks: []schema.Task{
				{ID: "T-101", Title: "Bootstrap", MilestoneID: "M-001", Status: schema.TaskInProgress},
			},
		},
		ArchivedTasks: TaskDoc{
			Tasks: []schema.Task{
				{ID: "T-100", Title: "Old", MilestoneID: "M-001", Status: schema.TaskDone, ArchivedOn: "2026-01-02"},
			},
		},
		Boards: BoardsDoc{
			Boards: []Board{{ID: "default", LaneBy: "milestone"}},
		},
	}
}

func writeSnapshotFiles(t *testing.T, dir string, snap *Snapshot) {
	t.Helper()
	docs := map[string]any{
		MilestonesActiveFile:   snap.ActiveMilestones,
		MilestonesArchivedFile: snap.ArchivedMilestones,
		TasksActiveFile:        snap.ActiveTasks,
		TasksArchivedFile:      snap.ArchivedTasks,
		BoardsFile:             snap.Boards,
	}
	for name, doc := range docs {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLoadRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeSnapshotFiles(t, dir, testSnapshot())

	snap, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	if got := len(snap.ActiveMilestones.Milestones); got != 1 {
		t.Fatalf("got %d active milestones, want 1", got)
	}
	if _, archived, ok := snap.Task("T-100"); !ok || !archived {
		t.Fatalf("T-100 should resolve as archived, got ok=%v archived=%v", ok, archived)
	}
	if _, archived, ok := snap.Task("T-101"); !ok || archived {
		t.Fatalf("T-101 should resolve as active, got ok=%v archived=%v", ok, archived)
	}
	if _, ok := snap.Board("default"); !ok {
		t.Fatal("default board should resolve")
	}
}

func TestLoadMissingActiveDocument(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for missing active documents")
	}
	if !strings.Contains(err.Error(), MilestonesActiveFile) {
		t.Fatalf("error %q should name the missing file", err)
	}
}

func TestLoadMissingArchivedIsEmpty(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	snap := testSnapshot()
	writeSnapshotFiles(t, dir, snap)
	if err := os.Remove(filepath.Join(dir, TasksArchivedFile)); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.ArchivedTasks.Tasks) != 0 {
		t.Fatal("missing archived partition should load empty")
	}
}

func TestSaveBumpsGenerationAndRoundTrips(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	snap := testSnapshot()

	if err := Save(dir, snap); err != nil {
		t.Fatal(err)
	}
	if snap.ActiveMilestones.Generation != 1 {
		t.Fatalf("generation = %d, want 1", snap.ActiveMilestones.Generation)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.ActiveTasks.Generation != 1 {
		t.Fatalf("loaded generation = %d, want 1", loaded.ActiveTasks.Generation)
	}

	if err := Save(dir, loaded); err != nil {
		t.Fatal(err)
	}
	reloaded, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.ActiveTasks.Generation != 2 {
		t.Fatalf("generation after second save = %d, want 2", reloaded.ActiveTasks.Generation)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := Save(dir, testSnapshot()); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()
	snap := testSnapshot()
	clone := snap.Clone()

	clone.ActiveMilestones.Milestones[0].TaskIDs[0] = "T-999"
	clone.ActiveTasks.Tasks[0].Status = schema.TaskDone

	if snap.ActiveMilestones.Milestones[0].TaskIDs[0] != "T-101" {
		t.Fatal("clone mutation leaked into original task_ids")
	}
	if snap.ActiveTasks.Tasks[0].Status != schema.TaskInProgress {
		t.Fatal("clone mutation leaked into original task status")
	}
}

func TestAcquireLock(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		setup       func(t *testing.T, dir string)
		expectError bool
		errorMsg    string
	}{
		"acquire on unlocked dir": {
			expectError: false,
		},
		"fail when live process holds lock": {
			setup: func(t *testing.T, dir string) {
				if err := AcquireLock(dir); err != nil {
					t.Fatal(err)
				}
			},
			expectError: true,
			errorMsg:    "locked by PID",
		},
		"steal stale lock": {
			setup: func(t *testing.T, dir string) {
				// PID unlikely to exist.
				data := []byte("pid: 99999999\nacquired_at: 2026-01-01T00:00:00Z\n")
				if err := os.WriteFile(LockPath(dir), data, 0o644); err != nil {
					t.Fatal(err)
				}
			},
			expectError: false,
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			if tc.setup != nil {
				tc.setup(t, dir)
			}

			err := AcquireLock(dir)
			if tc.expectError {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errorMsg) {
					t.Fatalf("error %q does not contain %q", err, tc.errorMsg)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if err := ReleaseLock(dir); err != nil {
				t.Fatal(err)
			}
			if _, statErr := os.Stat(LockPath(dir)); !os.IsNotExist(statErr) {
				t.Fatal("lock file should be gone after release")
			}
		})
	}
}
