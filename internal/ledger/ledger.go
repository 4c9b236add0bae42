// Package ledger loads and persists the planning documents: the active and
// archived milestone schedules, the active and archived task ledgers, and
// the boards registry. A Snapshot is an immutable value passed through the
// pipeline; mutations clone it and write a new snapshot via atomic rename.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/luvatrix/planops/internal/schema"
)

// Document file names under the planning directory.
const (
	MilestonesActiveFile   = "milestones_active.json"
	MilestonesArchivedFile = "milestones_archived.json"
	TasksActiveFile        = "tasks_active.json"
	TasksArchivedFile      = "tasks_archived.json"
	BoardsFile             = "boards_registry.json"
)

// ScheduleDoc is one milestone partition on disk.
type ScheduleDoc struct {
	// Generation increments on every successful apply (optimistic-lock hook).
	Generation int `json:"generation"`
	// Title is the chart title (active partition only).
	Title string `json:"title,omitempty"`
	// BaselineStartDate anchors week 1 (active partition only, ISO date).
	BaselineStartDate string `json:"baseline_start_date,omitempty"`
	// Milestones holds the records in document order.
	Milestones []schema.Milestone `json:"milestones"`
}

// TaskDoc is one task partition on disk.
type TaskDoc struct {
	Generation int           `json:"generation"`
	Tasks      []schema.Task `json:"tasks"`
}

// Lane is one swimlane of a board.
type Lane struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// Board maps a board identifier to its lane configuration.
type Board struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	// LaneBy selects the lane semantics: "milestone" or "team".
	LaneBy string `json:"lane_by"`
	// Lanes is the explicit lane list for team boards. Milestone boards
	// derive lanes from the active schedule when empty.
	Lanes []Lane `json:"lanes,omitempty"`
}

// BoardsDoc is the boards registry on disk.
type BoardsDoc struct {
	Boards []Board `json:"boards"`
}

// Snapshot is the full planning state at one point in time.
type Snapshot struct {
	ActiveMilestones   ScheduleDoc
	ArchivedMilestones ScheduleDoc
	ActiveTasks        TaskDoc
	ArchivedTasks      TaskDoc
	Boards             BoardsDoc
}

// Load reads all planning documents from dir. Missing archived partitions
// and boards registry load as empty documents; the active documents must
// exist.
func Load(dir string) (*Snapshot, error) {
	var snap Snapshot

	if err := readJSON(filepath.Join(dir, MilestonesActiveFile), &snap.ActiveMilestones, true); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, TasksActiveFile), &snap.ActiveTasks, true); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, MilestonesArchivedFile), &snap.ArchivedMilestones, false); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, TasksArchivedFile), &snap.ArchivedTasks, false); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, BoardsFile), &snap.Boards, false); err != nil {
		return nil, err
	}

	return &snap, nil
}

// readJSON reads a JSON document into v. When required is false a missing
// file leaves v zero-valued.
func readJSON(path string, v any, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// BaselineStart parses the baseline start date of the active schedule.
func (s *Snapshot) BaselineStart() (time.Time, error) {
	if s.ActiveMilestones.BaselineStartDate == "" {
		return time.Time{}, fmt.Errorf("active schedule has no baseline_start_date")
	}
	t, err := time.Parse("2006-01-02", s.ActiveMilestones.BaselineStartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing baseline_start_date: %w", err)
	}
	return t, nil
}

// Milestone returns the milestone with the given id from either partition.
// archived reports which partition held it.
func (s *Snapshot) Milestone(id string) (m *schema.Milestone, archived, ok bool) {
	for i := range s.ActiveMilestones.Milestones {
		if s.ActiveMilestones.Milestones[i].ID == id {
			return &s.ActiveMilestones.Milestones[i], false, true
		}
	}
	for i := range s.ArchivedMilestones.Milestones {
		if s.ArchivedMilestones.Milestones[i].ID == id {
			return &s.ArchivedMilestones.Milestones[i], true, true
		}
	}
	return nil, false, false
}

// Task returns the task with the given id from either partition.
// archived reports which partition held it.
func (s *Snapshot) Task(id string) (t *schema.Task, archived, ok bool) {
	for i := range s.ActiveTasks.Tasks {
		if s.ActiveTasks.Tasks[i].ID == id {
			return &s.ActiveTasks.Tasks[i], false, true
		}
	}
	for i := range s.ArchivedTasks.Tasks {
		if s.ArchivedTasks.Tasks[i].ID == id {
			return &s.ArchivedTasks.Tasks[i], true, true
		}
	}
	return nil, false, false
}

// Board returns the board with the given id from the registry.
func (s *Snapshot) Board(id string) (*Board, bool) {
	for i := range s.Boards.Boards {
		if s.Boards.Boards[i].ID == id {
			return &s.Boards.Boards[i], true
		}
	}
	return nil, false
}

// AllIDs returns the set of every milestone and task id across both
// partitions.
func (s *Snapshot) AllIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, m := range s.ActiveMilestones.Milestones {
		ids[m.ID] = struct{}{}
	}
	for _, m := range s.ArchivedMilestones.Milestones {
		ids[m.ID] = struct{}{}
	}
	for _, t := range s.ActiveTasks.Tasks {
		ids[t.ID] = struct{}{}
	}
	for _, t := range s.ArchivedTasks.Tasks {
		ids[t.ID] = struct{}{}
	}
	return ids
}

// Clone returns a deep copy of the snapshot. Mutations operate on the copy
// so a failed dry-run can never disturb the loaded state.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		ActiveMilestones:   cloneScheduleDoc(s.ActiveMilestones),
		ArchivedMilestones: cloneScheduleDoc(s.ArchivedMilestones),
		ActiveTasks:        cloneTaskDoc(s.ActiveTasks),
		ArchivedTasks:      cloneTaskDoc(s.ArchivedTasks),
	}
	out.Boards.Boards = make([]Board, len(s.Boards.Boards))
	for i, b := range s.Boards.Boards {
		nb := b
		nb.Lanes = append([]Lane(nil), b.Lanes...)
		out.Boards.Boards[i] = nb
	}
	return out
}

func cloneScheduleDoc(doc ScheduleDoc) ScheduleDoc {
	out := doc
	out.Milestones = make([]schema.Milestone, len(doc.Milestones))
	for i, m := range doc.Milestones {
		nm := m
		nm.DependsOn = append([]string(nil), m.DependsOn...)
		nm.TaskIDs = append([]string(nil), m.TaskIDs...)
		nm.SuccessCriteria = append([]string(nil), m.SuccessCriteria...)
		out.Milestones[i] = nm
	}
	return out
}

func cloneTaskDoc(doc TaskDoc) TaskDoc {
	out := doc
	out.Tasks = make([]schema.Task, len(doc.Tasks))
	for i, t := range doc.Tasks {
		nt := t
		nt.DependsOn = append([]string(nil), t.DependsOn...)
		nt.BoardRefs = append([]schema.BoardRef(nil), t.BoardRefs...)
		out.Tasks[i] = nt
	}
	return out
}
