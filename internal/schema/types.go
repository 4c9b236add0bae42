// Package schema defines the typed records of the planning ledger and
// record-level validation. Resolution of references across records is the
// graph package's job; schema checks are pure and local to one record.
package schema

import "regexp"

// MilestoneStatus is the closed set of milestone states.
type MilestoneStatus string

const (
	MilestonePlanned    MilestoneStatus = "Planned"
	MilestoneInProgress MilestoneStatus = "In Progress"
	MilestoneAtRisk     MilestoneStatus = "At Risk"
	MilestoneBlocked    MilestoneStatus = "Blocked"
	MilestoneComplete   MilestoneStatus = "Complete"
)

// AllMilestoneStatuses lists the valid milestone statuses in display order.
var AllMilestoneStatuses = []MilestoneStatus{
	MilestonePlanned,
	MilestoneInProgress,
	MilestoneAtRisk,
	MilestoneBlocked,
	MilestoneComplete,
}

// Valid reports whether s is a member of the milestone status enum.
func (s MilestoneStatus) Valid() bool {
	for _, v := range AllMilestoneStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// TaskStatus is the closed set of task states.
type TaskStatus string

const (
	TaskBacklog    TaskStatus = "Backlog"
	TaskReady      TaskStatus = "Ready"
	TaskInProgress TaskStatus = "In Progress"
	TaskReview     TaskStatus = "Review"
	TaskDone       TaskStatus = "Done"
	TaskBlocked    TaskStatus = "Blocked"
)

// AllTaskStatuses lists the valid task statuses in board column order.
var AllTaskStatuses = []TaskStatus{
	TaskBacklog,
	TaskReady,
	TaskInProgress,
	TaskReview,
	TaskDone,
	TaskBlocked,
}

// Valid reports whether s is a member of the task status enum.
func (s TaskStatus) Valid() bool {
	for _, v := range AllTaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// RefKind is the closed set of board reference kinds.
type RefKind string

const (
	RefMilestone  RefKind = "milestone"
	RefTeam       RefKind = "team"
	RefSpecialist RefKind = "specialist"
)

// Valid reports whether k is a member of the reference kind enum.
func (k RefKind) Valid() bool {
	return k == RefMilestone || k == RefTeam || k == RefSpecialist
}

// BoardRef is a typed reference from a task to a board lane source.
// It is validated against the boards registry, never parsed from a string
// at render time.
type BoardRef struct {
	Kind  RefKind `json:"kind"`
	Value string  `json:"value"`
}

// Milestone is one row of the milestone schedule.
type Milestone struct {
	// ID is the unique milestone token (e.g., "M-011").
	ID string `json:"id"`
	// Title is the human-readable milestone name.
	Title string `json:"title"`
	// Emoji is an optional decorative icon shown next to the title.
	Emoji string `json:"emoji,omitempty"`
	// Status is the current milestone state.
	Status MilestoneStatus `json:"status"`
	// StartWeek and EndWeek are 1-based weeks relative to the baseline start.
	StartWeek int `json:"start_week"`
	EndWeek   int `json:"end_week"`
	// DependsOn lists milestone IDs that must complete before this one.
	DependsOn []string `json:"depends_on,omitempty"`
	// TaskIDs is the ordered, non-empty list of tasks under this milestone.
	TaskIDs []string `json:"task_ids"`
	// CompletedOn is the ISO date the milestone reached Complete.
	CompletedOn string `json:"completed_on,omitempty"`
	// SuccessCriteria is optional acceptance prose carried into reports.
	SuccessCriteria []string `json:"success_criteria,omitempty"`
	// ArchivedOn is set when the milestone is moved to the archived partition.
	ArchivedOn string `json:"archived_on,omitempty"`
}

// Task is one row of the task ledger.
type Task struct {
	// ID is the unique task token (e.g., "T-1101").
	ID string `json:"id"`
	// Title is the human-readable task name.
	Title string `json:"title"`
	// MilestoneID is the owning milestone; must resolve in either partition.
	MilestoneID string `json:"milestone_id"`
	// Status is the current task state.
	Status TaskStatus `json:"status"`
	// DependsOn lists task IDs that must be Done before this task can be.
	DependsOn []string `json:"depends_on,omitempty"`
	// Owner references a handler pool or individual owner.
	Owner string `json:"owner,omitempty"`
	// BoardRefs are typed lane references validated against the registry.
	BoardRefs []BoardRef `json:"board_refs,omitempty"`
	// ArchivedOn is set when the task is moved to the archived partition.
	ArchivedOn string `json:"archived_on,omitempty"`
}

var (
	// MilestoneIDPattern matches milestone tokens like M-011 or H-003.
	MilestoneIDPattern = regexp.MustCompile(`^[HM]-\d{3}$`)
	// TaskIDPattern matches task tokens like T-204, T-1101 or T-1101-02.
	TaskIDPattern = regexp.MustCompile(`^T-\d{3,4}(?:-\d{2})?$`)
)

// IsMilestoneID reports whether id is a well-formed milestone token.
func IsMilestoneID(id string) bool {
	return MilestoneIDPattern.MatchString(id)
}

// IsTaskID reports whether id is a well-formed task token.
func IsTaskID(id string) bool {
	return TaskIDPattern.MatchString(id)
}
