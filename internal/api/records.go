package api

import (
	"fmt"
	"strings"

	"github.com/luvatrix/planops/internal/ledger"
	"github.com/luvatrix/planops/internal/schema"
)

// activeMilestone returns a pointer into the clone's active partition.
func activeMilestone(snap *ledger.Snapshot, id string) (*schema.Milestone, bool) {
	for i := range snap.ActiveMilestones.Milestones {
		if snap.ActiveMilestones.Milestones[i].ID == id {
			return &snap.ActiveMilestones.Milestones[i], true
		}
	}
	return nil, false
}

// activeTask returns a pointer into the clone's active partition.
func activeTask(snap *ledger.Snapshot, id string) (*schema.Task, bool) {
	for i := range snap.ActiveTasks.Tasks {
		if snap.ActiveTasks.Tasks[i].ID == id {
			return &snap.ActiveTasks.Tasks[i], true
		}
	}
	return nil, false
}

// taskDone reports whether id resolves to a Done or archived task.
func taskDone(snap *ledger.Snapshot, id string) bool {
	t, archived, ok := snap.Task(id)
	if !ok {
		return false
	}
	return archived || t.Status == schema.TaskDone
}

// unmetDeps lists dependencies of t that are neither Done nor archived.
func unmetDeps(snap *ledger.Snapshot, t *schema.Task) []string {
	var unmet []string
	for _, dep := range t.DependsOn {
		if !taskDone(snap, dep) {
			unmet = append(unmet, dep)
		}
	}
	return unmet
}

// openTasks lists active tasks of m that are not Done.
func openTasks(snap *ledger.Snapshot, m *schema.Milestone) []string {
	var open []string
	for _, tid := range m.TaskIDs {
		t, archived, ok := snap.Task(tid)
		if ok && !archived && t.Status != schema.TaskDone {
			open = append(open, tid)
		}
	}
	return open
}

// removeString drops every occurrence of v from list.
func removeString(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// fieldChange formats one diff line.
func fieldChange(record, field string, old, new any) string {
	return fmt.Sprintf("%s.%s: %s -> %s", record, field, formatValue(old), formatValue(new))
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "(none)"
	case string:
		if x == "" {
			return "(none)"
		}
		return x
	case []string:
		if len(x) == 0 {
			return "(none)"
		}
		return strings.Join(x, ",")
	default:
		return fmt.Sprintf("%v", v)
	}
}
