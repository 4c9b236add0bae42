package api

import (
	"fmt"
	"sort"

	"github.com/luvatrix/planops/internal/ledger"
	"github.com/luvatrix/planops/internal/schema"
)

// archive handles DELETE for both resources. Nothing is ever destroyed:
// the record moves to the archived partition with an archived_on stamp,
// and archived tasks keep counting as Done for the unlock rule.
func (s *Server) archive(clone *ledger.Snapshot, req Request) (any, []string, error) {
	switch req.Resource {
	case ResourceMilestones:
		return s.archiveMilestone(clone, req)
	default:
		return s.archiveTask(clone, req)
	}
}

func (s *Server) archiveMilestone(clone *ledger.Snapshot, req Request) (any, []string, error) {
	m, ok := activeMilestone(clone, req.ID)
	if !ok {
		return nil, nil, &NotFoundError{Resource: req.Resource, ID: req.ID}
	}

	referrers := milestoneReferrers(clone, m)
	if len(referrers) > 0 && !req.Force {
		return nil, nil, &ActiveReferenceError{ID: m.ID, Referrers: referrers}
	}

	stamp := s.today()
	var diff []string

	// Contained active tasks travel with the milestone.
	for _, tid := range append([]string(nil), m.TaskIDs...) {
		if t, ok := activeTask(clone, tid); ok {
			t.ArchivedOn = stamp
			clone.ArchivedTasks.Tasks = append(clone.ArchivedTasks.Tasks, *t)
			removeActiveTask(clone, tid)
			diff = append(diff, fmt.Sprintf("archived task %s", tid))
		}
	}

	// Strip depends_on references from the remaining active records.
	for i := range clone.ActiveMilestones.Milestones {
		other := &clone.ActiveMilestones.Milestones[i]
		if containsString(other.DependsOn, m.ID) {
			old := append([]string(nil), other.DependsOn...)
			other.DependsOn = removeString(other.DependsOn, m.ID)
			diff = append(diff, fieldChange(other.ID, "depends_on", old, other.DependsOn))
		}
	}

	m.ArchivedOn = stamp
	archived := *m
	clone.ArchivedMilestones.Milestones = append(clone.ArchivedMilestones.Milestones, archived)
	removeActiveMilestone(clone, m.ID)
	diff = append([]string{fmt.Sprintf("archived milestone %s", archived.ID)}, diff...)

	return &archived, diff, nil
}

func (s *Server) archiveTask(clone *ledger.Snapshot, req Request) (any, []string, error) {
	t, ok := activeTask(clone, req.ID)
	if !ok {
		return nil, nil, &NotFoundError{Resource: req.Resource, ID: req.ID}
	}

	referrers := taskReferrers(clone, t.ID)
	var diff []string
	if len(referrers) > 0 {
		if !req.ForceRemoveDeps {
			return nil, nil, &ActiveReferenceError{ID: t.ID, Referrers: referrers}
		}
		for i := range clone.ActiveTasks.Tasks {
			other := &clone.ActiveTasks.Tasks[i]
			if containsString(other.DependsOn, t.ID) {
				old := append([]string(nil), other.DependsOn...)
				other.DependsOn = removeString(other.DependsOn, t.ID)
				diff = append(diff, fieldChange(other.ID, "depends_on", old, other.DependsOn))
			}
		}
	}

	// The id stays in the owning milestone's task_ids: the archived task
	// still resolves there and counts as Done for completeness.
	t.ArchivedOn = s.today()
	archived := *t
	clone.ArchivedTasks.Tasks = append(clone.ArchivedTasks.Tasks, archived)
	removeActiveTask(clone, t.ID)
	diff = append([]string{fmt.Sprintf("archived task %s", archived.ID)}, diff...)

	return &archived, diff, nil
}

// milestoneReferrers lists what blocks archiving m: active milestones
// depending on it and its own still-active tasks.
func milestoneReferrers(snap *ledger.Snapshot, m *schema.Milestone) []string {
	var out []string
	for i := range snap.ActiveMilestones.Milestones {
		other := &snap.ActiveMilestones.Milestones[i]
		if containsString(other.DependsOn, m.ID) {
			out = append(out, other.ID)
		}
	}
	for _, tid := range m.TaskIDs {
		if _, ok := activeTask(snap, tid); ok {
			out = append(out, tid)
		}
	}
	sort.Strings(out)
	return out
}

// taskReferrers lists active tasks whose depends_on points at id.
func taskReferrers(snap *ledger.Snapshot, id string) []string {
	var out []string
	for i := range snap.ActiveTasks.Tasks {
		other := &snap.ActiveTasks.Tasks[i]
		if containsString(other.DependsOn, id) {
			out = append(out, other.ID)
		}
	}
	sort.Strings(out)
	return out
}

func removeActiveMilestone(snap *ledger.Snapshot, id string) {
	list := snap.ActiveMilestones.Milestones
	for i := range list {
		if list[i].ID == id {
			snap.ActiveMilestones.Milestones = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func removeActiveTask(snap *ledger.Snapshot, id string) {
	list := snap.ActiveTasks.Tasks
	for i := range list {
		if list[i].ID == id {
			snap.ActiveTasks.Tasks = append(list[:i], list[i+1:]...)
			return
		}
	}
}
