package api

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/luvatrix/planops/internal/graph"
	"github.com/luvatrix/planops/internal/ledger"
	"github.com/luvatrix/planops/internal/schema"
)

// patch handles PATCH for both resources. Only active records can be
// patched; archived records are read-only history.
func (s *Server) patch(clone *ledger.Snapshot, req Request) (any, []string, error) {
	fields, err := decodePatch(req.Body)
	if err != nil {
		return nil, nil, err
	}
	switch req.Resource {
	case ResourceMilestones:
		return s.patchMilestone(clone, req, fields)
	default:
		return s.patchTask(clone, req, fields)
	}
}

func decodePatch(raw json.RawMessage) (map[string]json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("request body required")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decoding patch body: %w", err)
	}
	return fields, nil
}

// sortedFields fixes the merge order so diff output is stable.
func sortedFields(fields map[string]json.RawMessage) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func unmarshalField[T any](raw json.RawMessage, field string) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decoding field %s: %w", field, err)
	}
	return v, nil
}

func (s *Server) patchMilestone(clone *ledger.Snapshot, req Request, fields map[string]json.RawMessage) (any, []string, error) {
	m, ok := activeMilestone(clone, req.ID)
	if !ok {
		return nil, nil, &NotFoundError{Resource: req.Resource, ID: req.ID}
	}

	oldStatus := m.Status
	var diff []string

	for _, field := range sortedFields(fields) {
		raw := fields[field]
		switch field {
		case "title":
			v, err := unmarshalField[string](raw, field)
			if err != nil {
				return nil, nil, err
			}
			diff = append(diff, fieldChange(m.ID, field, m.Title, v))
			m.Title = v
		case "emoji":
			v, err := unmarshalField[string](raw, field)
			if err != nil {
				return nil, nil, err
			}
			diff = append(diff, fieldChange(m.ID, field, m.Emoji, v))
			m.Emoji = v
		case "status":
			v, err := unmarshalField[schema.MilestoneStatus](raw, field)
			if err != nil {
				return nil, nil, err
			}
			diff = append(diff, fieldChange(m.ID, field, string(m.Status), string(v)))
			m.Status = v
		case "start_week":
			v, err := unmarshalField[int](raw, field)
			if err != nil {
				return nil, nil, err
			}
			diff = append(diff, fieldChange(m.ID, field, m.StartWeek, v))
			m.StartWeek = v
		case "end_week":
			v, err := unmarshalField[int](raw, field)
			if err != nil {
				return nil, nil, err
			}
			diff = append(diff, fieldChange(m.ID, field, m.EndWeek, v))
			m.EndWeek = v
		case "depends_on":
			v, err := unmarshalField[[]string](raw, field)
			if err != nil {
				return nil, nil, err
			}
			diff = append(diff, fieldChange(m.ID, field, m.DependsOn, v))
			m.DependsOn = v
		case "success_criteria":
			v, err := unmarshalField[[]string](raw, field)
			if err != nil {
				return nil, nil, err
			}
			diff = append(diff, fieldChange(m.ID, field, m.SuccessCriteria, v))
			m.SuccessCriteria = v
		case "id", "completed_on", "archived_on", "task_ids":
			// task_ids and the stamps are maintained by the system.
			return nil, nil, &ImmutableFieldError{Field: field}
		default:
			return nil, nil, &UnknownFieldError{Field: field}
		}
	}

	if m.Status != oldStatus {
		if err := s.milestoneTransition(clone, m, oldStatus, req.CascadeReset, &diff); err != nil {
			return nil, nil, err
		}
	}

	return m, diff, nil
}

// milestoneTransition enforces completeness on entering Complete and
// handles the reopen policy on leaving it.
func (s *Server) milestoneTransition(clone *ledger.Snapshot, m *schema.Milestone, old schema.MilestoneStatus, cascade bool, diff *[]string) error {
	if m.Status == schema.MilestoneComplete {
		if open := openTasks(clone, m); len(open) > 0 {
			return &MilestoneIncompleteError{ID: m.ID, Open: open}
		}
		m.CompletedOn = s.today()
		*diff = append(*diff, fieldChange(m.ID, "completed_on", "", m.CompletedOn))
		return nil
	}
	if old != schema.MilestoneComplete {
		return nil
	}

	// Reopening. Clear the stamp; dependents revert only when the caller
	// asked for the cascade, otherwise the suite rejects an inconsistent
	// would-be ledger.
	stamp := m.CompletedOn
	m.CompletedOn = ""
	*diff = append(*diff, fieldChange(m.ID, "completed_on", stamp, ""))
	if cascade {
		resetDependentMilestones(clone, m.ID, diff)
	}
	return nil
}

// resetDependentMilestones reverts Complete milestones downstream of id
// to In Progress, transitively.
func resetDependentMilestones(clone *ledger.Snapshot, id string, diff *[]string) {
	for i := range clone.ActiveMilestones.Milestones {
		dep := &clone.ActiveMilestones.Milestones[i]
		if dep.Status != schema.MilestoneComplete || !containsString(dep.DependsOn, id) {
			continue
		}
		*diff = append(*diff, fieldChange(dep.ID, "status", string(dep.Status), string(schema.MilestoneInProgress)))
		dep.Status = schema.MilestoneInProgress
		if dep.CompletedOn != "" {
			*diff = append(*diff, fieldChange(dep.ID, "completed_on", dep.CompletedOn, ""))
			dep.CompletedOn = ""
		}
		resetDependentMilestones(clone, dep.ID, diff)
	}
}

func (s *Server) patchTask(clone *ledger.Snapshot, req Request, fields map[string]json.RawMessage) (any, []string, error) {
	t, ok := activeTask(clone, req.ID)
	if !ok {
		return nil, nil, &NotFoundError{Resource: req.Resource, ID: req.ID}
	}

	oldStatus := t.Status
	var diff []string

	for _, field := range sortedFields(fields) {
		raw := fields[field]
		switch field {
		case "title":
			v, err := unmarshalField[string](raw, field)
			if err != nil {
				return nil, nil, err
			}
			diff = append(diff, fieldChange(t.ID, field, t.Title, v))
			t.Title = v
		case "status":
			v, err := unmarshalField[schema.TaskStatus](raw, field)
			if err != nil {
				return nil, nil, err
			}
			diff = append(diff, fieldChange(t.ID, field, string(t.Status), string(v)))
			t.Status = v
		case "owner":
			v, err := unmarshalField[string](raw, field)
			if err != nil {
				return nil, nil, err
			}
			diff = append(diff, fieldChange(t.ID, field, t.Owner, v))
			t.Owner = v
		case "depends_on":
			v, err := unmarshalField[[]string](raw, field)
			if err != nil {
				return nil, nil, err
			}
			diff = append(diff, fieldChange(t.ID, field, t.DependsOn, v))
			t.DependsOn = v
		case "board_refs":
			v, err := unmarshalField[[]schema.BoardRef](raw, field)
			if err != nil {
				return nil, nil, err
			}
			t.BoardRefs = v
			diff = append(diff, fmt.Sprintf("%s.board_refs: %d ref(s)", t.ID, len(v)))
		case "milestone_id":
			v, err := unmarshalField[string](raw, field)
			if err != nil {
				return nil, nil, err
			}
			if err := moveTask(clone, t, v, &diff); err != nil {
				return nil, nil, err
			}
		case "id", "archived_on":
			return nil, nil, &ImmutableFieldError{Field: field}
		default:
			return nil, nil, &UnknownFieldError{Field: field}
		}
	}

	if t.Status != oldStatus {
		if err := taskTransition(clone, t, oldStatus, req.CascadeReset, &diff); err != nil {
			return nil, nil, err
		}
	}

	return t, diff, nil
}

// moveTask reassigns t to the milestone named by dst, maintaining both
// task_ids lists. The source milestone must not end up empty.
func moveTask(clone *ledger.Snapshot, t *schema.Task, dst string, diff *[]string) error {
	if dst == t.MilestoneID {
		return nil
	}
	to, ok := activeMilestone(clone, dst)
	if !ok {
		return &NotFoundError{Resource: ResourceMilestones, ID: dst}
	}
	from, ok := activeMilestone(clone, t.MilestoneID)
	if ok {
		if len(removeString(append([]string(nil), from.TaskIDs...), t.ID)) == 0 {
			return &EmptyTaskIDsError{MilestoneID: from.ID}
		}
		from.TaskIDs = removeString(from.TaskIDs, t.ID)
	}
	if !containsString(to.TaskIDs, t.ID) {
		to.TaskIDs = append(to.TaskIDs, t.ID)
	}
	*diff = append(*diff, fieldChange(t.ID, "milestone_id", t.MilestoneID, dst))
	t.MilestoneID = dst
	return nil
}

// taskTransition gates entering Done behind the unlock rule and handles
// the reopen policy on leaving it.
func taskTransition(clone *ledger.Snapshot, t *schema.Task, old schema.TaskStatus, cascade bool, diff *[]string) error {
	if t.Status == schema.TaskDone {
		g := graph.Build(clone)
		if !g.Unlocked(t.ID) {
			return &UnlockRuleError{ID: t.ID, Unmet: unmetDeps(clone, t)}
		}
		return nil
	}
	if old == schema.TaskDone && cascade {
		resetDependentTasks(clone, t.ID, diff)
	}
	return nil
}

// resetDependentTasks reverts Done tasks downstream of id to Ready,
// transitively, and reopens milestones they completed.
func resetDependentTasks(clone *ledger.Snapshot, id string, diff *[]string) {
	for i := range clone.ActiveTasks.Tasks {
		dep := &clone.ActiveTasks.Tasks[i]
		if dep.Status != schema.TaskDone || !containsString(dep.DependsOn, id) {
			continue
		}
		*diff = append(*diff, fieldChange(dep.ID, "status", string(dep.Status), string(schema.TaskReady)))
		dep.Status = schema.TaskReady
		resetDependentTasks(clone, dep.ID, diff)
	}
	for i := range clone.ActiveMilestones.Milestones {
		m := &clone.ActiveMilestones.Milestones[i]
		if m.Status != schema.MilestoneComplete || len(openTasks(clone, m)) == 0 {
			continue
		}
		*diff = append(*diff, fieldChange(m.ID, "status", string(m.Status), string(schema.MilestoneInProgress)))
		m.Status = schema.MilestoneInProgress
		if m.CompletedOn != "" {
			*diff = append(*diff, fieldChange(m.ID, "completed_on", m.CompletedOn, ""))
			m.CompletedOn = ""
		}
	}
}
