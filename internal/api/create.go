package api

import (
	"encoding/json"
	"fmt"

	"github.com/luvatrix/planops/internal/ledger"
	"github.com/luvatrix/planops/internal/schema"
)

// milestoneCreate is the POST /milestones body. Tasks lets a milestone
// arrive together with its initial tasks in one mutation, since an
// active milestone must always own at least one task.
type milestoneCreate struct {
	schema.Milestone
	Tasks []schema.Task `json:"tasks,omitempty"`
}

// create handles POST for both resources.
func (s *Server) create(clone *ledger.Snapshot, req Request) (any, []string, error) {
	switch req.Resource {
	case ResourceMilestones:
		return s.createMilestone(clone, req)
	default:
		return s.createTask(clone, req)
	}
}

func (s *Server) createMilestone(clone *ledger.Snapshot, req Request) (any, []string, error) {
	var body milestoneCreate
	if err := decodeBody(req.Body, &body); err != nil {
		return nil, nil, err
	}

	ids := clone.AllIDs()
	if _, exists := ids[body.ID]; exists {
		return nil, nil, &DuplicateIDError{ID: body.ID}
	}

	var diff []string
	for i := range body.Tasks {
		t := &body.Tasks[i]
		if _, exists := ids[t.ID]; exists {
			return nil, nil, &DuplicateIDError{ID: t.ID}
		}
		if t.MilestoneID == "" {
			t.MilestoneID = body.ID
		}
		if !containsString(body.TaskIDs, t.ID) {
			body.TaskIDs = append(body.TaskIDs, t.ID)
		}
		clone.ActiveTasks.Tasks = append(clone.ActiveTasks.Tasks, *t)
		diff = append(diff, fmt.Sprintf("created task %s", t.ID))
	}

	clone.ActiveMilestones.Milestones = append(clone.ActiveMilestones.Milestones, body.Milestone)
	diff = append([]string{fmt.Sprintf("created milestone %s", body.ID)}, diff...)

	m, _ := activeMilestone(clone, body.ID)
	return m, diff, nil
}

func (s *Server) createTask(clone *ledger.Snapshot, req Request) (any, []string, error) {
	var body schema.Task
	if err := decodeBody(req.Body, &body); err != nil {
		return nil, nil, err
	}

	if _, exists := clone.AllIDs()[body.ID]; exists {
		return nil, nil, &DuplicateIDError{ID: body.ID}
	}

	owner, ok := activeMilestone(clone, body.MilestoneID)
	if !ok {
		return nil, nil, &NotFoundError{Resource: ResourceMilestones, ID: body.MilestoneID}
	}

	diff := []string{fmt.Sprintf("created task %s", body.ID)}
	if !containsString(owner.TaskIDs, body.ID) {
		old := append([]string(nil), owner.TaskIDs...)
		owner.TaskIDs = append(owner.TaskIDs, body.ID)
		diff = append(diff, fieldChange(owner.ID, "task_ids", old, owner.TaskIDs))
	}

	clone.ActiveTasks.Tasks = append(clone.ActiveTasks.Tasks, body)
	t, _ := activeTask(clone, body.ID)
	return t, diff, nil
}

// decodeBody unmarshals strictly so a typo'd field fails loudly instead
// of silently dropping data.
func decodeBody(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("request body required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}
