package schema

import "fmt"

// ValidateMilestone checks a single milestone record for structural
// correctness. It does not resolve references; that is the graph's job.
// Returns a slice of errors, empty if valid.
func ValidateMilestone(m *Milestone) []error {
	var errs []error

	ctx := milestoneContext(m)

	if m.ID == "" {
		errs = append(errs, &MissingFieldError{Field: "id", Context: ctx})
	} else if !IsMilestoneID(m.ID) {
		errs = append(errs, &BadIDFormatError{
			ID: m.ID, Pattern: MilestoneIDPattern.String(), Context: ctx,
		})
	}

	if m.Title == "" {
		errs = append(errs, &MissingFieldError{Field: "title", Context: ctx})
	}

	if m.Status == "" {
		errs = append(errs, &MissingFieldError{Field: "status", Context: ctx})
	} else if !m.Status.Valid() {
		errs = append(errs, &BadStatusError{
			Status: string(m.Status), Context: ctx, Allowed: milestoneStatusNames(),
		})
	}

	errs = append(errs, validateWeekRange(m, ctx)...)
	errs = append(errs, validateMilestoneIDLists(m, ctx)...)

	return errs
}

// validateWeekRange checks the start/end week fields.
func validateWeekRange(m *Milestone, ctx string) []error {
	var errs []error
	if m.StartWeek < 1 {
		errs = append(errs, &MissingFieldError{Field: "start_week", Context: ctx})
	}
	if m.EndWeek < 1 {
		errs = append(errs, &MissingFieldError{Field: "end_week", Context: ctx})
	}
	if m.StartWeek >= 1 && m.EndWeek >= 1 && m.EndWeek < m.StartWeek {
		errs = append(errs, fmt.Errorf("%s: end_week %d precedes start_week %d", ctx, m.EndWeek, m.StartWeek))
	}
	return errs
}

// validateMilestoneIDLists checks task_ids and depends_on token shapes.
func validateMilestoneIDLists(m *Milestone, ctx string) []error {
	var errs []error

	if len(m.TaskIDs) == 0 {
		errs = append(errs, &MissingFieldError{Field: "task_ids", Context: ctx + " (must be non-empty)"})
	}
	for _, tid := range m.TaskIDs {
		if !IsTaskID(tid) {
			errs = append(errs, &BadIDFormatError{
				ID: tid, Pattern: TaskIDPattern.String(), Context: ctx + " task_ids",
			})
		}
	}
	for _, dep := range m.DependsOn {
		if !IsMilestoneID(dep) {
			errs = append(errs, &BadIDFormatError{
				ID: dep, Pattern: MilestoneIDPattern.String(), Context: ctx + " depends_on",
			})
		}
	}

	return errs
}

// ValidateTask checks a single task record for structural correctness.
// Returns a slice of errors, empty if valid.
func ValidateTask(t *Task) []error {
	var errs []error

	ctx := taskContext(t)

	if t.ID == "" {
		errs = append(errs, &MissingFieldError{Field: "id", Context: ctx})
	} else if !IsTaskID(t.ID) {
		errs = append(errs, &BadIDFormatError{
			ID: t.ID, Pattern: TaskIDPattern.String(), Context: ctx,
		})
	}

	if t.Title == "" {
		errs = append(errs, &MissingFieldError{Field: "title", Context: ctx})
	}

	if t.MilestoneID == "" {
		errs = append(errs, &MissingFieldError{Field: "milestone_id", Context: ctx})
	} else if !IsMilestoneID(t.MilestoneID) {
		errs = append(errs, &BadIDFormatError{
			ID: t.MilestoneID, Pattern: MilestoneIDPattern.String(), Context: ctx + " milestone_id",
		})
	}

	if t.Status == "" {
		errs = append(errs, &MissingFieldError{Field: "status", Context: ctx})
	} else if !t.Status.Valid() {
		errs = append(errs, &BadStatusError{
			Status: string(t.Status), Context: ctx, Allowed: taskStatusNames(),
		})
	}

	for _, dep := range t.DependsOn {
		if !IsTaskID(dep) {
			errs = append(errs, &BadIDFormatError{
				ID: dep, Pattern: TaskIDPattern.String(), Context: ctx + " depends_on",
			})
		}
	}

	errs = append(errs, validateBoardRefs(t)...)

	return errs
}

// validateBoardRefs checks the board reference kinds and values.
func validateBoardRefs(t *Task) []error {
	var errs []error
	for _, ref := range t.BoardRefs {
		if !ref.Kind.Valid() {
			errs = append(errs, &BadBoardRefError{
				TaskID: t.ID, Kind: string(ref.Kind),
				Reason: "kind must be milestone, team, or specialist",
			})
			continue
		}
		if ref.Value == "" {
			errs = append(errs, &BadBoardRefError{
				TaskID: t.ID, Reason: fmt.Sprintf("%s reference has empty value", ref.Kind),
			})
		}
	}
	return errs
}

func milestoneContext(m *Milestone) string {
	if m.ID == "" {
		return "milestone <unknown>"
	}
	return "milestone " + m.ID
}

func taskContext(t *Task) string {
	if t.ID == "" {
		return "task <unknown>"
	}
	return "task " + t.ID
}

func milestoneStatusNames() []string {
	names := make([]string, len(AllMilestoneStatuses))
	for i, s := range AllMilestoneStatuses {
		names[i] = string(s)
	}
	return names
}

func taskStatusNames() []string {
	names := make([]string, len(AllTaskStatuses))
	for i, s := range AllTaskStatuses {
		names[i] = string(s)
	}
	return names
}
