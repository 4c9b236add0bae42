package api

import (
	"fmt"
	"strings"

	"github.com/luvatrix/planops/internal/check"
)

// NotFoundError reports a lookup for an id that exists in neither
// partition.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", strings.TrimSuffix(e.Resource, "s"), e.ID)
}

// DuplicateIDError reports a create colliding with an existing id in
// either partition.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("id %s already exists", e.ID)
}

// ActiveReferenceError rejects an archive while active records still
// reference the target.
type ActiveReferenceError struct {
	ID        string
	Referrers []string
}

func (e *ActiveReferenceError) Error() string {
	return fmt.Sprintf("cannot archive %s: still referenced by %s", e.ID, strings.Join(e.Referrers, ", "))
}

// UnlockRuleError rejects a status transition whose dependencies are not
// all Done or archived.
type UnlockRuleError struct {
	ID    string
	Unmet []string
}

func (e *UnlockRuleError) Error() string {
	return fmt.Sprintf("cannot advance %s: dependencies not done: %s", e.ID, strings.Join(e.Unmet, ", "))
}

// MilestoneIncompleteError rejects marking a milestone Complete while
// contained tasks remain open.
type MilestoneIncompleteError struct {
	ID   string
	Open []string
}

func (e *MilestoneIncompleteError) Error() string {
	return fmt.Sprintf("cannot complete %s: open tasks remain: %s", e.ID, strings.Join(e.Open, ", "))
}

// EmptyTaskIDsError rejects a mutation that would leave a milestone with
// no tasks.
type EmptyTaskIDsError struct {
	MilestoneID string
}

func (e *EmptyTaskIDsError) Error() string {
	return fmt.Sprintf("mutation would leave milestone %s with no tasks", e.MilestoneID)
}

// ImmutableFieldError rejects a patch touching a field that never
// changes after create.
type ImmutableFieldError struct {
	Field string
}

func (e *ImmutableFieldError) Error() string {
	return fmt.Sprintf("field %s is immutable", e.Field)
}

// UnknownFieldError rejects a patch naming a field the record does not
// have.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %s", e.Field)
}

// RejectedError carries the full violation list when the would-be ledger
// fails the integrity suite. The stored ledger is untouched.
type RejectedError struct {
	Violations []check.Violation
}

func (e *RejectedError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("mutation rejected: %s", strings.Join(parts, "; "))
}
