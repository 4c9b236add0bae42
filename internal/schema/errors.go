package schema

import (
	"fmt"
	"strings"
)

// MissingFieldError represents a required field that is absent or empty.
type MissingFieldError struct {
	// Field is the name of the missing field.
	Field string
	// Context describes the record the field belongs to.
	Context string
}

// Error implements the error interface.
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q in %s", e.Field, e.Context)
}

// BadIDFormatError represents an identifier that does not match the
// entity's token pattern.
type BadIDFormatError struct {
	// ID is the offending identifier.
	ID string
	// Pattern is the expected token pattern.
	Pattern string
	// Context describes where the identifier appears.
	Context string
}

// Error implements the error interface.
func (e *BadIDFormatError) Error() string {
	return fmt.Sprintf("invalid id %q in %s: must match %s", e.ID, e.Context, e.Pattern)
}

// BadStatusError represents a status value outside the entity's enum.
type BadStatusError struct {
	// Status is the offending value.
	Status string
	// Context describes the record carrying the status.
	Context string
	// Allowed lists the valid values for guidance.
	Allowed []string
}

// Error implements the error interface.
func (e *BadStatusError) Error() string {
	return fmt.Sprintf("invalid status %q in %s; valid statuses: [%s]",
		e.Status, e.Context, strings.Join(e.Allowed, ", "))
}

// BadBoardRefError represents a board reference with an invalid kind or
// an empty value.
type BadBoardRefError struct {
	// TaskID is the task carrying the reference.
	TaskID string
	// Kind is the offending reference kind ("" when the value is missing).
	Kind string
	// Reason is a short description of what is wrong.
	Reason string
}

// Error implements the error interface.
func (e *BadBoardRefError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("task %s has board_ref with invalid kind %q: %s", e.TaskID, e.Kind, e.Reason)
	}
	return fmt.Sprintf("task %s has invalid board_ref: %s", e.TaskID, e.Reason)
}
