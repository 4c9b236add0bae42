package graph

import (
	"fmt"
	"strings"
)

// CycleError represents a cycle detected in the dependency graph.
type CycleError struct {
	// Path is the minimal list of ids forming the cycle, closed on itself
	// (first id repeated at the end).
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return "cycle detected in dependency graph"
	}
	return fmt.Sprintf("cycle detected in dependency graph: %s", strings.Join(e.Path, " -> "))
}

// Involves reports whether id participates in the cycle.
func (e *CycleError) Involves(id string) bool {
	for _, p := range e.Path {
		if p == id {
			return true
		}
	}
	return false
}

// DanglingDependencyError represents a reference to an id that exists in
// neither the active nor the archived partition.
type DanglingDependencyError struct {
	// From is the id of the record carrying the reference.
	From string
	// Ref is the referenced id that does not exist.
	Ref string
}

// Error implements the error interface.
func (e *DanglingDependencyError) Error() string {
	return fmt.Sprintf("%s references non-existent id %q", e.From, e.Ref)
}
