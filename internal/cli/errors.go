package cli

import (
	"errors"
	"strings"

	"github.com/luvatrix/planops/internal/api"
)

// ErrorCategory groups failures for display.
type ErrorCategory int

const (
	CategoryUsage ErrorCategory = iota
	CategoryLedger
	CategoryValidation
	CategoryLock
	CategoryInternal
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryUsage:
		return "usage"
	case CategoryLedger:
		return "ledger"
	case CategoryValidation:
		return "validation"
	case CategoryLock:
		return "lock"
	default:
		return "internal"
	}
}

// CLIError is a terminal-facing error with remediation guidance.
type CLIError struct {
	Category    ErrorCategory
	Message     string
	Usage       string
	Remediation []string
	cause       error
}

func (e *CLIError) Error() string { return e.Message }

func (e *CLIError) Unwrap() error { return e.cause }

// WrapError maps domain errors onto CLIErrors with remediation hints.
// Unknown errors pass through as internal.
func WrapError(err error) *CLIError {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	var (
		notFound   *api.NotFoundError
		duplicate  *api.DuplicateIDError
		activeRef  *api.ActiveReferenceError
		unlock     *api.UnlockRuleError
		incomplete *api.MilestoneIncompleteError
		rejected   *api.RejectedError
	)
	switch {
	case errors.As(err, &notFound):
		return &CLIError{
			Category: CategoryLedger,
			Message:  err.Error(),
			Remediation: []string{
				"Run 'planops api GET " + notFound.Resource + "' to list known ids",
			},
			cause: err,
		}
	case errors.As(err, &duplicate):
		return &CLIError{
			Category: CategoryLedger,
			Message:  err.Error(),
			Remediation: []string{
				"Pick an unused id; archived records keep their ids reserved",
			},
			cause: err,
		}
	case errors.As(err, &activeRef):
		return &CLIError{
			Category: CategoryLedger,
			Message:  err.Error(),
			Remediation: []string{
				"Archive or repoint the referencing records first",
				"Or pass --force (milestones) / --force-remove-deps (tasks)",
			},
			cause: err,
		}
	case errors.As(err, &unlock):
		return &CLIError{
			Category: CategoryValidation,
			Message:  err.Error(),
			Remediation: []string{
				"Finish the listed dependencies first: " + strings.Join(unlock.Unmet, ", "),
			},
			cause: err,
		}
	case errors.As(err, &incomplete):
		return &CLIError{
			Category: CategoryValidation,
			Message:  err.Error(),
			Remediation: []string{
				"Move the open tasks to Done before completing the milestone",
			},
			cause: err,
		}
	case errors.As(err, &rejected):
		remediation := make([]string, 0, len(rejected.Violations)+1)
		for _, v := range rejected.Violations {
			remediation = append(remediation, v.String())
		}
		remediation = append(remediation, "The stored ledger was not modified")
		return &CLIError{
			Category:    CategoryValidation,
			Message:     "mutation rejected by the integrity suite",
			Remediation: remediation,
			cause:       err,
		}
	case strings.Contains(err.Error(), "locked by PID"):
		return &CLIError{
			Category: CategoryLock,
			Message:  err.Error(),
			Remediation: []string{
				"Wait for the other planops apply to finish",
				"Stale locks from dead processes are reclaimed automatically",
			},
			cause: err,
		}
	default:
		return &CLIError{Category: CategoryInternal, Message: err.Error(), cause: err}
	}
}
