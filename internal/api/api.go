// Package api is the mutation surface over the planning ledger. Requests
// mirror the four HTTP verbs over the milestones and tasks resources.
// Every mutation runs against a deep clone of the loaded snapshot, is
// checked by the full integrity suite, and by default stops there as a
// dry run. Only an explicit Apply acquires the advisory lock, persists
// the documents, and regenerates the artifacts.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/luvatrix/planops/internal/check"
	"github.com/luvatrix/planops/internal/ledger"
	"github.com/luvatrix/planops/internal/pipeline"
)

// Methods accepted by Execute.
const (
	MethodGet    = "GET"
	MethodPost   = "POST"
	MethodPatch  = "PATCH"
	MethodDelete = "DELETE"
)

// Resources accepted by Execute.
const (
	ResourceMilestones = "milestones"
	ResourceTasks      = "tasks"
)

// Result modes.
const (
	ModeDryRun  = "dry-run"
	ModeApplied = "applied"
	ModeRead    = "read"
)

// Request is one operation against the ledger.
type Request struct {
	Method   string
	Resource string
	// ID targets one record; empty on GET lists and POST.
	ID string
	// Archived selects the archived partition on GET.
	Archived bool
	// Body carries the record on POST and the field patch on PATCH.
	Body json.RawMessage
	// Apply persists the mutation; the default is a dry run.
	Apply bool
	// Force lets DELETE archive a milestone together with its tasks and
	// strips references to it.
	Force bool
	// ForceRemoveDeps lets DELETE rewrite depends_on lists that point at
	// the archived task.
	ForceRemoveDeps bool
	// CascadeReset lets a reopening PATCH revert completed dependents
	// instead of rejecting the mutation.
	CascadeReset bool
}

// Result is the outcome of one request.
type Result struct {
	// Mode is read, dry-run, or applied.
	Mode string `json:"mode"`
	// Summary is a one-line human description of what happened.
	Summary string `json:"summary,omitempty"`
	// Diff lists field-level changes, one line each.
	Diff []string `json:"diff,omitempty"`
	// Record holds the fetched, created, or updated record.
	Record any `json:"record,omitempty"`
	// Violations holds suite findings from a dry run; empty on success.
	Violations []check.Violation `json:"violations,omitempty"`
	// Artifacts lists regenerated artifact paths after an apply.
	Artifacts []string `json:"artifacts,omitempty"`
}

// Server executes requests against one planning directory.
type Server struct {
	// Dir is the planning directory holding the ledger documents.
	Dir string
	// Pipeline configures artifact regeneration on apply.
	Pipeline pipeline.Options
	// Now supplies stamps for completed_on and archived_on. Defaults to
	// time.Now.
	Now func() time.Time
	// Logger receives progress lines. Nil disables logging.
	Logger *log.Logger
}

// Execute dispatches one request.
func (s *Server) Execute(ctx context.Context, req Request) (*Result, error) {
	if req.Resource != ResourceMilestones && req.Resource != ResourceTasks {
		return nil, fmt.Errorf("unknown resource %q", req.Resource)
	}

	snap, err := ledger.Load(s.Dir)
	if err != nil {
		return nil, err
	}

	switch req.Method {
	case MethodGet:
		return s.get(snap, req)
	case MethodPost:
		return s.mutate(ctx, snap, req, s.create)
	case MethodPatch:
		return s.mutate(ctx, snap, req, s.patch)
	case MethodDelete:
		return s.mutate(ctx, snap, req, s.archive)
	default:
		return nil, fmt.Errorf("unknown method %q", req.Method)
	}
}

// get serves reads straight off the loaded snapshot.
func (s *Server) get(snap *ledger.Snapshot, req Request) (*Result, error) {
	if req.ID == "" {
		return s.list(snap, req)
	}

	switch req.Resource {
	case ResourceMilestones:
		m, archived, ok := snap.Milestone(req.ID)
		if !ok || archived != req.Archived {
			return nil, &NotFoundError{Resource: req.Resource, ID: req.ID}
		}
		return &Result{Mode: ModeRead, Summary: fmt.Sprintf("milestone %s", req.ID), Record: m}, nil
	default:
		t, archived, ok := snap.Task(req.ID)
		if !ok || archived != req.Archived {
			return nil, &NotFoundError{Resource: req.Resource, ID: req.ID}
		}
		return &Result{Mode: ModeRead, Summary: fmt.Sprintf("task %s", req.ID), Record: t}, nil
	}
}

func (s *Server) list(snap *ledger.Snapshot, req Request) (*Result, error) {
	var record any
	var n int
	switch {
	case req.Resource == ResourceMilestones && req.Archived:
		record, n = snap.ArchivedMilestones.Milestones, len(snap.ArchivedMilestones.Milestones)
	case req.Resource == ResourceMilestones:
		record, n = snap.ActiveMilestones.Milestones, len(snap.ActiveMilestones.Milestones)
	case req.Archived:
		record, n = snap.ArchivedTasks.Tasks, len(snap.ArchivedTasks.Tasks)
	default:
		record, n = snap.ActiveTasks.Tasks, len(snap.ActiveTasks.Tasks)
	}
	return &Result{
		Mode:    ModeRead,
		Summary: fmt.Sprintf("%d %s", n, req.Resource),
		Record:  record,
	}, nil
}

// mutator mutates the cloned snapshot in place and returns the touched
// record plus diff lines.
type mutator func(clone *ledger.Snapshot, req Request) (record any, diff []string, err error)

// mutate runs fn on a deep clone, validates the would-be ledger, and
// either reports the dry run or applies it under the advisory lock. The
// loaded snapshot is never touched, so a rejection leaves no trace.
func (s *Server) mutate(ctx context.Context, snap *ledger.Snapshot, req Request, fn mutator) (*Result, error) {
	clone := snap.Clone()

	record, diff, err := fn(clone, req)
	if err != nil {
		return nil, err
	}

	violations := check.Run(clone, check.Options{SkipRenderCheck: true})
	if len(violations) > 0 {
		return &Result{Mode: ModeDryRun, Violations: violations},
			&RejectedError{Violations: violations}
	}

	summary := fmt.Sprintf("%s %s: %d change(s)", req.Method, target(req), len(diff))
	if !req.Apply {
		return &Result{
			Mode:    ModeDryRun,
			Summary: summary + " (dry run, pass --apply to persist)",
			Diff:    diff,
			Record:  record,
		}, nil
	}

	if err := ledger.AcquireLock(s.Dir); err != nil {
		return nil, err
	}
	defer func() {
		if rerr := ledger.ReleaseLock(s.Dir); rerr != nil && s.Logger != nil {
			s.Logger.Warn("releasing apply lock", "err", rerr)
		}
	}()

	if err := ledger.Save(s.Dir, clone); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("ledger updated", "op", req.Method, "target", target(req))
	}

	res, err := pipeline.Regenerate(ctx, clone, s.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("ledger saved but artifact regeneration failed: %w", err)
	}

	return &Result{
		Mode:      ModeApplied,
		Summary:   summary,
		Diff:      diff,
		Record:    record,
		Artifacts: res.Paths,
	}, nil
}

func target(req Request) string {
	if req.ID == "" {
		return req.Resource
	}
	return req.Resource + "/" + req.ID
}

// today formats the stamp date from the server clock.
func (s *Server) today() string {
	now := s.Now
	if now == nil {
		now = time.Now
	}
	return now().UTC().Format("2006-01-02")
}
