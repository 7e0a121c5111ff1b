package claim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/draftroom/draftroom/internal/domain/project"
	"github.com/draftroom/draftroom/internal/repository"
)

// Result reports how many projects a claim transferred.
type Result struct {
	ClaimedCount int `json:"claimed_count"`
}

// Engine transfers guest-scoped projects to a just-authenticated account.
// The transfer per project is a conditional update that only succeeds while
// the project is still unowned, which makes the whole operation safe to run
// concurrently from multiple clients and to retry: later callers simply
// match zero rows for projects that are already claimed.
type Engine struct {
	projects    repository.ProjectRepository
	memberships repository.MembershipRepository
	logger      *slog.Logger
}

// NewEngine creates a claim engine.
func NewEngine(projects repository.ProjectRepository, memberships repository.MembershipRepository, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{projects: projects, memberships: memberships, logger: logger}
}

// Claim transfers every unowned project scoped to guestID into ownership by
// accountID, plus at most one remembered project whose guest ref no longer
// matches (the stale-pointer exception; never broadened beyond that single
// row). Candidates are processed independently: one failing project does not
// abort the rest, and per-project failures come back aggregated in a
// *PartialFailureError alongside the count of successful transfers. The
// error is a soft condition for logging; it must never block sign-in.
func (e *Engine) Claim(ctx context.Context, accountID, guestID string, remembered *string) (Result, error) {
	var candidates []project.Project
	if guestID != "" {
		var err error
		candidates, err = e.projects.ListByGuest(ctx, guestID)
		if err != nil {
			return Result{}, fmt.Errorf("listing claim candidates: %w", err)
		}
	}

	if p := e.rememberedCandidate(ctx, guestID, remembered); p != nil {
		candidates = append(candidates, *p)
	}

	// Common path: nothing scoped to this guest, no writes at all.
	if len(candidates) == 0 {
		return Result{}, nil
	}

	var (
		claimed  int
		failures []ProjectFailure
	)
	for _, cand := range candidates {
		err := e.projects.TransferOwnership(ctx, cand.ID, accountID)
		switch {
		case err == nil:
		case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrNotFound):
			// Another client won the race for this row. Not a failure.
			e.logger.Debug("project already claimed elsewhere", "project_id", cand.ID)
			continue
		default:
			failures = append(failures, ProjectFailure{ProjectID: cand.ID, Err: err})
			continue
		}

		claimed++
		m := &project.Membership{
			ProjectID: cand.ID,
			AccountID: accountID,
			Role:      project.RoleOwner,
			CreatedAt: time.Now(),
		}
		if err := e.memberships.Ensure(ctx, m); err != nil {
			failures = append(failures, ProjectFailure{ProjectID: cand.ID, Err: fmt.Errorf("ensuring owner membership: %w", err)})
		}
	}

	if len(failures) > 0 {
		return Result{ClaimedCount: claimed}, &PartialFailureError{Failures: failures}
	}
	return Result{ClaimedCount: claimed}, nil
}

// rememberedCandidate resolves the stale-pointer exception: the single
// remembered project qualifies only when it exists, is still unowned, and is
// scoped to a guest identity other than the caller's (a matching guest ref
// is already in the candidate set). Anything else is skipped silently.
func (e *Engine) rememberedCandidate(ctx context.Context, guestID string, remembered *string) *project.Project {
	if remembered == nil || *remembered == "" {
		return nil
	}

	p, err := e.projects.Get(ctx, *remembered)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			e.logger.Warn("could not resolve remembered project", "project_id", *remembered, "error", err)
		}
		return nil
	}
	if p.OwnerRef != nil {
		return nil
	}
	if p.GuestRef == nil {
		e.logger.Error("ownership invariant violated, skipping remembered project", "project_id", p.ID)
		return nil
	}
	if *p.GuestRef == guestID {
		return nil
	}
	return p
}
