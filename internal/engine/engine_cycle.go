package engine

import (
	"context"
	"fmt"
	"strings"

	kllcerrors "kllc.dev/kllc/internal/errors"
)

// CreateCycle starts a new feature lifecycle: it checks the working copy is
// clean, creates feature/<meegleId>-<slug> from the base branch and stores
// a state with the intake steps filled in. Nothing is persisted when branch
// creation fails.
func (e *Engine) CreateCycle(ctx context.Context, req CycleRequest) (*CycleResult, error) {
	req.PrdLink = strings.TrimSpace(req.PrdLink)
	req.MeegleID = strings.TrimSpace(req.MeegleID)
	req.DesignLink = strings.TrimSpace(req.DesignLink)
	req.BaseBranch = strings.TrimSpace(req.BaseBranch)

	if req.PrdLink == "" {
		return nil, fmt.Errorf("%w: a PRD link is required", kllcerrors.ErrInvalidRequest)
	}
	if !ValidMeegleID(req.MeegleID) {
		return nil, fmt.Errorf("%w: meegle id %q must be digits", kllcerrors.ErrInvalidRequest, req.MeegleID)
	}
	if req.BaseBranch == "" {
		req.BaseBranch = e.baseBranch
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	clean, err := e.vcs.IsClean(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check working copy: %w", err)
	}
	if !clean {
		return nil, kllcerrors.ErrDirtyWorkingCopy
	}

	result := &CycleResult{}
	slug, err := Slug(req.PrdLink)
	if err != nil {
		e.logger.Debug("falling back to default slug", "link", req.PrdLink, "error", err)
		slug = FallbackSlug
		result.Warnings = append(result.Warnings, Warning{
			Code:    kllcerrors.CodeLinkParse,
			Message: "Could not parse PRD link, using default brief.",
		})
	}

	branch := FeatureBranchName(req.MeegleID, slug)
	if err := e.vcs.CreateBranch(ctx, branch, req.BaseBranch); err != nil {
		return nil, kllcerrors.NewBranchCreationError(branch, req.BaseBranch, err)
	}

	now := e.timestamp()
	design := StepRecord{Status: StatusSkipped, Timestamp: now}
	if req.DesignLink != "" {
		design = StepRecord{Status: StatusCompleted, Value: req.DesignLink, Timestamp: now}
	}

	state := &State{
		BranchName:       branch,
		BranchType:       BranchFeature,
		CurrentStepIndex: 0,
		Steps: map[string]StepRecord{
			StepPrd:      {Status: StatusCompleted, Value: req.PrdLink, Timestamp: now},
			StepMeegleID: {Status: StatusCompleted, Value: req.MeegleID, Timestamp: now},
			StepDesign:   design,
		},
	}
	if err := e.persist(ctx, state); err != nil {
		return nil, err
	}

	e.logger.Debug("created lifecycle", "branch", branch, "base", req.BaseBranch)
	result.Branch = branch
	result.State = state
	return result, nil
}
