package engine

import (
	"context"
	"fmt"
	"strconv"

	kllcerrors "kllc.dev/kllc/internal/errors"
)

// ApplyStepEdit records value on a step of the current or a later sequence
// position. The record becomes pending with a fresh timestamp; the step
// index does not move.
func (e *Engine) ApplyStepEdit(ctx context.Context, state *State, stepID, value string) (*State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.applyStepEdit(ctx, state, stepID, value)
}

func (e *Engine) applyStepEdit(ctx context.Context, state *State, stepID, value string) (*State, error) {
	if err := checkMutable(state); err != nil {
		return nil, err
	}

	_, index, ok := LookupStep(stepID)
	if !ok {
		return nil, kllcerrors.NewStepError(stepID, "unknown step")
	}
	if index < 0 {
		return nil, kllcerrors.NewStepError(stepID, "set when the cycle is created")
	}
	if index < state.CurrentStepIndex {
		return nil, kllcerrors.NewStepError(stepID, "already passed")
	}

	next := state.Clone()
	next.Steps[stepID] = StepRecord{
		Status:    StatusPending,
		Value:     value,
		Timestamp: e.timestamp(),
	}
	if err := e.persist(ctx, next); err != nil {
		return nil, err
	}

	e.logger.Debug("edited step", "branch", next.BranchName, "step", stepID)
	return next, nil
}

// AdvanceStep completes the step at index and moves to the next one. index
// must equal the current step index; otherwise nothing is persisted.
func (e *Engine) AdvanceStep(ctx context.Context, state *State, index int) (*State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.advanceStep(ctx, state, index)
}

func (e *Engine) advanceStep(ctx context.Context, state *State, index int) (*State, error) {
	if err := checkMutable(state); err != nil {
		return nil, err
	}
	if index != state.CurrentStepIndex {
		return nil, kllcerrors.NewOutOfOrderError(state.BranchName, state.CurrentStepIndex, index)
	}

	step, _ := StepAt(index)
	rec := state.Steps[step.ID()]
	if err := validateValue(step, rec.Value); err != nil {
		return nil, err
	}

	next := state.Clone()
	next.Steps[step.ID()] = StepRecord{
		Status:    StatusCompleted,
		Value:     rec.Value,
		Timestamp: e.timestamp(),
	}
	next.CurrentStepIndex = index + 1
	if err := e.persist(ctx, next); err != nil {
		return nil, err
	}

	e.logger.Debug("advanced lifecycle", "branch", next.BranchName, "step", step.ID(), "index", next.CurrentStepIndex)
	return next, nil
}

// SaveState applies a whole state submitted by a UI. The stored state for
// the session branch is authoritative: a submission at the current index is
// an edit of the current step, one step ahead is an edit followed by an
// advance, and anything else is rejected as out of order. Submitted
// statuses and timestamps are ignored.
func (e *Engine) SaveState(ctx context.Context, session Session, submitted *State) (*State, error) {
	if submitted == nil {
		return nil, fmt.Errorf("%w: missing state", kllcerrors.ErrInvalidRequest)
	}
	if session.Branch == "" || submitted.BranchName != session.Branch {
		return nil, fmt.Errorf("%w: state for %q does not match session branch %q",
			kllcerrors.ErrInvalidRequest, submitted.BranchName, session.Branch)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	stored, err := e.resolve(ctx, session.Branch)
	if err != nil {
		return nil, err
	}
	if err := checkMutable(stored); err != nil {
		return nil, err
	}

	current := stored.CurrentStepIndex
	switch submitted.CurrentStepIndex {
	case current, current + 1:
	default:
		return nil, kllcerrors.NewOutOfOrderError(stored.BranchName, current, submitted.CurrentStepIndex)
	}

	state := stored
	step, _ := StepAt(current)
	if rec, ok := submitted.Steps[step.ID()]; ok {
		if old, had := stored.Steps[step.ID()]; !had || old.Value != rec.Value {
			state, err = e.applyStepEdit(ctx, stored, step.ID(), rec.Value)
			if err != nil {
				return nil, err
			}
		}
	}

	if submitted.CurrentStepIndex == current {
		return state, nil
	}
	return e.advanceStep(ctx, state, current)
}

func checkMutable(state *State) error {
	if state == nil {
		return fmt.Errorf("%w: missing state", kllcerrors.ErrInvalidRequest)
	}
	if !state.IsFeature() {
		return fmt.Errorf("%w: %s", kllcerrors.ErrNotFeatureBranch, state.BranchName)
	}
	if state.Finished() {
		return fmt.Errorf("%w: %s", kllcerrors.ErrLifecycleFinished, state.BranchName)
	}
	return nil
}

func validateValue(step Step, value string) error {
	if value == "" {
		if step.Required() {
			return kllcerrors.NewStepError(step.ID(), "a value is required")
		}
		return nil
	}

	switch s := step.(type) {
	case NumberStep:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return kllcerrors.NewStepError(step.ID(), fmt.Sprintf("%q is not a number", value))
		}
	case ChoiceStep:
		if !s.Allows(value) {
			return kllcerrors.NewStepError(step.ID(), fmt.Sprintf("%q is not one of %v", value, s.Choices))
		}
	}
	return nil
}
