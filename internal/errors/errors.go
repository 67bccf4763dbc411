// Package errors provides sentinel errors and custom error types for kllc.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	// ErrDirtyWorkingCopy indicates the working copy has staged, unstaged or untracked changes
	ErrDirtyWorkingCopy = errors.New("working copy has uncommitted changes")

	// ErrLinkParse indicates the PRD link could not be turned into a slug
	ErrLinkParse = errors.New("could not parse PRD link")

	// ErrBranchCreation indicates that creating the feature branch failed
	ErrBranchCreation = errors.New("branch creation failed")

	// ErrCommit indicates that a commit (or its push) failed
	ErrCommit = errors.New("commit failed")

	// ErrTag indicates that creating or pushing a tag failed
	ErrTag = errors.New("tag failed")

	// ErrOutOfOrder indicates a transition that does not start at the current step
	ErrOutOfOrder = errors.New("out-of-order transition")

	// ErrNotFeatureBranch indicates a lifecycle operation on a non-feature branch
	ErrNotFeatureBranch = errors.New("not a feature branch")

	// ErrInvalidStep indicates an unknown step or an invalid value for a step
	ErrInvalidStep = errors.New("invalid step")

	// ErrInvalidRequest indicates a malformed intent payload
	ErrInvalidRequest = errors.New("invalid request")

	// ErrLifecycleFinished indicates a mutation of a finished lifecycle
	ErrLifecycleFinished = errors.New("lifecycle already finished")

	// ErrRefNotFound indicates that a git ref does not exist
	ErrRefNotFound = errors.New("ref not found")
)

// User-facing codes surfaced in notifications.
const (
	CodeDirtyWorkingCopy = "E001"
	CodeLinkParse        = "E002"
	CodeBranchCreation   = "E003"
	CodeCommit           = "E004"
	CodeTag              = "E005"
	CodeOutOfOrder       = "E006"
	CodeNotFeatureBranch = "E007"
	CodeInvalidStep      = "E008"
	CodeInvalidRequest   = "E009"
	CodeFinished         = "E010"
	CodeInternal         = "E999"
)

var codes = []struct {
	target error
	code   string
}{
	{ErrDirtyWorkingCopy, CodeDirtyWorkingCopy},
	{ErrLinkParse, CodeLinkParse},
	{ErrBranchCreation, CodeBranchCreation},
	// Tag before commit: a TagError wraps a successful commit, not a failed one.
	{ErrTag, CodeTag},
	{ErrCommit, CodeCommit},
	{ErrOutOfOrder, CodeOutOfOrder},
	{ErrNotFeatureBranch, CodeNotFeatureBranch},
	{ErrInvalidStep, CodeInvalidStep},
	{ErrInvalidRequest, CodeInvalidRequest},
	{ErrLifecycleFinished, CodeFinished},
}

// Code returns the user-facing code for err, or CodeInternal when it has none.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.target) {
			return c.code
		}
	}
	return CodeInternal
}

// BranchCreationError represents a failure while creating a feature branch
type BranchCreationError struct {
	BranchName string
	BaseBranch string
	Err        error
}

func (e *BranchCreationError) Error() string {
	return fmt.Sprintf("failed to create branch %s from %s: %v", e.BranchName, e.BaseBranch, e.Err)
}

// Is returns true if the target error is ErrBranchCreation
func (e *BranchCreationError) Is(target error) bool {
	return target == ErrBranchCreation
}

func (e *BranchCreationError) Unwrap() error {
	return e.Err
}

// NewBranchCreationError creates a new BranchCreationError
func NewBranchCreationError(branchName, baseBranch string, err error) *BranchCreationError {
	return &BranchCreationError{BranchName: branchName, BaseBranch: baseBranch, Err: err}
}

// CommitError represents a failed stage/commit/push sequence
type CommitError struct {
	Message string
	Err     error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit %q failed: %v", e.Message, e.Err)
}

// Is returns true if the target error is ErrCommit
func (e *CommitError) Is(target error) bool {
	return target == ErrCommit
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// NewCommitError creates a new CommitError
func NewCommitError(message string, err error) *CommitError {
	return &CommitError{Message: message, Err: err}
}

// TagError represents a failed tag or tag push. The commit that preceded it
// is left in place.
type TagError struct {
	TagName   string
	Committed bool
	Err       error
}

func (e *TagError) Error() string {
	if e.Committed {
		return fmt.Sprintf("changes were committed but tag %s failed: %v", e.TagName, e.Err)
	}
	return fmt.Sprintf("tag %s failed: %v", e.TagName, e.Err)
}

// Is returns true if the target error is ErrTag
func (e *TagError) Is(target error) bool {
	return target == ErrTag
}

func (e *TagError) Unwrap() error {
	return e.Err
}

// NewTagError creates a new TagError
func NewTagError(tagName string, committed bool, err error) *TagError {
	return &TagError{TagName: tagName, Committed: committed, Err: err}
}

// OutOfOrderError represents a transition requested from the wrong step index
type OutOfOrderError struct {
	BranchName string
	Current    int
	Requested  int
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("out-of-order transition on %s: current step is %d, requested %d", e.BranchName, e.Current, e.Requested)
}

// Is returns true if the target error is ErrOutOfOrder
func (e *OutOfOrderError) Is(target error) bool {
	return target == ErrOutOfOrder
}

// NewOutOfOrderError creates a new OutOfOrderError
func NewOutOfOrderError(branchName string, current, requested int) *OutOfOrderError {
	return &OutOfOrderError{BranchName: branchName, Current: current, Requested: requested}
}

// StepError represents an invalid step id or step value
type StepError struct {
	StepID string
	Reason string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %s", e.StepID, e.Reason)
}

// Is returns true if the target error is ErrInvalidStep
func (e *StepError) Is(target error) bool {
	return target == ErrInvalidStep
}

// NewStepError creates a new StepError
func NewStepError(stepID, reason string) *StepError {
	return &StepError{StepID: stepID, Reason: reason}
}

// GitCommandError represents an error from a git command execution
type GitCommandError struct {
	Command string
	Args    []string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git command failed: %s", e.Command)
	if len(e.Args) > 0 {
		msg += fmt.Sprintf(" %v", e.Args)
	}
	if e.Stderr != "" {
		msg += fmt.Sprintf("\nstderr: %s", e.Stderr)
	}
	if e.Stdout != "" {
		msg += fmt.Sprintf("\nstdout: %s", e.Stdout)
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit status of the git process, or -1 when it did
// not exit normally (killed, timed out, not started)
func (e *GitCommandError) ExitCode() int {
	var exitErr interface{ ExitCode() int }
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// NewGitCommandError creates a new GitCommandError
func NewGitCommandError(command string, args []string, stdout, stderr string, err error) *GitCommandError {
	return &GitCommandError{
		Command: command,
		Args:    args,
		Stdout:  stdout,
		Stderr:  stderr,
		Err:     err,
	}
}
