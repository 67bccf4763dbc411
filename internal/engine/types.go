package engine

// BranchKind classifies a branch for lifecycle purposes
type BranchKind string

const (
	// BranchFeature is a branch named feature/<digits>-<slug>
	BranchFeature BranchKind = "feature"
	// BranchNonFeature is any other branch
	BranchNonFeature BranchKind = "non-feature"
)

// StepStatus is the status of a single step record
type StepStatus string

const (
	StatusPending   StepStatus = "pending"
	StatusCompleted StepStatus = "completed"
	StatusSkipped   StepStatus = "skipped"
)

// StepRecord holds the user-entered value of a step
type StepRecord struct {
	Status    StepStatus `json:"status"`
	Value     string     `json:"value,omitempty"`
	Timestamp int64      `json:"timestamp,omitempty"` // milliseconds since epoch
}

// State is the persisted lifecycle of one branch
type State struct {
	BranchName       string                `json:"branchName"`
	BranchType       BranchKind            `json:"branchType"`
	CurrentStepIndex int                   `json:"currentStepIndex"`
	Steps            map[string]StepRecord `json:"steps"`
}

// Phase is the derived position of a lifecycle
type Phase string

const (
	PhaseActive   Phase = "active"
	PhaseFinished Phase = "finished"
)

// Clone returns a deep copy of the state
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Steps = make(map[string]StepRecord, len(s.Steps))
	for id, rec := range s.Steps {
		clone.Steps[id] = rec
	}
	return &clone
}

// Finished reports whether every step of the sequence has been passed
func (s *State) Finished() bool {
	return s.CurrentStepIndex >= StepCount()
}

// Phase returns the derived phase of the state
func (s *State) Phase() Phase {
	if s.Finished() {
		return PhaseFinished
	}
	return PhaseActive
}

// IsFeature reports whether the state belongs to a feature branch
func (s *State) IsFeature() bool {
	return s.BranchType == BranchFeature
}

// Record returns the record for a step, if any
func (s *State) Record(stepID string) (StepRecord, bool) {
	rec, ok := s.Steps[stepID]
	return rec, ok
}

// Session is the per-channel context passed into engine operations. It
// replaces any process-wide "current branch".
type Session struct {
	Branch string
}

// CycleRequest is the input to CreateCycle
type CycleRequest struct {
	PrdLink    string `json:"prdLink"`
	MeegleID   string `json:"meegleId"`
	BaseBranch string `json:"baseBranch,omitempty"`
	DesignLink string `json:"designLink,omitempty"`
}

// Warning is a non-fatal problem reported alongside a successful result
type Warning struct {
	Code    string
	Message string
}

// CycleResult is the outcome of CreateCycle
type CycleResult struct {
	Branch   string
	State    *State
	Warnings []Warning
}

// GitActionKind names a git action requested from a step
type GitActionKind string

// GitActionCommit stages, commits and pushes, optionally tagging afterwards
const GitActionCommit GitActionKind = "commit"

// GitAction is the input to DispatchGitAction
type GitAction struct {
	Action    GitActionKind
	StepID    string
	TagPrefix string
}

// GitActionResult describes what DispatchGitAction did
type GitActionResult struct {
	Commit string
	Tag    string
}
