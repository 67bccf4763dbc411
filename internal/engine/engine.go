package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// DefaultBaseBranch is the branch new cycles start from when none is given
const DefaultBaseBranch = "master"

// Engine runs the lifecycle state machine. Mutations are serialised by an
// internal mutex; ordering between intents is the caller's concern.
type Engine struct {
	vcs        VersionControl
	store      StateStore
	logger     *slog.Logger
	now        func() time.Time
	baseBranch string

	mu sync.Mutex
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock sets the clock used for timestamps and tag names
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithBaseBranch sets the default base branch for CreateCycle
func WithBaseBranch(branch string) Option {
	return func(e *Engine) {
		if branch != "" {
			e.baseBranch = branch
		}
	}
}

// New creates an engine over a version control client and a state store
func New(vcs VersionControl, store StateStore, opts ...Option) *Engine {
	e := &Engine{
		vcs:        vcs,
		store:      store,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
		baseBranch: DefaultBaseBranch,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BaseBranch returns the default base branch for new cycles
func (e *Engine) BaseBranch() string {
	return e.baseBranch
}

// Definitions returns the stepping sequence
func (e *Engine) Definitions() []Step {
	return Sequence()
}

// CurrentBranch returns the checked-out branch of the working copy
func (e *Engine) CurrentBranch(ctx context.Context) (string, error) {
	return e.vcs.CurrentBranch(ctx)
}

// Resolve returns the stored state for branch, creating and persisting the
// initial state when none exists. An existing state is never overwritten.
func (e *Engine) Resolve(ctx context.Context, branch string) (*State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolve(ctx, branch)
}

func (e *Engine) resolve(ctx context.Context, branch string) (*State, error) {
	state, ok, err := e.store.Get(ctx, branch)
	if err != nil {
		return nil, fmt.Errorf("failed to load state for %s: %w", branch, err)
	}
	if ok {
		return state, nil
	}

	state = &State{
		BranchName:       branch,
		BranchType:       ClassifyBranch(branch),
		CurrentStepIndex: 0,
		Steps:            map[string]StepRecord{},
	}
	if err := e.persist(ctx, state); err != nil {
		return nil, err
	}
	e.logger.Debug("initialized lifecycle state", "branch", branch, "type", state.BranchType)
	return state, nil
}

func (e *Engine) persist(ctx context.Context, state *State) error {
	if err := e.store.Set(ctx, state.BranchName, state); err != nil {
		return fmt.Errorf("failed to save state for %s: %w", state.BranchName, err)
	}
	return nil
}

func (e *Engine) timestamp() int64 {
	return e.now().UnixMilli()
}
