package engine

import "context"

// VersionControl is the subset of the git client the engine drives
type VersionControl interface {
	CurrentBranch(ctx context.Context) (string, error)
	IsClean(ctx context.Context) (bool, error)
	CreateBranch(ctx context.Context, name, base string) error
	Commit(ctx context.Context, message string) error
	Tag(ctx context.Context, name string) error
}

// StateStore persists one State per branch. Get reports ok=false when no
// state has been stored for the branch.
type StateStore interface {
	Get(ctx context.Context, branch string) (*State, bool, error)
	Set(ctx context.Context, branch string, state *State) error
}
