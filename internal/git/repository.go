package git

import (
	"errors"
	"fmt"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Repository wraps a go-git repository
type Repository struct {
	*gogit.Repository
	root string
}

// OpenRepository opens the git repository containing path
func OpenRepository(path string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	repo, err := gogit.PlainOpenWithOptions(absPath, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	return &Repository{
		Repository: repo,
		root:       worktree.Filesystem.Root(),
	}, nil
}

// Root returns the root directory of the working copy
func (r *Repository) Root() string {
	return r.root
}

// GetRepoRoot returns the root of the working copy containing dir
func GetRepoRoot(dir string) (string, error) {
	repo, err := OpenRepository(dir)
	if err != nil {
		return "", err
	}
	return repo.Root(), nil
}

// HeadBranch returns the checked-out branch name, or "" when HEAD is
// detached or the branch has no commits yet.
func (r *Repository) HeadBranch() (string, error) {
	head, err := r.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return r.unbornBranch()
		}
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}

	if !head.Name().IsBranch() {
		return "", nil
	}

	return head.Name().Short(), nil
}

// unbornBranch reads the symbolic HEAD of a repository without commits.
func (r *Repository) unbornBranch() (string, error) {
	ref, err := r.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", nil //nolint:nilerr // no HEAD at all means unknown
	}
	if ref.Type() == plumbing.SymbolicReference && ref.Target().IsBranch() {
		return ref.Target().Short(), nil
	}
	return "", nil
}
