package store

import (
	"context"
	"encoding/hex"
	"errors"
	"sort"
	"strings"

	"kllc.dev/kllc/internal/engine"
	kllcerrors "kllc.dev/kllc/internal/errors"
)

// RefPrefix is the ref namespace holding state blobs
const RefPrefix = "refs/kllc/lifecycle-state/"

// RefClient is the subset of the git client used to store blobs under refs
type RefClient interface {
	GetRef(ctx context.Context, name string) (string, error)
	UpdateRef(ctx context.Context, name, sha string) error
	CreateBlob(ctx context.Context, content string) (string, error)
	ReadBlob(ctx context.Context, sha string) (string, error)
	ListRefs(ctx context.Context, prefix string) (map[string]string, error)
}

// GitRefStore keeps each state as a JSON blob referenced from
// refs/kllc/lifecycle-state/<hex(branch)>. State lives in the repository and
// survives editor restarts without touching the working tree. The leaf is
// hex-encoded so every branch maps to one flat ref: git cannot hold both
// .../feature and .../feature/42-login.
type GitRefStore struct {
	git RefClient
}

// NewGitRefStore creates a GitRefStore
func NewGitRefStore(git RefClient) *GitRefStore {
	return &GitRefStore{git: git}
}

func refName(branch string) string {
	return RefPrefix + hex.EncodeToString([]byte(branch))
}

func branchFromRef(name string) (string, bool) {
	raw, err := hex.DecodeString(strings.TrimPrefix(name, RefPrefix))
	if err != nil || len(raw) == 0 {
		return "", false
	}
	return string(raw), true
}

func (s *GitRefStore) Get(ctx context.Context, branch string) (*engine.State, bool, error) {
	sha, err := s.git.GetRef(ctx, refName(branch))
	if err != nil {
		if isMissingRef(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	content, err := s.git.ReadBlob(ctx, sha)
	if err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, false, nil
	}

	state, err := decode(branch, []byte(content))
	if err != nil {
		return nil, false, err
	}
	return state, true, nil
}

func (s *GitRefStore) Set(ctx context.Context, branch string, state *engine.State) error {
	data, err := encode(state)
	if err != nil {
		return err
	}
	sha, err := s.git.CreateBlob(ctx, string(data))
	if err != nil {
		return err
	}
	return s.git.UpdateRef(ctx, refName(branch), sha)
}

func (s *GitRefStore) List(ctx context.Context) ([]string, error) {
	refs, err := s.git.ListRefs(ctx, RefPrefix)
	if err != nil {
		return nil, err
	}
	branches := make([]string, 0, len(refs))
	for name := range refs {
		if branch, ok := branchFromRef(name); ok {
			branches = append(branches, branch)
		}
	}
	sort.Strings(branches)
	return branches, nil
}

func isMissingRef(err error) bool {
	return errors.Is(err, kllcerrors.ErrRefNotFound)
}
