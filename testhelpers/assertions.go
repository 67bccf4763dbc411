// Package testhelpers provides temporary git working copies, bare remotes
// and assertions for kllc tests.
package testhelpers

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Must is a generic helper function that panics if err is not nil,
// otherwise returns the value.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// ExpectBranches asserts that the repository has exactly the expected local branches.
func ExpectBranches(t *testing.T, repo *GitRepo, expected []string) {
	t.Helper()

	branches, err := repo.GetLocalBranches()
	require.NoError(t, err, "Failed to list branches")

	sort.Strings(branches)
	want := append([]string(nil), expected...)
	sort.Strings(want)

	require.Equal(t, want, branches, "Branches do not match")
}

// ExpectLastCommit asserts the subject of HEAD.
func ExpectLastCommit(t *testing.T, repo *GitRepo, expected string) {
	t.Helper()

	msg, err := repo.LastCommitMessage()
	require.NoError(t, err, "Failed to read last commit")
	require.Equal(t, expected, strings.TrimSpace(msg))
}

// ExpectRemoteRefs asserts that a bare remote holds refs with the given
// prefixes, one per ref, in any order.
func ExpectRemoteRefs(t *testing.T, bareDir, namespace string, prefixes ...string) {
	t.Helper()

	refs, err := RemoteRefs(bareDir, namespace)
	require.NoError(t, err)
	require.Len(t, refs, len(prefixes), "refs under %s: %v", namespace, refs)

	sort.Strings(refs)
	want := append([]string(nil), prefixes...)
	sort.Strings(want)
	for i := range want {
		require.True(t, strings.HasPrefix(refs[i], want[i]), "ref %s does not start with %s", refs[i], want[i])
	}
}
