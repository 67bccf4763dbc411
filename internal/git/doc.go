// Package git provides low-level Git operations for a single working copy.
//
// It wraps git command execution and provides a Go-friendly interface for:
//   - Branch management (current branch, checkout, create)
//   - Commit operations (stage, commit, push with upstream recovery)
//   - Tag operations (create, push)
//   - Repo state queries (status, refs, blobs)
//
// This package should be the only place where direct git commands are executed.
package git
