package testhelpers

import (
	"os"
	"path/filepath"
	"testing"
)

// Scene is a temporary working copy, optionally with a bare "origin".
type Scene struct {
	Dir    string
	Repo   *GitRepo
	Remote string
}

// SceneSetup is a function type for setting up a scene.
type SceneSetup func(*Scene) error

// NewScene creates a repository in a fresh temp directory and runs setup.
// The directory is removed when the test ends unless DEBUG is set.
func NewScene(t *testing.T, setup SceneSetup) *Scene {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "kllc-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	// Resolve symlinks so paths match what git reports (macOS /var vs /private/var).
	if resolved, err := filepath.EvalSymlinks(tmpDir); err == nil {
		tmpDir = resolved
	}
	workDir := filepath.Join(tmpDir, "work")

	t.Cleanup(func() {
		if os.Getenv("DEBUG") == "" {
			os.RemoveAll(tmpDir)
		}
	})

	repo, err := NewGitRepo(workDir)
	if err != nil {
		t.Fatalf("Failed to create Git repo: %v", err)
	}

	scene := &Scene{Dir: workDir, Repo: repo}
	if setup != nil {
		if err := setup(scene); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}
	}
	return scene
}

// BasicSceneSetup creates a single commit on main.
func BasicSceneSetup(scene *Scene) error {
	return scene.Repo.CreateChangeAndCommit("1", "1")
}

// RemoteSceneSetup creates a commit on main and pushes it to a bare origin
// with upstream tracking.
func RemoteSceneSetup(scene *Scene) error {
	if err := BasicSceneSetup(scene); err != nil {
		return err
	}
	remote, err := scene.Repo.CreateBareRemote("origin")
	if err != nil {
		return err
	}
	scene.Remote = remote
	return scene.Repo.PushBranch("origin", "main")
}
