package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"kllc.dev/kllc/internal/store"
)

func TestOpen(t *testing.T) {
	t.Run("file backend resolves against git dir", func(t *testing.T) {
		gitDir := t.TempDir()
		s, err := store.Open(store.Options{Backend: store.BackendFile, GitDir: gitDir}, nil)
		require.NoError(t, err)

		fs, ok := s.(*store.FileStore)
		require.True(t, ok)
		require.Equal(t, filepath.Join(gitDir, store.DefaultFileName), fs.Path())
	})

	t.Run("memory backend", func(t *testing.T) {
		s, err := store.Open(store.Options{Backend: store.BackendMemory}, nil)
		require.NoError(t, err)
		require.IsType(t, &store.MemoryStore{}, s)
	})

	t.Run("gitref needs a client", func(t *testing.T) {
		_, err := store.Open(store.Options{}, nil)
		require.Error(t, err)
	})

	t.Run("redis needs an address", func(t *testing.T) {
		_, err := store.Open(store.Options{Backend: store.BackendRedis}, nil)
		require.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := store.Open(store.Options{Backend: "sqlite"}, nil)
		require.Error(t, err)
	})
}
