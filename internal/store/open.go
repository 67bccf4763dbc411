package store

import (
	"fmt"
	"path/filepath"
)

// Options selects and configures a backend
type Options struct {
	Backend string
	// Path is the file backend location; relative paths resolve against GitDir
	Path   string
	GitDir string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open builds the backend named by opts.Backend. refs backs the gitref store.
func Open(opts Options, refs RefClient) (Store, error) {
	switch opts.Backend {
	case "", BackendGitRef:
		if refs == nil {
			return nil, fmt.Errorf("gitref store needs a git client")
		}
		return NewGitRefStore(refs), nil
	case BackendFile:
		path := opts.Path
		if path == "" {
			path = DefaultFileName
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(opts.GitDir, path)
		}
		return NewFileStore(path), nil
	case BackendRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis store needs an address")
		}
		return NewRedisStore(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, WithRedisPrefix(opts.RedisPrefix)), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
