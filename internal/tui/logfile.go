package tui

import (
	"os"
	"path/filepath"
)

// GetLogFilePath returns the log file location. KLLC_LOG_FILE wins, then
// the configured path; relative paths resolve against gitDir. An empty
// result disables file logging.
func GetLogFilePath(configured, gitDir string) string {
	path := configured
	if custom := os.Getenv("KLLC_LOG_FILE"); custom != "" {
		path = custom
	}
	if path == "" {
		return ""
	}
	if !filepath.IsAbs(path) && gitDir != "" {
		path = filepath.Join(gitDir, path)
	}
	return path
}
