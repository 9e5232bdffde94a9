// Package filesystem holds path helpers for files the tool keeps next
// to its binary or under a configured directory: the config file lookup
// and the cache database location.
package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrDirNotFound reports a parent directory that could not be created.
var ErrDirNotFound = errors.New("directory not found")

// GetDefaultPath returns filename placed in the executable's directory.
// Used as the config lookup fallback when a relative path does not
// exist in the working directory.
func GetDefaultPath(filename string) (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(exePath), filename), nil
}

// EnsureDirectoryExists creates the parent directory of filePath if it
// does not exist. The cache store calls this before opening its
// database so a fresh checkout works without setup.
func EnsureDirectoryExists(filePath string) error {
	dir := filepath.Dir(filePath)
	if dir == "." {
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrDirNotFound, dir)
		}
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
