// Package fileutil holds the in-place file rewriting shared by the
// substitution steps.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// TransformFunc maps old file content to new content. changed reports
// whether the file needs to be written back.
type TransformFunc func(content []byte) (out []byte, changed bool, err error)

// Rewrite reads path, applies fn and, when fn reports a change, replaces the
// file atomically (temp file + rename in the same directory) keeping its mode.
// If any step fails the original file is left unchanged.
func Rewrite(path string, fn TransformFunc) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	// #nosec G304 -- path is inside a destination tree created by this process.
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	out, changed, err := fn(content)
	if err != nil || !changed {
		return false, err
	}

	if err := WriteFileAtomic(path, out, info.Mode().Perm()); err != nil {
		return false, err
	}
	return true, nil
}

// WriteFileAtomic writes data to path using a temp file + rename.
// The caller must ensure the parent directory exists.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sitegen-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	success = true
	return nil
}
