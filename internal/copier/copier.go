// Package copier materializes a template directory tree at a new location.
package copier

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFile is returned for entries that are neither regular files
// nor directories once symbolic links are resolved (directory links, devices,
// sockets, pipes).
var ErrUnsupportedFile = errors.New("unsupported file type")

// Option configures CopyTree.
type Option func(*options)

type options struct {
	exclude []string // absolute paths never copied
}

// Exclude leaves path and everything below it out of the copy. It is meant
// for an output directory that lives inside the source tree.
func Exclude(path string) Option {
	return func(o *options) {
		if abs, err := filepath.Abs(path); err == nil {
			o.exclude = append(o.exclude, abs)
		}
	}
}

// CopyTree recursively copies src into dst, creating dst and any missing
// intermediate directories. Existing files under dst are overwritten. Symbolic
// links to regular files are copied as regular files. dst itself is never
// copied when it lies inside src.
func CopyTree(src, dst string, opts ...Option) error {
	var o options
	for _, opt := range append([]Option{Exclude(dst)}, opts...) {
		opt(&o)
	}
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", src, err)
	}
	return o.copyDir(absSrc, dst)
}

func (o *options) copyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !srcInfo.IsDir() {
		return fmt.Errorf("copy %s: not a directory", src)
	}

	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()|0o700); err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if o.excluded(srcPath) {
			continue
		}

		switch {
		case entry.IsDir():
			if err := o.copyDir(srcPath, dstPath); err != nil {
				return err
			}
		case entry.Type().IsRegular():
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		case entry.Type()&fs.ModeSymlink != 0:
			info, err := os.Stat(srcPath)
			if err != nil {
				return fmt.Errorf("resolve %s: %w", srcPath, err)
			}
			if !info.Mode().IsRegular() {
				return fmt.Errorf("%s: %w", srcPath, ErrUnsupportedFile)
			}
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%s: %w", srcPath, ErrUnsupportedFile)
		}
	}

	return nil
}

func (o *options) excluded(path string) bool {
	for _, ex := range o.exclude {
		if path == ex || strings.HasPrefix(path, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// copyFile copies a single file from src to dst, preserving its permissions.
func copyFile(src, dst string) error {
	// #nosec G304 -- src is an entry of the operator's template tree.
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer func() {
		_ = srcFile.Close()
	}()

	info, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	// #nosec G304 -- dst is derived from the build root and the template layout.
	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}

	return os.Chmod(dst, info.Mode().Perm())
}
