package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// ErrNotCreated is returned when the workspace is used before Create.
var ErrNotCreated = errors.New("workspace not created")

// Manager owns one scratch directory.
type Manager struct {
	baseDir string
	prefix  string
	dir     string
}

// NewManager returns a manager that creates its directory under baseDir
// (the system temp dir when empty).
func NewManager(baseDir, prefix string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if prefix == "" {
		prefix = "sitegen"
	}
	return &Manager{baseDir: baseDir, prefix: prefix}
}

// Create makes a fresh, uniquely named directory. Calling it again replaces
// the previous directory.
func (m *Manager) Create() error {
	if err := m.Cleanup(); err != nil {
		return err
	}
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace base: %w", err)
	}
	dir, err := os.MkdirTemp(m.baseDir, m.prefix+"-*")
	if err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	m.dir = dir
	slog.Debug("Created workspace", logfields.Path(dir))
	return nil
}

// Path returns the workspace directory, or "" before Create.
func (m *Manager) Path() string {
	return m.dir
}

// Subdir creates name inside the workspace.
func (m *Manager) Subdir(name string) (string, error) {
	if m.dir == "" {
		return "", ErrNotCreated
	}
	sub := filepath.Join(m.dir, name)
	if err := os.MkdirAll(sub, 0o750); err != nil {
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}
	return sub, nil
}

// Cleanup removes the workspace directory. It is safe to call repeatedly.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}
