// Package templatesrc turns the configured template into a local directory.
package templatesrc

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitegen/internal/config"
	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/git"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/workspace"
)

// Cloner fetches a remote template into dir.
type Cloner interface {
	Clone(ctx context.Context, src git.Source, dir string) (string, error)
}

// Template is a resolved template directory.
type Template struct {
	Dir     string
	Commit  string // set for cloned templates
	cleanup func() error
}

// Close releases any scratch space held by the template.
func (t *Template) Close() error {
	if t.cleanup == nil {
		return nil
	}
	return t.cleanup()
}

// Resolver resolves template configs.
type Resolver struct {
	cloner     Cloner
	scratchDir string
}

// NewResolver clones remote templates with cloner into directories under scratchDir.
func NewResolver(cloner Cloner, scratchDir string) *Resolver {
	if cloner == nil {
		cloner = git.NewClient()
	}
	return &Resolver{cloner: cloner, scratchDir: scratchDir}
}

// Resolve returns a directory holding the template. Local templates are used
// in place; remote templates are cloned into a fresh workspace that Close removes.
func (r *Resolver) Resolve(ctx context.Context, tc config.TemplateConfig) (*Template, error) {
	if !tc.IsRemote() {
		dir, err := checkDir(tc.Path)
		if err != nil {
			return nil, serrors.ValidationFailed("template.path", err.Error())
		}
		return &Template{Dir: dir}, nil
	}

	ws := workspace.NewManager(r.scratchDir, "sitegen-template")
	if err := ws.Create(); err != nil {
		return nil, serrors.WorkspaceError("create", err)
	}
	dir, err := ws.Subdir("template")
	if err != nil {
		_ = ws.Cleanup()
		return nil, serrors.WorkspaceError("subdir", err)
	}

	commit, err := r.cloner.Clone(ctx, git.Source{URL: tc.URL, Branch: tc.Branch, Token: tc.Token}, dir)
	if err != nil {
		_ = ws.Cleanup()
		return nil, serrors.TemplateCloneError(tc.URL, err)
	}
	// The checkout metadata is not part of the template.
	if err := os.RemoveAll(filepath.Join(dir, ".git")); err != nil {
		_ = ws.Cleanup()
		return nil, serrors.WorkspaceError("strip .git", err)
	}
	warnWithoutSrc(dir)
	return &Template{Dir: dir, Commit: commit, cleanup: ws.Cleanup}, nil
}

func checkDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", path)
	}
	warnWithoutSrc(abs)
	return abs, nil
}

func warnWithoutSrc(dir string) {
	if info, err := os.Stat(filepath.Join(dir, "src")); err != nil || !info.IsDir() {
		slog.Warn("Template has no src directory; placeholders will not be substituted", logfields.Path(dir))
	}
}
