package templatesrc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/config"
	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/git"
)

type fakeCloner struct {
	got git.Source
	err error
}

func (f *fakeCloner) Clone(_ context.Context, src git.Source, dir string) (string, error) {
	f.got = src
	if f.err != nil {
		return "", f.err
	}
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o750); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o750); err != nil {
		return "", err
	}
	return "abcdef12", os.WriteFile(filepath.Join(dir, "index.html"), []byte("<title>t</title>"), 0o600)
}

func TestResolve_LocalDirectory(t *testing.T) {
	tpl := t.TempDir()
	r := NewResolver(&fakeCloner{}, t.TempDir())

	got, err := r.Resolve(context.Background(), config.TemplateConfig{Path: tpl})
	require.NoError(t, err)
	assert.Equal(t, tpl, got.Dir)
	assert.Empty(t, got.Commit)
	require.NoError(t, got.Close())
	assert.DirExists(t, tpl)
}

func TestResolve_LocalMissing(t *testing.T) {
	r := NewResolver(&fakeCloner{}, t.TempDir())
	_, err := r.Resolve(context.Background(), config.TemplateConfig{Path: filepath.Join(t.TempDir(), "nope")})
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryValidation))
}

func TestResolve_LocalFileRejected(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	_, err := NewResolver(&fakeCloner{}, t.TempDir()).Resolve(context.Background(), config.TemplateConfig{Path: file})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestResolve_RemoteClonesIntoScratch(t *testing.T) {
	scratch := t.TempDir()
	fc := &fakeCloner{}
	r := NewResolver(fc, scratch)

	got, err := r.Resolve(context.Background(), config.TemplateConfig{URL: "https://example.com/tpl.git", Branch: "main", Token: "s3cret"})
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/tpl.git", fc.got.URL)
	assert.Equal(t, "main", fc.got.Branch)
	assert.Equal(t, "s3cret", fc.got.Token)
	assert.Equal(t, "abcdef12", got.Commit)
	assert.FileExists(t, filepath.Join(got.Dir, "index.html"))
	assert.NoDirExists(t, filepath.Join(got.Dir, ".git"))

	rel, err := filepath.Rel(scratch, got.Dir)
	require.NoError(t, err)
	assert.NotContains(t, rel, "..")

	require.NoError(t, got.Close())
	assert.NoDirExists(t, got.Dir)
}

func TestResolve_RemoteCloneFailure(t *testing.T) {
	scratch := t.TempDir()
	r := NewResolver(&fakeCloner{err: errors.New("repository not found")}, scratch)

	_, err := r.Resolve(context.Background(), config.TemplateConfig{URL: "https://example.com/missing.git"})
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryGit))

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
