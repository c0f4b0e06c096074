package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/retry"
)

// initTemplateRepo creates a one-commit repository with a template layout.
func initTemplateRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "App.jsx"), []byte("<p>{{ phone }}</p>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<title>x</title>"), 0o600))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(".")
	require.NoError(t, err)
	_, err = wt.Commit("template", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func TestClient_CloneLocalRepository(t *testing.T) {
	remote := initTemplateRepo(t)
	dest := filepath.Join(t.TempDir(), "template")

	c := NewClient(WithDepth(0))
	commit, err := c.Clone(context.Background(), Source{URL: remote, Branch: "master"}, dest)
	require.NoError(t, err)

	assert.Len(t, commit, 8)
	assert.FileExists(t, filepath.Join(dest, "src", "App.jsx"))
	assert.FileExists(t, filepath.Join(dest, "index.html"))
}

func TestClient_CloneReplacesExistingDir(t *testing.T) {
	remote := initTemplateRepo(t)
	dest := t.TempDir()
	stale := filepath.Join(dest, "stale.txt")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o600))

	_, err := NewClient(WithDepth(0)).Clone(context.Background(), Source{URL: remote}, dest)
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
}

func TestClient_CloneMissingRepository(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	noRetry := retry.NewPolicy(retry.Fixed, time.Millisecond, time.Millisecond, 0)
	_, err := NewClient(WithDepth(0), WithRetry(noRetry)).Clone(context.Background(), Source{URL: missing}, filepath.Join(t.TempDir(), "out"))
	require.Error(t, err)

	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf), "got %T: %v", err, err)
}

func TestClient_RequiresURL(t *testing.T) {
	_, err := NewClient().Clone(context.Background(), Source{}, t.TempDir())
	require.Error(t, err)
}

func TestClassifyCloneError(t *testing.T) {
	var ae *AuthError
	require.ErrorAs(t, classifyCloneError("u", errors.New("authentication required")), &ae)

	var nf *NotFoundError
	require.ErrorAs(t, classifyCloneError("u", errors.New("repository not found")), &nf)

	err := classifyCloneError("u", errors.New("boom"))
	assert.Contains(t, err.Error(), "failed to clone repository u")
}

func TestWithDepth_NegativeClamped(t *testing.T) {
	assert.Equal(t, 0, NewClient(WithDepth(-3)).depth)
	assert.Equal(t, 1, NewClient().depth)
}

func TestTransient(t *testing.T) {
	assert.False(t, transient(&AuthError{URL: "u", Err: errors.New("x")}))
	assert.False(t, transient(&NotFoundError{URL: "u", Err: errors.New("x")}))
	assert.False(t, transient(context.Canceled))
	assert.True(t, transient(errors.New("connection reset by peer")))
}
