package git

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/retry"
)

// Source identifies a template repository.
type Source struct {
	URL    string
	Branch string
	Token  string // optional HTTPS token
}

// Client clones template repositories.
type Client struct {
	depth int
	retry retry.Policy
}

// Option configures a Client.
type Option func(*Client)

// WithDepth sets the clone depth. Zero clones full history.
func WithDepth(depth int) Option {
	return func(c *Client) { c.depth = max(depth, 0) }
}

// WithRetry sets the backoff for transient clone failures.
func WithRetry(p retry.Policy) Option {
	return func(c *Client) { c.retry = p }
}

// NewClient returns a client making depth-1 clones with the default retry policy.
func NewClient(opts ...Option) *Client {
	c := &Client{depth: 1, retry: retry.DefaultPolicy()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clone checks src out into dir, which is replaced if it exists, and returns
// the short commit hash of HEAD.
func (c *Client) Clone(ctx context.Context, src Source, dir string) (string, error) {
	if src.URL == "" {
		return "", fmt.Errorf("template url is required")
	}
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("failed to remove existing directory: %w", err)
	}

	opts := &git.CloneOptions{URL: src.URL, Depth: c.depth}
	if src.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(src.Branch)
		opts.SingleBranch = true
	}
	if src.Token != "" {
		opts.Auth = &http.BasicAuth{Username: "token", Password: src.Token}
	}

	slog.Debug("Cloning template", logfields.URL(src.URL), slog.String("branch", src.Branch), logfields.Path(dir))
	var repo *git.Repository
	err := c.retry.Do(ctx, transient, func(attempt int) error {
		if attempt > 0 {
			slog.Warn("Retrying template clone", logfields.URL(src.URL), slog.Int("attempt", attempt))
			if err := os.RemoveAll(dir); err != nil {
				return err
			}
		}
		r, err := git.PlainCloneContext(ctx, dir, false, opts)
		if err != nil {
			return classifyCloneError(src.URL, err)
		}
		repo = r
		return nil
	})
	if err != nil {
		return "", err
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	commit := head.Hash().String()[:8]
	slog.Info("Template cloned", logfields.URL(src.URL), slog.String("commit", commit), logfields.Path(dir))
	return commit, nil
}
