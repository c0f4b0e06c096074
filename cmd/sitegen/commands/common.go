package commands

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitegen/internal/config"
	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitegen.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build one site per row of the site list and start their dev servers"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration and site list"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild sites whenever the site list or template changes"`
	History HistoryCmd `cmd:"" help:"Show recently built sites"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel picks the log level: --verbose wins, then SITEGEN_LOG_LEVEL, then info.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("SITEGEN_LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConfig reads the configuration file. A missing file at the default
// path means "use defaults"; a missing file that was asked for is an error.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	var se *serrors.SitegenError
	if path == config.DefaultPath && errors.As(err, &se) && se.Category == serrors.CategoryConfig && se.Cause == nil {
		slog.Debug("No configuration file, using defaults", slog.String("path", path))
		return config.Default(), nil
	}
	return nil, err
}

// looksRemote reports whether a --template value names a git repository.
func looksRemote(template string) bool {
	return strings.Contains(template, "://") ||
		strings.HasPrefix(template, "git@") ||
		strings.HasSuffix(template, ".git")
}

// applyTemplateFlag overrides the configured template.
func applyTemplateFlag(cfg *config.Config, template, branch string) {
	if template == "" {
		if branch != "" && cfg.Template.IsRemote() {
			cfg.Template.Branch = branch
		}
		return
	}
	if looksRemote(template) {
		cfg.Template = config.TemplateConfig{URL: template, Branch: branch, Token: cfg.Template.Token}
		if cfg.Template.Branch == "" {
			cfg.Template.Branch = "main"
		}
		return
	}
	cfg.Template = config.TemplateConfig{Path: template}
}
