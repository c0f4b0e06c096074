package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sitegen/internal/builder"
	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Input    string `short:"i" help:"Site list CSV (overrides config input)"`
	Template string `short:"t" help:"Template directory or git URL (overrides config template)"`
	Branch   string `help:"Template branch when the template is a git URL"`
	Out      string `short:"o" help:"Build root directory (overrides config build_root)"`
	NoServe  bool   `name:"no-serve" help:"Build sites without starting dev servers"`
	Seed     uint64 `help:"Seed hero words and ports for a reproducible run (0 = random)"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	b.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return RunBuild(ctx, cfg, sessionOptions{serve: !b.NoServe, seed: b.Seed})
}

// apply copies flag overrides onto the loaded configuration.
func (b *BuildCmd) apply(cfg *config.Config) {
	if b.Input != "" {
		cfg.Input = b.Input
	}
	if b.Out != "" {
		cfg.BuildRoot = b.Out
	}
	applyTemplateFlag(cfg, b.Template, b.Branch)
	if b.NoServe {
		cfg.Serve.Enabled = false
	}
}

// RunBuild performs one pass and, when dev servers were started, stays in the
// foreground until ctx is cancelled or every server has exited.
func RunBuild(ctx context.Context, cfg *config.Config, opts sessionOptions) error {
	sess, err := openSession(cfg, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			slog.Warn("Failed to close session", logfields.Error(err))
		}
	}()

	summary, err := sess.run(ctx)
	if err != nil {
		return err
	}
	printSummary(summary)

	if sess.launcher == nil || len(summary.Launched()) == 0 {
		return nil
	}

	slog.Info("Dev servers running, press Ctrl-C to stop", logfields.Count(len(summary.Launched())))
	exited := make(chan struct{})
	go func() {
		sess.launcher.Wait()
		close(exited)
	}()
	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case <-exited:
		slog.Info("All dev servers have exited")
	}
	return nil
}

func printSummary(s *builder.Summary) {
	fmt.Printf("Built %d site(s) into %s\n", len(s.Sites), s.BuildRoot)
	for _, site := range s.Sites {
		switch site.Status {
		case builder.StatusLaunched:
			fmt.Printf("  %-30s %-13s http://localhost:%d/\n", site.Domain, site.Status, site.Port)
		case builder.StatusFailed, builder.StatusLaunchFailed, builder.StatusSkipped:
			fmt.Printf("  %-30s %-13s %v\n", site.Domain, site.Status, site.Err)
		default:
			fmt.Printf("  %-30s %s\n", site.Domain, site.Status)
		}
	}
}
