package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/watch"
)

// WatchCmd implements the 'watch' command. Dev servers are never started.
type WatchCmd struct {
	Input    string        `short:"i" help:"Site list CSV (overrides config input)"`
	Template string        `short:"t" help:"Template directory or git URL (overrides config template)"`
	Out      string        `short:"o" help:"Build root directory (overrides config build_root)"`
	Interval time.Duration `help:"Also rebuild on this interval (0 disables)" default:"0s"`
	Debounce time.Duration `help:"Quiet period before rebuilding after a change" default:"2s"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	if w.Input != "" {
		cfg.Input = w.Input
	}
	if w.Out != "" {
		cfg.BuildRoot = w.Out
	}
	applyTemplateFlag(cfg, w.Template, "")
	cfg.Serve.Enabled = false
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunWatch(ctx, cfg, w.Interval, w.Debounce)
}

// RunWatch rebuilds on changes until ctx is cancelled.
func RunWatch(ctx context.Context, cfg *config.Config, interval, debounce time.Duration) error {
	sess, err := openSession(cfg, sessionOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			slog.Warn("Failed to close session", logfields.Error(err))
		}
	}()

	if cfg.Metrics.Listen != "" && sess.prom != nil {
		srv := &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           metricsMux(sess.prom),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("Serving metrics", slog.String("addr", cfg.Metrics.Listen))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", logfields.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	rebuild := func(ctx context.Context, reason string) {
		summary, err := sess.run(ctx)
		if err != nil {
			slog.Error("Rebuild failed", slog.String("reason", reason), logfields.Error(err))
			return
		}
		printSummary(summary)
	}

	watcher, err := watch.New(rebuild,
		watch.WithDebounce(debounce),
		watch.WithInterval(interval),
		watch.WithIgnore(cfg.BuildRoot))
	if err != nil {
		return err
	}
	if err := watcher.AddFile(cfg.Input); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch site list: %w", err)
	}
	if !cfg.Template.IsRemote() {
		if err := watcher.AddTree(cfg.Template.Path); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("watch template: %w", err)
		}
	}

	slog.Info("Watching for changes, press Ctrl-C to stop")
	return watcher.Run(ctx)
}

func metricsMux(rec *metrics.PrometheusRecorder) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(rec.Registry()))
	return mux
}
