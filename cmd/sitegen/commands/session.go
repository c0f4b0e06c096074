package commands

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitegen/internal/builder"
	"git.home.luguber.info/inful/sitegen/internal/config"
	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/hero"
	"git.home.luguber.info/inful/sitegen/internal/history"
	"git.home.luguber.info/inful/sitegen/internal/launch"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/notify"
	"git.home.luguber.info/inful/sitegen/internal/report"
	"git.home.luguber.info/inful/sitegen/internal/rows"
	"git.home.luguber.info/inful/sitegen/internal/templatesrc"
)

// session holds what consecutive runs share: rotation state, ports, dev
// servers and the observability sinks.
type session struct {
	cfg       *config.Config
	rotator   *hero.Rotator
	ports     *launch.PortPicker
	launcher  *launch.ExecLauncher
	prom      *metrics.PrometheusRecorder
	history   history.Store
	publisher notify.Publisher
	resolver  *templatesrc.Resolver
}

type sessionOptions struct {
	serve bool
	seed  uint64 // zero means random
}

func newRand(seed uint64, stream uint64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	return rand.New(rand.NewPCG(seed, stream))
}

func openSession(cfg *config.Config, opts sessionOptions) (*session, error) {
	s := &session{
		cfg:       cfg,
		rotator:   hero.NewRotator(newRand(opts.seed, 1)),
		history:   history.NopStore{},
		publisher: notify.NopPublisher{},
		resolver:  templatesrc.NewResolver(nil, filepath.Join(cfg.BuildRoot, ".sitegen")),
	}

	if opts.serve && cfg.Serve.Enabled {
		ports, err := launch.NewPortPicker(cfg.Serve.PortBase, cfg.Serve.PortSpan, newRand(opts.seed, 2))
		if err != nil {
			return nil, serrors.ValidationFailed("serve", err.Error())
		}
		s.ports = ports
		s.launcher = launch.NewExecLauncher(cfg.Serve.Command, launch.WithExitHook(logExit))
	}

	if cfg.Metrics.Textfile != "" || cfg.Metrics.Listen != "" {
		s.prom = metrics.NewPrometheusRecorder(nil)
	}

	if cfg.History.Path != "" {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			slog.Warn("History disabled", logfields.Path(cfg.History.Path), logfields.Error(err))
		} else {
			s.history = store
		}
	}

	if cfg.Notify.NATSURL != "" {
		pub, err := notify.NewNATSPublisher(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			_ = s.history.Close()
			return nil, serrors.Wrap(err, serrors.CategoryNotify, serrors.SeverityFatal, "connect to NATS failed").
				WithContext("url", cfg.Notify.NATSURL)
		}
		s.publisher = pub
	}
	return s, nil
}

func logExit(h launch.Handle, err error) {
	attrs := []any{logfields.Domain(h.Domain), logfields.Port(h.Port), logfields.PID(h.PID)}
	if err != nil {
		slog.Warn("Dev server exited", append(attrs, logfields.Error(err))...)
		return
	}
	slog.Info("Dev server exited", attrs...)
}

func (s *session) recorder() metrics.Recorder {
	if s.prom == nil {
		return metrics.NoopRecorder{}
	}
	return s.prom
}

// run performs one build pass over the configured site list.
func (s *session) run(ctx context.Context) (*builder.Summary, error) {
	list, err := rows.Open(s.cfg.Input)
	if err != nil {
		return nil, serrors.InputError(s.cfg.Input, err)
	}
	defer func() { _ = list.Close() }()

	tpl, err := s.resolver.Resolve(ctx, s.cfg.Template)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := tpl.Close(); err != nil {
			slog.Warn("Failed to remove template checkout", logfields.Error(err))
		}
	}()

	svc := builder.NewService(s.cfg.BuildRoot, tpl.Dir).
		WithRotator(s.rotator).
		WithRecorder(s.recorder()).
		WithHistory(s.history).
		WithPublisher(s.publisher)
	if s.launcher != nil {
		svc.WithLauncher(s.launcher, s.ports)
	}

	summary, runErr := svc.Run(ctx, list.All())
	if summary != nil {
		s.afterRun(summary)
	}
	return summary, runErr
}

// afterRun writes the report and metrics textfile. Failures are logged only.
func (s *session) afterRun(summary *builder.Summary) {
	if s.cfg.Report.Enabled {
		if paths, err := report.Write(s.cfg.BuildRoot, summary); err != nil {
			slog.Warn("Failed to write report", logfields.Error(err))
		} else {
			slog.Info("Report written", logfields.Path(paths[0]))
		}
	}
	if s.prom != nil && s.cfg.Metrics.Textfile != "" {
		if err := os.MkdirAll(filepath.Dir(s.cfg.Metrics.Textfile), 0o750); err == nil {
			if err := s.prom.WriteTextfile(s.cfg.Metrics.Textfile); err != nil {
				slog.Warn("Failed to write metrics", logfields.Path(s.cfg.Metrics.Textfile), logfields.Error(err))
			}
		}
	}
}

func (s *session) Close() error {
	return errors.Join(s.publisher.Close(), s.history.Close())
}
