package builder

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/hero"
	"git.home.luguber.info/inful/sitegen/internal/history"
	"git.home.luguber.info/inful/sitegen/internal/launch"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/notify"
	"git.home.luguber.info/inful/sitegen/internal/placeholder"
	"git.home.luguber.info/inful/sitegen/internal/site"
	"git.home.luguber.info/inful/sitegen/internal/util/sets"
)

// Service builds sites from a template.
type Service struct {
	buildRoot   string
	templateDir string

	rotator   *hero.Rotator
	engine    *placeholder.Engine
	launcher  launch.Launcher
	ports     *launch.PortPicker
	recorder  metrics.Recorder
	history   history.Store
	publisher notify.Publisher

	newRunID func() string
	now      func() time.Time
}

// NewService builds sites from templateDir into buildRoot. Without
// WithLauncher no dev servers are started.
func NewService(buildRoot, templateDir string) *Service {
	return &Service{
		buildRoot:   buildRoot,
		templateDir: templateDir,
		rotator:     hero.NewRotator(nil),
		engine:      placeholder.NewEngine(),
		recorder:    metrics.NoopRecorder{},
		history:     history.NopStore{},
		publisher:   notify.NopPublisher{},
		newRunID:    uuid.NewString,
		now:         time.Now,
	}
}

// WithRotator shares rotation state with other runs or seeds it for tests.
func (s *Service) WithRotator(r *hero.Rotator) *Service {
	if r != nil {
		s.rotator = r
	}
	return s
}

// WithLauncher enables dev servers. ports chooses each server's port.
func (s *Service) WithLauncher(l launch.Launcher, ports *launch.PortPicker) *Service {
	s.launcher = l
	s.ports = ports
	return s
}

// WithRecorder attaches a metrics recorder.
func (s *Service) WithRecorder(r metrics.Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithHistory records each site's outcome in store.
func (s *Service) WithHistory(store history.Store) *Service {
	if store != nil {
		s.history = store
	}
	return s
}

// WithPublisher announces each site's outcome.
func (s *Service) WithPublisher(p notify.Publisher) *Service {
	if p != nil {
		s.publisher = p
	}
	return s
}

// WithRunID overrides run ID generation.
func (s *Service) WithRunID(fn func() string) *Service {
	if fn != nil {
		s.newRunID = fn
	}
	return s
}

// Rotator exposes the rotation state used by the service.
func (s *Service) Rotator() *hero.Rotator { return s.rotator }

// Run builds one site per record pulled from sites. Per-site failures are
// reported in the summary. An error from sites stops the run and is returned
// as an input error together with the partial summary. Cancelling ctx stops
// pulling rows; sites already started keep running.
func (s *Service) Run(ctx context.Context, sites iter.Seq2[site.Record, error]) (*Summary, error) {
	summary := &Summary{
		RunID:     s.newRunID(),
		Template:  s.templateDir,
		BuildRoot: s.buildRoot,
		StartedAt: s.now(),
	}
	log := slog.With(logfields.RunID(summary.RunID))
	defer func() {
		summary.FinishedAt = s.now()
		s.recorder.ObserveRunDuration(summary.Duration())
	}()

	if s.launcher != nil && s.ports == nil {
		ports, err := launch.NewPortPicker(launch.DefaultPortBase, launch.DefaultPortSpan, nil)
		if err != nil {
			return summary, serrors.InternalError("port picker", err)
		}
		s.ports = ports
	}
	if err := os.MkdirAll(s.buildRoot, 0o750); err != nil {
		return summary, serrors.FileSystemError("", "create build root", err)
	}

	log.Info("Starting run", logfields.Path(s.buildRoot), slog.String("template", s.templateDir))
	seen := sets.New[string]()

	for rec, err := range sites {
		if err != nil {
			log.Error("Reading site list failed", logfields.Error(err))
			return summary, serrors.InputError("site list", err)
		}
		if ctx.Err() != nil {
			summary.Interrupted = true
			log.Warn("Run interrupted", logfields.Count(len(summary.Sites)))
			return summary, nil
		}

		// Destinations collide on case-insensitive filesystems.
		key := strings.ToLower(rec.Domain)
		var res SiteResult
		if seen.Has(key) {
			res = s.skipDuplicate(log, rec)
		} else {
			seen.Add(key)
			res = s.buildSite(ctx, log.With(logfields.Domain(rec.Domain)), rec)
		}
		res.Duration = s.now().Sub(res.StartedAt)
		summary.Sites = append(summary.Sites, res)
		s.observe(ctx, log, summary.RunID, res)
	}

	log.Info("Run complete",
		logfields.Count(len(summary.Sites)),
		slog.Int("launched", summary.Count(StatusLaunched)),
		slog.Int("failed", summary.Count(StatusFailed)+summary.Count(StatusLaunchFailed)),
		slog.Int("skipped", summary.Count(StatusSkipped)))
	return summary, nil
}

func (s *Service) skipDuplicate(log *slog.Logger, rec site.Record) SiteResult {
	err := serrors.DuplicateDomain(rec.Domain, rec.Line)
	log.Warn("Skipping duplicate domain", logfields.Domain(rec.Domain), logfields.Line(rec.Line))
	now := s.now()
	return SiteResult{
		Domain:    rec.Domain,
		Line:      rec.Line,
		Status:    StatusSkipped,
		Title:     rec.PageTitle(),
		Err:       err,
		StartedAt: now,
	}
}

// observe fans a finished site out to metrics, history and notifications.
// Failures here are logged and never affect the run.
func (s *Service) observe(ctx context.Context, log *slog.Logger, runID string, res SiteResult) {
	s.recorder.IncSiteOutcome(res.Status.Outcome())

	errText := ""
	if res.Err != nil {
		errText = res.Err.Error()
	}
	words := strings.Join(res.HeroWords, ",")

	entry := history.Entry{
		RunID:       runID,
		Domain:      res.Domain,
		Status:      string(res.Status),
		Destination: res.Destination,
		Title:       res.Title,
		HeroWord:    words,
		Port:        res.Port,
		PID:         res.PID,
		Error:       errText,
		StartedAt:   res.StartedAt,
		FinishedAt:  res.StartedAt.Add(res.Duration),
	}
	if err := s.history.Record(context.WithoutCancel(ctx), entry); err != nil {
		log.Warn("Failed to record history", logfields.Domain(res.Domain), logfields.Error(err))
	}

	event := notify.Event{
		RunID:       runID,
		Domain:      res.Domain,
		Status:      string(res.Status),
		Destination: res.Destination,
		Title:       res.Title,
		HeroWord:    words,
		Port:        res.Port,
		PID:         res.PID,
		Error:       errText,
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("Failed to publish site event", logfields.Domain(res.Domain), logfields.Error(err))
	}
}
