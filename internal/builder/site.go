package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/copier"
	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/launch"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/placeholder"
	"git.home.luguber.info/inful/sitegen/internal/site"
	"git.home.luguber.info/inful/sitegen/internal/title"
)

// Stage names used in logs, metrics and failed results.
const (
	StageCopy       = "copy"
	StageSubstitute = "substitute"
	StageTitle      = "title"
	StageLaunch     = "launch"
)

// SourceDir is the template subdirectory whose files receive substitutions.
const SourceDir = "src"

func (s *Service) buildSite(ctx context.Context, log *slog.Logger, rec site.Record) SiteResult {
	res := SiteResult{
		Domain:      rec.Domain,
		Line:        rec.Line,
		Destination: filepath.Join(s.buildRoot, rec.Domain),
		Title:       rec.PageTitle(),
		StartedAt:   s.now(),
	}

	log.Info("Building site", logfields.Path(res.Destination))

	start := time.Now()
	if err := copier.CopyTree(s.templateDir, res.Destination, copier.Exclude(s.buildRoot)); err != nil {
		return s.fail(log, res, StageCopy, err)
	}
	s.recorder.ObserveStageDuration(StageCopy, time.Since(start))

	start = time.Now()
	if err := s.substitute(log, rec, &res); err != nil {
		return s.fail(log, res, StageSubstitute, err)
	}
	s.recorder.ObserveStageDuration(StageSubstitute, time.Since(start))

	start = time.Now()
	if err := s.patchTitle(log, &res); err != nil {
		return s.fail(log, res, StageTitle, err)
	}
	s.recorder.ObserveStageDuration(StageTitle, time.Since(start))

	res.Status = StatusBuilt
	if s.launcher != nil {
		start = time.Now()
		s.launchSite(ctx, log, &res)
		s.recorder.ObserveStageDuration(StageLaunch, time.Since(start))
	}

	log.Info("Site complete", logfields.Status(string(res.Status)))
	return res
}

// substitute fills placeholders and resolves hero markers in every file
// directly inside the destination's src directory.
func (s *Service) substitute(log *slog.Logger, rec site.Record, res *SiteResult) error {
	srcDir := filepath.Join(res.Destination, SourceDir)
	info, err := os.Stat(srcDir)
	if errors.Is(err, os.ErrNotExist) || (err == nil && !info.IsDir()) {
		log.Debug("No src directory, skipping substitution", logfields.Path(srcDir))
		return nil
	}
	if err != nil {
		return err
	}

	files, err := placeholder.Targets(srcDir)
	if err != nil {
		return err
	}

	values := rec.Replacements()
	for _, file := range files {
		name := filepath.Base(file)

		changed, err := s.engine.ApplyFile(file, values)
		if err != nil {
			return fmt.Errorf("substitute %s: %w", name, err)
		}
		if changed {
			res.Substituted++
			log.Info("Substituted placeholders", logfields.File(name))
		}

		word, err := s.rotator.ApplyFile(file)
		if err != nil {
			return fmt.Errorf("hero word %s: %w", name, err)
		}
		if word != "" {
			res.HeroWords = append(res.HeroWords, word)
			s.recorder.IncHeroWord(word)
			log.Info("Hero word selected", logfields.Word(word), logfields.File(name))
		}
	}
	s.recorder.IncSubstitutedFiles(res.Substituted)
	return nil
}

func (s *Service) patchTitle(log *slog.Logger, res *SiteResult) error {
	found, err := title.PatchFile(res.Destination, res.Title)
	switch {
	case errors.Is(err, title.ErrNoEntryFile):
		log.Warn("No entry file, title not set", logfields.File(title.EntryFile))
		res.Warnings = append(res.Warnings, "missing "+title.EntryFile)
		return nil
	case err != nil:
		return err
	case !found:
		log.Warn("Entry file has no title element", logfields.File(title.EntryFile))
		res.Warnings = append(res.Warnings, title.EntryFile+" has no <title>")
		return nil
	}
	res.TitlePatched = true
	log.Info("Title set", logfields.Title(res.Title))
	return nil
}

// launchSite starts the dev server and returns without waiting for it.
func (s *Service) launchSite(ctx context.Context, log *slog.Logger, res *SiteResult) {
	res.Port = s.ports.Pick()
	h, err := s.launcher.Launch(ctx, launch.Request{Domain: res.Domain, Dir: res.Destination, Port: res.Port})
	if err != nil {
		res.Status = StatusLaunchFailed
		res.Stage = StageLaunch
		res.Err = serrors.LaunchError(res.Domain, err)
		log.Error("Dev server failed to start", logfields.Port(res.Port), logfields.Error(err))
		return
	}
	res.Status = StatusLaunched
	res.PID = h.PID
	log.Info("Dev server started", logfields.Port(h.Port), logfields.PID(h.PID))
}

func (s *Service) fail(log *slog.Logger, res SiteResult, stage string, err error) SiteResult {
	res.Status = StatusFailed
	res.Stage = stage
	res.Err = serrors.FileSystemError(res.Domain, stage, err)
	log.Error("Site build failed", logfields.Stage(stage), logfields.Error(err))
	return res
}
