// Package watch reruns a build when its inputs change and, optionally, on a
// fixed interval.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// Reasons passed to the rebuild function.
const (
	ReasonInitial  = "initial"
	ReasonChange   = "change"
	ReasonSchedule = "schedule"
)

// DefaultDebounce coalesces bursts of editor writes into one rebuild.
const DefaultDebounce = 2 * time.Second

// RebuildFunc performs one build. Calls never overlap.
type RebuildFunc func(ctx context.Context, reason string)

// Watcher triggers rebuilds from filesystem events and a schedule.
type Watcher struct {
	rebuild  RebuildFunc
	debounce time.Duration
	interval time.Duration
	ignore   []string

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	files   map[string]struct{} // watched individual files
	roots   []string            // watched directory trees

	requests chan string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period after the last event before rebuilding.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithInterval also rebuilds every d. Zero disables the schedule.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) { w.interval = max(d, 0) }
}

// WithIgnore drops events below path, such as the build output directory.
func WithIgnore(path string) Option {
	return func(w *Watcher) {
		if abs, err := filepath.Abs(path); err == nil {
			w.ignore = append(w.ignore, abs)
		}
	}
}

// New creates a watcher that calls rebuild.
func New(rebuild RebuildFunc, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{
		rebuild:  rebuild,
		debounce: DefaultDebounce,
		watcher:  fw,
		files:    make(map[string]struct{}),
		requests: make(chan string, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// AddFile watches a single file. Its directory is watched and events for
// other entries are ignored, so editors that replace the file are handled.
func (w *Watcher) AddFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if err := w.watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	w.mu.Lock()
	w.files[abs] = struct{}{}
	w.mu.Unlock()
	slog.Info("Watching file", logfields.Path(abs))
	return nil
}

// AddTree watches dir and every directory below it.
func (w *Watcher) AddTree(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	if err := w.addDirs(abs); err != nil {
		return err
	}
	w.mu.Lock()
	w.roots = append(w.roots, abs)
	w.mu.Unlock()
	slog.Info("Watching directory", logfields.Path(abs))
	return nil
}

func (w *Watcher) addDirs(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" || d.Name() == "node_modules" || w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// Close releases the watcher without running it.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run performs an initial build and then rebuilds on changes until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.watcher.Close(); err != nil {
			slog.Error("Error closing file watcher", logfields.Error(err))
		}
	}()

	var sched gocron.Scheduler
	if w.interval > 0 {
		s, err := w.startSchedule()
		if err != nil {
			return err
		}
		sched = s
		defer func() {
			if err := sched.Shutdown(); err != nil {
				slog.Error("Error stopping scheduler", logfields.Error(err))
			}
		}()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.worker(ctx)
	}()

	w.trigger(ReasonInitial)
	w.eventLoop(ctx)
	wg.Wait()
	return nil
}

func (w *Watcher) startSchedule() (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(w.trigger, ReasonSchedule),
		gocron.WithName("sitegen-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create periodic rebuild job: %w", err)
	}
	s.Start()
	slog.Info("Scheduled periodic rebuild", slog.Duration("interval", w.interval))
	return s, nil
}

// worker runs queued rebuilds one at a time.
func (w *Watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-w.requests:
			slog.Info("Rebuilding", slog.String("reason", reason))
			w.rebuild(ctx, reason)
		}
	}
}

// trigger queues a rebuild unless one is already pending.
func (w *Watcher) trigger(reason string) {
	select {
	case w.requests <- reason:
	default:
		slog.Debug("Rebuild already pending", slog.String("reason", reason))
	}
}

func (w *Watcher) eventLoop(ctx context.Context) {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			slog.Debug("Change detected", logfields.File(event.Name), slog.String("op", event.Op.String()))
			w.followNewDir(event)
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", logfields.Error(err))
		case <-timer.C:
			w.trigger(ReasonChange)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod || w.ignored(event.Name) {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.files[event.Name]; ok {
		return true
	}
	for _, root := range w.roots {
		if within(root, event.Name) {
			return true
		}
	}
	return false
}

// followNewDir starts watching directories created inside a watched tree.
func (w *Watcher) followNewDir(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) {
		return
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.addDirs(event.Name); err != nil {
		slog.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
	}
}

func (w *Watcher) ignored(path string) bool {
	for _, prefix := range w.ignore {
		if within(prefix, path) {
			return true
		}
	}
	return false
}

func within(root, path string) bool {
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}
