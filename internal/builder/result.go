package builder

import (
	"time"

	"git.home.luguber.info/inful/sitegen/internal/metrics"
)

// Status is the outcome of one site.
type Status string

const (
	StatusBuilt        Status = "built"         // materialized, not served
	StatusLaunched     Status = "launched"      // materialized and dev server started
	StatusLaunchFailed Status = "launch_failed" // materialized, dev server did not start
	StatusFailed       Status = "failed"        // copy or rewrite failed
	StatusSkipped      Status = "skipped"       // duplicate domain
)

// Outcome maps the status onto the metrics label.
func (s Status) Outcome() metrics.SiteOutcome { return metrics.SiteOutcome(s) }

// Ready reports whether the destination tree was fully built.
func (s Status) Ready() bool {
	return s == StatusBuilt || s == StatusLaunched || s == StatusLaunchFailed
}

// SiteResult describes what happened to one row.
type SiteResult struct {
	Domain       string
	Line         int
	Destination  string
	Status       Status
	Stage        string // stage that failed, if any
	Title        string
	TitlePatched bool
	HeroWords    []string
	Substituted  int // files changed by placeholder substitution
	Port         int
	PID          int
	Warnings     []string
	Err          error
	StartedAt    time.Time
	Duration     time.Duration
}

// Summary is the result of a run.
type Summary struct {
	RunID       string
	Template    string
	BuildRoot   string
	StartedAt   time.Time
	FinishedAt  time.Time
	Interrupted bool
	Sites       []SiteResult
}

// Duration is the wall time of the run.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Count returns the number of sites with the given status.
func (s *Summary) Count(status Status) int {
	n := 0
	for _, site := range s.Sites {
		if site.Status == status {
			n++
		}
	}
	return n
}

// Launched returns the sites whose dev server started.
func (s *Summary) Launched() []SiteResult {
	var out []SiteResult
	for _, site := range s.Sites {
		if site.Status == StatusLaunched {
			out = append(out, site)
		}
	}
	return out
}
