package metrics

import "time"

// SiteOutcome enumerates per-site result categories for counters.
type SiteOutcome string

const (
	OutcomeBuilt        SiteOutcome = "built"
	OutcomeLaunched     SiteOutcome = "launched"
	OutcomeLaunchFailed SiteOutcome = "launch_failed"
	OutcomeFailed       SiteOutcome = "failed"
	OutcomeSkipped      SiteOutcome = "skipped"
)

// Recorder defines observability hooks for site builds. Implementations may
// forward to Prometheus; NoopRecorder is the default.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncSiteOutcome(outcome SiteOutcome)
	IncHeroWord(word string)
	IncSubstitutedFiles(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncSiteOutcome(SiteOutcome)                 {}
func (NoopRecorder) IncHeroWord(string)                         {}
func (NoopRecorder) IncSubstitutedFiles(int)                    {}
