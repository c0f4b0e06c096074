package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg              *prom.Registry
	stageDuration    *prom.HistogramVec
	runDuration      prom.Histogram
	siteOutcomes     *prom.CounterVec
	heroWords        *prom.CounterVec
	substitutedFiles prom.Counter
}

// NewPrometheusRecorder constructs and registers the metrics on reg. A nil
// reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "sitegen",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual site build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitegen",
			Name:      "run_duration_seconds",
			Help:      "Total duration of a run over the site list",
			Buckets:   prom.DefBuckets,
		}),
		siteOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitegen",
			Name:      "site_outcomes_total",
			Help:      "Sites processed by final outcome",
		}, []string{"outcome"}),
		heroWords: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitegen",
			Name:      "hero_words_total",
			Help:      "Hero words handed out by the rotator",
		}, []string{"word"}),
		substitutedFiles: prom.NewCounter(prom.CounterOpts{
			Namespace: "sitegen",
			Name:      "substituted_files_total",
			Help:      "Template files rewritten by placeholder substitution",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.runDuration, pr.siteOutcomes, pr.heroWords, pr.substitutedFiles)
	return pr
}

// Registry returns the registry the metrics live on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncSiteOutcome(outcome SiteOutcome) {
	if p == nil {
		return
	}
	p.siteOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncHeroWord(word string) {
	if p == nil {
		return
	}
	p.heroWords.WithLabelValues(word).Inc()
}

func (p *PrometheusRecorder) IncSubstitutedFiles(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.substitutedFiles.Add(float64(n))
}

// WriteTextfile writes the registry in the text exposition format to path,
// for pickup by node_exporter's textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.reg)
}
