// Package observability exposes pipeline counters in Prometheus text format.
package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational counters for the discovery pipeline. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	// Job metrics
	JobsSubmitted atomic.Int64
	JobsCompleted atomic.Int64
	JobsFailed    atomic.Int64
	JobsCancelled atomic.Int64
	JobsRunning   atomic.Int32

	// Pipeline metrics
	SitesResolved      atomic.Int64
	AuthorsDiscovered  atomic.Int64
	ProfilesExtracted  atomic.Int64
	ProfilesSaved      atomic.Int64
	ProfileSaveFailure atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// Add increments c by n when m is non-nil.
func (m *Metrics) Add(c func(*Metrics) *atomic.Int64, n int) {
	if m == nil || n == 0 {
		return
	}
	c(m).Add(int64(n))
}

// Inc increments c by one when m is non-nil.
func (m *Metrics) Inc(c func(*Metrics) *atomic.Int64) { m.Add(c, 1) }

// Running adjusts the running-jobs gauge.
func (m *Metrics) Running(delta int32) {
	if m != nil {
		m.JobsRunning.Add(delta)
	}
}

// Counter selectors for Add and Inc.
var (
	Submitted   = func(m *Metrics) *atomic.Int64 { return &m.JobsSubmitted }
	Completed   = func(m *Metrics) *atomic.Int64 { return &m.JobsCompleted }
	Failed      = func(m *Metrics) *atomic.Int64 { return &m.JobsFailed }
	Cancelled   = func(m *Metrics) *atomic.Int64 { return &m.JobsCancelled }
	Resolved    = func(m *Metrics) *atomic.Int64 { return &m.SitesResolved }
	Discovered  = func(m *Metrics) *atomic.Int64 { return &m.AuthorsDiscovered }
	Extracted   = func(m *Metrics) *atomic.Int64 { return &m.ProfilesExtracted }
	Saved       = func(m *Metrics) *atomic.Int64 { return &m.ProfilesSaved }
	SaveFailure = func(m *Metrics) *atomic.Int64 { return &m.ProfileSaveFailure }
)

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		kind  string
		value int64
	}{
		{"atenflux_jobs_submitted_total", "Total discovery jobs submitted", "counter", m.JobsSubmitted.Load()},
		{"atenflux_jobs_completed_total", "Total discovery jobs completed", "counter", m.JobsCompleted.Load()},
		{"atenflux_jobs_failed_total", "Total discovery jobs failed", "counter", m.JobsFailed.Load()},
		{"atenflux_jobs_cancelled_total", "Total discovery jobs cancelled", "counter", m.JobsCancelled.Load()},
		{"atenflux_jobs_running", "Discovery jobs currently running", "gauge", int64(m.JobsRunning.Load())},
		{"atenflux_sites_resolved_total", "Total outlet websites resolved", "counter", m.SitesResolved.Load()},
		{"atenflux_authors_discovered_total", "Total author candidates discovered", "counter", m.AuthorsDiscovered.Load()},
		{"atenflux_profiles_extracted_total", "Total profiles extracted", "counter", m.ProfilesExtracted.Load()},
		{"atenflux_profiles_saved_total", "Total profiles persisted", "counter", m.ProfilesSaved.Load()},
		{"atenflux_profile_save_failures_total", "Total profile saves that failed", "counter", m.ProfileSaveFailure.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", metric.name, metric.kind)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"jobs_submitted":        m.JobsSubmitted.Load(),
		"jobs_completed":        m.JobsCompleted.Load(),
		"jobs_failed":           m.JobsFailed.Load(),
		"jobs_cancelled":        m.JobsCancelled.Load(),
		"jobs_running":          int64(m.JobsRunning.Load()),
		"sites_resolved":        m.SitesResolved.Load(),
		"authors_discovered":    m.AuthorsDiscovered.Load(),
		"profiles_extracted":    m.ProfilesExtracted.Load(),
		"profiles_saved":        m.ProfilesSaved.Load(),
		"profile_save_failures": m.ProfileSaveFailure.Load(),
	}
}

// LogSummary writes the current counters at info level.
func (m *Metrics) LogSummary() {
	s := m.Snapshot()
	m.logger.Info("pipeline metrics",
		"jobs_completed", s["jobs_completed"],
		"jobs_failed", s["jobs_failed"],
		"authors_discovered", s["authors_discovered"],
		"profiles_saved", s["profiles_saved"],
	)
}
