package metrics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"journey/internal/feeds"
	"journey/internal/registry"
)

// Metrics collects the counters and gauges of one batch run. Each instance
// owns its registry so runs and tests never share state.
type Metrics struct {
	registry *prometheus.Registry

	// Resolutions by the step of Resolve that produced the key
	resolutions *prometheus.CounterVec

	// Records that never reached the registry, by feed and reason
	skipped *prometheus.CounterVec

	conflicts prometheus.Counter

	players         prometheus.Gauge
	crossovers      prometheus.Gauge
	identityEntries prometheus.Gauge
	runDuration     prometheus.Gauge
	lastSuccess     prometheus.Gauge
}

// New creates a Metrics instance with every journey metric registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	m := &Metrics{
		registry: reg,
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "journey_resolutions_total",
			Help: "Appearances resolved to a canonical player, by match kind",
		}, []string{"match"}), // match: register, major, league, name, partial, created

		skipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "journey_skipped_records_total",
			Help: "Feed records skipped before resolution, by feed and reason",
		}, []string{"feed", "reason"}),

		conflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "journey_identifier_conflicts_total",
			Help: "Identifiers left unclaimed because another player already owns them",
		}),

		players: factory.NewGauge(prometheus.GaugeOpts{
			Name: "journey_players",
			Help: "Canonical players in the registry at the end of the run",
		}),
		crossovers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "journey_crossover_players",
			Help: "Players seen at more than one level",
		}),
		identityEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "journey_identity_entries",
			Help: "Cross-reference links loaded into the identity dataset",
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "journey_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "journey_last_success_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}
	for _, match := range registry.Matches() {
		m.resolutions.WithLabelValues(string(match))
	}
	return m
}

// Resolved counts one Resolve outcome.
func (m *Metrics) Resolved(match registry.Match) {
	if m != nil {
		m.resolutions.WithLabelValues(string(match)).Inc()
	}
}

// Conflict counts one identifier that could not be claimed.
func (m *Metrics) Conflict() {
	if m != nil {
		m.conflicts.Inc()
	}
}

// Skipped adds count skipped records for feed and reason.
func (m *Metrics) Skipped(feed feeds.Feed, reason feeds.SkipReason, count int) {
	if m != nil && count > 0 {
		m.skipped.WithLabelValues(string(feed), string(reason)).Add(float64(count))
	}
}

// SetPlayers records the registry size at the end of a run.
func (m *Metrics) SetPlayers(total, crossovers int) {
	if m != nil {
		m.players.Set(float64(total))
		m.crossovers.Set(float64(crossovers))
	}
}

// SetIdentityEntries records how many links the identity dataset holds.
func (m *Metrics) SetIdentityEntries(n int) {
	if m != nil {
		m.identityEntries.Set(float64(n))
	}
}

// ObserveRun records the run duration and completion time.
func (m *Metrics) ObserveRun(d time.Duration, finished time.Time) {
	if m != nil {
		m.runDuration.Set(d.Seconds())
		m.lastSuccess.Set(float64(finished.Unix()))
	}
}

// Gatherer exposes the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes every metric in text exposition format for the
// node-exporter textfile collector. The write is atomic.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return errors.New("metrics not initialized")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
