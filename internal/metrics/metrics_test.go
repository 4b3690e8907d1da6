package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"journey/internal/feeds"
	"journey/internal/registry"
)

func TestRegistryObserverCounts(t *testing.T) {
	m := New()
	reg := registry.New(nil, registry.WithObserver(m))

	if _, err := reg.Resolve("Smith, John", registry.Hints{RegisterID: "smithjo01"}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := reg.Resolve("John Smith", registry.Hints{RegisterID: "smithjo01"}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if got := testutil.ToFloat64(m.resolutions.WithLabelValues("created")); got != 1 {
		t.Fatalf("created = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.resolutions.WithLabelValues("register")); got != 1 {
		t.Fatalf("register = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.resolutions.WithLabelValues("partial")); got != 0 {
		t.Fatalf("partial = %v, want 0", got)
	}
}

func TestSkippedAndGauges(t *testing.T) {
	m := New()
	m.Skipped(feeds.FeedMinor, feeds.SkipMalformedLine, 2)
	m.Skipped(feeds.FeedMinor, feeds.SkipMalformedLine, 1)
	m.Skipped(feeds.FeedMajor, feeds.SkipDuplicateGame, 0)
	m.Conflict()
	m.SetPlayers(10, 4)
	m.SetIdentityEntries(1200)

	if got := testutil.ToFloat64(m.skipped.WithLabelValues("minor", "malformed_line")); got != 3 {
		t.Fatalf("skipped = %v, want 3", got)
	}
	if got := testutil.CollectAndCount(m.skipped); got != 1 {
		t.Fatalf("skipped series = %d, want 1", got)
	}
	if got := testutil.ToFloat64(m.conflicts); got != 1 {
		t.Fatalf("conflicts = %v", got)
	}
	if testutil.ToFloat64(m.players) != 10 || testutil.ToFloat64(m.crossovers) != 4 {
		t.Fatalf("unexpected player gauges")
	}
	if testutil.ToFloat64(m.identityEntries) != 1200 {
		t.Fatalf("unexpected identity gauge")
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Resolved(registry.MatchName)
	m.Conflict()
	m.Skipped(feeds.FeedMinor, feeds.SkipMissingName, 1)
	m.SetPlayers(1, 1)
	m.SetIdentityEntries(1)
	m.ObserveRun(time.Second, time.Now())
	if err := m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")); err == nil {
		t.Fatal("expected error writing nil metrics")
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.SetPlayers(3, 1)
	m.ObserveRun(1500*time.Millisecond, time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "textfile", "journey.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		"journey_players 3",
		"journey_crossover_players 1",
		"journey_run_duration_seconds 1.5",
		`journey_resolutions_total{match="created"} 0`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("textfile missing %q:\n%s", want, text)
		}
	}
}
