package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"journey/internal/config"
	"journey/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("registry ready", logging.Int("players", 3))

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "journey.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "registry ready") || !strings.Contains(string(content), "players=3") {
		t.Fatalf("unexpected log content %q", content)
	}
}

func TestConsoleLoggerRendersComponentPrefix(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{
		Format:  "console",
		Level:   "info",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "identity").Info("dataset loaded", logging.String("source", "cache"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, " INFO  identity: dataset loaded source=cache") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not be repeated as a field, got %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
}

func TestConsoleLoggerLiftsRunFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	base := logging.WithRunID(logger, "1a2b3c4d-5e6f-7a8b-9c0d-112233445566")
	logging.NewComponentLogger(base, "feeds").Warn("malformed record",
		logging.String(logging.FieldFeed, "minor"),
		logging.String(logging.FieldPlayerKey, "smithjo01"),
		logging.String(logging.FieldPath, "game 1.json"),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := strings.TrimSpace(string(content))
	want := `WARN  feeds/minor: malformed record player=smithjo01 path="game 1.json" run=1a2b3c4d`
	if !strings.HasSuffix(line, want) {
		t.Fatalf("unexpected console line\n got: %q\nwant suffix: %q", line, want)
	}
	for _, raw := range []string{"run_id=", "feed=", "player_key="} {
		if strings.Contains(line, raw) {
			t.Fatalf("expected %s to be lifted out of the fields, got %q", raw, line)
		}
	}
}

func TestConsoleLoggerFlattensGroups(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.WithGroup("report").Info("feed done", logging.Int("games", 2), logging.Duration("took", 1500*time.Millisecond))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "feed done report.games=2 report.took=1.5s") {
		t.Fatalf("unexpected console line %q", content)
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{
		Format:  "json",
		Level:   "info",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WithRunID(logger, "run-1").Warn("stale cache")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(content, &payload); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if payload["level"] != "warn" || payload["msg"] != "stale cache" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if payload[logging.FieldRunID] != "run-1" {
		t.Fatalf("expected run id field, got %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", Outputs: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "refresh failed", "identity_refresh_failed",
		logging.String(logging.FieldErrorHint, "check network access"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	for _, want := range []string{`"event_type":"identity_refresh_failed"`, `"error_hint":"check network access"`, `"impact":`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in %q", want, line)
		}
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(t.Context(), 0) {
		t.Fatal("expected nop logger to be disabled")
	}
	if logging.NewComponentLogger(nil, "x") == nil {
		t.Fatal("expected component logger from nil base")
	}
}
