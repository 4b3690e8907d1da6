package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"journey/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("JOURNEY_REGISTER_URL", "")
	t.Setenv("JOURNEY_LOG_LEVEL", "")
	return home
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	home := isolateEnv(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(home, ".config", "journey", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}

	wantCache := filepath.Join(home, ".cache", "journey", "register", "player_id_map.json")
	if cfg.Identity.CachePath != wantCache {
		t.Fatalf("unexpected cache path: got %q want %q", cfg.Identity.CachePath, wantCache)
	}
	if cfg.Paths.DataDir != filepath.Join(home, ".local", "share", "journey") {
		t.Fatalf("unexpected data dir %q", cfg.Paths.DataDir)
	}
	if cfg.Identity.SourceURL != config.Default().Identity.SourceURL {
		t.Fatalf("unexpected source url %q", cfg.Identity.SourceURL)
	}
	if cfg.IdentityMaxAge() != 7*24*time.Hour {
		t.Fatalf("unexpected max age %v", cfg.IdentityMaxAge())
	}
	if cfg.IdentityRetryBackoff() != 500*time.Millisecond {
		t.Fatalf("unexpected retry backoff %v", cfg.IdentityRetryBackoff())
	}
	if cfg.Feeds.Workers != 4 {
		t.Fatalf("unexpected workers %d", cfg.Feeds.Workers)
	}
	if cfg.Feeds.CollegiateDir != "" || cfg.Export.DatabasePath != "" {
		t.Fatalf("expected optional paths to stay empty, got %+v %+v", cfg.Feeds, cfg.Export)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging config %+v", cfg.Logging)
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	home := isolateEnv(t)
	configPath := filepath.Join(t.TempDir(), "journey.toml")

	data := map[string]any{
		"identity": map[string]any{
			"cache_path":   "~/ids.json",
			"source_dir":   "~/register",
			"max_age_days": 1,
		},
		"feeds": map[string]any{
			"collegiate_dir": "~/feeds/ncaa",
			"workers":        0,
			"fold_accents":   true,
		},
		"export": map[string]any{
			"database_path": "~/journey.db",
		},
		"logging": map[string]any{
			"format": "JSON",
			"level":  "Debug",
		},
	}
	encoded, err := toml.Marshal(data)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, encoded, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q, got %q exists=%v", configPath, resolved, exists)
	}
	if cfg.Identity.CachePath != filepath.Join(home, "ids.json") {
		t.Fatalf("unexpected cache path %q", cfg.Identity.CachePath)
	}
	if cfg.Identity.SourceDir != filepath.Join(home, "register") {
		t.Fatalf("unexpected source dir %q", cfg.Identity.SourceDir)
	}
	if cfg.IdentityMaxAge() != 24*time.Hour {
		t.Fatalf("unexpected max age %v", cfg.IdentityMaxAge())
	}
	if cfg.Feeds.CollegiateDir != filepath.Join(home, "feeds", "ncaa") {
		t.Fatalf("unexpected collegiate dir %q", cfg.Feeds.CollegiateDir)
	}
	if cfg.Feeds.Workers != 4 {
		t.Fatalf("expected non-positive workers to fall back to default, got %d", cfg.Feeds.Workers)
	}
	if !cfg.Feeds.FoldAccents {
		t.Fatal("expected fold_accents enabled")
	}
	if cfg.Export.DatabasePath != filepath.Join(home, "journey.db") {
		t.Fatalf("unexpected database path %q", cfg.Export.DatabasePath)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config %+v", cfg.Logging)
	}
}

func TestRelativeExportPathsLiveInDataDir(t *testing.T) {
	home := isolateEnv(t)
	configPath := filepath.Join(home, "config.toml")
	content := `[paths]
data_dir = "~/journey-data"

[export]
database_path = "journey.db"
metrics_textfile = "textfile/journey.prom"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	dataDir := filepath.Join(home, "journey-data")
	if cfg.Paths.DataDir != dataDir {
		t.Fatalf("unexpected data dir %q", cfg.Paths.DataDir)
	}
	if cfg.Export.DatabasePath != filepath.Join(dataDir, "journey.db") {
		t.Fatalf("unexpected database path %q", cfg.Export.DatabasePath)
	}
	if cfg.Export.MetricsTextfile != filepath.Join(dataDir, "textfile", "journey.prom") {
		t.Fatalf("unexpected metrics path %q", cfg.Export.MetricsTextfile)
	}
}

func TestLoadAppliesEnvironmentFallbacks(t *testing.T) {
	isolateEnv(t)
	t.Setenv("JOURNEY_REGISTER_URL", "https://mirror.example.com/register/")
	t.Setenv("JOURNEY_LOG_LEVEL", "WARN")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Identity.SourceURL != "https://mirror.example.com/register" {
		t.Fatalf("expected env url without trailing slash, got %q", cfg.Identity.SourceURL)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("expected env log level, got %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "relative source url",
			mutate:  func(c *config.Config) { c.Identity.SourceURL = "register/data" },
			wantErr: "identity.source_url",
		},
		{
			name:    "zero max age",
			mutate:  func(c *config.Config) { c.Identity.MaxAgeDays = 0 },
			wantErr: "identity.max_age_days",
		},
		{
			name:    "negative rate",
			mutate:  func(c *config.Config) { c.Identity.RequestsPerSecond = -1 },
			wantErr: "identity.requests_per_second",
		},
		{
			name:    "unknown level",
			mutate:  func(c *config.Config) { c.Logging.Level = "trace" },
			wantErr: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateSkipsURLWhenSourceDirSet(t *testing.T) {
	cfg := config.Default()
	cfg.Identity.SourceURL = ""
	cfg.Identity.SourceDir = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected local source to validate, got %v", err)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Identity.RetryAttempts != 3 || cfg.Identity.RequestsPerSecond != 2 {
		t.Fatalf("unexpected identity settings from sample %+v", cfg.Identity)
	}
}

func TestEnsureDirectoriesCreatesCacheParent(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Identity.CachePath = filepath.Join(base, "cache", "ids.json")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, filepath.Join(base, "cache")} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}
