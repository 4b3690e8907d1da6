package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration. DataDir is the base for relative
// export paths.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Identity configures the cross-reference register used to link identifier
// namespaces (register, major-league format, league API).
type Identity struct {
	CachePath string `toml:"cache_path"`
	// SourceURL is the base URL holding people-0.csv … people-f.csv.
	SourceURL string `toml:"source_url"`
	// SourceDir, when set, reads the shards from disk instead of SourceURL.
	SourceDir          string  `toml:"source_dir"`
	MaxAgeDays         int     `toml:"max_age_days"`
	DownloadTimeout    int     `toml:"download_timeout"`
	RetryAttempts      int     `toml:"retry_attempts"`
	RetryBackoffMillis int     `toml:"retry_backoff_ms"`
	RequestsPerSecond  float64 `toml:"requests_per_second"`
	LockTimeout        int     `toml:"lock_timeout"`
}

// Feeds lists the box-score directories for each source feed. Empty
// directories are skipped.
type Feeds struct {
	CollegiateDir   string `toml:"collegiate_dir"`
	MinorDir        string `toml:"minor_dir"`
	PartnerDir      string `toml:"partner_dir"`
	MajorDir        string `toml:"major_dir"`
	CorrectionsPath string `toml:"corrections_path"`
	Workers         int    `toml:"workers"`
	FoldAccents     bool   `toml:"fold_accents"`
}

// Export controls optional run outputs.
type Export struct {
	DatabasePath    string `toml:"database_path"`
	MetricsTextfile string `toml:"metrics_textfile"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for journey.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Identity: register download, cache location and refresh policy
//   - Feeds: box-score directories per feed and name handling
//   - Export: SQLite snapshot and metrics textfile destinations
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Identity Identity `toml:"identity"`
	Feeds    Feeds    `toml:"feeds"`
	Export   Export   `toml:"export"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/journey/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("journey.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories plus the parent of
// the identity cache.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir, filepath.Dir(c.Identity.CachePath)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// IdentityMaxAge returns the cache freshness window.
func (c *Config) IdentityMaxAge() time.Duration {
	return time.Duration(c.Identity.MaxAgeDays) * 24 * time.Hour
}

// IdentityDownloadTimeout returns the per-request timeout for shard downloads.
func (c *Config) IdentityDownloadTimeout() time.Duration {
	return time.Duration(c.Identity.DownloadTimeout) * time.Second
}

// IdentityRetryBackoff returns the base delay between refresh attempts.
func (c *Config) IdentityRetryBackoff() time.Duration {
	return time.Duration(c.Identity.RetryBackoffMillis) * time.Millisecond
}

// IdentityLockTimeout bounds how long a refresh waits for the cache lock.
func (c *Config) IdentityLockTimeout() time.Duration {
	return time.Duration(c.Identity.LockTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
