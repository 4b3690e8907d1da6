package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeIdentity(); err != nil {
		return err
	}
	if err := c.normalizeFeeds(); err != nil {
		return err
	}
	if err := c.normalizeExport(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeIdentity() error {
	var err error
	if strings.TrimSpace(c.Identity.CachePath) == "" {
		c.Identity.CachePath = defaultIdentityCachePath
	}
	if c.Identity.CachePath, err = expandPath(c.Identity.CachePath); err != nil {
		return fmt.Errorf("identity.cache_path: %w", err)
	}
	if c.Identity.SourceDir, err = expandPath(strings.TrimSpace(c.Identity.SourceDir)); err != nil {
		return fmt.Errorf("identity.source_dir: %w", err)
	}
	if value, ok := os.LookupEnv("JOURNEY_REGISTER_URL"); ok && strings.TrimSpace(value) != "" {
		c.Identity.SourceURL = value
	}
	c.Identity.SourceURL = strings.TrimRight(strings.TrimSpace(c.Identity.SourceURL), "/")
	if c.Identity.SourceURL == "" {
		c.Identity.SourceURL = defaultIdentitySourceURL
	}
	return nil
}

func (c *Config) normalizeFeeds() error {
	fields := []struct {
		key   string
		value *string
	}{
		{"feeds.collegiate_dir", &c.Feeds.CollegiateDir},
		{"feeds.minor_dir", &c.Feeds.MinorDir},
		{"feeds.partner_dir", &c.Feeds.PartnerDir},
		{"feeds.major_dir", &c.Feeds.MajorDir},
		{"feeds.corrections_path", &c.Feeds.CorrectionsPath},
	}
	for _, field := range fields {
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	if c.Feeds.Workers <= 0 {
		c.Feeds.Workers = defaultFeedWorkers
	}
	return nil
}

// normalizeExport places bare or relative export paths inside paths.data_dir.
// Absolute and "~" paths are used as written.
func (c *Config) normalizeExport() error {
	var err error
	if c.Export.DatabasePath, err = c.dataPath(c.Export.DatabasePath); err != nil {
		return fmt.Errorf("export.database_path: %w", err)
	}
	if c.Export.MetricsTextfile, err = c.dataPath(c.Export.MetricsTextfile); err != nil {
		return fmt.Errorf("export.metrics_textfile: %w", err)
	}
	return nil
}

func (c *Config) dataPath(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value != "" && !strings.HasPrefix(value, "~") && !filepath.IsAbs(value) {
		value = filepath.Join(c.Paths.DataDir, value)
	}
	return expandPath(value)
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("JOURNEY_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
