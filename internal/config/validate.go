package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateIdentity(); err != nil {
		return err
	}
	if err := c.validateFeeds(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateIdentity() error {
	if strings.TrimSpace(c.Identity.CachePath) == "" {
		return errors.New("identity.cache_path must be set")
	}
	if c.Identity.SourceDir == "" {
		parsed, err := url.Parse(c.Identity.SourceURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("identity.source_url must be an absolute URL, got %q", c.Identity.SourceURL)
		}
	}
	if err := ensurePositiveMap(map[string]int{
		"identity.max_age_days":     c.Identity.MaxAgeDays,
		"identity.download_timeout": c.Identity.DownloadTimeout,
		"identity.retry_attempts":   c.Identity.RetryAttempts,
		"identity.retry_backoff_ms": c.Identity.RetryBackoffMillis,
		"identity.lock_timeout":     c.Identity.LockTimeout,
	}); err != nil {
		return err
	}
	if c.Identity.RequestsPerSecond <= 0 {
		return errors.New("identity.requests_per_second must be positive")
	}
	return nil
}

func (c *Config) validateFeeds() error {
	if c.Feeds.Workers <= 0 {
		return errors.New("feeds.workers must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
