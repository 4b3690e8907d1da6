package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"journey/internal/config"
	"journey/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	runID      string
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// runLogger returns the logger for this invocation, tagged with a fresh run
// id. It falls back to a console logger on stderr when the configured log
// outputs cannot be opened.
func (c *commandContext) runLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		c.runID = uuid.NewString()
		cfg, err := c.ensureConfig()
		var base *slog.Logger
		if err == nil {
			base, err = logging.NewFromConfig(cfg)
		}
		if err != nil || base == nil {
			base, _ = logging.New(logging.Options{Level: "info", Format: "console"})
			if base == nil {
				base = logging.NewNop()
			}
			if err != nil {
				logging.WarnWithContext(base, "configured logging unavailable", "logging_setup_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "logging to stderr only"),
				)
			}
		}
		c.logger = logging.WithRunID(base, c.runID)
	})
	return c.logger
}

func (c *commandContext) currentRunID() string {
	c.runLogger()
	return c.runID
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func parseFormat(value string) (outputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "table":
		return formatTable, nil
	case "json":
		return formatJSON, nil
	case "csv":
		return formatCSV, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table, json or csv)", value)
	}
}

type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
	formatCSV   outputFormat = "csv"
)
