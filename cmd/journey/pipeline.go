package main

import (
	"context"
	"errors"
	"time"

	"journey/internal/feeds"
	"journey/internal/identity"
	"journey/internal/journey"
	"journey/internal/logging"
	"journey/internal/metrics"
	"journey/internal/names"
	"journey/internal/registry"
)

// runResult is the state of one completed ingestion.
type runResult struct {
	runID    string
	started  time.Time
	finished time.Time
	registry *registry.Registry
	report   feeds.Report
	identity identity.Status
	degraded bool
	metrics  *metrics.Metrics
}

// ingest loads the identity register, then every configured feed, into a
// fresh registry. An unavailable register degrades resolution to the
// identifiers the feeds carry; it does not fail the run.
func (c *commandContext) ingest(ctx context.Context) (*runResult, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.runLogger()
	result := &runResult{runID: c.currentRunID(), started: time.Now(), metrics: metrics.New()}

	svc := identity.NewServiceFromConfig(cfg, logger)
	if _, err := svc.Load(ctx); err != nil {
		if !errors.Is(err, identity.ErrUnavailable) {
			return nil, err
		}
		result.degraded = true
		logging.WarnWithContext(logger, "identity register unavailable", "identity_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run `journey identity refresh` once the source is reachable"),
			logging.String(logging.FieldImpact, "players are linked only by feed identifiers and names"),
		)
	}
	result.identity = svc.Status()
	result.metrics.SetIdentityEntries(result.identity.Links)

	reg := registry.New(svc,
		registry.WithLogger(logger),
		registry.WithObserver(result.metrics),
		registry.WithNormalizer(names.Normalizer{FoldAccents: cfg.Feeds.FoldAccents}),
	)
	loader := feeds.NewLoaderFromConfig(cfg, logger, result.metrics)
	report, err := loader.Load(ctx, reg)
	if err != nil {
		return nil, err
	}
	result.registry = reg
	result.report = report
	result.finished = time.Now()

	crossovers := len(journey.Crossovers(reg))
	result.metrics.SetPlayers(reg.Len(), crossovers)
	result.metrics.ObserveRun(result.finished.Sub(result.started), result.finished)

	stats := reg.Stats()
	totals := report.Totals()
	logger.Info("run complete",
		logging.Int("players", reg.Len()),
		logging.Int("crossovers", crossovers),
		logging.Int("attached", totals.Attached),
		logging.Int("skipped", totals.SkippedTotal()),
		logging.Int("conflicts", stats.Conflicts),
		logging.String("identity_origin", string(result.identity.Origin)),
		logging.Duration("duration", result.finished.Sub(result.started)),
	)
	return result, nil
}
