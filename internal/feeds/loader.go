package feeds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"journey/internal/config"
	"journey/internal/logging"
	"journey/internal/names"
	"journey/internal/registry"
)

const defaultWorkers = 4

// Observer receives skip counts once each feed finishes.
type Observer interface {
	Skipped(feed Feed, reason SkipReason, count int)
}

// Options configures a Loader.
type Options struct {
	// Dirs maps each feed to its directory of JSON game files. Feeds with
	// no directory are not loaded.
	Dirs     map[Feed]string
	Workers  int
	Cleaner  Cleaner
	Logger   *slog.Logger
	Observer Observer
}

// Loader reads feed directories and drives the registry. Files are decoded
// concurrently but resolved and attached by a single goroutine in sorted file
// order, so identical inputs produce identical registries.
type Loader struct {
	dirs     map[Feed]string
	workers  int
	cleaner  Cleaner
	logger   *slog.Logger
	observer Observer
}

// NewLoader builds a loader from opts.
func NewLoader(opts Options) *Loader {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	dirs := make(map[Feed]string, len(opts.Dirs))
	for feed, dir := range opts.Dirs {
		dirs[feed] = dir
	}
	return &Loader{
		dirs:     dirs,
		workers:  workers,
		cleaner:  opts.Cleaner,
		logger:   logging.NewComponentLogger(opts.Logger, "feeds"),
		observer: opts.Observer,
	}
}

// NewLoaderFromConfig wires feed directories, worker count and name
// corrections from configuration.
func NewLoaderFromConfig(cfg *config.Config, logger *slog.Logger, observer Observer) *Loader {
	return NewLoader(Options{
		Dirs: map[Feed]string{
			FeedCollegiate: cfg.Feeds.CollegiateDir,
			FeedMinor:      cfg.Feeds.MinorDir,
			FeedPartner:    cfg.Feeds.PartnerDir,
			FeedMajor:      cfg.Feeds.MajorDir,
		},
		Workers:  cfg.Feeds.Workers,
		Cleaner:  Cleaner{Corrections: names.LoadCorrections(cfg.Feeds.CorrectionsPath, logger)},
		Logger:   logger,
		Observer: observer,
	})
}

// Load ingests every configured feed in All order.
func (l *Loader) Load(ctx context.Context, reg *registry.Registry) (Report, error) {
	report := Report{}
	seen := map[string]struct{}{}
	for _, feed := range All() {
		dir := l.dirs[feed]
		if dir == "" {
			l.logger.Debug("feed not configured", logging.String(logging.FieldFeed, string(feed)))
			continue
		}
		feedReport, err := l.loadFeed(ctx, reg, feed, dir, seen)
		report.Feeds = append(report.Feeds, feedReport)
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

// LoadFeed ingests one feed directory.
func (l *Loader) LoadFeed(ctx context.Context, reg *registry.Registry, feed Feed, dir string) (FeedReport, error) {
	return l.loadFeed(ctx, reg, feed, dir, map[string]struct{}{})
}

type fileResult struct {
	path  string
	games []Game
	errs  []error
	err   error
}

func (l *Loader) loadFeed(ctx context.Context, reg *registry.Registry, feed Feed, dir string, seen map[string]struct{}) (FeedReport, error) {
	logger := l.logger.With(logging.String(logging.FieldFeed, string(feed)))
	report := FeedReport{Feed: feed, Dir: dir, Skipped: map[SkipReason]int{}}
	start := time.Now()

	adapter, err := NewAdapter(feed, l.cleaner)
	if err != nil {
		return report, err
	}

	files, err := listFiles(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.WarnWithContext(logger, "feed directory missing", "feed_dir_missing",
				logging.String(logging.FieldPath, dir),
				logging.String(logging.FieldErrorHint, "check the feeds section of the config"),
				logging.String(logging.FieldImpact, "no appearances loaded for this feed"),
			)
			return report, nil
		}
		return report, fmt.Errorf("list %s feed: %w", feed, err)
	}

	results, err := l.decodeAll(ctx, adapter, files)
	if err != nil {
		return report, err
	}

	for _, result := range results {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		l.consume(logger, reg, feed, result, seen, &report)
	}

	if l.observer != nil {
		for _, reason := range SkipReasons() {
			if n := report.Skipped[reason]; n > 0 {
				l.observer.Skipped(feed, reason, n)
			}
		}
	}
	logger.Info("feed loaded",
		logging.String(logging.FieldPath, dir),
		logging.Int("files", report.Files),
		logging.Int("games", report.Games),
		logging.Int("attached", report.Attached),
		logging.Int("skipped", report.SkippedTotal()),
		logging.Duration("duration", time.Since(start)),
	)
	return report, nil
}

// decodeAll reads and decodes files with at most l.workers in flight.
// Results keep the order of files.
func (l *Loader) decodeAll(ctx context.Context, adapter Adapter, files []string) ([]fileResult, error) {
	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result := fileResult{path: path}
			data, err := os.ReadFile(path)
			if err != nil {
				result.err = err
			} else {
				result.games, result.errs, result.err = adapter.Decode(data)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (l *Loader) consume(logger *slog.Logger, reg *registry.Registry, feed Feed, result fileResult, seen map[string]struct{}, report *FeedReport) {
	report.Files++
	if result.err != nil {
		report.Skipped[SkipMalformedFile]++
		logging.WarnWithContext(logger, "feed file skipped", "feed_file_malformed",
			logging.String(logging.FieldPath, result.path),
			logging.Error(result.err),
			logging.String(logging.FieldErrorHint, "file must hold a JSON game object or an array of them"),
			logging.String(logging.FieldImpact, "appearances in this file are not counted"),
		)
		return
	}
	if len(result.errs) > 0 {
		for _, err := range result.errs {
			logger.Debug("record skipped", logging.String(logging.FieldPath, result.path), logging.Error(err))
		}
		logging.WarnWithContext(logger, "malformed records skipped", "feed_record_malformed",
			logging.String(logging.FieldPath, result.path),
			logging.Int("records", len(result.errs)),
			logging.String(logging.FieldImpact, "remaining records in the file were loaded"),
		)
	}

	for _, game := range result.games {
		for reason, n := range game.Skipped {
			report.Skipped[reason] += n
		}
		if game.Key != "" {
			id := string(feed) + "|" + game.Key
			if _, dup := seen[id]; dup {
				report.Skipped[SkipDuplicateGame]++
				logger.Debug("duplicate game skipped", logging.String(logging.FieldPath, result.path), logging.String("game", game.Key))
				continue
			}
			seen[id] = struct{}{}
		}
		if len(game.Submissions) == 0 && game.Key == "" {
			continue
		}
		report.Games++
		for _, sub := range game.Submissions {
			report.Submissions++
			key, err := reg.Resolve(sub.Name, sub.Hints)
			if err != nil {
				report.Skipped[SkipRejected]++
				logger.Debug("appearance rejected",
					logging.String("name", sub.Name),
					logging.Error(err),
				)
				continue
			}
			reg.Attach(key, sub.Appearance)
			report.Attached++
		}
	}
}

func listFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
