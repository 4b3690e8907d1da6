package identity

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"journey/internal/config"
	"journey/internal/logging"
)

const (
	defaultMaxAge       = 7 * 24 * time.Hour
	defaultLockTimeout  = 30 * time.Second
	lockRetryInterval   = 100 * time.Millisecond
	eventRefreshFailed  = "identity_refresh_failed"
	eventCacheUnusable  = "identity_cache_unusable"
	eventCacheWriteFail = "identity_cache_write_failed"
)

var (
	// ErrUnavailable reports that no dataset could be loaded and none was
	// loaded before. Callers continue with feed-supplied identifiers only.
	ErrUnavailable = errors.New("identity dataset unavailable")

	errNoSource  = errors.New("no register source configured")
	errEmptyData = errors.New("register source returned no rows")
	errLockBusy  = errors.New("identity cache lock busy")
)

// Origin describes where the current dataset came from.
type Origin string

const (
	OriginNone       Origin = "none"
	OriginCache      Origin = "cache"
	OriginRemote     Origin = "remote"
	OriginStaleCache Origin = "stale-cache"
	OriginMemory     Origin = "memory"
)

// Status summarizes the loaded dataset.
type Status struct {
	Origin    Origin
	CachePath string
	Source    string
	LoadedAt  time.Time
	ModTime   time.Time
	Links     int
}

// Age returns how old the backing data was when measured at now.
func (s Status) Age(now time.Time) time.Duration {
	if s.ModTime.IsZero() {
		return 0
	}
	return now.Sub(s.ModTime)
}

// Options configures a Service.
type Options struct {
	CachePath     string
	Source        Source
	MaxAge        time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
	LockTimeout   time.Duration
	Logger        *slog.Logger
}

// Service owns the register dataset and its refresh policy. Load it once
// before resolution starts; lookups afterwards are read-only.
type Service struct {
	opts   Options
	logger *slog.Logger

	mu      sync.RWMutex
	dataset *Dataset
	status  Status
}

// NewService builds a Service. A zero MaxAge or LockTimeout uses defaults.
func NewService(opts Options) *Service {
	if opts.MaxAge <= 0 {
		opts.MaxAge = defaultMaxAge
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = defaultLockTimeout
	}
	logger := logging.NewComponentLogger(opts.Logger, "identity")
	source := ""
	if opts.Source != nil {
		source = opts.Source.String()
	}
	return &Service{
		opts:   opts,
		logger: logger,
		status: Status{Origin: OriginNone, CachePath: opts.CachePath, Source: source},
	}
}

// NewServiceFromConfig wires the configured source, cache and refresh policy.
func NewServiceFromConfig(cfg *config.Config, logger *slog.Logger) *Service {
	var source Source
	if cfg.Identity.SourceDir != "" {
		source = NewDirSource(cfg.Identity.SourceDir)
	} else {
		source = NewHTTPSource(cfg.Identity.SourceURL, cfg.IdentityDownloadTimeout(), cfg.Identity.RequestsPerSecond, logger)
	}
	return NewService(Options{
		CachePath:     cfg.Identity.CachePath,
		Source:        source,
		MaxAge:        cfg.IdentityMaxAge(),
		RetryAttempts: cfg.Identity.RetryAttempts,
		RetryBackoff:  cfg.IdentityRetryBackoff(),
		LockTimeout:   cfg.IdentityLockTimeout(),
		Logger:        logger,
	})
}

// Load makes a dataset available. A fresh cache is used as is; a missing,
// stale or unreadable cache triggers a refresh. When the refresh fails the
// existing cache is used even if stale, then the previously loaded dataset.
// ErrUnavailable is returned only when none of those exist.
func (s *Service) Load(ctx context.Context) (*Dataset, error) {
	cached, modTime, err := s.readCache()
	if err == nil && !s.isStale(modTime) {
		s.set(cached, OriginCache, modTime)
		s.logLoaded()
		return cached, nil
	}

	dataset, refreshErr := s.refresh(ctx, false)
	if refreshErr == nil {
		return dataset, nil
	}

	if cached != nil {
		logging.WarnWithContext(s.logger, "register refresh failed; using stale cache", eventRefreshFailed,
			logging.String(logging.FieldPath, s.opts.CachePath),
			logging.Duration("cache_age", time.Since(modTime)),
			logging.Error(refreshErr),
			logging.String(logging.FieldErrorHint, "check network access or set identity.source_dir"),
			logging.String(logging.FieldImpact, "recently added players may not link across levels"),
		)
		s.set(cached, OriginStaleCache, modTime)
		s.logLoaded()
		return cached, nil
	}

	if current := s.Dataset(); current != nil {
		logging.WarnWithContext(s.logger, "register refresh failed; keeping loaded dataset", eventRefreshFailed,
			logging.Error(refreshErr),
			logging.String(logging.FieldImpact, "identifier links reflect the previous load"),
		)
		s.mu.Lock()
		s.status.Origin = OriginMemory
		s.mu.Unlock()
		return current, nil
	}

	return nil, fmt.Errorf("%w: %w", ErrUnavailable, refreshErr)
}

// Refresh rebuilds the dataset from the source regardless of cache age. On
// failure the current dataset stays in place and the error is returned.
func (s *Service) Refresh(ctx context.Context) (*Dataset, error) {
	return s.refresh(ctx, true)
}

// Dataset returns the currently loaded dataset, or nil.
func (s *Service) Dataset() *Dataset {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// Status reports the origin and size of the loaded dataset.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Lookup resolves an id in the given namespace against the loaded dataset.
func (s *Service) Lookup(ns Namespace, id string) Identity {
	return s.Dataset().Lookup(ns, id)
}

// LookupRegister implements the registry's identity source.
func (s *Service) LookupRegister(id string) Identity { return s.Dataset().LookupRegister(id) }

// LookupMajor implements the registry's identity source.
func (s *Service) LookupMajor(id string) Identity { return s.Dataset().LookupMajor(id) }

// LookupLeague implements the registry's identity source.
func (s *Service) LookupLeague(id int64) Identity { return s.Dataset().LookupLeague(id) }

func (s *Service) readCache() (*Dataset, time.Time, error) {
	if s.opts.CachePath == "" {
		return nil, time.Time{}, fs.ErrNotExist
	}
	dataset, modTime, err := readDocument(s.opts.CachePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("identity cache missing", logging.String(logging.FieldPath, s.opts.CachePath))
		} else {
			logging.WarnWithContext(s.logger, "identity cache unreadable", eventCacheUnusable,
				logging.String(logging.FieldPath, s.opts.CachePath),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the cache file to force a clean refresh"),
				logging.String(logging.FieldImpact, "register will be downloaded again"),
			)
		}
		return nil, time.Time{}, err
	}
	return dataset, modTime, nil
}

func (s *Service) isStale(modTime time.Time) bool {
	return time.Since(modTime) > s.opts.MaxAge
}

func (s *Service) refresh(ctx context.Context, force bool) (*Dataset, error) {
	if s.opts.Source == nil {
		return nil, errNoSource
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Another process may have refreshed while this one waited on the lock.
	if !force {
		if cached, modTime, err := readDocument(s.opts.CachePath); err == nil && !s.isStale(modTime) {
			s.set(cached, OriginCache, modTime)
			s.logLoaded()
			return cached, nil
		}
	}

	s.logger.Info("refreshing register", logging.String("source", s.opts.Source.String()))
	started := time.Now()
	dataset, err := withRetry(ctx, s.logger, s.opts.RetryAttempts, s.opts.RetryBackoff, func(ctx context.Context) (*Dataset, error) {
		builder := NewBuilder()
		if err := s.opts.Source.Rows(ctx, func(row Row) error {
			builder.Add(row)
			return nil
		}); err != nil {
			return nil, err
		}
		if builder.Rows() == 0 {
			return nil, errEmptyData
		}
		return builder.Build(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("refresh register from %s: %w", s.opts.Source, err)
	}

	modTime := time.Now()
	if s.opts.CachePath != "" {
		if err := writeDocument(s.opts.CachePath, dataset); err != nil {
			logging.WarnWithContext(s.logger, "identity cache write failed", eventCacheWriteFail,
				logging.String(logging.FieldPath, s.opts.CachePath),
				logging.Error(err),
				logging.String(logging.FieldImpact, "next run downloads the register again"),
			)
		} else if info, err := os.Stat(s.opts.CachePath); err == nil {
			modTime = info.ModTime()
		}
	}

	s.set(dataset, OriginRemote, modTime)
	s.logger.Info("register refreshed",
		logging.Int("links", dataset.Len()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return dataset, nil
}

// lock takes the cross-process refresh lock next to the cache file.
func (s *Service) lock(ctx context.Context) (func(), error) {
	if s.opts.CachePath == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.opts.CachePath), 0o755); err != nil {
		return nil, fmt.Errorf("create identity cache directory: %w", err)
	}
	fileLock := flock.New(s.opts.CachePath + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, s.opts.LockTimeout)
	defer cancel()
	ok, err := fileLock.TryLockContext(lockCtx, lockRetryInterval)
	if err != nil || !ok {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w after %s", errLockBusy, s.opts.LockTimeout)
	}
	return func() {
		if err := fileLock.Unlock(); err != nil {
			s.logger.Debug("release identity cache lock", logging.Error(err))
		}
	}, nil
}

func (s *Service) set(dataset *Dataset, origin Origin, modTime time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset = dataset
	s.status.Origin = origin
	s.status.LoadedAt = time.Now()
	s.status.ModTime = modTime
	s.status.Links = dataset.Len()
}

func (s *Service) logLoaded() {
	status := s.Status()
	s.logger.Info("identity dataset loaded",
		logging.String("origin", string(status.Origin)),
		logging.Int("links", status.Links),
		logging.String(logging.FieldPath, status.CachePath),
	)
}
