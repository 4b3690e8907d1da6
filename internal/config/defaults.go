package config

const (
	defaultDataDir                = "~/.local/share/journey"
	defaultLogDir                 = "~/.local/share/journey/logs"
	defaultIdentityCachePath      = "~/.cache/journey/register/player_id_map.json"
	defaultIdentitySourceURL      = "https://raw.githubusercontent.com/chadwickbureau/register/master/data"
	defaultIdentityMaxAgeDays     = 7
	defaultIdentityDownloadTimout = 60
	defaultIdentityRetryAttempts  = 3
	defaultIdentityRetryBackoffMS = 500
	// Two shard requests per second keeps the sixteen-file refresh polite.
	defaultIdentityRequestsPerSecond = 2
	defaultIdentityLockTimeout       = 30
	defaultFeedWorkers               = 4
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Identity: Identity{
			CachePath:          defaultIdentityCachePath,
			SourceURL:          defaultIdentitySourceURL,
			MaxAgeDays:         defaultIdentityMaxAgeDays,
			DownloadTimeout:    defaultIdentityDownloadTimout,
			RetryAttempts:      defaultIdentityRetryAttempts,
			RetryBackoffMillis: defaultIdentityRetryBackoffMS,
			RequestsPerSecond:  defaultIdentityRequestsPerSecond,
			LockTimeout:        defaultIdentityLockTimeout,
		},
		Feeds: Feeds{
			Workers: defaultFeedWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
