// Package config holds the explicit runtime configuration for the download
// engine. A Config is constructed once at startup and passed into
// constructors; nothing below this package reads the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	DefaultConcurrency    = 6
	DefaultMaxAttempts    = 3
	DefaultChunkSize      = 8 * 1024
	DefaultRequestTimeout = 30 * time.Second
	DefaultConnectTimeout = 10 * time.Second
	DefaultRetryBaseDelay = time.Second
	DefaultCacheSize      = 1024
	DefaultWorkDir        = "temp"
)

// Config controls concurrency, retry behavior, timeouts and file placement.
// BandwidthLimit is bytes per second across all in-flight downloads; zero
// means unlimited.
type Config struct {
	Concurrency    int
	MaxAttempts    int
	ChunkSize      int
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
	RetryBaseDelay time.Duration
	CacheSize      int
	WorkDir        string
	BandwidthLimit int64
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Concurrency:    DefaultConcurrency,
		MaxAttempts:    DefaultMaxAttempts,
		ChunkSize:      DefaultChunkSize,
		RequestTimeout: DefaultRequestTimeout,
		ConnectTimeout: DefaultConnectTimeout,
		RetryBaseDelay: DefaultRetryBaseDelay,
		CacheSize:      DefaultCacheSize,
		WorkDir:        DefaultWorkDir,
	}
}

// FromEnv returns Default overridden by GOHLS_* environment variables.
// Unset or malformed variables keep the default; malformed values are
// reported so startup can warn about them.
func FromEnv() (Config, []error) {
	cfg := Default()
	var errs []error

	intVar(&cfg.Concurrency, "GOHLS_CONCURRENCY", &errs)
	intVar(&cfg.MaxAttempts, "GOHLS_MAX_ATTEMPTS", &errs)
	intVar(&cfg.ChunkSize, "GOHLS_CHUNK_SIZE", &errs)
	durationVar(&cfg.RequestTimeout, "GOHLS_REQUEST_TIMEOUT", &errs)
	durationVar(&cfg.ConnectTimeout, "GOHLS_CONNECT_TIMEOUT", &errs)
	int64Var(&cfg.BandwidthLimit, "GOHLS_BANDWIDTH_LIMIT", &errs)

	if v := os.Getenv("GOHLS_WORK_DIR"); v != "" {
		cfg.WorkDir = v
	}

	return cfg, errs
}

// Normalize clamps out-of-range values back to their defaults so a zero or
// partially filled Config is always usable.
func (c *Config) Normalize() {
	if c.Concurrency < 1 {
		c.Concurrency = DefaultConcurrency
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.ChunkSize < 1 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if c.CacheSize < 1 {
		c.CacheSize = DefaultCacheSize
	}
	if c.WorkDir == "" {
		c.WorkDir = DefaultWorkDir
	}
	if c.BandwidthLimit < 0 {
		c.BandwidthLimit = 0
	}
}

func intVar(dst *int, key string, errs *[]error) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s=%q: %w", key, v, err))
		return
	}
	*dst = n
}

func int64Var(dst *int64, key string, errs *[]error) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s=%q: %w", key, v, err))
		return
	}
	*dst = n
}

// Duration variables accept either a Go duration string ("45s") or a bare
// number of seconds, matching common deployment habits.
func durationVar(dst *time.Duration, key string, errs *[]error) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return
	}
	if secs, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(secs) * time.Second
		return
	}
	*errs = append(*errs, fmt.Errorf("%s=%q: not a duration", key, v))
}
