package scheduler

import (
	"time"

	appconfig "github.com/subforge/renewals/internal/config"
)

// Config controls scheduler intervals and batch sizes.
type Config struct {
	RunInterval time.Duration
	BatchSize   int
	JobTimeout  time.Duration
	// FailingGrace is how long a failing subscription may sit past its
	// expiration before the expire job gives up on it.
	FailingGrace time.Duration
	// ClaimTTL is how long a renewal claim blocks other workers. A worker
	// that dies mid-batch releases its rows when the window lapses.
	ClaimTTL    time.Duration
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval:  time.Minute,
		BatchSize:    50,
		JobTimeout:   30 * time.Second,
		FailingGrace: 30 * 24 * time.Hour,
		ClaimTTL:     15 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.FailingGrace <= 0 {
		c.FailingGrace = defaults.FailingGrace
	}
	if c.ClaimTTL <= 0 {
		c.ClaimTTL = defaults.ClaimTTL
	}
	return c
}

func ProvideConfig(cfg appconfig.Config) Config {
	out := DefaultConfig()
	out.EnabledJobs = cfg.SchedulerJobs
	return out
}
