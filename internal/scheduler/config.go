package scheduler

import "time"

// Config controls the governance job runner.
type Config struct {
	// Schedule is a cron expression; the documented cadence for the
	// usage recalculation is daily.
	Schedule   string
	RunTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Schedule:   "0 2 * * *",
		RunTimeout: 10 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Schedule == "" {
		c.Schedule = defaults.Schedule
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = defaults.RunTimeout
	}
	return c
}
