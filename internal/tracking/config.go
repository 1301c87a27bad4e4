package tracking

import (
	"time"

	"backend-fitquest/internal/location"
)

// Config holds every controller timing. Zero fields take DefaultConfig values.
type Config struct {
	MetricsInterval time.Duration
	WarmupTimeout   time.Duration
	WarmupMaxAge    time.Duration

	// Relaxed is used from start (and after resume) for a fast first lock.
	Relaxed location.WatchOptions
	// Precise replaces Relaxed once the upgrade predicate holds.
	Precise location.WatchOptions

	UpgradeAfterSamples int
	UpgradeAfter        time.Duration
}

func DefaultConfig() Config {
	return Config{
		MetricsInterval: time.Second,
		WarmupTimeout:   2 * time.Second,
		WarmupMaxAge:    10 * time.Second,
		Relaxed: location.WatchOptions{
			Accuracy:          location.AccuracyBalanced,
			MinInterval:       2 * time.Second,
			MinDistanceMeters: 5,
		},
		Precise: location.WatchOptions{
			Accuracy:          location.AccuracyHigh,
			MinInterval:       time.Second,
			MinDistanceMeters: 1,
		},
		UpgradeAfterSamples: 10,
		UpgradeAfter:        30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MetricsInterval <= 0 {
		c.MetricsInterval = d.MetricsInterval
	}
	if c.WarmupTimeout <= 0 {
		c.WarmupTimeout = d.WarmupTimeout
	}
	if c.WarmupMaxAge <= 0 {
		c.WarmupMaxAge = d.WarmupMaxAge
	}
	if c.Relaxed.Accuracy == "" {
		c.Relaxed = d.Relaxed
	}
	if c.Precise.Accuracy == "" {
		c.Precise = d.Precise
	}
	if c.UpgradeAfterSamples <= 0 {
		c.UpgradeAfterSamples = d.UpgradeAfterSamples
	}
	if c.UpgradeAfter <= 0 {
		c.UpgradeAfter = d.UpgradeAfter
	}
	return c
}
