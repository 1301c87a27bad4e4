// Package reporting forwards non-fatal failures to Sentry when a DSN is configured.
package reporting

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
)

type Config struct {
	DSN         string
	Environment string
	Release     string
}

// Init configures the Sentry client. An empty DSN leaves reporting disabled.
func Init(cfg Config, logger *slog.Logger) (bool, error) {
	if cfg.DSN == "" {
		if logger != nil {
			logger.Warn("sentry DSN not configured, error reporting disabled")
		}
		return false, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			if event.Request != nil && event.Request.Headers != nil {
				delete(event.Request.Headers, "Authorization")
			}
			return event
		},
	})
	if err != nil {
		return false, fmt.Errorf("sentry init: %w", err)
	}
	if logger != nil {
		logger.Info("sentry initialized", "environment", cfg.Environment)
	}
	return true, nil
}

// Capture reports err tagged with stage and the given attributes.
// It is a no-op when Init was never called with a DSN.
func Capture(stage string, err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("stage", stage)
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}
