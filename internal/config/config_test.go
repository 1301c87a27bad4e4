package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerPort == "" {
		t.Fatalf("expected default server port")
	}
	if cfg.PostgresURL == "" {
		t.Fatalf("expected default postgres url")
	}
	if cfg.MetricsInterval != time.Second {
		t.Fatalf("expected 1s metrics interval, got %v", cfg.MetricsInterval)
	}
	if cfg.WarmupTimeout != 2*time.Second || cfg.UpgradeAfter != 30*time.Second || cfg.UpgradeSamples != 10 {
		t.Fatalf("unexpected tracking defaults: %+v", cfg)
	}
	if cfg.WorkoutAPIURL != "" || cfg.JournalPath != "" {
		t.Fatalf("expected optional integrations disabled by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9000")
	t.Setenv("POSTGRES_URL", "postgres://example")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("METRICS_INTERVAL", "500ms")
	t.Setenv("UPGRADE_SAMPLE_COUNT", "4")
	t.Setenv("JOURNAL_PATH", "/tmp/journal.db")

	cfg := Load()
	if cfg.ServerPort != ":9000" {
		t.Fatalf("expected override port")
	}
	if cfg.PostgresURL != "postgres://example" {
		t.Fatalf("expected override postgres")
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("expected override redis")
	}
	if cfg.JWTSecret != "secret" {
		t.Fatalf("expected override secret")
	}
	if cfg.MetricsInterval != 500*time.Millisecond || cfg.UpgradeSamples != 4 {
		t.Fatalf("expected tracking overrides, got %+v", cfg)
	}
	if cfg.JournalPath != "/tmp/journal.db" {
		t.Fatalf("expected journal override")
	}
}
