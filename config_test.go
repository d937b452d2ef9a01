package authsession

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("SECRETSAFE_API_URL", "https://api.secretsafe.test")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	if cfg.API.BaseURL != "https://api.secretsafe.test" {
		t.Fatalf("unexpected base URL %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Fatalf("default timeout = %v, want 10s", cfg.API.Timeout)
	}
	if cfg.Refresh.Threshold != 5*time.Minute {
		t.Fatalf("default refresh threshold = %v, want 5m", cfg.Refresh.Threshold)
	}
	if cfg.Revalidate.Interval != 5*time.Minute {
		t.Fatalf("default revalidate interval = %v, want 5m", cfg.Revalidate.Interval)
	}
	if cfg.Storage.CleanupGrace != 24*time.Hour {
		t.Fatalf("default cleanup grace = %v, want 24h", cfg.Storage.CleanupGrace)
	}
	if cfg.Clock.HealthInterval != 30*time.Second {
		t.Fatalf("default health interval = %v, want 30s", cfg.Clock.HealthInterval)
	}
	if !cfg.Events.Enabled || !cfg.Metrics.Enabled {
		t.Fatal("events and metrics must default to enabled")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SECRETSAFE_API_URL", "https://api.secretsafe.test")
	t.Setenv("SECRETSAFE_REFRESH_THRESHOLD", "2m")
	t.Setenv("SECRETSAFE_REVALIDATE_INTERVAL", "0")
	t.Setenv("SECRETSAFE_REDIS_ADDR", "localhost:6379")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.Refresh.Threshold != 2*time.Minute {
		t.Fatalf("refresh threshold = %v, want 2m", cfg.Refresh.Threshold)
	}
	if cfg.Revalidate.Interval != 0 {
		t.Fatalf("revalidate interval = %v, want 0 (disabled)", cfg.Revalidate.Interval)
	}
	if cfg.Storage.RedisAddr != "localhost:6379" {
		t.Fatalf("redis addr = %q", cfg.Storage.RedisAddr)
	}
}

func TestFromEnvRequiresBaseURL(t *testing.T) {
	t.Setenv("SECRETSAFE_API_URL", "")

	if _, err := FromEnv(); err == nil {
		t.Fatal("FromEnv without a base URL must fail validation")
	}
}

func TestConfigValidate(t *testing.T) {
	valid := defaultConfig()
	valid.API.BaseURL = "https://api.secretsafe.test"
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base URL", func(c *Config) { c.API.BaseURL = "" }},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }},
		{"zero refresh threshold", func(c *Config) { c.Refresh.Threshold = 0 }},
		{"negative revalidate interval", func(c *Config) { c.Revalidate.Interval = -time.Second }},
		{"zero health interval", func(c *Config) { c.Clock.HealthInterval = 0 }},
		{"zero cleanup grace", func(c *Config) { c.Storage.CleanupGrace = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
