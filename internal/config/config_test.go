package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.APIPrefix != DefaultAPIPrefix {
		t.Errorf("api prefix = %q, want %q", cfg.APIPrefix, DefaultAPIPrefix)
	}
	if cfg.ResultCacheDir == "" {
		t.Error("result cache dir default missing")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("QUERYLOOM_PORT", "9100")
	t.Setenv("QUERYLOOM_LOG_LEVEL", "debug")
	t.Setenv("METADATA_DATABASE_URL", "postgres://meta/db")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9100 {
		t.Errorf("port = %d, want 9100", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", cfg.LogLevel)
	}
	if cfg.MetadataDatabaseURL != "postgres://meta/db" {
		t.Errorf("metadata url = %q", cfg.MetadataDatabaseURL)
	}
	if cfg.RateLimitPerMinute != 7 {
		t.Errorf("rate limit = %d, want 7", cfg.RateLimitPerMinute)
	}
}

func TestDatabaseURLFallback(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://legacy/db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MetadataDatabaseURL != "postgres://legacy/db" {
		t.Errorf("metadata url = %q, want legacy fallback", cfg.MetadataDatabaseURL)
	}
}
