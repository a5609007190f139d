package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("expected default token TTL 24h, got %v", cfg.TokenTTL)
	}
	if cfg.RateLimitRPM != 10 {
		t.Fatalf("expected default rate limit 10 rpm, got %d", cfg.RateLimitRPM)
	}
	if cfg.SendQueueSize != 64 {
		t.Fatalf("expected default send queue 64, got %d", cfg.SendQueueSize)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("TOKEN_TTL", "1h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 9090 || cfg.TokenTTL != time.Hour {
		t.Fatalf("overrides not applied: port=%d ttl=%v", cfg.Port, cfg.TokenTTL)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	// t.Setenv records the originals for restore; unset so the required
	// check actually trips.
	t.Setenv("MONGODB_URI", "")
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("MONGODB_URI")
	os.Unsetenv("JWT_SECRET")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when required variables are missing")
	}
}
