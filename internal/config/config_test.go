package config

import (
	"testing"
	"time"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Error("Expected an error when DATABASE_URL is unset.")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/study")
	t.Setenv("SECRET_KEY", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected defaults to load. Got error: %v", err)
	}

	if cfg.MinWordCount != 60 {
		t.Errorf("Expected default MinWordCount 60. Got: %d", cfg.MinWordCount)
	}
	if cfg.TooFastSeconds != 5 {
		t.Errorf("Expected default TooFastSeconds 5. Got: %d", cfg.TooFastSeconds)
	}
	if cfg.MaxBodyBytes != 65536 {
		t.Errorf("Expected default MaxBodyBytes 65536. Got: %d", cfg.MaxBodyBytes)
	}
	if cfg.RewardAmount != 10 {
		t.Errorf("Expected default RewardAmount 10. Got: %d", cfg.RewardAmount)
	}
	if cfg.RewardCooldown != 24*time.Hour {
		t.Errorf("Expected default cooldown 24h. Got: %v", cfg.RewardCooldown)
	}
	if !cfg.PaymentRequired {
		t.Error("Expected PaymentRequired to default to true.")
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Errorf("Expected the default CORS origin. Got: %v", cfg.CORSOrigins)
	}
	if cfg.IPHashSalt != "local-salt" {
		t.Errorf("Expected default salt. Got: %s", cfg.IPHashSalt)
	}
	if cfg.MonitorToken != "" {
		t.Errorf("Expected no default monitor token. Got: %s", cfg.MonitorToken)
	}
	if cfg.ShadowScoring {
		t.Error("Expected shadow scoring to default to off.")
	}
	if cfg.ShadowSnapshot != 1 {
		t.Errorf("Expected default shadow snapshot 1. Got: %d", cfg.ShadowSnapshot)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/study")
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("MIN_WORD_COUNT", "30")
	t.Setenv("PAYMENT_REQUIRED", "false")
	t.Setenv("CORS_ORIGINS", "https://study.example.org, https://staging.example.org")
	t.Setenv("REWARD_COOLDOWN_SECONDS", "3600")
	t.Setenv("MONITOR_TOKEN", "ops-secret")
	t.Setenv("SHADOW_SCORING", "true")
	t.Setenv("SHADOW_SNAPSHOT", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected overrides to load. Got error: %v", err)
	}

	if cfg.MinWordCount != 30 {
		t.Errorf("Expected MinWordCount override 30. Got: %d", cfg.MinWordCount)
	}
	if cfg.PaymentRequired {
		t.Error("Expected PaymentRequired=false.")
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://staging.example.org" {
		t.Errorf("Expected two trimmed origins. Got: %v", cfg.CORSOrigins)
	}
	if cfg.RewardCooldown != time.Hour {
		t.Errorf("Expected 1h cooldown. Got: %v", cfg.RewardCooldown)
	}
	if cfg.MonitorToken != "ops-secret" {
		t.Errorf("Expected the monitor token override. Got: %s", cfg.MonitorToken)
	}
	if !cfg.ShadowScoring || cfg.ShadowSnapshot != 4 {
		t.Errorf("Expected shadow scoring on with snapshot 4. Got: %v/%d", cfg.ShadowScoring, cfg.ShadowSnapshot)
	}
}

func TestLoad_BadIntegerFallsBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/study")
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("MIN_WORD_COUNT", "sixty")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected load to succeed. Got error: %v", err)
	}
	if cfg.MinWordCount != 60 {
		t.Errorf("Expected fallback to 60 on a bad integer. Got: %d", cfg.MinWordCount)
	}
}

func TestLoad_GeneratesSecretWhenUnset(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/study")
	t.Setenv("SECRET_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected load to succeed. Got error: %v", err)
	}
	if len(cfg.SecretKey) != 64 {
		t.Errorf("Expected a generated 64-hex secret. Got length: %d", len(cfg.SecretKey))
	}
}

func TestAllowAllOrigins(t *testing.T) {
	c := &Config{CORSOrigins: []string{"https://a.example", "*"}}
	if !c.AllowAllOrigins() {
		t.Error("Expected wildcard detection.")
	}
	c = &Config{CORSOrigins: []string{"https://a.example"}}
	if c.AllowAllOrigins() {
		t.Error("Expected no wildcard.")
	}
}
