package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port == "" {
		t.Error("Port default is empty")
	}
	if cfg.AppEnv == "" {
		t.Error("AppEnv default is empty")
	}
	if cfg.TokenTTL <= 0 {
		t.Errorf("TokenTTL = %v, want positive", cfg.TokenTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("JWT_SECRET", "override")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "9999" {
		t.Errorf("Port = %q, want 9999", cfg.Port)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Errorf("TokenTTL = %v, want 30m", cfg.TokenTTL)
	}
	if cfg.JWTSecret != "override" {
		t.Errorf("JWTSecret = %q, want override", cfg.JWTSecret)
	}
}

func TestLoadInvalidTokenTTL(t *testing.T) {
	t.Setenv("TOKEN_TTL", "not-a-duration")

	if _, err := Load(); err == nil {
		t.Fatal("Load() accepted an invalid TOKEN_TTL")
	}
}
