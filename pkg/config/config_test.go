package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("GEMINI_API_BASE", "")
	t.Setenv("S3_USE_PATH_STYLE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("Gemini.Model = %q, want gemini-2.5-flash", cfg.Gemini.Model)
	}
	if cfg.Gemini.APIBase != "https://generativelanguage.googleapis.com" {
		t.Errorf("Gemini.APIBase = %q", cfg.Gemini.APIBase)
	}
	if cfg.Gemini.Configured() {
		t.Error("Gemini.Configured() = true without an API key")
	}
	if cfg.Storage.UsePathStyle {
		t.Error("Storage.UsePathStyle should default to false")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("GEMINI_TIMEOUT_SECONDS", "5")
	t.Setenv("S3_BUCKET", "bills")
	t.Setenv("S3_USE_PATH_STYLE", "true")
	t.Setenv("RATE_LIMIT_MAX", "7")
	t.Setenv("SERVER_BODY_LIMIT_MB", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.Gemini.Configured() {
		t.Error("Gemini.Configured() = false with an API key")
	}
	if cfg.Gemini.Timeout != 5*time.Second {
		t.Errorf("Gemini.Timeout = %v, want 5s", cfg.Gemini.Timeout)
	}
	if cfg.Storage.Bucket != "bills" || !cfg.Storage.UsePathStyle {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.RateLimit.Max != 7 {
		t.Errorf("RateLimit.Max = %d, want 7", cfg.RateLimit.Max)
	}
	if cfg.Server.BodyLimit != 2*1024*1024 {
		t.Errorf("Server.BodyLimit = %d", cfg.Server.BodyLimit)
	}
}
