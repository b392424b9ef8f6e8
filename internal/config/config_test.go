package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != DefaultAPIBaseURL {
		t.Fatalf("apiBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.SessionBackend != BackendSQLite || !strings.HasSuffix(cfg.SessionDSN, filepath.Join(".growskill", "session.db")) {
		t.Fatalf("unexpected session settings: %q %q", cfg.SessionBackend, cfg.SessionDSN)
	}
	if cfg.GetRetries != 1 {
		t.Fatalf("getRetries = %d, want 1", cfg.GetRetries)
	}
	timeout, err := ParseDuration(cfg.RequestTimeout)
	if err != nil || timeout != 20*time.Second {
		t.Fatalf("requestTimeout = %v (%v)", timeout, err)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
apiBaseURL: "http://localhost:8080"
logLevel: "info"
sessionBackend: "memory"
documentsDir: "/tmp/docs"
interviewRateLimitPerMinute: 2
redisAddr: "localhost:6379"
`)
	t.Setenv("GROWSKILL_LOG_LEVEL", "debug")
	t.Setenv("GROWSKILL_REQUEST_TIMEOUT", "3s")
	t.Setenv("GROWSKILL_INTERVIEW_RATE_LIMIT_PER_MINUTE", "5")
	t.Setenv("GROWSKILL_GET_RETRIES", "-1")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:8080" {
		t.Fatalf("apiBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("logLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.RequestTimeout != "3s" {
		t.Fatalf("requestTimeout = %q", cfg.RequestTimeout)
	}
	if cfg.InterviewRateLimitPerMinute != 5 {
		t.Fatalf("interviewRateLimitPerMinute = %d", cfg.InterviewRateLimitPerMinute)
	}
	if cfg.GetRetries != -1 {
		t.Fatalf("getRetries = %d", cfg.GetRetries)
	}
	if cfg.SessionBackend != BackendMemory || cfg.DocumentsDir != "/tmp/docs" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigPathFromEnv(t *testing.T) {
	path := writeConfig(t, `apiBaseURL: "http://example.test"`)
	t.Setenv("GROWSKILL_CONFIG", path)
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != "http://example.test" {
		t.Fatalf("apiBaseURL = %q", cfg.APIBaseURL)
	}
}

func TestValidateConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cases := map[string]string{
		"bad url":          `apiBaseURL: "ftp://x"`,
		"unknown backend":  `sessionBackend: "etcd"`,
		"redis no addr":    `sessionBackend: "redis"`,
		"postgres no dsn":  `sessionBackend: "postgres"`,
		"limit no redis":   `interviewRateLimitPerMinute: 3`,
		"negative limit":   `interviewRateLimitPerMinute: -1`,
		"bad timeout":      `requestTimeout: "soon"`,
		"minio no bucket":  `minioEndpoint: "localhost:9000"`,
		"zero poll period": `checkoutPollInterval: "0s"`,
	}
	for name, content := range cases {
		if _, err := Load(writeConfig(t, content)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestParseDuration(t *testing.T) {
	if d, err := ParseDuration(" 150ms "); err != nil || d != 150*time.Millisecond {
		t.Fatalf("ParseDuration = %v, %v", d, err)
	}
	if _, err := ParseDuration("-1s"); err == nil {
		t.Fatalf("expected error for negative duration")
	}
}

func TestGetRetriesFromFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, "getRetries: 0\nsessionBackend: \"memory\"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GetRetries != 1 {
		t.Fatalf("zero getRetries = %d, want default 1", cfg.GetRetries)
	}
	cfg, err = Load(writeConfig(t, "getRetries: -1\nsessionBackend: \"memory\"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GetRetries != -1 {
		t.Fatalf("negative getRetries = %d, want -1", cfg.GetRetries)
	}
}
