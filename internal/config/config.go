package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file, relative to the working directory.
const ConfigPath = "config.yaml"

// DefaultAPIBaseURL is the hosted GrowSkill backend.
const DefaultAPIBaseURL = "https://growskill-6gaq.onrender.com/api/v1"

// Session backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	APIBaseURL                  string `yaml:"apiBaseURL"`
	LogLevel                    string `yaml:"logLevel"`
	RequestTimeout              string `yaml:"requestTimeout"`
	// GetRetries is the retry count for GET calls. Zero means the default
	// of one retry; a negative value disables retries.
	GetRetries                  int    `yaml:"getRetries"`
	SessionBackend              string `yaml:"sessionBackend"`
	SessionDSN                  string `yaml:"sessionDSN"`
	RedisAddr                   string `yaml:"redisAddr"`
	RedisPassword               string `yaml:"redisPassword"`
	DocumentsDir                string `yaml:"documentsDir"`
	MinioEndpoint               string `yaml:"minioEndpoint"`
	MinioAccessKey              string `yaml:"minioAccessKey"`
	MinioSecretKey              string `yaml:"minioSecretKey"`
	MinioBucket                 string `yaml:"minioBucket"`
	MinioUseSSL                 bool   `yaml:"minioUseSSL"`
	MinioLinkTTL                string `yaml:"minioLinkTTL"`
	InterviewRateLimitPerMinute int    `yaml:"interviewRateLimitPerMinute"`
	CheckoutPollInterval        string `yaml:"checkoutPollInterval"`
}

// Load reads config from path (defaults to config.yaml). A missing file is
// not an error. A .env file in the working directory is loaded first so its
// values feed the GROWSKILL_* overrides.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	_ = godotenv.Load()
	if v := os.Getenv("GROWSKILL_CONFIG"); v != "" && path == "" {
		path = v
	}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	setString("GROWSKILL_API_BASE_URL", &cfg.APIBaseURL)
	setString("GROWSKILL_LOG_LEVEL", &cfg.LogLevel)
	setString("GROWSKILL_REQUEST_TIMEOUT", &cfg.RequestTimeout)
	setString("GROWSKILL_SESSION_BACKEND", &cfg.SessionBackend)
	setString("GROWSKILL_SESSION_DSN", &cfg.SessionDSN)
	setString("GROWSKILL_DOCUMENTS_DIR", &cfg.DocumentsDir)
	setString("GROWSKILL_CHECKOUT_POLL_INTERVAL", &cfg.CheckoutPollInterval)
	setString("REDIS_ADDR", &cfg.RedisAddr)
	setString("REDIS_PASSWORD", &cfg.RedisPassword)
	setString("MINIO_ENDPOINT", &cfg.MinioEndpoint)
	setString("MINIO_ACCESS_KEY", &cfg.MinioAccessKey)
	setString("MINIO_SECRET_KEY", &cfg.MinioSecretKey)
	setString("MINIO_BUCKET", &cfg.MinioBucket)
	setString("GROWSKILL_MINIO_LINK_TTL", &cfg.MinioLinkTTL)
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.MinioUseSSL = b
		}
	}
	if v := os.Getenv("GROWSKILL_GET_RETRIES"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.GetRetries = n
		}
	}
	if v := os.Getenv("GROWSKILL_INTERVIEW_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.InterviewRateLimitPerMinute = n
		}
	}
}

func applyDefaults(cfg *FileConfig) {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
	if cfg.RequestTimeout == "" {
		cfg.RequestTimeout = "20s"
	}
	if cfg.GetRetries == 0 {
		cfg.GetRetries = 1
	}
	if cfg.SessionBackend == "" {
		cfg.SessionBackend = BackendSQLite
	}
	if cfg.SessionBackend == BackendSQLite && cfg.SessionDSN == "" {
		cfg.SessionDSN = filepath.Join(homeDir(), ".growskill", "session.db")
	}
	if cfg.DocumentsDir == "" {
		cfg.DocumentsDir = filepath.Join(homeDir(), ".growskill", "documents")
	}
	if cfg.MinioLinkTTL == "" {
		cfg.MinioLinkTTL = "24h"
	}
	if cfg.CheckoutPollInterval == "" {
		cfg.CheckoutPollInterval = "5s"
	}
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}
	return "."
}

func validateConfig(cfg FileConfig) error {
	if !strings.HasPrefix(cfg.APIBaseURL, "http://") && !strings.HasPrefix(cfg.APIBaseURL, "https://") {
		return errors.New("config: apiBaseURL must be an http(s) URL")
	}
	switch cfg.SessionBackend {
	case BackendSQLite, BackendMemory:
	case BackendPostgres:
		if cfg.SessionDSN == "" {
			return errors.New("config: sessionDSN is required for the postgres session backend")
		}
	case BackendRedis:
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return errors.New("config: redisAddr is required for the redis session backend")
		}
	default:
		return fmt.Errorf("config: unknown sessionBackend %q", cfg.SessionBackend)
	}
	if cfg.InterviewRateLimitPerMinute < 0 {
		return errors.New("config: interviewRateLimitPerMinute must be >= 0")
	}
	if cfg.InterviewRateLimitPerMinute > 0 && strings.TrimSpace(cfg.RedisAddr) == "" {
		return errors.New("config: redisAddr is required when interviewRateLimitPerMinute is set")
	}
	if cfg.MinioEndpoint != "" && (cfg.MinioBucket == "" || cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "") {
		return errors.New("config: minioBucket, minioAccessKey and minioSecretKey are required with minioEndpoint")
	}
	for name, value := range map[string]string{
		"requestTimeout":       cfg.RequestTimeout,
		"minioLinkTTL":         cfg.MinioLinkTTL,
		"checkoutPollInterval": cfg.CheckoutPollInterval,
	} {
		if _, err := ParseDuration(value); err != nil {
			return fmt.Errorf("config: %s: %w", name, err)
		}
	}
	return nil
}

// ParseDuration parses a positive duration string.
func ParseDuration(value string) (time.Duration, error) {
	dur, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %w", err)
	}
	if dur <= 0 {
		return 0, fmt.Errorf("invalid duration %q: must be positive", value)
	}
	return dur, nil
}
