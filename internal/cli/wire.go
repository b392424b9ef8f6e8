package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"growskill/internal/apiclient"
	"growskill/internal/app"
	"growskill/internal/config"
	"growskill/internal/ratelimit"
	"growskill/pkg/storage"
	"growskill/pkg/store"
)

// Build wires the client core from configuration. The returned cleanup
// closes the session store and any Redis connections.
func Build(cfg config.FileConfig, logger *slog.Logger, stdout io.Writer) (*app.App, func(), error) {
	timeout, err := config.ParseDuration(cfg.RequestTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("request timeout: %w", err)
	}
	api, err := apiclient.New(apiclient.Config{
		BaseURL:    cfg.APIBaseURL,
		Timeout:    timeout,
		GetRetries: cfg.GetRetries,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, err
	}

	sessions, err := openSessionStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	appCfg := app.Config{
		API:          api,
		Sessions:     sessions,
		DocumentsDir: cfg.DocumentsDir,
		Opener:       printOpener{w: stdout},
	}
	if interval, err := config.ParseDuration(cfg.CheckoutPollInterval); err == nil {
		appCfg.PollInterval = interval
	}

	var limiter *ratelimit.FixedWindowLimiter
	if cfg.InterviewRateLimitPerMinute > 0 {
		limiter, err = ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "", cfg.InterviewRateLimitPerMinute, time.Minute)
		if err != nil {
			_ = sessions.Close()
			return nil, nil, fmt.Errorf("init interview limiter: %w", err)
		}
		appCfg.Limiter = limiter
	}

	if cfg.MinioEndpoint != "" {
		ttl, _ := config.ParseDuration(cfg.MinioLinkTTL)
		sharer, err := storage.NewMinioSharer(storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Prefix:    "certificates",
			UseSSL:    cfg.MinioUseSSL,
			LinkTTL:   ttl,
		})
		if err != nil {
			// Certificates are still saved locally without a sharer.
			logger.Warn("minio sharer unavailable", "err", err)
		} else {
			appCfg.Sharer = sharer
		}
	}

	core, err := app.New(appCfg)
	if err != nil {
		_ = sessions.Close()
		_ = limiter.Close()
		return nil, nil, err
	}
	cleanup := func() {
		if err := core.Close(); err != nil {
			logger.Warn("close session store failed", "err", err)
		}
		_ = limiter.Close()
	}
	return core, cleanup, nil
}

func openSessionStore(cfg config.FileConfig) (store.SessionStore, error) {
	switch cfg.SessionBackend {
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	case config.BackendRedis:
		return store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, ""), nil
	case config.BackendSQLite:
		return openGormStore(store.DriverSQLite, cfg.SessionDSN)
	case config.BackendPostgres:
		return openGormStore(store.DriverPostgres, cfg.SessionDSN)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

func openGormStore(driver, dsn string) (store.SessionStore, error) {
	s, err := store.NewGormStore(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("init session store: %w", err)
	}
	return s, nil
}
