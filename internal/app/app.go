package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"growskill/internal/apiclient"
	"growskill/internal/ratelimit"
	"growskill/pkg/storage"
	"growskill/pkg/store"
)

// Sharer hands a saved document to an export facility and returns where it
// can be fetched from.
type Sharer interface {
	Share(ctx context.Context, localPath, contentType string) (string, error)
}

// Opener hands a URL to an external browser.
type Opener interface {
	Open(ctx context.Context, url string) error
}

// Limiter throttles interview question generation.
type Limiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Decision, error)
}

// Config holds runtime dependencies for the client core.
type Config struct {
	API          *apiclient.Client
	Sessions     store.SessionStore
	DocumentsDir string
	// Sharer is optional; without one certificates are only saved locally.
	Sharer Sharer
	// Opener is required for checkout.
	Opener Opener
	// Limiter is optional.
	Limiter Limiter
	// PollInterval is the default WaitForPurchase period.
	PollInterval time.Duration
}

// App is the client core shared by every screen.
type App struct {
	api          *apiclient.Client
	session      *store.Context
	documents    *storage.FileStore
	sharer       Sharer
	opener       Opener
	limiter      Limiter
	validate     *validator.Validate
	pollInterval time.Duration
}

// New wires the client core and opens the session context.
func New(cfg Config) (*App, error) {
	if cfg.API == nil {
		return nil, errors.New("api client is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	documents, err := storage.NewFileStore(cfg.DocumentsDir)
	if err != nil {
		return nil, fmt.Errorf("init document store: %w", err)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	return &App{
		api:          cfg.API,
		session:      store.OpenContext(cfg.Sessions),
		documents:    documents,
		sharer:       cfg.Sharer,
		opener:       cfg.Opener,
		limiter:      cfg.Limiter,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		pollInterval: cfg.PollInterval,
	}, nil
}

// Close tears down the session context.
func (a *App) Close() error {
	return a.session.Close()
}

// Session exposes the session context.
func (a *App) Session() *store.Context {
	return a.session
}

// requireToken reads the token right before use. A missing token yields a
// login-required notice with the given message.
func (a *App) requireToken(ctx context.Context, message string) (string, error) {
	token, err := a.session.RequireToken(ctx)
	if errors.Is(err, store.ErrLoginRequired) {
		return "", loginRequired(message)
	}
	if err != nil {
		return "", notice("Error", "Could not read the saved session.", err)
	}
	return token, nil
}
