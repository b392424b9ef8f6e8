package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"growskill/pkg/domain"
)

// Context is the injectable session object shared by every view. It is
// opened at app start and closed at teardown. The token is read from the
// underlying store on every call and never cached, since another view may
// have cleared or replaced it.
type Context struct {
	store SessionStore

	mu     sync.RWMutex
	closed bool
}

// OpenContext wraps a session store.
func OpenContext(s SessionStore) *Context {
	return &Context{store: s}
}

func (c *Context) backend() (SessionStore, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrSessionClosed
	}
	return c.store, nil
}

// Save persists a fresh session after login.
func (c *Context) Save(ctx context.Context, token string, user domain.User) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("session token is empty")
	}
	s, err := c.backend()
	if err != nil {
		return err
	}
	if err := s.SaveSession(ctx, token, user); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Token returns the stored token, if any.
func (c *Context) Token(ctx context.Context) (string, bool, error) {
	s, err := c.backend()
	if err != nil {
		return "", false, err
	}
	token, ok, err := s.Token(ctx)
	if err != nil {
		return "", false, fmt.Errorf("read token: %w", err)
	}
	return token, ok, nil
}

// RequireToken returns the stored token or ErrLoginRequired.
func (c *Context) RequireToken(ctx context.Context) (string, error) {
	token, ok, err := c.Token(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrLoginRequired
	}
	return token, nil
}

// LoggedIn reports whether a token is stored. Read errors count as anonymous.
func (c *Context) LoggedIn(ctx context.Context) bool {
	_, ok, err := c.Token(ctx)
	return err == nil && ok
}

// Current returns the stored session. The user record may be present while
// the token is not (after logout).
func (c *Context) Current(ctx context.Context) (domain.Session, error) {
	s, err := c.backend()
	if err != nil {
		return domain.Session{}, err
	}
	token, _, err := s.Token(ctx)
	if err != nil {
		return domain.Session{}, fmt.Errorf("read token: %w", err)
	}
	user, _, err := s.User(ctx)
	if err != nil {
		return domain.Session{}, fmt.Errorf("read user: %w", err)
	}
	return domain.Session{Token: token, User: user}, nil
}

// Clear removes the token (logout).
func (c *Context) Clear(ctx context.Context) error {
	s, err := c.backend()
	if err != nil {
		return err
	}
	if err := s.ClearSession(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Close tears the context down and releases the store.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.store.Close()
}
