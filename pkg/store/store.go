package store

import (
	"context"
	"errors"

	"growskill/pkg/domain"
)

// Fixed keys of the persisted session.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

var (
	// ErrLoginRequired indicates an authenticated action was attempted
	// without a stored token.
	ErrLoginRequired = errors.New("login required")
	// ErrSessionClosed indicates the session context was used after Close.
	ErrSessionClosed = errors.New("session context closed")
)

// SessionStore persists the authentication token and the user record.
type SessionStore interface {
	SaveSession(ctx context.Context, token string, user domain.User) error
	Token(ctx context.Context) (string, bool, error)
	User(ctx context.Context) (domain.User, bool, error)
	// ClearSession removes the token. The user record may remain.
	ClearSession(ctx context.Context) error
	Close() error
}
