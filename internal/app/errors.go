package app

import (
	"errors"

	"growskill/internal/apiclient"
	"growskill/pkg/store"
)

var (
	// ErrLoginRequired is returned when an authenticated action runs
	// without a stored token. No request is sent in that case.
	ErrLoginRequired = store.ErrLoginRequired
	// ErrNotPurchased indicates the progress tracker was requested for a
	// course the user has not bought.
	ErrNotPurchased = errors.New("course not purchased")
	// ErrCourseNotFinished indicates certificate or interview prep was
	// requested before every lecture was viewed.
	ErrCourseNotFinished = errors.New("course not finished")
	// ErrCheckoutFailed indicates the backend did not return a checkout URL.
	ErrCheckoutFailed = errors.New("checkout failed")
	// ErrViewClosed is returned when a result arrives for a closed view.
	ErrViewClosed = errors.New("view closed")
	// ErrInvalidInput indicates a form failed validation before any request.
	ErrInvalidInput = errors.New("invalid input")
)

// Notice is a one-shot user-facing failure. Title and Message are shown to
// the user; Err keeps the cause for errors.Is / errors.As.
type Notice struct {
	Title   string
	Message string
	Err     error
}

func (n *Notice) Error() string {
	if n.Title == "" {
		return n.Message
	}
	return n.Title + ": " + n.Message
}

func (n *Notice) Unwrap() error { return n.Err }

// AsNotice extracts the notice carried by err.
func AsNotice(err error) (*Notice, bool) {
	var n *Notice
	if errors.As(err, &n) {
		return n, true
	}
	return nil, false
}

func notice(title, message string, err error) *Notice {
	return &Notice{Title: title, Message: message, Err: err}
}

func loginRequired(message string) *Notice {
	if message == "" {
		message = "Please login to continue."
	}
	return notice("Login Required", message, ErrLoginRequired)
}

// serverMessage prefers the backend's message for non-2xx responses and
// unsuccessful bodies, and falls back otherwise.
func serverMessage(err error, fallback string) string {
	if msg := apiclient.MessageOf(err); msg != "" {
		return msg
	}
	if errors.Is(err, apiclient.ErrUnsuccessful) {
		return err.Error()
	}
	return fallback
}
