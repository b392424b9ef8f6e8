package apiclient

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// ErrUnsuccessful is wrapped by errors for 2xx responses whose body reports
// success=false or lacks a required field.
var ErrUnsuccessful = errors.New("request unsuccessful")

// APIError represents a non-success response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Unauthorized reports whether the backend rejected the credentials.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// IsUnauthorized reports whether err is an APIError for a rejected token.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Unauthorized()
}

// MessageOf returns the server-supplied message carried by err, if any.
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func newAPIError(status int, statusText string, body []byte) *APIError {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	msg := strings.TrimSpace(eb.Message)
	if msg == "" {
		msg = strings.TrimSpace(eb.Error)
	}
	if msg == "" {
		msg = statusText
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: msg}
}

type unsuccessfulError struct {
	message string
}

func (e *unsuccessfulError) Error() string { return e.message }
func (e *unsuccessfulError) Unwrap() error { return ErrUnsuccessful }

func unsuccessful(message, fallback string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		message = fallback
	}
	return &unsuccessfulError{message: message}
}
