package ticket

import (
	"errors"
	"net/http"
)

type ValidationError string

func (e ValidationError) Error() string { return string(e) }

const (
	ErrEmptyBody     ValidationError = "Request body cannot be empty."
	ErrMissingFields ValidationError = "Missing required fields: name, email, issue."
	ErrBodyTooLarge  ValidationError = "Request body too large."
	ErrUnreadable    ValidationError = "Request body cannot be read."
)

// reason is the short label used in logs and metrics.
func reason(err error) string {
	switch {
	case errors.Is(err, ErrEmptyBody):
		return "empty_body"
	case errors.Is(err, ErrMissingFields):
		return "missing_fields"
	case errors.Is(err, ErrBodyTooLarge):
		return "body_too_large"
	case errors.Is(err, ErrUnreadable):
		return "unreadable_body"
	default:
		return "unknown"
	}
}

func statusFor(err error) int {
	if errors.Is(err, ErrBodyTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// WriteText writes a plain-text error message.
func WriteText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}
