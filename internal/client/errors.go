package client

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("not authenticated")
	ErrForbidden    = errors.New("permission denied")
)

// forbiddenError carries the server's reason for a 403.
type forbiddenError struct{ reason string }

func (e *forbiddenError) Error() string { return ErrForbidden.Error() + ": " + e.reason }

func (e *forbiddenError) Unwrap() error { return ErrForbidden }

// APIError is returned for any non-2xx response other than 401 and 403.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// Message returns the text a user should see for err.
func Message(err error, fallback string) string {
	var (
		apiErr    *APIError
		forbidden *forbiddenError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	case errors.As(err, &forbidden):
		return forbidden.reason
	case errors.Is(err, ErrUnauthorized):
		return "Please log in again"
	case errors.Is(err, ErrForbidden):
		return "You do not have permission to do that"
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
