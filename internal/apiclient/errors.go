package apiclient

import (
	"errors"
	"fmt"
)

// Client-level error values.
var (
	// ErrSessionInvalid marks responses that must tear down the stored
	// session: 401/403 anywhere, or 404 on a user-identity lookup.
	ErrSessionInvalid = errors.New("session invalid")
	ErrInvalidConfig  = errors.New("invalid client config")
)

// APIError is a non-2xx backend response. Message carries the backend's
// own error text verbatim so screens can surface it inline.
type APIError struct {
	StatusCode     int
	Code           string
	Message        string
	sessionInvalid bool
}

// Error returns the formatted error message.
func (apiError *APIError) Error() string {
	if apiError.Code != "" {
		return fmt.Sprintf("backend %d %s: %s", apiError.StatusCode, apiError.Code, apiError.Message)
	}
	return fmt.Sprintf("backend %d: %s", apiError.StatusCode, apiError.Message)
}

// Is lets errors.Is(err, ErrSessionInvalid) match invalidating responses.
func (apiError *APIError) Is(target error) bool {
	return target == ErrSessionInvalid && apiError.sessionInvalid
}

// IsSessionInvalid reports whether err must clear the stored session.
func IsSessionInvalid(err error) bool {
	return errors.Is(err, ErrSessionInvalid)
}

// BusinessMessage extracts the backend's inline-displayable message from
// an error, if it was a backend business rejection.
func BusinessMessage(err error) (string, bool) {
	var apiError *APIError
	if errors.As(err, &apiError) && apiError.Message != "" {
		return apiError.Message, true
	}
	return "", false
}
