package bankapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized is returned for 401/403 responses.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoToken is returned when a call is attempted without a bearer token.
	ErrNoToken = errors.New("missing bearer token")
)

// APIError is a non-2xx response from the banking API. Body is the response
// payload as the server sent it.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("bank api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("bank api: %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// Message returns the payload to show the user. A JSON string payload is
// unquoted; anything else is returned unchanged.
func (e *APIError) Message() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return http.StatusText(e.StatusCode)
	}
	var s string
	if strings.HasPrefix(body, `"`) && json.Unmarshal([]byte(body), &s) == nil {
		return s
	}
	return body
}

// Message extracts the user-facing text from err: the server payload for an
// APIError, the error text otherwise.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	if errors.Is(err, ErrNoToken) {
		return "Unauthorized"
	}
	return err.Error()
}
