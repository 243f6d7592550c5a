package ai

import (
	"errors"
	"fmt"
)

// ErrMissingCredential is the AuthError cause when no API key resolved.
var ErrMissingCredential = errors.New("API key is missing")

// AuthError indicates the credential is absent or was rejected (401/403).
// The chat feature is unusable until a valid credential resolves; nothing
// else is affected.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("authentication failed: %v", e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// ServiceError indicates a transport or API failure while talking to the
// completion collaborator. The current query is aborted; the caller never
// retries automatically.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string { return fmt.Sprintf("completion service: %v", e.Err) }
func (e *ServiceError) Unwrap() error { return e.Err }

// APIError is a structured non-2xx response from the provider.
type APIError struct {
	StatusCode int            `json:"-"`
	Code       string         `json:"code,omitempty"`
	Message    string         `json:"message,omitempty"`
	Raw        map[string]any `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		if e.Code != "" {
			return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
		}
		return fmt.Sprintf("api error: status=%d message=%s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error: status=%d", e.StatusCode)
}
