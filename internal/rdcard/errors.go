package rdcard

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ConfigurationErrorKind classifies a ConfigurationError.
type ConfigurationErrorKind string

const (
	KindMissingSignature ConfigurationErrorKind = "MissingSignature"
	KindInvalidConfig    ConfigurationErrorKind = "InvalidConfig"
)

// ConfigurationError is returned before any network call when the client
// cannot build a request from its configuration.
type ConfigurationError struct {
	Kind    ConfigurationErrorKind
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("rdcard: %s: %s", e.Kind, e.Message)
}

// Is matches any ConfigurationError of the same kind.
func (e *ConfigurationError) Is(target error) bool {
	t, ok := target.(*ConfigurationError)
	return ok && t.Kind == e.Kind
}

// ErrMissingSignature is returned when no signer is configured and the call
// carries no signature override.
var ErrMissingSignature = &ConfigurationError{
	Kind:    KindMissingSignature,
	Message: "no signer configured: set an API secret, a Signer, or pass WithSignature",
}

// APIError surfaces non-successful HTTP responses from the gateway.
type APIError struct {
	Message string
	Status  int
	Data    json.RawMessage
	Headers http.Header
}

func (e *APIError) Error() string {
	return fmt.Sprintf("rdcard api error: status=%d message=%s", e.Status, e.Message)
}

// TransportError reports a request that produced no HTTP response.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was caused by a deadline.
func (e *TransportError) Timeout() bool {
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func newAPIError(resp *http.Response, body []byte) *APIError {
	var envelope struct {
		Message string `json:"message"`
	}
	message := fmt.Sprintf("request failed with status code %d", resp.StatusCode)
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		message = envelope.Message
	}

	return &APIError{
		Message: message,
		Status:  resp.StatusCode,
		Data:    json.RawMessage(body),
		Headers: resp.Header.Clone(),
	}
}
