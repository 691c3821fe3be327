package sentinel

import (
	"errors"
	"fmt"
)

// ErrNoException is returned by HandleException when it is called with no
// exception information. Go has no ambient currently-handled exception to
// fall back on, so capture must be explicit.
var ErrNoException = errors.New("handle_exception called without an exception to report")

// ValidationError reports that the service rejected the payload (HTTP 400).
// The caller can fix the report and resend; the client never retries on its
// own.
type ValidationError struct {
	// Body is the service's raw response body.
	Body string
}

func (e *ValidationError) Error() string {
	return e.Body
}

// TransportError reports a non-success HTTP status other than 400. It is not
// recovered by the client.
type TransportError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("unexpected response from service: %s", e.Status)
}
