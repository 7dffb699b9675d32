package impect

import (
	"fmt"

	crerr "github.com/cockroachdb/errors"
)

// ErrNotAuthenticated is returned by data calls issued before a
// successful Authenticate.
var ErrNotAuthenticated = crerr.New("impect: client is not authenticated")

// errImpectTransient marks transport failures worth retrying:
// connection drops and body read errors. Non-2xx statuses carry their
// own retryability via UpstreamError.
var errImpectTransient = crerr.New("impect transient failure")

// AuthenticationError reports a rejected credential exchange. The body
// is truncated and redacted before it is stored.
type AuthenticationError struct {
	Status int
	Body   string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("impect authentication failed: status %d: %s", e.Status, e.Body)
}

// UpstreamError reports a non-2xx response from a data endpoint.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("impect api error: status %d: %s", e.Status, e.Body)
}

// ProtocolError reports a 2xx response whose body did not decode into
// the expected envelope.
type ProtocolError struct {
	Path string
	Err  error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("impect protocol error on %s: %v", e.Path, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}
