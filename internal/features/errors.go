package features

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedURL matches every *MalformedURLError via errors.Is.
	ErrMalformedURL = errors.New("malformed URL")

	// ErrUnsupportedScheme is wrapped when the scheme is neither http nor https.
	ErrUnsupportedScheme = errors.New("unsupported scheme: only http and https are allowed")
)

// maxQuotedURL bounds how much of the input is echoed back in error messages.
const maxQuotedURL = 200

// MalformedURLError is returned when a URL cannot be decomposed into
// scheme, host and path.
type MalformedURLError struct {
	// URL is the rejected input.
	URL string

	// Reason is a short description of what is wrong.
	Reason string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *MalformedURLError) Error() string {
	u := e.URL
	if len(u) > maxQuotedURL {
		u = u[:maxQuotedURL] + "..."
	}
	if e.Err != nil {
		return fmt.Sprintf("malformed URL %q: %s: %v", u, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed URL %q: %s", u, e.Reason)
}

// Unwrap returns the underlying cause.
func (e *MalformedURLError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrMalformedURL.
func (e *MalformedURLError) Is(target error) bool {
	return target == ErrMalformedURL
}
