package scraper

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// TransportError is a non-2xx answer from the site or its CDN
type TransportError struct {
	Method string
	URL    string
	Status int
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: server returned %d %s", e.Method, e.URL, e.Status, http.StatusText(e.Status))
}

// DecodeError is a body that does not have the expected JSON or HTML shape
type DecodeError struct {
	What string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s: %v", e.What, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NotFoundError means the site has nothing for the request: no search
// match, no seasons.
type NotFoundError struct {
	What string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.What, e.Name)
}

// IsNotFound reports whether err carries a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsTransport reports whether err carries a TransportError
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsDecode reports whether err carries a DecodeError
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
