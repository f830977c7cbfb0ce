package wikimedia

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// StatusError is returned when the API responds with a non-2xx status.
type StatusError struct {
	StatusCode int
	URL        string
}

// Error returns the message of the error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("Request failed with status code %d", e.StatusCode)
}

// IsNotFound reports whether err is caused by a 404 response.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Message returns the message to show to the user for the given error.
// Wrapping context is dropped. Transport errors keep the operation and
// URL of the request, anything else is reduced to the underlying cause.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var se *StatusError
	if errors.As(err, &se) {
		return se.Error()
	}

	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Error()
	}

	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
