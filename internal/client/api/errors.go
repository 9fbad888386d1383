package api

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is the uniform shape of a non-2xx resource response. The payload
// is kept verbatim so callers can extract a user-facing message from it.
type HTTPError struct {
	Status  int
	Payload []byte
}

func (e *HTTPError) Error() string {
	if len(e.Payload) == 0 {
		return fmt.Sprintf("http error: status %d", e.Status)
	}
	return fmt.Sprintf("http error: status %d: %s", e.Status, e.Payload)
}

// IsNotFound reports whether err is an HTTPError with status 404.
func IsNotFound(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Status == http.StatusNotFound
}
