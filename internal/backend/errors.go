package backend

import (
	"errors"
	"fmt"
)

// ErrTransport marks failures to reach the backend at all (dial, TLS, reset, timeout).
var ErrTransport = errors.New("backend unreachable")

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Op         string // e.g. "add camera"
	StatusCode int
	Body       string // truncated response body, for logs
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: backend status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: backend status %d: %s", e.Op, e.StatusCode, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
