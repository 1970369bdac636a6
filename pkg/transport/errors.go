package transport

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Transport errors.
var (
	ErrClosed            = errors.New("event source closed")
	ErrAlreadySubscribed = errors.New("event source already subscribed")
	ErrNotEventStream    = errors.New("response is not an event stream")
	ErrStreamEnded       = errors.New("event stream ended")
)

// maxErrorBody caps how much of an error response body is kept.
const maxErrorBody = 512

// StatusError is returned when a server answers with a non-success status.
type StatusError struct {
	// Code is the HTTP status code.
	Code int

	// Method and URL identify the request.
	Method string
	URL    string

	// Body holds the start of the response body.
	Body string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Code, http.StatusText(e.Code))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// NewStatusError reads the start of resp.Body into a StatusError. The
// caller still owns and must close the body.
func NewStatusError(resp *http.Response) *StatusError {
	e := &StatusError{Code: resp.StatusCode}
	if resp.Request != nil {
		e.Method = resp.Request.Method
		if resp.Request.URL != nil {
			e.URL = resp.Request.URL.String()
		}
	}
	if resp.Body != nil {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		e.Body = strings.TrimSpace(string(b))
	}
	return e
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
