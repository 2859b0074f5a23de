package transifex

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned (wrapped) when an organization, project or
// resource that a lookup requires does not exist.
var ErrNotFound = errors.New("not found")

// JobKind names the kind of asynchronous job being polled.
type JobKind string

const (
	JobUpload   JobKind = "upload"
	JobDownload JobKind = "download"
)

// ErrorObject is a JSON:API error descriptor as reported by the service.
type ErrorObject struct {
	Code   string `json:"code,omitempty"`
	Title  string `json:"title,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func (e ErrorObject) String() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{e.Code, e.Title, e.Detail} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ": ")
}

// JobError reports an asynchronous job that ended in the failed state.
type JobError struct {
	Kind   JobKind
	ID     string
	Errors []ErrorObject
}

func (e *JobError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("%s job %s failed", e.Kind, e.ID)
	}
	msgs := make([]string, len(e.Errors))
	for i, obj := range e.Errors {
		msgs[i] = obj.String()
	}
	return fmt.Sprintf("%s job %s failed: %s", e.Kind, e.ID, strings.Join(msgs, "; "))
}

// TimeoutError reports a job that did not reach a terminal state within
// its attempt budget. The service gave no verdict, so this is never a
// JobError.
type TimeoutError struct {
	Kind     JobKind
	ID       string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s job %s still pending after %d attempts", e.Kind, e.ID, e.Attempts)
}

// TransportError wraps a connection-level failure of a request.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is returned for a non-2xx HTTP response.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 500 {
		body = body[:500] + "..."
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, body)
}
