package transifex

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// State is the observed state of an asynchronous job.
type State int

const (
	// Pending means the job has not reached a terminal state yet.
	Pending State = iota
	// Succeeded is terminal; Outcome.Value holds the result.
	Succeeded
	// Failed is terminal; Outcome.Errors holds what the service reported.
	Failed
)

func (s State) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "pending"
}

// stateOf maps a job status attribute to a State. Anything that is not
// terminal counts as pending.
func stateOf(status string) State {
	switch status {
	case "succeeded":
		return Succeeded
	case "failed":
		return Failed
	}
	return Pending
}

// Outcome is the result of one observation of a job.
type Outcome[T any] struct {
	State  State
	Value  T
	Errors []ErrorObject
}

// Poller bounds a polling loop.
type Poller struct {
	Interval    time.Duration
	MaxAttempts int
}

// Default attempt budgets, one observation per second.
var (
	UploadPoller   = Poller{Interval: time.Second, MaxAttempts: 60}
	DownloadPoller = Poller{Interval: time.Second, MaxAttempts: 90}
)

// Poll calls fetch until it reports a terminal state. Succeeded returns
// the value, Failed returns a *JobError. If MaxAttempts observations
// stay pending, Poll returns a *TimeoutError. Errors from fetch and
// context cancellation are returned as is.
func Poll[T any](ctx context.Context, p Poller, kind JobKind, id string, fetch func(context.Context) (Outcome[T], error)) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for i := 1; i <= attempts; i++ {
		out, err := fetch(ctx)
		if err != nil {
			return zero, err
		}
		switch out.State {
		case Succeeded:
			return out.Value, nil
		case Failed:
			return zero, &JobError{Kind: kind, ID: id, Errors: out.Errors}
		}
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(p.Interval):
		}
	}
	return zero, &TimeoutError{Kind: kind, ID: id, Attempts: attempts}
}

type statusDocument struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Status string        `json:"status"`
			Errors []ErrorObject `json:"errors"`
		} `json:"attributes"`
	} `json:"data"`
}

// ClassifyDownload interprets one response of the download job endpoint.
// The endpoint answers with a JSON:API status document while the job is
// running and with the translated file once it is done. A status
// document is recognised by its content type or by a body starting with
// "{"; a failed status yields Failed, any other status Pending. Every
// other body is the final content.
func ClassifyDownload(contentType string, body []byte) (Outcome[string], error) {
	isStatus := strings.Contains(strings.ToLower(contentType), MediaType) ||
		strings.HasPrefix(strings.TrimLeftFunc(string(body), unicode.IsSpace), "{")
	if !isStatus {
		return Outcome[string]{State: Succeeded, Value: string(body)}, nil
	}

	var doc statusDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return Outcome[string]{}, fmt.Errorf("decoding download status: %w", err)
	}
	if stateOf(doc.Data.Attributes.Status) == Failed {
		return Outcome[string]{State: Failed, Errors: doc.Data.Attributes.Errors}, nil
	}
	return Outcome[string]{State: Pending}, nil
}
