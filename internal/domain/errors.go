package domain

import (
	"errors"
	"fmt"
)

// ErrAccessDenied is returned by the dispatcher when the sender or chat
// is not on the configured allow-lists.
var ErrAccessDenied = errors.New("access denied")

// ErrEmptyContent is returned when a save command carries no content.
var ErrEmptyContent = errors.New("no content to save")

// FetchError reports a failed page fetch. Single attempt, no retries.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// SummarizerError reports a failed completion call (timeout, quota,
// malformed response).
type SummarizerError struct {
	Err error
}

func (e *SummarizerError) Error() string { return fmt.Sprintf("summarizer: %v", e.Err) }
func (e *SummarizerError) Unwrap() error { return e.Err }

// SinkError reports a rejected note submission, carrying the HTTP
// status of the inbox API response.
type SinkError struct {
	Status int
	Body   string
}

func (e *SinkError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("note sink: HTTP %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("note sink: HTTP %d", e.Status)
}
