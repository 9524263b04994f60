package domain

import (
	"context"
	"time"
)

// Page is the result of reducing a web page to plain text.
type Page struct {
	Title string
	Text  string
}

// Extractor fetches a URL and reduces it to visible text. A single
// attempt with a bounded timeout; failures surface as *FetchError.
type Extractor interface {
	Extract(ctx context.Context, url string) (Page, error)
}

// Summary is a short headline plus a one-paragraph body produced by the
// completion API.
type Summary struct {
	Headline string
	Body     string
}

// Summarizer turns a block of text into a Summary. Article is the
// long-form variant used by the /a command. Failures surface as
// *SummarizerError and callers are expected to degrade to an untitled
// pass-through save.
type Summarizer interface {
	Summarize(ctx context.Context, text string, scraped bool) (Summary, error)
	Article(ctx context.Context, text string, scraped bool) (Summary, error)
}

// EnrichmentResult is what one enrichment path hands to the note sink.
// Title may be empty (the sink falls back to a timestamp title).
type EnrichmentResult struct {
	Title     string
	Body      string
	SourceURL string
}

// NoteSink submits a formatted note to the external inbox service.
// Failures surface as *SinkError and are terminal for that message.
type NoteSink interface {
	Submit(ctx context.Context, title, content string) error
}

// AuditRecord is the durable trace of one inbound message. Field names
// are a stable on-disk contract; do not rename the JSON tags.
type AuditRecord struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	ChatID    int64     `json:"chat_id"`
	MessageID int       `json:"message_id"`
	Text      string    `json:"text"`
}

// AuditLog appends one record per inbound message. Append is
// best-effort from the pipeline's perspective: the dispatcher reports
// failures but never fails a message over them.
type AuditLog interface {
	Append(rec AuditRecord) error
}

// ArchiveEntry is one processed message as recorded in the archive
// store, used for the /stats counters.
type ArchiveEntry struct {
	UserID    int64
	Username  string
	ChatID    int64
	MessageID int
	Path      string // short | long | url | article | command
	Outcome   string // saved | failed | denied | empty
	Title     string
	CreatedAt time.Time
}

type ArchiveCounts struct {
	Total  int64
	Saved  int64
	Failed int64
	Denied int64
}

// Archive persists processed-message rows. Optional: a nil Archive
// disables recording and /stats counters.
type Archive interface {
	Record(ctx context.Context, e ArchiveEntry) error
	Counts(ctx context.Context) (ArchiveCounts, error)
}
