package crawler

import (
	"context"
)

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// HeadlessDetector decides whether a headless fetch is warranted.
type HeadlessDetector interface {
	ShouldPromote(probe FetchResponse) bool
}

// LanguageDetector guesses an ISO 639-1 code for a page. The declared
// language is the document's lang attribute and may be empty.
type LanguageDetector interface {
	Detect(declared, text string) (string, error)
}

// Translator converts words between English and a target language. Results
// are index-aligned with the input.
type Translator interface {
	Translate(ctx context.Context, words []string, source, target string) ([]string, error)
}

// TabularStore is a row/column grid addressed with 1-based indices.
type TabularStore interface {
	Open(ctx context.Context) error
	Close() error
	ColValues(ctx context.Context, col int) ([]string, error)
	RowValues(ctx context.Context, row int) ([]string, error)
	Cell(ctx context.Context, row, col int) (string, error)
	UpdateCell(ctx context.Context, row, col int, value string) error
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes per-site result events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Queue provides enqueue/dequeue semantics for site tasks.
type Queue interface {
	Enqueue(ctx context.Context, task SiteTask) error
	Dequeue(ctx context.Context) (SiteTask, error)
}

// Pacer waits between consecutive fetches made by one worker.
type Pacer interface {
	Pause(ctx context.Context)
}
