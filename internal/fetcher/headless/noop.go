package headless

import (
	"context"
	"errors"

	"github.com/JakeFAU/careers-crawler/internal/crawler"
)

// ErrUnavailable is returned by Noop.
var ErrUnavailable = errors.New("headless browser unavailable")

// Noop stands in when no browser could be started; every Fetch fails.
type Noop struct{}

// NewNoop creates a new Noop fetcher.
func NewNoop() *Noop {
	return &Noop{}
}

// Fetch always fails with ErrUnavailable.
func (Noop) Fetch(_ context.Context, request crawler.FetchRequest) (crawler.FetchResponse, error) {
	return crawler.FetchResponse{}, &crawler.FetchError{URL: request.URL, Cause: ErrUnavailable}
}
