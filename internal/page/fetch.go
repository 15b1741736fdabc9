package page

import (
	"context"
	"fmt"

	"github.com/JakeFAU/careers-crawler/internal/crawler"
)

// Fetch retrieves rawURL through fetcher and parses the body. Responses with
// a status of 400 or above are returned as *crawler.FetchError.
func Fetch(ctx context.Context, fetcher crawler.Fetcher, rawURL string) (*Page, crawler.FetchResponse, error) {
	resp, err := fetcher.Fetch(ctx, crawler.FetchRequest{URL: rawURL})
	if err != nil {
		return nil, resp, &crawler.FetchError{URL: rawURL, Cause: err}
	}
	if resp.StatusCode >= 400 {
		return nil, resp, &crawler.FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	finalURL := resp.URL
	if finalURL == "" {
		finalURL = rawURL
	}
	p, err := Parse(finalURL, resp.Body)
	if err != nil {
		return nil, resp, fmt.Errorf("%w: %w", crawler.ErrParse, err)
	}
	return p, resp, nil
}
