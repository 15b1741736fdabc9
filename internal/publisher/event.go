// Package publisher defines the per-site result event emitted after a crawl.
// Transports live in the memory and pubsub subpackages.
package publisher

import (
	"time"

	"github.com/JakeFAU/careers-crawler/internal/crawler"
)

// SiteEvent summarizes one finished site.
type SiteEvent struct {
	RunID        string    `json:"run_id"`
	Row          int       `json:"row"`
	Site         string    `json:"site"`
	State        string    `json:"state"`
	Language     string    `json:"language,omitempty"`
	JobPageURLs  []string  `json:"job_page_urls"`
	JobTitles    []string  `json:"job_titles"`
	Emails       []string  `json:"emails"`
	PagesScanned int       `json:"pages_scanned"`
	PagesFailed  int       `json:"pages_failed"`
	ArchiveURI   string    `json:"archive_uri,omitempty"`
	Error        string    `json:"error,omitempty"`
	FinishedAt   time.Time `json:"finished_at"`
}

// NewSiteEvent builds an event from rec.
func NewSiteEvent(runID string, rec *crawler.SiteRecord, archiveURI string, finished time.Time) SiteEvent {
	site := rec.URL
	if site == "" {
		site = rec.RawURL
	}
	ev := SiteEvent{
		RunID:        runID,
		Row:          rec.Row,
		Site:         site,
		State:        string(rec.State),
		Language:     rec.Language,
		JobPageURLs:  nonNil(rec.JobPageURLs),
		JobTitles:    nonNil(rec.JobTitles),
		Emails:       nonNil(rec.Emails),
		PagesScanned: rec.PagesScanned,
		PagesFailed:  rec.PagesFailed,
		ArchiveURI:   archiveURI,
		FinishedAt:   finished.UTC(),
	}
	if rec.Err != nil {
		ev.Error = rec.Err.Error()
	}
	return ev
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
