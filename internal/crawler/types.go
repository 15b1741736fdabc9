package crawler

import (
	"net/http"
	"time"
)

// SiteState is the per-site lifecycle position inside a run.
type SiteState string

// Site states in processing order. SiteFailed is terminal and reachable from any step.
const (
	SitePending         SiteState = "pending"
	SiteLinksDiscovered SiteState = "links_discovered"
	SitePagesScanned    SiteState = "pages_scanned"
	SiteEmailsExtracted SiteState = "emails_extracted"
	SitePersisted       SiteState = "persisted"
	SiteFailed          SiteState = "failed"
)

// Terminal reports whether no further transitions happen from s.
func (s SiteState) Terminal() bool {
	return s == SitePersisted || s == SiteFailed
}

// Sentinel cell values written to the tabular store.
const (
	NoURLSentinel       = "нет URL"
	NoEmailSentinel     = "нет email"
	NoPositionsSentinel = "No relevant positions found"
	ParseErrorSentinel  = "Error parsing page"
)

// LanguageUnknown is returned when no language could be determined.
const (
	LanguageEnglish = "en"
	LanguageUnknown = "unknown"
)

// Store column layout, 1-based. Row 1 holds headers.
const (
	ColumnSite   = 1
	ColumnURLs   = 2
	ColumnEmails = 3
	ColumnTitles = 4
	HeaderRow    = 1
)

// SiteRecord accumulates everything discovered about one input site.
type SiteRecord struct {
	Row         int
	RawURL      string
	URL         string
	Language    string
	JobPageURLs []string
	JobTitles   []string
	Emails      []string
	// PagesScanned and PagesFailed count job pages that were fetched.
	PagesScanned int
	PagesFailed  int
	State        SiteState
	Err          error
}

// SiteTask is a queued unit of work: one input row.
type SiteTask struct {
	RunID   string
	Row     int
	RawURL  string
	Attempt int
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL         string
	UseHeadless bool
	Headers     http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL          string
	StatusCode   int
	Headers      http.Header
	Body         []byte
	Duration     time.Duration
	UsedHeadless bool
}
