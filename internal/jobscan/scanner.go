// Package jobscan looks for job-title keywords on candidate job pages.
package jobscan

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/JakeFAU/careers-crawler/internal/crawler"
	"github.com/JakeFAU/careers-crawler/internal/discovery"
	"github.com/JakeFAU/careers-crawler/internal/keywords"
	"github.com/JakeFAU/careers-crawler/internal/metrics"
	"github.com/JakeFAU/careers-crawler/internal/page"
)

// Status separates "checked, nothing found" from "could not check".
type Status string

// Scan outcomes.
const (
	StatusFound     Status = "found"
	StatusNoneFound Status = "none_found"
	StatusError     Status = "error"
)

// Result is the outcome of scanning one job page.
type Result struct {
	URL      string
	Language string
	// Titles holds English canonical titles, sorted.
	Titles []string
	Status Status
	Err    error
}

// Sentinel returns the cell marker for results without titles.
func (r Result) Sentinel() string {
	switch r.Status {
	case StatusError:
		return crawler.ParseErrorSentinel
	case StatusNoneFound:
		return crawler.NoPositionsSentinel
	default:
		return ""
	}
}

// Scanner matches job titles against page text in English and in the
// page's own language.
type Scanner struct {
	fetcher  crawler.Fetcher
	titles   *keywords.Set
	detector crawler.LanguageDetector
	match    discovery.MatchStrategy
	logger   *zap.Logger
}

// NewScanner wires a Scanner. A nil match strategy means substring matching.
func NewScanner(fetcher crawler.Fetcher, titles *keywords.Set, detector crawler.LanguageDetector, match discovery.MatchStrategy, logger *zap.Logger) *Scanner {
	if match == nil {
		match = discovery.Substring{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{fetcher: fetcher, titles: titles, detector: detector, match: match, logger: logger}
}

// ScanURL fetches and scans one job page. Fetch and parse failures yield StatusError.
func (s *Scanner) ScanURL(ctx context.Context, rawURL string) Result {
	p, resp, err := page.Fetch(ctx, s.fetcher, rawURL)
	if err != nil {
		metrics.ObserveFetch(rawURL, crawler.CategorizeFetchError(err), len(resp.Body))
		s.logger.Warn("job page fetch failed",
			zap.String("url", rawURL),
			zap.String("category", crawler.CategorizeFetchError(err)),
			zap.Error(err),
		)
		return Result{URL: rawURL, Status: StatusError, Err: err}
	}
	metrics.ObserveFetch(rawURL, "ok", len(resp.Body))
	res := s.Scan(ctx, p)
	res.URL = rawURL
	return res
}

// Scan matches titles against an already parsed page.
func (s *Scanner) Scan(ctx context.Context, p *page.Page) Result {
	lang := crawler.LanguageUnknown
	if s.detector != nil {
		if detected, err := s.detector.Detect(p.DeclaredLanguage(), p.VisibleText()); err == nil && detected != "" {
			lang = detected
		}
	}

	text := p.Text()
	found := make(map[string]struct{})
	for _, v := range s.titles.Variants(ctx, lang) {
		if _, dup := found[v.Canonical]; dup {
			continue
		}
		if s.match.Match(text, v.Term) {
			found[v.Canonical] = struct{}{}
		}
	}

	res := Result{URL: p.URL, Language: lang, Status: StatusNoneFound}
	if len(found) == 0 {
		return res
	}
	res.Status = StatusFound
	res.Titles = make([]string, 0, len(found))
	for title := range found {
		res.Titles = append(res.Titles, title)
	}
	sort.Strings(res.Titles)
	return res
}
