package discovery

import (
	"net/url"
	"strings"

	"github.com/JakeFAU/careers-crawler/internal/crawler"
	"github.com/JakeFAU/careers-crawler/internal/page"
)

// Classifier extracts candidate job-page links from a parsed page.
type Classifier struct {
	match  MatchStrategy
	policy RootPolicy
}

// NewClassifier builds a Classifier. Nil or empty arguments select
// substring matching and the shortest-prefix root policy.
func NewClassifier(match MatchStrategy, policy RootPolicy) *Classifier {
	if match == nil {
		match = Substring{}
	}
	if policy == "" {
		policy = ShortestPrefix
	}
	return &Classifier{match: match, policy: policy}
}

// Classify returns absolute URLs of anchors whose lower-cased href contains
// any keyword, with subpaths of known bases suppressed.
func (c *Classifier) Classify(p *page.Page, keywords []string) []string {
	if p == nil || len(keywords) == 0 {
		return nil
	}
	set := NewLinkSet(c.policy)
	for _, href := range p.Anchors() {
		lowered := strings.ToLower(strings.TrimSpace(href))
		if lowered == "" || strings.HasPrefix(lowered, "mailto:") {
			continue
		}
		if !c.matchesAny(lowered, keywords) {
			continue
		}
		abs, ok := absolute(p.URL, href)
		if !ok {
			continue
		}
		set.Add(abs)
	}
	return set.URLs()
}

func (c *Classifier) matchesAny(href string, keywords []string) bool {
	for _, kw := range keywords {
		if c.match.Match(href, kw) {
			return true
		}
	}
	return false
}

// absolute resolves href against pageURL, dropping the fragment and any
// non-HTTP result such as javascript: or tel: links.
func absolute(pageURL, href string) (string, bool) {
	resolved, err := crawler.ResolveReference(pageURL, href)
	if err != nil {
		return "", false
	}
	u, err := url.Parse(resolved)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), true
}
