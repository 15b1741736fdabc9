package discovery

import (
	"fmt"
	"strings"

	"github.com/JakeFAU/careers-crawler/internal/crawler"
)

// RootPolicy selects which discovered URLs act as bases for subpath suppression.
type RootPolicy string

const (
	// ShortestPrefix treats every accepted URL as a base. A newly accepted
	// URL also evicts previously accepted URLs lying beneath it, so the
	// shortest prefix wins regardless of anchor order.
	ShortestPrefix RootPolicy = "shortest_prefix"
	// BareHost only treats URLs without path, query, or fragment as bases and
	// never evicts; earlier subpaths of a later base are kept.
	BareHost RootPolicy = "bare_host"
)

// ParseRootPolicy maps a config value to a RootPolicy.
func ParseRootPolicy(name string) (RootPolicy, error) {
	switch RootPolicy(strings.ToLower(name)) {
	case "", ShortestPrefix:
		return ShortestPrefix, nil
	case BareHost:
		return BareHost, nil
	default:
		return "", fmt.Errorf("unknown root policy %q", name)
	}
}

// LinkSet accumulates one site's job-page URLs, suppressing subpaths at insertion.
type LinkSet struct {
	policy RootPolicy
	urls   []string
	bases  []string
}

// NewLinkSet returns an empty set governed by policy.
func NewLinkSet(policy RootPolicy) *LinkSet {
	return &LinkSet{policy: policy}
}

// Add inserts u unless it duplicates or sits beneath a known base. It reports
// whether u was inserted.
func (s *LinkSet) Add(u string) bool {
	key := strings.TrimSuffix(u, "/")
	for _, existing := range s.urls {
		if strings.TrimSuffix(existing, "/") == key {
			return false
		}
	}
	for _, base := range s.bases {
		if isSubpath(key, base) {
			return false
		}
	}

	switch s.policy {
	case BareHost:
		if crawler.IsBareHost(u) {
			s.bases = append(s.bases, key)
		}
	default:
		s.evictBeneath(key)
		s.bases = append(s.bases, key)
	}
	s.urls = append(s.urls, u)
	return true
}

func (s *LinkSet) evictBeneath(key string) {
	kept := s.urls[:0]
	for _, existing := range s.urls {
		if !isSubpath(strings.TrimSuffix(existing, "/"), key) {
			kept = append(kept, existing)
		}
	}
	s.urls = kept

	bases := s.bases[:0]
	for _, base := range s.bases {
		if !isSubpath(base, key) {
			bases = append(bases, base)
		}
	}
	s.bases = bases
}

// URLs returns accepted URLs in insertion order.
func (s *LinkSet) URLs() []string {
	return append([]string(nil), s.urls...)
}

// Len returns the number of accepted URLs.
func (s *LinkSet) Len() int {
	return len(s.urls)
}

func isSubpath(candidate, base string) bool {
	return strings.HasPrefix(candidate, base+"/")
}
