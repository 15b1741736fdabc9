// Package keywords holds the canonical English keyword lists and their
// per-run translations.
package keywords

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/JakeFAU/careers-crawler/internal/crawler"
)

// DefaultCareerKeywords are matched against lower-cased anchor hrefs.
var DefaultCareerKeywords = []string{
	"job", "career", "careers", "jobs", "hiring", "employment", "join us",
	"work with us", "vacancies", "karriere", "working at", "vacancy", "job openings",
}

// DefaultJobTitles are searched for in job-page text.
var DefaultJobTitles = []string{
	"Software Developer", "Data Engineer", "Software Architect", "Designer",
	"Data Scientist", "IT Manager", "DevOps",
}

// Variant is a searchable term and the English keyword it stands for.
type Variant struct {
	Term      string
	Canonical string
}

// Set is an immutable English keyword list with a lazily filled translation
// cache. Failed translations are not cached so a later site may retry.
type Set struct {
	english    []string
	translator crawler.Translator
	logger     *zap.Logger

	mu    sync.RWMutex
	cache map[string][]string
	group singleflight.Group
}

// NewSet builds a Set. A nil translator disables translation.
func NewSet(english []string, translator crawler.Translator, logger *zap.Logger) *Set {
	if logger == nil {
		logger = zap.NewNop()
	}
	terms := make([]string, 0, len(english))
	for _, term := range english {
		if term = strings.TrimSpace(term); term != "" {
			terms = append(terms, term)
		}
	}
	return &Set{
		english:    terms,
		translator: translator,
		logger:     logger,
		cache:      make(map[string][]string),
	}
}

// English returns a copy of the canonical terms.
func (s *Set) English() []string {
	return append([]string(nil), s.english...)
}

// Reset drops every cached translation so the next run translates afresh.
func (s *Set) Reset() {
	s.mu.Lock()
	s.cache = make(map[string][]string)
	s.mu.Unlock()
}

// Localized returns the terms translated into lang, index-aligned with
// English. ok is false when the English terms were returned instead.
func (s *Set) Localized(ctx context.Context, lang string) (terms []string, ok bool) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" || lang == crawler.LanguageEnglish || lang == crawler.LanguageUnknown || s.translator == nil {
		return s.English(), false
	}

	s.mu.RLock()
	cached, hit := s.cache[lang]
	s.mu.RUnlock()
	if hit {
		return append([]string(nil), cached...), true
	}

	v, err, _ := s.group.Do(lang, func() (any, error) {
		return s.translate(ctx, lang)
	})
	if err != nil {
		s.logger.Warn("keyword translation failed, using english",
			zap.String("lang", lang),
			zap.Error(err),
		)
		return s.English(), false
	}
	return append([]string(nil), v.([]string)...), true
}

func (s *Set) translate(ctx context.Context, lang string) ([]string, error) {
	out, err := s.translator.Translate(ctx, s.english, crawler.LanguageEnglish, lang)
	if err != nil {
		return nil, err
	}
	if len(out) != len(s.english) {
		return nil, crawler.ErrTranslation
	}
	aligned := make([]string, len(out))
	for i, term := range out {
		term = strings.TrimSpace(term)
		if term == "" {
			term = s.english[i]
		}
		aligned[i] = term
	}
	s.mu.Lock()
	s.cache[lang] = aligned
	s.mu.Unlock()
	return aligned, nil
}

// Variants returns the English terms plus, for a non-English lang, every
// translated term that differs from its English source.
func (s *Set) Variants(ctx context.Context, lang string) []Variant {
	variants := make([]Variant, 0, 2*len(s.english))
	for _, term := range s.english {
		variants = append(variants, Variant{Term: term, Canonical: term})
	}
	localized, ok := s.Localized(ctx, lang)
	if !ok {
		return variants
	}
	for i, term := range localized {
		if strings.EqualFold(term, s.english[i]) {
			continue
		}
		variants = append(variants, Variant{Term: term, Canonical: s.english[i]})
	}
	return variants
}
