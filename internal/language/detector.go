// Package language guesses the language of a fetched page.
package language

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
	"go.uber.org/zap"

	"github.com/JakeFAU/careers-crawler/internal/crawler"
)

// minSampleRunes is the shortest text statistical detection is attempted on.
const minSampleRunes = 20

// Detector prefers the declared lang attribute and falls back to trigram detection.
type Detector struct {
	minConfidence float64
}

// NewDetector builds a Detector. Statistical results below minConfidence are rejected.
func NewDetector(minConfidence float64) *Detector {
	return &Detector{minConfidence: minConfidence}
}

// Detect implements crawler.LanguageDetector.
func (d *Detector) Detect(declared, text string) (string, error) {
	if lang := normalizeCode(declared); lang != "" {
		return lang, nil
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minSampleRunes {
		return crawler.LanguageUnknown, fmt.Errorf("%w: sample too short", crawler.ErrDetection)
	}
	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if code == "" {
		return crawler.LanguageUnknown, fmt.Errorf("%w: no iso code for %s", crawler.ErrDetection, info.Lang.String())
	}
	if info.Confidence < d.minConfidence {
		return crawler.LanguageUnknown, fmt.Errorf("%w: low confidence %.2f for %s", crawler.ErrDetection, info.Confidence, code)
	}
	return code, nil
}

func normalizeCode(declared string) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexAny(declared, "-_"); i >= 0 {
		declared = declared[:i]
	}
	if len(declared) < 2 || len(declared) > 3 {
		return ""
	}
	return declared
}

// BestEffort wraps a detector so that failures resolve to a fixed fallback code.
type BestEffort struct {
	inner    crawler.LanguageDetector
	fallback string
	logger   *zap.Logger
}

// NewBestEffort wraps inner. An empty fallback means crawler.LanguageUnknown.
func NewBestEffort(inner crawler.LanguageDetector, fallback string, logger *zap.Logger) *BestEffort {
	if fallback == "" {
		fallback = crawler.LanguageUnknown
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BestEffort{inner: inner, fallback: fallback, logger: logger}
}

// Detect never returns an error.
func (b *BestEffort) Detect(declared, text string) (string, error) {
	lang, err := b.inner.Detect(declared, text)
	if err != nil || lang == "" {
		b.logger.Debug("language detection fell back", zap.String("fallback", b.fallback), zap.Error(err))
		return b.fallback, nil
	}
	return lang, nil
}
