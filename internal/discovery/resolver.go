package discovery

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/careers-crawler/internal/crawler"
	"github.com/JakeFAU/careers-crawler/internal/keywords"
	"github.com/JakeFAU/careers-crawler/internal/page"
)

// Resolution is the outcome of link discovery for one landing page.
type Resolution struct {
	URLs []string
	// Language is set only when the English pass found nothing.
	Language   string
	Translated bool
}

// Resolver runs the English keyword pass and, when it finds nothing on a
// non-English page, one translated pass.
type Resolver struct {
	classifier *Classifier
	keywords   *keywords.Set
	detector   crawler.LanguageDetector
	logger     *zap.Logger
}

// NewResolver wires a Resolver.
func NewResolver(classifier *Classifier, set *keywords.Set, detector crawler.LanguageDetector, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{classifier: classifier, keywords: set, detector: detector, logger: logger}
}

// Resolve returns candidate job-page URLs for the landing page p.
func (r *Resolver) Resolve(ctx context.Context, p *page.Page) Resolution {
	if urls := r.classifier.Classify(p, r.keywords.English()); len(urls) > 0 {
		return Resolution{URLs: urls}
	}

	lang := r.DetectLanguage(p)
	res := Resolution{Language: lang}
	if lang == crawler.LanguageEnglish || lang == crawler.LanguageUnknown {
		return res
	}

	translated, ok := r.keywords.Localized(ctx, lang)
	if !ok {
		// English terms already produced nothing.
		return res
	}
	res.Translated = true
	res.URLs = r.classifier.Classify(p, translated)
	r.logger.Debug("translated keyword pass",
		zap.String("url", p.URL),
		zap.String("lang", lang),
		zap.Int("found", len(res.URLs)),
	)
	return res
}

// DetectLanguage returns the page language, or crawler.LanguageUnknown.
func (r *Resolver) DetectLanguage(p *page.Page) string {
	return detect(r.detector, p)
}

func detect(detector crawler.LanguageDetector, p *page.Page) string {
	if detector == nil || p == nil {
		return crawler.LanguageUnknown
	}
	lang, err := detector.Detect(p.DeclaredLanguage(), p.VisibleText())
	if err != nil || lang == "" {
		return crawler.LanguageUnknown
	}
	return lang
}
