package translate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/careers-crawler/internal/crawler"
	"github.com/JakeFAU/careers-crawler/internal/metrics"
)

// Instrumented records metrics around a translator. Failures are returned
// wrapped in crawler.ErrTranslation so callers can fall back without caching
// the failed result.
type Instrumented struct {
	inner  crawler.Translator
	logger *zap.Logger
}

// NewInstrumented wraps inner.
func NewInstrumented(inner crawler.Translator, logger *zap.Logger) *Instrumented {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Instrumented{inner: inner, logger: logger}
}

// Translate implements crawler.Translator.
func (t *Instrumented) Translate(ctx context.Context, words []string, source, target string) ([]string, error) {
	out, err := t.inner.Translate(ctx, words, source, target)
	if err == nil && len(out) != len(words) {
		err = fmt.Errorf("got %d translations for %d words", len(out), len(words))
	}
	if err != nil {
		metrics.ObserveTranslation(target, "error")
		t.logger.Debug("translation failed",
			zap.String("source", source),
			zap.String("target", target),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", crawler.ErrTranslation, err)
	}
	metrics.ObserveTranslation(target, "ok")
	return out, nil
}
