// Package auto fetches over plain HTTP and re-renders in a browser when the
// response looks like a client-side application shell.
package auto

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/careers-crawler/internal/crawler"
)

// Fetcher probes with one fetcher and promotes to another.
type Fetcher struct {
	probe    crawler.Fetcher
	headless crawler.Fetcher
	detector crawler.HeadlessDetector
	logger   *zap.Logger
}

// New wires an auto-promoting fetcher.
func New(probe, headless crawler.Fetcher, detector crawler.HeadlessDetector, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{probe: probe, headless: headless, detector: detector, logger: logger}
}

// Fetch implements crawler.Fetcher. A failed promotion falls back to the probe response.
func (f *Fetcher) Fetch(ctx context.Context, request crawler.FetchRequest) (crawler.FetchResponse, error) {
	if request.UseHeadless {
		return f.headless.Fetch(ctx, request)
	}
	probe, err := f.probe.Fetch(ctx, request)
	if err != nil {
		return probe, err
	}
	if !f.detector.ShouldPromote(probe) {
		return probe, nil
	}

	rendered, err := f.headless.Fetch(ctx, request)
	if err != nil {
		f.logger.Warn("headless promotion failed, using probe response",
			zap.String("url", request.URL),
			zap.Error(err),
		)
		return probe, nil
	}
	f.logger.Debug("promoted to headless", zap.String("url", request.URL))
	return rendered, nil
}
