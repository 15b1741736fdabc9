// Package worker runs one site through the crawl pipeline:
// landing fetch, link discovery, job page scan, email extraction, persistence.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/careers-crawler/internal/crawler"
	"github.com/JakeFAU/careers-crawler/internal/discovery"
	"github.com/JakeFAU/careers-crawler/internal/emails"
	"github.com/JakeFAU/careers-crawler/internal/jobscan"
	"github.com/JakeFAU/careers-crawler/internal/metrics"
	"github.com/JakeFAU/careers-crawler/internal/page"
	"github.com/JakeFAU/careers-crawler/internal/publisher"
	"github.com/JakeFAU/careers-crawler/internal/results"
	"github.com/JakeFAU/careers-crawler/internal/storage"
)

// Config controls Worker behavior.
type Config struct {
	// PageConcurrency bounds parallel job page scans within one site.
	PageConcurrency int
	// FetchAttempts is the total number of landing page tries.
	FetchAttempts int
	// Topic receives one event per finished site when a publisher is set.
	Topic string
}

// Pipeline holds the collaborators a Worker drives. Archiver, Publisher,
// Pacer and Report are optional.
type Pipeline struct {
	Fetcher   crawler.Fetcher
	Resolver  *discovery.Resolver
	Scanner   *jobscan.Scanner
	Writer    *results.Writer
	Archiver  *storage.Archiver
	Publisher crawler.Publisher
	Pacer     crawler.Pacer
	// Report is called once per dequeued task with the final record.
	Report func(crawler.SiteRecord)
}

// Worker consumes site tasks and executes the pipeline for each.
type Worker struct {
	queue  crawler.Queue
	p      Pipeline
	retry  *crawler.ExponentialRetryPolicy
	cfg    Config
	logger *zap.Logger
}

// New constructs a Worker.
func New(queue crawler.Queue, p Pipeline, cfg Config, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PageConcurrency <= 0 {
		cfg.PageConcurrency = 1
	}
	if cfg.FetchAttempts <= 0 {
		cfg.FetchAttempts = 1
	}
	if p.Pacer == nil {
		p.Pacer = crawler.NoPacer{}
	}
	return &Worker{
		queue:  queue,
		p:      p,
		retry:  crawler.NewExponentialRetryPolicy(cfg.FetchAttempts, crawler.IsTransientFetchError),
		cfg:    cfg,
		logger: logger,
	}
}

// Run consumes tasks until the queue is closed and drained or ctx ends.
func (w *Worker) Run(ctx context.Context) {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	for {
		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, crawler.ErrQueueClosed) {
				return
			}
			w.logger.Error("queue dequeue failed", zap.Error(err))
			continue
		}
		rec := w.Process(ctx, task)
		if w.p.Report != nil {
			w.p.Report(rec)
		}
	}
}

// Process runs one site to a terminal state. Failures before persistence
// leave the row untouched.
func (w *Worker) Process(ctx context.Context, task crawler.SiteTask) crawler.SiteRecord {
	rec := crawler.SiteRecord{Row: task.Row, RawURL: task.RawURL, State: crawler.SitePending}
	log := w.logger.With(zap.Int("row", task.Row), zap.String("site", task.RawURL))
	start := time.Now()

	landing, body, err := w.discover(ctx, &rec, log)
	if err != nil {
		return w.fail(ctx, task, rec, err, log)
	}

	w.scan(ctx, &rec, log)
	if ctx.Err() != nil {
		return w.fail(ctx, task, rec, ctx.Err(), log)
	}
	rec.State = crawler.SitePagesScanned

	rec.Emails = emails.Extract(landing.Markup())
	rec.State = crawler.SiteEmailsExtracted

	if err := w.p.Writer.Write(ctx, rec); err != nil {
		// Cells that failed keep their previous value.
		rec.Err = err
		log.Warn("site persisted with cell errors", zap.Error(err))
	}
	rec.State = crawler.SitePersisted
	metrics.ObserveSite(string(rec.State))

	uri := w.archive(ctx, task.RunID, task.Row, rec.URL, body, log)
	w.publish(ctx, task.RunID, &rec, uri, log)

	log.Info("site processed",
		zap.String("state", string(rec.State)),
		zap.String("lang", rec.Language),
		zap.Int("job_pages", len(rec.JobPageURLs)),
		zap.Int("titles", len(rec.JobTitles)),
		zap.Int("emails", len(rec.Emails)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rec
}

// discover normalizes the site URL, fetches the landing page and resolves
// candidate job pages.
func (w *Worker) discover(ctx context.Context, rec *crawler.SiteRecord, log *zap.Logger) (*page.Page, []byte, error) {
	site, err := crawler.NormalizeSiteURL(rec.RawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("normalize site url: %w", err)
	}
	rec.URL = site

	var (
		landing *page.Page
		resp    crawler.FetchResponse
	)
	err = w.retry.Do(ctx, func(ctx context.Context) error {
		w.p.Pacer.Pause(ctx)
		var fetchErr error
		landing, resp, fetchErr = page.Fetch(ctx, w.p.Fetcher, site)
		if fetchErr != nil {
			metrics.ObserveFetch(site, crawler.CategorizeFetchError(fetchErr), len(resp.Body))
			log.Debug("landing fetch attempt failed", zap.Error(fetchErr))
			return fetchErr
		}
		metrics.ObserveFetch(site, "ok", len(resp.Body))
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	res := w.p.Resolver.Resolve(ctx, landing)
	rec.JobPageURLs = res.URLs
	rec.Language = res.Language
	if rec.Language == "" {
		rec.Language = w.p.Resolver.DetectLanguage(landing)
	}
	rec.State = crawler.SiteLinksDiscovered
	log.Debug("links discovered",
		zap.String("url", site),
		zap.String("lang", rec.Language),
		zap.Bool("translated", res.Translated),
		zap.Strings("job_pages", res.URLs),
	)
	return landing, resp.Body, nil
}

// scan fetches every job page and unions the matched titles. Page
// failures only affect that page.
func (w *Worker) scan(ctx context.Context, rec *crawler.SiteRecord, log *zap.Logger) {
	if len(rec.JobPageURLs) == 0 {
		return
	}
	scanned := make([]jobscan.Result, len(rec.JobPageURLs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.PageConcurrency)
	for i, u := range rec.JobPageURLs {
		g.Go(func() error {
			w.p.Pacer.Pause(gctx)
			scanned[i] = w.p.Scanner.ScanURL(gctx, u)
			return nil
		})
	}
	_ = g.Wait()

	titles := make(map[string]struct{})
	for _, r := range scanned {
		rec.PagesScanned++
		if r.Status == jobscan.StatusError {
			rec.PagesFailed++
			log.Warn("job page unreadable", zap.String("url", r.URL), zap.Error(r.Err))
			continue
		}
		for _, t := range r.Titles {
			titles[t] = struct{}{}
		}
	}
	rec.JobTitles = make([]string, 0, len(titles))
	for t := range titles {
		rec.JobTitles = append(rec.JobTitles, t)
	}
	sort.Strings(rec.JobTitles)
}

func (w *Worker) fail(ctx context.Context, task crawler.SiteTask, rec crawler.SiteRecord, err error, log *zap.Logger) crawler.SiteRecord {
	prev := rec.State
	rec.State = crawler.SiteFailed
	rec.Err = err
	metrics.ObserveSite(string(rec.State))
	log.Warn("site failed",
		zap.String("url", rec.URL),
		zap.String("after", string(prev)),
		zap.String("category", crawler.CategorizeFetchError(err)),
		zap.Error(err),
	)
	w.publish(ctx, task.RunID, &rec, "", log)
	return rec
}

func (w *Worker) archive(ctx context.Context, runID string, row int, site string, body []byte, log *zap.Logger) string {
	if w.p.Archiver == nil {
		return ""
	}
	uri, err := w.p.Archiver.Save(ctx, runID, row, site, body)
	if err != nil {
		log.Warn("landing archive failed", zap.Error(err))
		return ""
	}
	return uri
}

func (w *Worker) publish(ctx context.Context, runID string, rec *crawler.SiteRecord, uri string, log *zap.Logger) {
	if w.p.Publisher == nil || w.cfg.Topic == "" {
		return
	}
	// A canceled run still reports what it finished.
	ctx = context.WithoutCancel(ctx)
	ev := publisher.NewSiteEvent(runID, rec, uri, time.Now())
	if _, err := w.p.Publisher.Publish(ctx, w.cfg.Topic, ev); err != nil {
		log.Warn("site event publish failed", zap.String("topic", w.cfg.Topic), zap.Error(err))
	}
}
