// Package app builds every long-lived component from configuration and
// holds them for the lifetime of a command.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	gpubsub "cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/JakeFAU/careers-crawler/internal/config"
	"github.com/JakeFAU/careers-crawler/internal/crawler"
	"github.com/JakeFAU/careers-crawler/internal/discovery"
	"github.com/JakeFAU/careers-crawler/internal/fetcher/auto"
	collyfetcher "github.com/JakeFAU/careers-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/careers-crawler/internal/fetcher/headless"
	"github.com/JakeFAU/careers-crawler/internal/headless/detector"
	"github.com/JakeFAU/careers-crawler/internal/jobscan"
	"github.com/JakeFAU/careers-crawler/internal/keywords"
	"github.com/JakeFAU/careers-crawler/internal/language"
	"github.com/JakeFAU/careers-crawler/internal/orchestrator"
	"github.com/JakeFAU/careers-crawler/internal/policy/ratelimit"
	pubmemory "github.com/JakeFAU/careers-crawler/internal/publisher/memory"
	pubsubpublisher "github.com/JakeFAU/careers-crawler/internal/publisher/pubsub"
	"github.com/JakeFAU/careers-crawler/internal/results"
	"github.com/JakeFAU/careers-crawler/internal/storage"
	"github.com/JakeFAU/careers-crawler/internal/storage/gcs"
	"github.com/JakeFAU/careers-crawler/internal/storage/local"
	blobmemory "github.com/JakeFAU/careers-crawler/internal/storage/memory"
	storememory "github.com/JakeFAU/careers-crawler/internal/store/memory"
	"github.com/JakeFAU/careers-crawler/internal/store/postgres"
	"github.com/JakeFAU/careers-crawler/internal/store/sheets"
	"github.com/JakeFAU/careers-crawler/internal/translate"
	"github.com/JakeFAU/careers-crawler/internal/worker"
)

// App holds the shared services for one process.
type App struct {
	Config       config.Config
	Logger       *zap.Logger
	Store        crawler.TabularStore
	Orchestrator *orchestrator.Orchestrator

	closers []func() error
}

// Option overrides a component App would otherwise build from config.
type Option func(*overrides)

type overrides struct {
	store   crawler.TabularStore
	fetcher crawler.Fetcher
}

// WithStore injects the tabular store.
func WithStore(store crawler.TabularStore) Option {
	return func(o *overrides) { o.store = store }
}

// WithFetcher injects the page fetcher.
func WithFetcher(f crawler.Fetcher) Option {
	return func(o *overrides) { o.fetcher = f }
}

// New creates and wires every component. It fails fast on any provider
// that cannot be initialized.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o overrides
	for _, opt := range opts {
		opt(&o)
	}
	a := &App{Config: cfg, Logger: logger}

	store := o.store
	if store == nil {
		var err error
		if store, err = a.buildStore(); err != nil {
			return nil, a.abort(err)
		}
	}
	a.Store = store

	fetcher := o.fetcher
	if fetcher == nil {
		var err error
		if fetcher, err = a.buildFetcher(); err != nil {
			return nil, a.abort(err)
		}
	}

	translator, err := a.buildTranslator(ctx)
	if err != nil {
		return nil, a.abort(err)
	}
	archiver, err := a.buildArchiver(ctx)
	if err != nil {
		return nil, a.abort(err)
	}
	pub, err := a.buildPublisher(ctx)
	if err != nil {
		return nil, a.abort(err)
	}

	match, err := discovery.StrategyByName(cfg.Discovery.MatchStrategy)
	if err != nil {
		return nil, a.abort(err)
	}
	policy, err := discovery.ParseRootPolicy(cfg.Discovery.RootPolicy)
	if err != nil {
		return nil, a.abort(err)
	}

	langDetector := language.NewBestEffort(language.NewDetector(cfg.Language.MinConfidence), crawler.LanguageUnknown, logger.Named("language"))
	careers := keywords.NewSet(cfg.Discovery.CareerKeywords, translator, logger.Named("keywords"))
	titles := keywords.NewSet(cfg.Jobs.Titles, translator, logger.Named("keywords"))

	pipeline := worker.Pipeline{
		Fetcher:   fetcher,
		Resolver:  discovery.NewResolver(discovery.NewClassifier(match, policy), careers, langDetector, logger.Named("discovery")),
		Scanner:   jobscan.NewScanner(fetcher, titles, langDetector, match, logger.Named("jobscan")),
		Writer:    results.NewWriter(store, logger.Named("results")),
		Archiver:  archiver,
		Publisher: pub,
		Pacer:     crawler.NewJitterPacer(cfg.Delay(), cfg.Jitter()),
	}
	workerCfg := worker.Config{
		PageConcurrency: cfg.Crawler.PageConcurrency,
		FetchAttempts:   cfg.Crawler.FetchAttempts,
		Topic:           cfg.Publish.Topic,
	}
	a.Orchestrator = orchestrator.New(store, pipeline, workerCfg, orchestrator.Config{
		Concurrency: cfg.Crawler.Concurrency,
		QueueDepth:  cfg.Crawler.QueueDepth,
		RunScoped:   []orchestrator.Resetter{careers, titles},
	}, logger.Named("orchestrator"))

	logger.Info("application services initialized",
		zap.String("store", cfg.Store.Provider),
		zap.String("fetcher", cfg.Fetcher.Mode),
		zap.String("translate", cfg.Translate.Provider),
		zap.String("archive", cfg.Archive.Provider),
		zap.String("publish", cfg.Publish.Provider),
	)
	return a, nil
}

// Close releases fetchers and clients in reverse construction order. The
// tabular store is closed by the orchestrator after each run.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) abort(err error) error {
	if closeErr := a.Close(); closeErr != nil {
		a.Logger.Warn("cleanup after failed init", zap.Error(closeErr))
	}
	return err
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

func (a *App) buildStore() (crawler.TabularStore, error) {
	cfg := a.Config.Store
	switch cfg.Provider {
	case "sheets":
		return sheets.New(sheets.Config{
			CredentialsFile: cfg.Sheets.CredentialsFile,
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			SpreadsheetName: cfg.Spreadsheet,
			Worksheet:       cfg.Worksheet,
			ThrottleRetries: cfg.ThrottleRetries,
		}, a.Logger.Named("sheets")), nil
	case "postgres":
		sheet := cfg.Worksheet
		if sheet == "" {
			sheet = cfg.Spreadsheet
		}
		s, err := postgres.New(postgres.Config{
			DSN:             cfg.Postgres.DSN,
			Table:           cfg.Postgres.Table,
			Sheet:           sheet,
			MaxConns:        cfg.Postgres.MaxConns,
			MaxConnLifetime: 30 * time.Minute,
		})
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		return s, nil
	case "memory":
		a.Logger.Warn("using in-memory store; results are discarded on exit")
		return storememory.NewStore([][]string{{"Site", "Job URLs", "Emails", "Job Titles"}}), nil
	default:
		return nil, fmt.Errorf("unknown store provider: %s", cfg.Provider)
	}
}

func (a *App) buildFetcher() (crawler.Fetcher, error) {
	cfg := a.Config
	var f crawler.Fetcher
	switch cfg.Fetcher.Mode {
	case "http":
		f = a.httpFetcher()
	case "headless":
		hf, err := a.headlessFetcher()
		if err != nil {
			return nil, err
		}
		f = hf
	case "auto":
		var hf crawler.Fetcher = headless.NewNoop()
		if rendered, err := a.headlessFetcher(); err != nil {
			a.Logger.Warn("headless browser unavailable, auto mode will not promote", zap.Error(err))
		} else {
			hf = rendered
		}
		f = auto.New(a.httpFetcher(), hf, detector.NewHeuristic(cfg.Headless.PromotionThreshold), a.Logger.Named("fetcher"))
	default:
		return nil, fmt.Errorf("unknown fetcher mode: %s", cfg.Fetcher.Mode)
	}
	if cfg.Crawler.DomainRPS > 0 {
		f = ratelimit.New(ratelimit.Config{
			DefaultRPS:   cfg.Crawler.DomainRPS,
			DefaultBurst: cfg.Crawler.DomainBurst,
		}).Wrap(f)
	}
	return f, nil
}

func (a *App) httpFetcher() *collyfetcher.Fetcher {
	return collyfetcher.New(collyfetcher.Config{
		UserAgent:     a.Config.Crawler.UserAgent,
		Referer:       a.Config.Crawler.Referer,
		RespectRobots: a.Config.Crawler.RespectRobots,
		Timeout:       a.Config.FetchTimeout(),
	})
}

func (a *App) headlessFetcher() (*headless.Fetcher, error) {
	h := a.Config.Headless
	execPath, err := headless.FindBrowser(h.ExecPath)
	if err != nil {
		return nil, fmt.Errorf("init headless fetcher: %w", err)
	}
	f, err := headless.NewChromedp(headless.Config{
		MaxParallel:       h.MaxParallel,
		UserAgent:         a.Config.Crawler.UserAgent,
		Referer:           a.Config.Crawler.Referer,
		NavigationTimeout: time.Duration(h.NavTimeoutSeconds) * time.Second,
		RenderWait:        time.Duration(h.RenderWaitMs) * time.Millisecond,
		ExecPath:          execPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init headless fetcher: %w", err)
	}
	a.onClose(f.Close)
	return f, nil
}

// buildTranslator returns nil when translation is disabled or the Google
// client cannot be created.
func (a *App) buildTranslator(ctx context.Context) (crawler.Translator, error) {
	cfg := a.Config.Translate
	var inner crawler.Translator
	switch cfg.Provider {
	case "google":
		var opts []option.ClientOption
		if creds := a.Config.Store.Sheets.CredentialsFile; cfg.APIKey == "" && fileExists(creds) {
			opts = append(opts, option.WithCredentialsFile(creds))
		}
		g, err := translate.NewGoogle(ctx, cfg.APIKey, opts...)
		if err != nil {
			a.Logger.Warn("google translate unavailable, keyword matching is english only", zap.Error(err))
			return nil, nil
		}
		inner = g
	case "static":
		inner = translate.NewGlossary(cfg.Glossary)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown translate provider: %s", cfg.Provider)
	}
	return translate.NewInstrumented(inner, a.Logger.Named("translate")), nil
}

// buildArchiver returns nil when archiving is disabled.
func (a *App) buildArchiver(ctx context.Context) (*storage.Archiver, error) {
	cfg := a.Config.Archive
	var blobs crawler.BlobStore
	switch cfg.Provider {
	case "none":
		return nil, nil
	case "memory":
		blobs = blobmemory.NewBlobStore()
	case "local":
		s, err := local.New(local.Config{BaseDir: cfg.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("init local archive: %w", err)
		}
		blobs = s
	case "gcs":
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		s, err := gcs.New(client, gcs.Config{Bucket: cfg.GCSBucket})
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("init gcs archive: %w", err)
		}
		a.onClose(s.Close)
		blobs = s
	default:
		return nil, fmt.Errorf("unknown archive provider: %s", cfg.Provider)
	}
	return storage.NewArchiver(blobs, cfg.Prefix), nil
}

// buildPublisher returns nil when publishing is disabled.
func (a *App) buildPublisher(ctx context.Context) (crawler.Publisher, error) {
	cfg := a.Config.Publish
	switch cfg.Provider {
	case "none":
		return nil, nil
	case "memory":
		return pubmemory.New(), nil
	case "pubsub":
		client, err := gpubsub.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("init pubsub client: %w", err)
		}
		p := pubsubpublisher.New(client)
		a.onClose(p.Close)
		return p, nil
	default:
		return nil, fmt.Errorf("unknown publish provider: %s", cfg.Provider)
	}
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
