// Package orchestrator runs one crawl over every site listed in the
// tabular store and summarizes the outcome.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/careers-crawler/internal/crawler"
	"github.com/JakeFAU/careers-crawler/internal/dispatcher"
	"github.com/JakeFAU/careers-crawler/internal/queue/memory"
	"github.com/JakeFAU/careers-crawler/internal/worker"
)

// ErrRunning is returned when Run is called while a run is in progress.
var ErrRunning = errors.New("run already in progress")

// Resetter is per-run state cleared when a run starts.
type Resetter interface {
	Reset()
}

// Config sizes the worker pool.
type Config struct {
	Concurrency int
	QueueDepth  int
	// RunScoped is reset at the start of every run.
	RunScoped []Resetter
}

// Summary counts sites per terminal state for one run.
type Summary struct {
	RunID     string    `json:"run_id"`
	Running   bool      `json:"running"`
	Total     int       `json:"total"`
	Persisted int       `json:"persisted"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitzero"`
}

// Orchestrator owns the store lifecycle and the worker pool for a run.
type Orchestrator struct {
	store     crawler.TabularStore
	pipeline  worker.Pipeline
	workerCfg worker.Config
	cfg       Config
	logger    *zap.Logger

	mu      sync.Mutex
	summary Summary
}

// New wires an Orchestrator. pipeline.Report is replaced by the run's own
// bookkeeping.
func New(store crawler.TabularStore, pipeline worker.Pipeline, workerCfg worker.Config, cfg Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = cfg.Concurrency
	}
	return &Orchestrator{store: store, pipeline: pipeline, workerCfg: workerCfg, cfg: cfg, logger: logger}
}

// Status returns a snapshot of the current or last run.
func (o *Orchestrator) Status() Summary {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.summary
}

// Run opens the store, processes every site row and closes the store.
// Only store open and read failures abort the run; per-site failures are
// counted in the summary.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	runID := uuid.NewString()
	if err := o.begin(runID); err != nil {
		return Summary{}, err
	}
	log := o.logger.With(zap.String("run_id", runID))

	if err := o.store.Open(ctx); err != nil {
		return o.finish(log), fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := o.store.Close(); err != nil {
			log.Warn("store close failed", zap.Error(err))
		}
	}()

	sites, err := o.store.ColValues(ctx, crawler.ColumnSite)
	if err != nil {
		return o.finish(log), fmt.Errorf("read site column: %w", err)
	}
	log.Info("run started", zap.Int("rows", len(sites)), zap.Int("workers", o.cfg.Concurrency))

	q := memory.NewQueue(o.cfg.QueueDepth)
	pipeline := o.pipeline
	pipeline.Report = o.record
	runners := make([]dispatcher.Runner, 0, o.cfg.Concurrency)
	for i := range o.cfg.Concurrency {
		runners = append(runners, worker.New(q, pipeline, o.workerCfg, log.Named("worker").With(zap.Int("worker", i))))
	}
	d := dispatcher.New(q, runners)

	go o.produce(ctx, d, q, runID, sites, log)
	d.Run(ctx)

	summary := o.finish(log)
	if ctx.Err() != nil {
		return summary, fmt.Errorf("run interrupted: %w", ctx.Err())
	}
	return summary, nil
}

func (o *Orchestrator) produce(ctx context.Context, d *dispatcher.Dispatcher, q *memory.Queue, runID string, sites []string, log *zap.Logger) {
	defer q.Close()
	for i, raw := range sites {
		row := i + 1
		if row <= crawler.HeaderRow {
			continue
		}
		if strings.TrimSpace(raw) == "" {
			o.mu.Lock()
			o.summary.Skipped++
			o.mu.Unlock()
			continue
		}
		task := crawler.SiteTask{RunID: runID, Row: row, RawURL: raw, Attempt: 1}
		if err := d.Enqueue(ctx, task); err != nil {
			log.Warn("enqueue stopped", zap.Int("row", row), zap.Error(err))
			return
		}
	}
}

func (o *Orchestrator) record(rec crawler.SiteRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.summary.Total++
	switch rec.State {
	case crawler.SitePersisted:
		o.summary.Persisted++
	case crawler.SiteFailed:
		o.summary.Failed++
	}
}

func (o *Orchestrator) begin(runID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.summary.Running {
		return ErrRunning
	}
	o.summary = Summary{RunID: runID, Running: true, StartedAt: time.Now().UTC()}
	for _, r := range o.cfg.RunScoped {
		r.Reset()
	}
	return nil
}

func (o *Orchestrator) finish(log *zap.Logger) Summary {
	o.mu.Lock()
	o.summary.Running = false
	o.summary.EndedAt = time.Now().UTC()
	s := o.summary
	o.mu.Unlock()

	log.Info("run finished",
		zap.Int("total", s.Total),
		zap.Int("persisted", s.Persisted),
		zap.Int("failed", s.Failed),
		zap.Int("skipped", s.Skipped),
		zap.Duration("elapsed", s.EndedAt.Sub(s.StartedAt)),
	)
	return s
}
