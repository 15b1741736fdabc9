package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/careers-crawler/internal/api"
	"github.com/JakeFAU/careers-crawler/internal/app"
	"github.com/JakeFAU/careers-crawler/internal/orchestrator"
)

func newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the status server and start scans on POST /v1/run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			if port <= 0 {
				port = a.Config.Server.Port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runs := &backgroundRuns{app: a, ctx: ctx}
			srv := api.NewServer(a.Orchestrator, runs.start, a.Logger.Named("api"))
			err = srv.ListenAndServe(ctx, fmt.Sprintf(":%d", port))
			runs.wait()
			return err
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (defaults to server.port)")
	return cmd
}

// backgroundRuns starts orchestrator runs detached from the HTTP request.
type backgroundRuns struct {
	app *app.App
	ctx context.Context

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

func (b *backgroundRuns) start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return orchestrator.ErrRunning
	}
	b.running = true
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			b.mu.Lock()
			b.running = false
			b.mu.Unlock()
		}()
		if _, err := b.app.Orchestrator.Run(b.ctx); err != nil && !errors.Is(err, context.Canceled) {
			b.app.Logger.Error("background run failed", zap.Error(err))
		}
	}()
	return nil
}

func (b *backgroundRuns) wait() {
	b.wg.Wait()
}
