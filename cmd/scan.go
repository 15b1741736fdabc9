package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/careers-crawler/internal/api"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Crawl every site in the spreadsheet once",
		Long: `Opens the configured tabular store, crawls every site listed in column A
and writes job page URLs, emails and job titles to columns B-D. Per-site
failures are logged and skipped; a store authentication failure aborts the run.`,
		RunE: runScan,
	}
}

func runScan(cmd *cobra.Command, _ []string) error {
	a, err := appFrom(cmd.Context())
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.Config.Server.Enabled {
		srvCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		srv := api.NewServer(a.Orchestrator, nil, a.Logger.Named("api"))
		go func() {
			if err := srv.ListenAndServe(srvCtx, fmt.Sprintf(":%d", a.Config.Server.Port)); err != nil {
				a.Logger.Error("status server failed", zap.Error(err))
			}
		}()
	}

	summary, err := a.Orchestrator.Run(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d sites, %d persisted, %d failed, %d skipped\n",
		summary.RunID, summary.Total, summary.Persisted, summary.Failed, summary.Skipped)
	return nil
}
