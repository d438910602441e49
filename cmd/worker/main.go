package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giantgun/BareBtc/internal/config"
	"github.com/giantgun/BareBtc/internal/db"
	"github.com/giantgun/BareBtc/internal/domain/history"
	"github.com/giantgun/BareBtc/internal/jobs"
	"github.com/giantgun/BareBtc/internal/observability"
	postgresrepo "github.com/giantgun/BareBtc/internal/repository/postgres"
	"github.com/giantgun/BareBtc/internal/stacks"
)

// The worker settles submitted transactions out of process. Run it with
// TRACKER_IN_PROCESS=false on the API so only one tracker polls.
func main() {
	dotenvErr := config.LoadDotEnv()
	cfg := config.Load()
	logger := observability.NewLogger(cfg.Env)
	if dotenvErr != nil {
		logger.Warn("ignoring .env", "err", dotenvErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect postgres", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	node, err := stacks.NewClient(cfg.StacksAPIURL, cfg.StacksRPS)
	if err != nil {
		logger.Error("invalid stacks api config", "err", err)
		os.Exit(1)
	}

	tracker := jobs.NewTracker(postgresrepo.NewHistoryRepository(pool), node, logger, cfg.TrackerMaxAge)
	tracker.OnSettle(func(rec history.Record) {
		logger.Info("transaction settled", "txid", rec.TxID, "action", rec.Action, "status", rec.Status, "reason", rec.Reason)
	})

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("worker started", "interval", cfg.TrackerPollInterval.String(), "batch_size", cfg.TrackerBatchSize)
	tracker.Run(sigCtx, cfg.TrackerPollInterval, cfg.TrackerBatchSize)
	logger.Info("worker stopped")
}
