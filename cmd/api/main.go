package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giantgun/BareBtc/internal/app"
	"github.com/giantgun/BareBtc/internal/config"
	"github.com/giantgun/BareBtc/internal/db"
	admindomain "github.com/giantgun/BareBtc/internal/domain/admin"
	"github.com/giantgun/BareBtc/internal/domain/history"
	"github.com/giantgun/BareBtc/internal/ledger"
	"github.com/giantgun/BareBtc/internal/observability"
	postgresrepo "github.com/giantgun/BareBtc/internal/repository/postgres"
	"github.com/giantgun/BareBtc/internal/stacks"
	"github.com/giantgun/BareBtc/internal/wallet"
)

// logAudit keeps admin audit entries in the process log when no database is
// configured.
type logAudit struct {
	logger *slog.Logger
}

func (a logAudit) Log(_ context.Context, in admindomain.AuditLogInput) error {
	a.logger.Info("admin audit", "admin_user_id", in.AdminUserID, "action", in.Action, "target_type", in.TargetType, "target_id", in.TargetID, "payload", string(in.Payload))
	return nil
}

func main() {
	dotenvErr := config.LoadDotEnv()
	cfg := config.Load()
	logger := observability.NewLogger(cfg.Env)
	if dotenvErr != nil {
		logger.Warn("ignoring .env", "err", dotenvErr)
	}

	node, err := stacks.NewClient(cfg.StacksAPIURL, cfg.StacksRPS)
	if err != nil {
		logger.Error("invalid stacks api config", "err", err)
		os.Exit(1)
	}
	provider, err := wallet.NewProviderFromConfig(cfg)
	if err != nil {
		logger.Error("invalid wallet config", "err", err)
		os.Exit(1)
	}

	opts := app.Options{
		Gateway: ledger.NewGateway(node, ledger.Contracts{
			PoolAddress:  cfg.PoolContractAddress,
			PoolName:     cfg.PoolContractName,
			TokenAddress: cfg.TokenContractAddress,
			TokenName:    cfg.TokenContractName,
		}),
		Node:   node,
		Wallet: provider,
	}

	if cfg.HistoryStore == "memory" {
		logger.Warn("transaction history kept in memory")
		opts.History = history.NewMemoryRepository()
		opts.Audit = logAudit{logger: logger}
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err := db.NewPostgresPool(ctx, cfg)
		if err != nil {
			cancel()
			logger.Error("failed to connect postgres", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			cancel()
			logger.Error("failed to apply migrations", "err", err)
			os.Exit(1)
		}
		cancel()

		opts.History = postgresrepo.NewHistoryRepository(pool)
		opts.Audit = postgresrepo.NewAdminAuditRepository(pool)
		opts.Pinger = pool
	}

	a := app.New(cfg, logger, opts)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runDone := make(chan error, 1)
	go func() { runDone <- a.Run(sigCtx) }()

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           a.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api server starting", "addr", cfg.Addr(), "network", cfg.StacksNetwork, "wallet_mode", cfg.WalletMode)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	<-sigCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	if err := <-runDone; err != nil {
		logger.Error("background loops failed", "err", err)
	}
	logger.Info("api server stopped")
}
