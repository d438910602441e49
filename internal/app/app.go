// Package app assembles the long-lived components of the API process.
package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/giantgun/BareBtc/internal/auth"
	"github.com/giantgun/BareBtc/internal/config"
	admindomain "github.com/giantgun/BareBtc/internal/domain/admin"
	"github.com/giantgun/BareBtc/internal/domain/history"
	"github.com/giantgun/BareBtc/internal/http/handlers"
	"github.com/giantgun/BareBtc/internal/jobs"
	"github.com/giantgun/BareBtc/internal/ledger"
	"github.com/giantgun/BareBtc/internal/observability"
	"github.com/giantgun/BareBtc/internal/server"
	"github.com/giantgun/BareBtc/internal/session"
	"github.com/giantgun/BareBtc/internal/txn"
	"github.com/giantgun/BareBtc/internal/viewstate"
	"github.com/giantgun/BareBtc/internal/wallet"
	"github.com/giantgun/BareBtc/internal/ws"
	"golang.org/x/sync/errgroup"
)

// Node is what the API process needs from the Stacks API beyond the ledger
// gateway: readiness and transaction status.
type Node interface {
	jobs.StatusSource
	handlers.TipReader
}

type Options struct {
	Gateway viewstate.Gateway
	Node    Node
	Wallet  wallet.Provider
	History history.Repository
	Audit   admindomain.AuditRepository
	// Pinger is nil when history is kept in memory.
	Pinger  handlers.Pinger
	Metrics *observability.Metrics
}

// App holds the session, the mirrored state and everything that acts on them.
// Handlers receive it piecewise; nothing here is global.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	Metrics   *observability.Metrics
	Session   *session.Store
	Adapter   *viewstate.Adapter
	Submitter *txn.Submitter
	Tracker   *jobs.Tracker
	Hub       *ws.Hub
	Notifier  *ws.Notifier
	Router    *gin.Engine
}

func New(cfg config.Config, logger *slog.Logger, opts Options) *App {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics()
	}

	store := session.NewStore(opts.Wallet, logger)
	adapter := viewstate.NewAdapter(opts.Gateway, logger, metrics)
	store.Subscribe(adapter)

	contracts := ledger.Contracts{
		PoolAddress:  cfg.PoolContractAddress,
		PoolName:     cfg.PoolContractName,
		TokenAddress: cfg.TokenContractAddress,
		TokenName:    cfg.TokenContractName,
	}
	submitter := txn.NewSubmitter(txn.Config{
		Contracts:     contracts,
		Network:       cfg.StacksNetwork,
		SettlingDelay: cfg.SettlingDelay,
	}, opts.Wallet, adapter, adapter, opts.History, logger, metrics)

	hub := ws.NewHub()
	hub.OnDrop(metrics.ObserveWSDrop)
	notifier := ws.NewNotifier(hub, int(cfg.NotifierBuffer), logger)
	notifier.OnDrop(metrics.ObserveWSDrop)
	notifier.Attach(adapter)

	tracker := jobs.NewTracker(opts.History, opts.Node, logger, cfg.TrackerMaxAge)
	tracker.OnSettle(func(rec history.Record) {
		notifier.TransactionSettled(rec)
		cur := store.Current()
		if cur.Connected && cur.AccountAddress == rec.Address {
			adapter.Invalidate(viewstate.StateInvalidated{Reason: "tx_settled:" + string(rec.Status)})
		}
	})

	jwtManager := auth.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTSigningKey)
	cookieCfg := auth.CookieConfig{Domain: cfg.CookieDomain, Secure: cfg.CookieSecure}

	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		metricsHandler = metrics.Handler()
	}

	router := server.NewRouter(cfg, logger, server.Dependencies{
		Pinger:        opts.Pinger,
		Node:          opts.Node,
		Metrics:       metricsHandler,
		HTTPRecorder:  metrics,
		WalletHandler: handlers.NewWalletHandler(store, adapter),
		PageHandler:   handlers.NewPageHandler(adapter, opts.History),
		TxHandler:     handlers.NewTxHandler(submitter, logger),
		AdminHandler:  handlers.NewAdminHandler(admindomain.NewService(opts.Audit), jwtManager, cookieCfg, cfg.JWTAccessTTL),
		WSHandler:     ws.NewHandler(hub),
		JWTManager:    jwtManager,
	})

	return &App{
		cfg:       cfg,
		logger:    logger,
		Metrics:   metrics,
		Session:   store,
		Adapter:   adapter,
		Submitter: submitter,
		Tracker:   tracker,
		Hub:       hub,
		Notifier:  notifier,
		Router:    router,
	}
}

// Run starts the background loops and restores a wallet authorization the
// provider still holds. It blocks until ctx is done.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Adapter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		err := a.Notifier.Run(gctx)
		if gctx.Err() != nil {
			return nil
		}
		return err
	})
	if a.cfg.TrackerInProcess {
		g.Go(func() error {
			a.Tracker.Run(gctx, a.cfg.TrackerPollInterval, a.cfg.TrackerBatchSize)
			return nil
		})
	}

	restored, err := a.Session.Restore(gctx)
	if err != nil {
		a.logger.Warn("session restore failed", "err", err)
	} else if restored {
		a.logger.Info("wallet session restored", "address", a.Session.Current().AccountAddress)
	}

	return g.Wait()
}
