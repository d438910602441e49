package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/giantgun/BareBtc/internal/auth"
	"github.com/giantgun/BareBtc/internal/config"
	"github.com/giantgun/BareBtc/internal/http/handlers"
	"github.com/giantgun/BareBtc/internal/http/middleware"
	"github.com/giantgun/BareBtc/internal/version"
	"github.com/giantgun/BareBtc/internal/ws"
)

type Dependencies struct {
	Pinger        handlers.Pinger
	Node          handlers.TipReader
	Metrics       http.Handler
	HTTPRecorder  middleware.HTTPRecorder
	WalletHandler *handlers.WalletHandler
	PageHandler   *handlers.PageHandler
	TxHandler     *handlers.TxHandler
	AdminHandler  *handlers.AdminHandler
	WSHandler     *ws.Handler
	JWTManager    *auth.JWTManager
}

func NewRouter(cfg config.Config, logger *slog.Logger, deps Dependencies) *gin.Engine {
	if cfg.Env == "prod" || cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Observe(logger, deps.HTTPRecorder))
	r.Use(middleware.RequestBodyLimit(cfg.MaxBodyBytes))

	health := handlers.NewHealthHandler(deps.Pinger, deps.Node)
	meta := handlers.NewMetaHandler(cfg.Env, version.Version, version.Commit, cfg.StacksNetwork, cfg.PoolContractAddress+"."+cfg.PoolContractName)

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/v1/meta", meta.GetMeta)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	v1 := r.Group("/v1")
	if deps.WalletHandler != nil {
		v1.GET("/session", deps.WalletHandler.GetSession)
		v1.POST("/wallet/connect", deps.WalletHandler.Connect)
		v1.POST("/wallet/disconnect", deps.WalletHandler.Disconnect)
		v1.POST("/reload", deps.WalletHandler.Reload)
	}
	if deps.PageHandler != nil {
		v1.GET("/dashboard", deps.PageHandler.Dashboard)
		v1.GET("/borrow", deps.PageHandler.Borrow)
		v1.GET("/lend", deps.PageHandler.Lend)
		v1.GET("/history", deps.PageHandler.History)
	}
	if deps.TxHandler != nil {
		limiter := middleware.NewRateLimiter(cfg.TxRateLimit, int(cfg.TxBurst))
		tx := v1.Group("")
		tx.Use(limiter.Handler())
		tx.POST("/borrow", deps.TxHandler.Borrow)
		tx.POST("/repay", deps.TxHandler.Repay)
		tx.POST("/lend/deposit", deps.TxHandler.Deposit)
		tx.POST("/lend/withdraw", deps.TxHandler.Withdraw)
	}
	if deps.WSHandler != nil {
		v1.GET("/ws", deps.WSHandler.HandleWebSocket)
	}

	if deps.AdminHandler != nil && deps.JWTManager != nil {
		adminGroup := r.Group("/admin")
		adminGroup.POST("/session", deps.AdminHandler.StartSession)
		adminGroup.DELETE("/session", deps.AdminHandler.EndSession)

		protected := adminGroup.Group("")
		protected.Use(middleware.RequireAuth(deps.JWTManager), middleware.RequireRole(auth.RoleAdmin))
		protected.POST("/reputation", deps.AdminHandler.UpdateReputation)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	return r
}
