package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// TipReader is the node check behind /ready.
type TipReader interface {
	TipHeight(ctx context.Context) (uint64, error)
}

type HealthHandler struct {
	pinger Pinger
	node   TipReader
}

// NewHealthHandler accepts a nil pinger when history is kept in memory.
func NewHealthHandler(pinger Pinger, node TipReader) *HealthHandler {
	return &HealthHandler{pinger: pinger, node: node}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "barebtc-backend",
	})
}

func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	database := "memory"
	if h.pinger != nil {
		database = "ok"
		if h.pinger.Ping(ctx) != nil {
			database = "error"
		}
	}
	node := "ok"
	if h.node != nil {
		if _, err := h.node.TipHeight(ctx); err != nil {
			node = "error"
		}
	}

	if database == "error" || node == "error" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "not_ready",
			"database": database,
			"node":     node,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"database": database,
		"node":     node,
	})
}
