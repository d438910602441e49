package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type MetaHandler struct {
	env     string
	version string
	commit  string
	network string
	pool    string
}

func NewMetaHandler(env, version, commit, network, pool string) *MetaHandler {
	return &MetaHandler{env: env, version: version, commit: commit, network: network, pool: pool}
}

func (h *MetaHandler) GetMeta(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":          "BareBtc Backend",
		"version":       h.version,
		"commit":        h.commit,
		"env":           h.env,
		"network":       h.network,
		"pool_contract": h.pool,
	})
}
