package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/giantgun/BareBtc/internal/session"
	"github.com/giantgun/BareBtc/internal/viewstate"
)

type SessionStore interface {
	Current() session.Session
	Connect(ctx context.Context) (session.Session, error)
	Disconnect(ctx context.Context) session.Session
}

type Invalidator interface {
	Invalidate(viewstate.StateInvalidated)
}

type WalletHandler struct {
	store       SessionStore
	invalidator Invalidator
}

func NewWalletHandler(store SessionStore, invalidator Invalidator) *WalletHandler {
	return &WalletHandler{store: store, invalidator: invalidator}
}

func (h *WalletHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"session": h.store.Current()})
}

func (h *WalletHandler) Connect(c *gin.Context) {
	s, err := h.store.Connect(c.Request.Context())
	if err != nil {
		if errors.Is(err, session.ErrConnectionFailed) {
			respondError(c, http.StatusBadGateway, "connection_failed",
				failure("Connection Failed", "Failed to connect wallet. Please try again."))
			return
		}
		respondError(c, http.StatusInternalServerError, "connect_failed",
			failure("Connection Failed", "Failed to connect wallet. Please try again."))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session": s,
		"notice":  success("Wallet Connected", "Connected to "+shortAddress(s.AccountAddress)),
	})
}

func (h *WalletHandler) Disconnect(c *gin.Context) {
	s := h.store.Disconnect(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"session": s,
		"notice":  success("Wallet Disconnected", "Your wallet has been disconnected."),
	})
}

// Reload asks for a full re-read of the ledger. It returns before the
// queries finish; progress arrives over the websocket.
func (h *WalletHandler) Reload(c *gin.Context) {
	s := h.store.Current()
	if !s.Connected {
		c.JSON(http.StatusConflict, gin.H{"error": "wallet_not_connected"})
		return
	}
	h.invalidator.Invalidate(viewstate.StateInvalidated{Reason: "reload"})
	c.JSON(http.StatusAccepted, gin.H{"status": "reloading", "epoch": s.Epoch})
}
