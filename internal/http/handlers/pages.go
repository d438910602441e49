package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/giantgun/BareBtc/internal/amount"
	"github.com/giantgun/BareBtc/internal/domain/history"
	"github.com/giantgun/BareBtc/internal/txn"
	"github.com/giantgun/BareBtc/internal/viewstate"
)

type StateReader interface {
	Snapshot() viewstate.State
}

type HistoryLister interface {
	ListByAddress(ctx context.Context, address string, limit int32) ([]history.Record, error)
}

type PageHandler struct {
	state   StateReader
	history HistoryLister
	now     func() time.Time
}

func NewPageHandler(state StateReader, history HistoryLister) *PageHandler {
	return &PageHandler{state: state, history: history, now: time.Now}
}

func (h *PageHandler) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, BuildDashboard(h.state.Snapshot(), h.now()))
}

// Borrow quotes the full loan limit, or the amount given in ?amount=.
func (h *PageHandler) Borrow(c *gin.Context) {
	st, now := h.state.Snapshot(), h.now()
	view := BuildBorrow(st, now)
	if raw := c.Query("amount"); raw != "" {
		v, err := amount.Parse(raw)
		if err == nil {
			view.Quote, err = QuoteBorrow(st, now, v)
		}
		switch {
		case errors.Is(err, txn.ErrStateUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "state_unavailable"})
			return
		case err != nil:
			respondError(c, http.StatusUnprocessableEntity, txn.ErrInvalidAmount.Error(),
				failure("Invalid Amount", "Please enter an amount within your loan limit."))
			return
		}
	}
	c.JSON(http.StatusOK, view)
}

func (h *PageHandler) Lend(c *gin.Context) {
	c.JSON(http.StatusOK, BuildLend(h.state.Snapshot()))
}

func (h *PageHandler) History(c *gin.Context) {
	st := h.state.Snapshot()
	if !st.Session.Connected {
		c.JSON(http.StatusConflict, gin.H{"error": "wallet_not_connected"})
		return
	}

	limit := int32(50)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_limit"})
			return
		}
		limit = int32(n)
	}

	items, err := h.history.ListByAddress(c.Request.Context(), st.Session.AccountAddress, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history_failed"})
		return
	}
	if items == nil {
		items = []history.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"address": st.Session.AccountAddress, "items": items})
}
