package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/giantgun/BareBtc/internal/amount"
	"github.com/giantgun/BareBtc/internal/domain/history"
	"github.com/giantgun/BareBtc/internal/txn"
	"github.com/shopspring/decimal"
)

type Submitter interface {
	ApplyForLoan(ctx context.Context, amount decimal.Decimal) (history.Record, error)
	RepayLoan(ctx context.Context) (history.Record, error)
	Lend(ctx context.Context, amount decimal.Decimal) (history.Record, error)
	Withdraw(ctx context.Context, amount decimal.Decimal) (history.Record, error)
}

type TxHandler struct {
	submitter Submitter
	logger    *slog.Logger
}

func NewTxHandler(submitter Submitter, logger *slog.Logger) *TxHandler {
	return &TxHandler{submitter: submitter, logger: logger}
}

type amountRequest struct {
	Amount string `json:"amount"`
}

// bindAmount accepts the amount as a decimal string in display units. An
// unparseable amount is reported the same way as one below a single base
// unit.
func bindAmount(c *gin.Context, invalid Notice) (decimal.Decimal, bool) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return decimal.Zero, false
	}
	v, err := amount.Parse(req.Amount)
	if err != nil || !amount.Normalize(v).IsPositive() {
		respondError(c, http.StatusUnprocessableEntity, txn.ErrInvalidAmount.Error(), invalid)
		return decimal.Zero, false
	}
	return v, true
}

func (h *TxHandler) Borrow(c *gin.Context) {
	amount, ok := bindAmount(c, failure("Invalid Amount", "Please enter a valid amount to borrow."))
	if !ok {
		return
	}
	rec, err := h.submitter.ApplyForLoan(c.Request.Context(), amount)
	if err != nil {
		h.fail(c, history.ActionBorrow, err, map[error]Notice{
			txn.ErrInsufficientPoolBalance: failure("Insufficient Pool Balance", "The pool does not hold enough sBTC for this loan."),
			txn.ErrInvalidAmount:           failure("Invalid Amount", "Please enter an amount within your loan limit."),
		})
		return
	}
	h.accepted(c, rec, success("Loan request Accepted", "Your loan request has been submitted."))
}

func (h *TxHandler) Repay(c *gin.Context) {
	rec, err := h.submitter.RepayLoan(c.Request.Context())
	if err != nil {
		h.fail(c, history.ActionRepay, err, map[error]Notice{
			txn.ErrInsufficientBalance: failure("Insufficient Balance", "Your sBTC balance does not cover the amount due."),
			txn.ErrInvalidAmount:       failure("Invalid Amount", "There is no outstanding loan to repay."),
		})
		return
	}
	h.accepted(c, rec, success("Repayment Successful", "Your repayment has been submitted."))
}

func (h *TxHandler) Deposit(c *gin.Context) {
	amount, ok := bindAmount(c, failure("Invalid Amount", "Please enter a valid amount to deposit."))
	if !ok {
		return
	}
	rec, err := h.submitter.Lend(c.Request.Context(), amount)
	if err != nil {
		h.fail(c, history.ActionLend, err, map[error]Notice{
			txn.ErrInsufficientBalance: failure("Insufficient Balance", "Your sBTC balance is too low for this deposit."),
		})
		return
	}
	h.accepted(c, rec, success("Deposit Successful", "Your deposit has been submitted."))
}

func (h *TxHandler) Withdraw(c *gin.Context) {
	invalid := failure("Invalid Amount", "Please enter a valid amount to withdraw.")
	amount, ok := bindAmount(c, invalid)
	if !ok {
		return
	}
	rec, err := h.submitter.Withdraw(c.Request.Context(), amount)
	if err != nil {
		h.fail(c, history.ActionWithdraw, err, map[error]Notice{
			txn.ErrInvalidAmount: invalid,
		})
		return
	}
	h.accepted(c, rec, success("Withdrawal Successful", "Your withdrawal has been submitted."))
}

func (h *TxHandler) accepted(c *gin.Context, rec history.Record, n Notice) {
	c.JSON(http.StatusAccepted, gin.H{"transaction": rec, "notice": n})
}

// fail maps submitter errors onto a status code and a notice. Validation
// notices are per action; the rest are shared.
func (h *TxHandler) fail(c *gin.Context, action history.Action, err error, notices map[error]Notice) {
	for target, n := range notices {
		if errors.Is(err, target) {
			respondError(c, http.StatusUnprocessableEntity, target.Error(), n)
			return
		}
	}

	var rejected *txn.RejectedError
	switch {
	case errors.As(err, &rejected):
		respondError(c, http.StatusBadGateway, txn.ErrTransactionRejected.Error(), failure("Transaction Failed", rejected.Message))
	case errors.Is(err, txn.ErrNotConnected):
		c.JSON(http.StatusConflict, gin.H{"error": "wallet_not_connected"})
	case errors.Is(err, txn.ErrStateUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "state_unavailable"})
	default:
		h.logger.Error("transaction submit failed", "action", action, "err", err)
		respondError(c, http.StatusInternalServerError, "submit_failed", failure("Transaction Failed", err.Error()))
	}
}
