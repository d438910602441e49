package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/giantgun/BareBtc/internal/auth"
	admindomain "github.com/giantgun/BareBtc/internal/domain/admin"
	"github.com/giantgun/BareBtc/internal/http/middleware"
)

type ReputationService interface {
	UpdateReputation(ctx context.Context, adminUserID string, in admindomain.ReputationInput) error
}

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

type AdminHandler struct {
	svc       ReputationService
	tokens    TokenParser
	cookieCfg auth.CookieConfig
	ttl       time.Duration
}

func NewAdminHandler(svc ReputationService, tokens TokenParser, cookieCfg auth.CookieConfig, ttl time.Duration) *AdminHandler {
	return &AdminHandler{svc: svc, tokens: tokens, cookieCfg: cookieCfg, ttl: ttl}
}

func (h *AdminHandler) UpdateReputation(c *gin.Context) {
	var in admindomain.ReputationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	err := h.svc.UpdateReputation(c.Request.Context(), c.GetString(middleware.ContextUserID), in)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"status": "updated",
			"notice": success("Reputation Updated", "Reputation for "+shortAddress(in.Address)+" has been updated."),
		})
	case errors.Is(err, admindomain.ErrMissingAddress):
		respondError(c, http.StatusBadRequest, err.Error(), failure("Missing Address", "Please enter a valid Stacks address."))
	case errors.Is(err, admindomain.ErrInvalidAddress):
		respondError(c, http.StatusBadRequest, err.Error(), failure("Invalid Address", "Please enter a valid Stacks address."))
	case errors.Is(err, admindomain.ErrInvalidScore):
		respondError(c, http.StatusBadRequest, err.Error(), failure("Update Failed", "Score must be between 0 and 100."))
	default:
		respondError(c, http.StatusInternalServerError, "update_failed", failure("Update Failed", "Failed to update reputation. Please try again."))
	}
}

type adminSessionRequest struct {
	Token string `json:"token"`
}

// StartSession exchanges a minted admin token for the access cookie.
func (h *AdminHandler) StartSession(c *gin.Context) {
	var req adminSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	claims, err := h.tokens.Parse(req.Token)
	if err != nil || claims.Type != auth.TokenTypeAccess || claims.Role != auth.RoleAdmin {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	ttl := h.ttl
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	auth.SetAccessCookie(c.Writer, h.cookieCfg, req.Token, ttl)
	c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID, "role": claims.Role})
}

func (h *AdminHandler) EndSession(c *gin.Context) {
	auth.ClearAccessCookie(c.Writer, h.cookieCfg)
	c.Status(http.StatusNoContent)
}
