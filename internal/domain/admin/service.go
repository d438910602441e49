package admin

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/giantgun/BareBtc/internal/stacks"
)

var (
	ErrMissingAddress = errors.New("missing_address")
	ErrInvalidAddress = errors.New("invalid_address")
	ErrInvalidScore   = errors.New("invalid_score")
)

type AuditRepository interface {
	Log(ctx context.Context, in AuditLogInput) error
}

type AuditLogInput struct {
	AdminUserID string
	Action      string
	TargetType  string
	TargetID    string
	Payload     []byte
}

// ReputationInput is an operator-supplied reputation adjustment for an account.
type ReputationInput struct {
	Address     string `json:"address"`
	Score       int    `json:"score"`
	Description string `json:"description"`
}

type Service struct {
	auditRepo AuditRepository
}

func NewService(auditRepo AuditRepository) *Service {
	return &Service{auditRepo: auditRepo}
}

// UpdateReputation validates and records a reputation adjustment. The pool
// contract exposes no reputation write, so the audit log is the record.
func (s *Service) UpdateReputation(ctx context.Context, adminUserID string, in ReputationInput) error {
	address := strings.TrimSpace(in.Address)
	if address == "" {
		return ErrMissingAddress
	}
	if _, err := stacks.ParseAddress(address); err != nil {
		return ErrInvalidAddress
	}
	if in.Score < 0 || in.Score > 100 {
		return ErrInvalidScore
	}

	payload, _ := json.Marshal(map[string]any{
		"score":       in.Score,
		"description": strings.TrimSpace(in.Description),
	})
	return s.auditRepo.Log(ctx, AuditLogInput{
		AdminUserID: adminUserID,
		Action:      "reputation_updated",
		TargetType:  "account",
		TargetID:    address,
		Payload:     payload,
	})
}
