package postgres

import (
	"context"

	admindomain "github.com/giantgun/BareBtc/internal/domain/admin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AdminAuditRepository struct {
	pool *pgxpool.Pool
}

func NewAdminAuditRepository(pool *pgxpool.Pool) *AdminAuditRepository {
	return &AdminAuditRepository{pool: pool}
}

func (r *AdminAuditRepository) Log(ctx context.Context, in admindomain.AuditLogInput) error {
	payload := in.Payload
	if len(payload) == 0 {
		payload = []byte(`{}`)
	}
	q := `
INSERT INTO admin_audit_logs (admin_user_id, action, target_type, target_id, payload)
VALUES ($1, $2, $3, $4, $5::jsonb)
`
	_, err := r.pool.Exec(ctx, q, in.AdminUserID, in.Action, in.TargetType, in.TargetID, payload)
	return err
}
