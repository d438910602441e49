package postgres

import (
	admindomain "github.com/giantgun/BareBtc/internal/domain/admin"
	"github.com/giantgun/BareBtc/internal/domain/history"
)

var (
	_ history.Repository          = (*HistoryRepository)(nil)
	_ admindomain.AuditRepository = (*AdminAuditRepository)(nil)
)
