package db

import (
	"context"
	"fmt"
	"time"

	"github.com/giantgun/BareBtc/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

const applicationName = "barebtc"

// NewPostgresPool opens the history database and fails fast if it is not
// reachable.
func NewPostgresPool(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns
	if d, err := time.ParseDuration(cfg.DBMaxConnLifetime); err == nil && d > 0 {
		poolCfg.MaxConnLifetime = d
	} else {
		poolCfg.MaxConnLifetime = 30 * time.Minute
	}
	poolCfg.HealthCheckPeriod = time.Minute
	if _, ok := poolCfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}
