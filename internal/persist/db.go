package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/JakubekWeg/wc2-sub000/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// applicationName tags simulator sessions in pg_stat_activity.
const applicationName = "wc2sim"

// DB wraps the pgx pool shared by the save repository and migrations.
// Autosave writes one snapshot at a time, so the pool stays small.
type DB struct {
	Pool *pgxpool.Pool
	log  *zap.Logger
}

func NewDB(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*DB, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db %s/%s: %w", poolCfg.ConnConfig.Host, poolCfg.ConnConfig.Database, err)
	}

	log.Info("save database connected",
		zap.String("host", poolCfg.ConnConfig.Host),
		zap.String("database", poolCfg.ConnConfig.Database),
		zap.Int32("max_conns", poolCfg.MaxConns),
		zap.Int32("min_conns", poolCfg.MinConns),
		zap.Duration("conn_lifetime", poolCfg.MaxConnLifetime))
	return &DB{Pool: pool, log: log}, nil
}

// poolConfig parses the DSN and applies the [database] pool settings.
func poolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	switch {
	case cfg.MaxOpenConns < 1:
		return nil, fmt.Errorf("database.max_open_conns must be at least 1")
	case cfg.MaxIdleConns < 0 || cfg.MaxIdleConns > cfg.MaxOpenConns:
		return nil, fmt.Errorf("database.max_idle_conns must be between 0 and max_open_conns (%d)", cfg.MaxOpenConns)
	case cfg.ConnMaxLifetime < 0:
		return nil, fmt.Errorf("database.conn_max_lifetime must not be negative")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if _, set := poolCfg.ConnConfig.RuntimeParams["application_name"]; !set {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	return poolCfg, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}
