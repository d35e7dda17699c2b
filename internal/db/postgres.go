package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"voyage-backend/internal/config"
	"voyage-backend/internal/logger"
	"voyage-backend/internal/metrics"
)

// PoolConfig builds the pgxpool settings from cfg
func PoolConfig(cfg *config.Config) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.Database.MaxConns > 0 {
		pc.MaxConns = cfg.Database.MaxConns
	}
	if cfg.Database.MinConns > 0 && cfg.Database.MinConns <= pc.MaxConns {
		pc.MinConns = cfg.Database.MinConns
	}
	pc.MaxConnIdleTime = 5 * time.Minute
	pc.HealthCheckPeriod = time.Minute
	return pc, nil
}

// Connect opens the pool and pings it once
func Connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pc, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	logger.Component("db").Info().
		Str("host", cfg.Database.Host).
		Str("database", cfg.Database.Name).
		Int32("max_conns", pc.MaxConns).
		Msg("connected to postgres")
	return pool, nil
}

// ReportPoolStats publishes pool gauges every interval until ctx is done
func ReportPoolStats(ctx context.Context, pool *pgxpool.Pool, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := pool.Stat()
			metrics.DBPoolConnections.WithLabelValues("total").Set(float64(s.TotalConns()))
			metrics.DBPoolConnections.WithLabelValues("idle").Set(float64(s.IdleConns()))
			metrics.DBPoolConnections.WithLabelValues("acquired").Set(float64(s.AcquiredConns()))
		}
	}
}
