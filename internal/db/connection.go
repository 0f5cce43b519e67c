// Package db provides the singleton pgxpool connection used to persist
// and read back the normalized Stop/Line tables.
package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/transitplan/journeyplanner/internal/config"
)

var (
	pool     *pgxpool.Pool
	poolOnce sync.Once
	poolErr  error
)

// Get returns the global database connection pool (singleton pattern),
// initializing it from cfg on first call.
func Get(cfg *config.Config) (*pgxpool.Pool, error) {
	poolOnce.Do(func() {
		pool, poolErr = initPool(cfg)
	})
	return pool, poolErr
}

// InitPoolWithConfig initializes the pool directly, bypassing the
// singleton — useful for tests against a throwaway database.
func InitPoolWithConfig(cfg *config.Config) (*pgxpool.Pool, error) {
	return initPool(cfg)
}

func initPool(cfg *config.Config) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPassword, cfg.DBSSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MinConns = cfg.DBMinConns
	poolConfig.MaxConns = cfg.DBMaxConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	// Disable prepared statements behind transaction-mode poolers (e.g.
	// pgbouncer/Supabase pooler on 6543), which reject named statements.
	if cfg.DBPort == 6543 {
		poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return p, nil
}

// Close closes the database connection pool.
func Close() {
	if pool != nil {
		pool.Close()
	}
}

// HealthCheck performs a plain connectivity health check. Unlike the
// teacher's version this does not assert PostGIS: the SpatialIndex here
// is an in-process orb/quadtree index, not a PostGIS extension, so the
// database's only job is to durably store the normalized Stop/Line/
// ImportLog rows.
func HealthCheck(ctx context.Context, cfg *config.Config) error {
	p, err := Get(cfg)
	if err != nil {
		return fmt.Errorf("database connection not initialized: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
