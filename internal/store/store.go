// Package store is the Postgres persistence layer: schema, upserts, and
// aggregate queries for every entity in the data model, built on a pgxpool
// connection wrapper with the usual zap-logging and
// constructor-nil-fallback idiom.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/polymarket-surveillance/insider-detector/config"
)

// Store wraps a pgxpool.Pool and exposes one repository-style method set per
// entity (markets, wallets, trades, baselines, scores, patterns, confirmed
// insiders, candidates, batches, alerts).
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New opens a connection pool per cfg and verifies it with a ping.
func New(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing pool config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("connected to postgres", zap.String("host", cfg.Host), zap.String("database", cfg.Database))
	return &Store{pool: pool, logger: logger.Named("store")}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.logger.Info("closing postgres pool")
	s.pool.Close()
}

// Pool exposes the underlying pool for callers that need raw access (tests,
// migrations).
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Migrate applies the schema DDL. Idempotent -- safe to call on every
// startup, a "create if not exists" style throughout.
func (s *Store) Migrate(ctx context.Context) error {
	start := time.Now()
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	s.logger.Info("schema migrated", zap.Duration("elapsed", time.Since(start)))
	return nil
}
