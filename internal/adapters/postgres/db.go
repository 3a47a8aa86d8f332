package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrGraphEmpty means the routing tables exist but hold no vertices yet.
var ErrGraphEmpty = errors.New("routing graph is empty")

// DB wraps pgxpool.Pool and provides a shared connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// New opens the pool. maxConns <= 0 keeps the pgx default.
func New(ctx context.Context, dsn string, maxConns int32) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	// Routing queries are short; recycle idle connections so a failover is
	// picked up quickly.
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Ping checks the pool for readiness probes.
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// CheckGraph verifies that pgRouting is installed and the vertex table has
// at least one row.
func (db *DB) CheckGraph(ctx context.Context) error {
	var version string
	var hasVertex bool
	err := db.Pool.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT extversion FROM pg_extension WHERE extname = 'pgrouting'), ''),
			EXISTS (SELECT 1 FROM ways_vertices_pgr)
	`).Scan(&version, &hasVertex)
	if err != nil {
		return fmt.Errorf("check graph: %w", err)
	}
	if version == "" {
		return errors.New("pgrouting extension not installed")
	}
	if !hasVertex {
		return ErrGraphEmpty
	}
	return nil
}

// Close releases pool resources.
func (db *DB) Close() {
	db.Pool.Close()
}
