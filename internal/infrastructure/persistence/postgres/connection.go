// Package postgres stores the tracking record in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrPoolClosed is returned by every call made after Close.
	ErrPoolClosed = errors.New("postgres: pool closed")

	// ErrMigrationFailed wraps the failing migration version.
	ErrMigrationFailed = errors.New("postgres: migration failed")
)

// ══════════════════════════════════════════════════════════════════════════════
// POOL
// ══════════════════════════════════════════════════════════════════════════════

// Pool sizing for a bot that serves one user: one connection for the
// update loop, one for a scheduled job, headroom for the health probe.
const (
	poolMaxConns     = 4
	poolMinConns     = 1
	poolConnLifetime = time.Hour
	poolConnIdle     = 30 * time.Minute
	poolHealthPeriod = time.Minute
)

// Connection is the pgx pool shared by the migrator and the record repository.
type Connection struct {
	pool   *pgxpool.Pool
	closed atomic.Bool
}

// NewConnectionFromURL opens a pool and fails fast when the database does
// not answer a ping.
func NewConnectionFromURL(ctx context.Context, databaseURL string) (*Connection, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse database url: %w", err)
	}
	applyPoolDefaults(cfg)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &Connection{pool: pool}, nil
}

// applyPoolDefaults keeps explicit pool_max_conns / pool_min_conns from the
// URL and pins the lifetimes.
func applyPoolDefaults(cfg *pgxpool.Config) {
	if cfg.MaxConns == 0 {
		cfg.MaxConns = poolMaxConns
	}
	if cfg.MinConns == 0 {
		cfg.MinConns = poolMinConns
	}
	cfg.MaxConnLifetime = poolConnLifetime
	cfg.MaxConnIdleTime = poolConnIdle
	cfg.HealthCheckPeriod = poolHealthPeriod
}

// Close releases the pool. Later calls are no-ops.
func (c *Connection) Close() {
	if c.closed.CompareAndSwap(false, true) {
		c.pool.Close()
	}
}

// Ping reports whether the database still answers.
func (c *Connection) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrPoolClosed
	}
	return c.pool.Ping(ctx)
}

// Exec runs a statement outside any transaction.
func (c *Connection) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if c.closed.Load() {
		return pgconn.CommandTag{}, ErrPoolClosed
	}
	return c.pool.Exec(ctx, sql, args...)
}

// Query runs a row-returning statement outside any transaction.
func (c *Connection) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if c.closed.Load() {
		return nil, ErrPoolClosed
	}
	return c.pool.Query(ctx, sql, args...)
}

// ══════════════════════════════════════════════════════════════════════════════
// TRANSACTIONS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// writeTx is used for saves and migrations.
	writeTx = pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite}

	// snapshotTx reads tracking_record and check_ins from one snapshot.
	snapshotTx = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
)

// inTx runs fn in a transaction and commits only when fn returns nil.
func (c *Connection) inTx(ctx context.Context, opts pgx.TxOptions, fn func(pgx.Tx) error) error {
	if c.closed.Load() {
		return ErrPoolClosed
	}

	// pgx.BeginTxFunc rolls back on error or panic and commits otherwise.
	if err := pgx.BeginTxFunc(ctx, c.pool, opts, fn); err != nil {
		return fmt.Errorf("postgres: tx: %w", err)
	}
	return nil
}
