package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/sifterlab/mediasift/migrations"
)

// DB wraps a pgx connection pool and exposes the repositories used by the
// analysis pipeline.
type DB struct {
	Pool   *pgxpool.Pool
	Logger zerolog.Logger

	// Session advisory locks only unlock on the connection that took them,
	// so each held source lock pins its own pooled connection here until
	// release.
	lockMu    sync.Mutex
	lockConns map[int64]*pgxpool.Conn
}

// PoolOptions tunes the pgx pool. Zero values fall back to the defaults in
// constants.go.
type PoolOptions struct {
	MaxConns          int32
	MinConns          int32
	MaxConnIdleTime   time.Duration
	MaxConnLifetime   time.Duration
	HealthCheckPeriod time.Duration
}

// New connects with default pool options.
func New(ctx context.Context, dsn string, logger zerolog.Logger) (*DB, error) {
	return NewWithOptions(ctx, dsn, logger, PoolOptions{})
}

// NewWithOptions connects to Postgres, retrying while the database comes up.
func NewWithOptions(ctx context.Context, dsn string, logger zerolog.Logger, opts PoolOptions) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf(errFmtParseDSN, err)
	}
	applyPoolOptions(cfg, opts)

	pool, err := connectWithRetries(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &DB{Pool: pool, Logger: logger}, nil
}

func applyPoolOptions(cfg *pgxpool.Config, opts PoolOptions) {
	cfg.MaxConns = defaultMaxConns
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	cfg.MinConns = defaultMinConns
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	cfg.MaxConnIdleTime = defaultMaxConnIdleTime
	if opts.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = opts.MaxConnIdleTime
	}
	cfg.MaxConnLifetime = defaultMaxConnLifetime
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}
	cfg.HealthCheckPeriod = defaultHealthCheckPeriod
	if opts.HealthCheckPeriod > 0 {
		cfg.HealthCheckPeriod = opts.HealthCheckPeriod
	}
}

func connectWithRetries(ctx context.Context, cfg *pgxpool.Config, logger zerolog.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error
	for i := 0; i < maxConnectionRetries; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, cfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		logger.Warn().Err(err).Int(logKeyAttempt, i+1).Msg("database not ready, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(connectionRetrySleep):
		}
	}
	return nil, fmt.Errorf(errFmtConnect, err)
}

// Ping reports whether the pool can reach the database. It backs the
// readiness endpoint.
func (d *DB) Ping(ctx context.Context) error {
	return d.Pool.Ping(ctx)
}

// Close releases the pool.
func (d *DB) Close() {
	d.Pool.Close()
}

type gooseLogger struct {
	logger zerolog.Logger
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.logger.Fatal().Msgf(format, v...)
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.logger.Info().Msgf(format, v...)
}

// Migrate runs the embedded goose migrations. A session advisory lock keeps
// concurrent replicas from racing on schema changes.
func (d *DB) Migrate(ctx context.Context) error {
	conn, err := d.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf(errFmtAcquireConn, err)
	}
	defer conn.Release()

	if _, err = conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		return fmt.Errorf(errFmtMigrationLock, err)
	}
	defer func() {
		_, unlockErr := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrationLockID)
		if unlockErr != nil {
			d.Logger.Warn().Err(unlockErr).Msg("failed to release migration lock")
		}
	}()

	sqlDB := stdlib.OpenDB(*conn.Conn().Config())
	defer func() {
		if closeErr := sqlDB.Close(); closeErr != nil {
			d.Logger.Warn().Err(closeErr).Msg("failed to close migration connection")
		}
	}()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{logger: d.Logger})
	if err = goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf(errFmtMigrationDialect, err)
	}
	if err = goose.Up(sqlDB, "."); err != nil {
		return fmt.Errorf(errFmtMigrationUp, err)
	}
	return nil
}
