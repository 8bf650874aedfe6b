package db

import "time"

const (
	connectionRetrySleep = 2 * time.Second
	maxConnectionRetries = 10

	defaultMaxConns          = int32(25)
	defaultMinConns          = int32(5)
	defaultMaxConnIdleTime   = 30 * time.Minute
	defaultMaxConnLifetime   = time.Hour
	defaultHealthCheckPeriod = time.Minute

	migrationLockID = 1000

	errFmtParseDSN         = "parse postgres dsn: %w"
	errFmtConnect          = "connect to postgres: %w"
	errFmtAcquireConn      = "acquire connection: %w"
	errFmtMigrationLock    = "acquire migration lock: %w"
	errFmtMigrationDialect = "set migration dialect: %w"
	errFmtMigrationUp      = "apply migrations: %w"
	errFmtQuery            = "query %s: %w"
	errFmtScan             = "scan %s row: %w"
	errFmtExec             = "exec %s: %w"
	errFmtMarshal          = "marshal %s: %w"
	errFmtUnmarshal        = "unmarshal %s: %w"

	logKeyAttempt  = "attempt"
	logKeySourceID = "source_id"
	logKeyLockID   = "lock_id"
)
