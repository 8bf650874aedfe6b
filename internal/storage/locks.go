package db

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// sourceLockID maps a source id onto the advisory-lock keyspace. Collisions
// only over-serialize, never under-serialize.
func sourceLockID(sourceID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sourceID))
	return int64(h.Sum64())
}

// TryAcquireSourceLock takes a session advisory lock for one source so that
// overlapping collection cycles for the same source never run concurrently.
// Returns false without blocking when another worker holds the lock.
//
// The lock lives on a dedicated pooled connection held until
// ReleaseSourceLock; unlocking on any other session would leave the lock
// stuck on an idle connection.
func (d *DB) TryAcquireSourceLock(ctx context.Context, sourceID string) (bool, error) {
	lockID := sourceLockID(sourceID)

	conn, err := d.Pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf(errFmtAcquireConn, err)
	}

	var acquired bool
	if err = conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", lockID).Scan(&acquired); err != nil {
		conn.Release()
		return false, fmt.Errorf(errFmtQuery, "try advisory lock", err)
	}
	if !acquired {
		conn.Release()
		return false, nil
	}

	d.lockMu.Lock()
	if d.lockConns == nil {
		d.lockConns = make(map[int64]*pgxpool.Conn)
	}
	d.lockConns[lockID] = conn
	d.lockMu.Unlock()

	d.Logger.Debug().Str(logKeySourceID, sourceID).Int64(logKeyLockID, lockID).Msg("acquired source lock")
	return true, nil
}

// ReleaseSourceLock unlocks the source's advisory lock on the connection
// that acquired it and returns that connection to the pool.
func (d *DB) ReleaseSourceLock(ctx context.Context, sourceID string) error {
	lockID := sourceLockID(sourceID)

	d.lockMu.Lock()
	conn, held := d.lockConns[lockID]
	delete(d.lockConns, lockID)
	d.lockMu.Unlock()

	if !held {
		d.Logger.Warn().Str(logKeySourceID, sourceID).Int64(logKeyLockID, lockID).Msg("advisory lock was not held")
		return nil
	}
	defer conn.Release()

	var released bool
	if err := conn.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", lockID).Scan(&released); err != nil {
		return fmt.Errorf(errFmtQuery, "advisory unlock", err)
	}
	if !released {
		d.Logger.Warn().Str(logKeySourceID, sourceID).Int64(logKeyLockID, lockID).Msg("advisory lock was not held")
	}
	return nil
}
