// Package lock serializes pealscope writers that share a MySQL schema.
package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrLockTimeout is returned when another writer holds the lock.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// Timeouts for GET_LOCK, in seconds.
const (
	TimeoutImmediate = 0
	TimeoutShort     = 1
	TimeoutMedium    = 10
)

// maxLockNameLen is the MySQL limit on GET_LOCK names.
const maxLockNameLen = 64

// AdvisoryLock is a named MySQL lock pinned to a single connection.
// GET_LOCK is session scoped, so the lock owns a *sql.Conn for as long as
// it is held.
type AdvisoryLock struct {
	db       *sql.DB
	conn     *sql.Conn
	lockName string
}

// NewAdvisoryLock creates a lock with the given name. Nothing is acquired
// until Acquire is called.
func NewAdvisoryLock(db *sql.DB, lockName string) *AdvisoryLock {
	return &AdvisoryLock{db: db, lockName: lockName}
}

// NewStoreLock creates the lock guarding writes to tables with the given
// prefix.
func NewStoreLock(db *sql.DB, tablePrefix string) *AdvisoryLock {
	return NewAdvisoryLock(db, StoreLockName(tablePrefix))
}

// StoreLockName returns "pealscope:store:<prefix>" with unsafe characters
// replaced by underscores, truncated to the MySQL limit.
func StoreLockName(tablePrefix string) string {
	sanitized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, tablePrefix)

	name := "pealscope:store:" + sanitized
	if len(name) > maxLockNameLen {
		name = name[:maxLockNameLen]
	}
	return name
}

// LockName returns the name passed to GET_LOCK.
func (a *AdvisoryLock) LockName() string {
	return a.lockName
}

// IsHeld reports whether this instance holds the lock.
func (a *AdvisoryLock) IsHeld() bool {
	return a.conn != nil
}

// Acquire waits up to timeoutSeconds for the lock. It returns false without
// an error when the timeout elapses.
//
// GET_LOCK returns 1 on success, 0 on timeout and NULL on error.
func (a *AdvisoryLock) Acquire(ctx context.Context, timeoutSeconds int) (bool, error) {
	if a.IsHeld() {
		return true, nil
	}

	conn, err := a.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to reserve connection for lock %q: %w", a.lockName, err)
	}

	var result sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", a.lockName, timeoutSeconds).Scan(&result); err != nil {
		conn.Close()
		return false, fmt.Errorf("failed to execute GET_LOCK: %w", err)
	}
	if !result.Valid {
		conn.Close()
		return false, fmt.Errorf("GET_LOCK returned NULL for lock %q", a.lockName)
	}

	switch result.Int64 {
	case 1:
		a.conn = conn
		return true, nil
	case 0:
		conn.Close()
		return false, nil
	default:
		conn.Close()
		return false, fmt.Errorf("unexpected GET_LOCK return value: %d", result.Int64)
	}
}

// Release frees the lock and returns its connection to the pool. It is a
// no-op when the lock is not held.
func (a *AdvisoryLock) Release(ctx context.Context) error {
	if !a.IsHeld() {
		return nil
	}
	conn := a.conn
	a.conn = nil
	defer conn.Close()

	var result sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", a.lockName).Scan(&result); err != nil {
		return fmt.Errorf("failed to execute RELEASE_LOCK: %w", err)
	}
	if !result.Valid || result.Int64 != 1 {
		return fmt.Errorf("lock %q was not held by this session", a.lockName)
	}
	return nil
}

// WithLock runs fn while holding the lock. The lock is released even when
// fn panics, using a fresh context so a cancelled ctx does not leak it.
func (a *AdvisoryLock) WithLock(ctx context.Context, timeoutSeconds int, fn func() error) (err error) {
	acquired, err := a.Acquire(ctx, timeoutSeconds)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("%w: lock %q is held by another writer", ErrLockTimeout, a.lockName)
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if releaseErr := a.Release(releaseCtx); releaseErr != nil && err == nil {
			err = releaseErr
		}
	}()

	return fn()
}
