// Package lock provides run mutual exclusion over Postgres advisory locks.
// The lock rides a dedicated pooled connection: advisory locks are
// session-scoped, so acquire and release must happen on the same session.
package lock

import (
	"context"
	"errors"
	"hash/fnv"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"

	"github.com/sk123/theyownwhat-sub000/pkg/database"
	"github.com/sk123/theyownwhat-sub000/pkg/tracing"
)

var (
	// ErrLockNotAcquired is returned when the lock is held by another run.
	ErrLockNotAcquired = errors.New("lock not acquired")
	// ErrLockNotHeld is returned when releasing a lock this session does
	// not hold.
	ErrLockNotHeld = errors.New("lock not held")
)

// Lock is one held advisory lock.
type Lock struct {
	conn   *sqlx.Conn
	keyID  int64
	logger ectologger.Logger
}

// Locker acquires advisory locks by name.
type Locker struct {
	db     database.DB
	logger ectologger.Logger
}

// NewLocker creates a new Locker
func NewLocker(db database.DB, logger ectologger.Logger) *Locker {
	return &Locker{
		db:     db,
		logger: logger,
	}
}

// keyID folds a lock name into the 64-bit advisory lock keyspace.
func keyID(key string) int64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return int64(h.Sum64())
}

// Acquire attempts to take the named lock without waiting. Returns
// ErrLockNotAcquired when another session holds it.
func (l *Locker) Acquire(ctx context.Context, key string) (*Lock, error) {
	ctx, span := tracing.StartSpan(ctx, "lock.Locker.Acquire")
	defer span.End()

	conn, err := l.db.Connx(ctx)
	if err != nil {
		l.logger.WithContext(ctx).WithError(err).Error("Failed to obtain lock connection")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to obtain lock connection")
	}

	id := keyID(key)
	var acquired bool
	if err := conn.GetContext(ctx, &acquired, "SELECT pg_try_advisory_lock($1)", id); err != nil {
		conn.Close() //nolint:errcheck
		l.logger.WithContext(ctx).WithError(err).Error("Failed to acquire advisory lock")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to acquire advisory lock")
	}
	if !acquired {
		conn.Close() //nolint:errcheck
		return nil, ErrLockNotAcquired
	}

	l.logger.WithContext(ctx).WithFields(map[string]any{"key": key}).Debug("Acquired advisory lock")
	return &Lock{conn: conn, keyID: id, logger: l.logger}, nil
}

// IsLocked reports whether any session currently holds the named lock.
// Status reporting only; the answer is stale the moment it returns.
func (l *Locker) IsLocked(ctx context.Context, key string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "lock.Locker.IsLocked")
	defer span.End()

	query := `
		SELECT COUNT(*) > 0
		FROM pg_locks
		WHERE locktype = 'advisory'
		  AND ((classid::bigint << 32) | objid::bigint) = $1
	`
	var locked bool
	if err := l.db.GetContext(ctx, &locked, query, keyID(key)); err != nil {
		l.logger.WithContext(ctx).WithError(err).Error("Failed to check advisory lock")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to check advisory lock")
	}

	return locked, nil
}

// WithLock runs fn while holding the named lock.
func (l *Locker) WithLock(ctx context.Context, key string, fn func() error) error {
	lock, err := l.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer lock.Release(ctx) //nolint:errcheck

	return fn()
}

// Release unlocks and returns the connection to the pool.
func (lock *Lock) Release(ctx context.Context) error {
	defer lock.conn.Close() //nolint:errcheck

	var released bool
	if err := lock.conn.GetContext(ctx, &released, "SELECT pg_advisory_unlock($1)", lock.keyID); err != nil {
		lock.logger.WithContext(ctx).WithError(err).Error("Failed to release advisory lock")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to release advisory lock")
	}
	if !released {
		return ErrLockNotHeld
	}

	lock.logger.WithContext(ctx).Debug("Released advisory lock")
	return nil
}
