package recurring

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hmsaeedsiddiqui/wiwihood-sub002/internal/db"
)

// Locker serializes mutations of one definition. fn runs while the lock for
// id is held; repositories reached through the derived context share the
// lock's transaction when there is one.
type Locker interface {
	WithLock(ctx context.Context, id string, fn func(ctx context.Context) error) error
}

type pgLocker struct {
	pool *pgxpool.Pool
}

// NewPgLocker takes a transaction-scoped Postgres advisory lock keyed by the
// definition id, so every API instance and the scheduler share one lock.
func NewPgLocker(pool *pgxpool.Pool) Locker {
	return &pgLocker{pool: pool}
}

func (l *pgLocker) WithLock(ctx context.Context, id string, fn func(ctx context.Context) error) error {
	return db.WithTx(ctx, l.pool, func(ctx context.Context) error {
		if _, err := db.Conn(ctx, l.pool).Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", id); err != nil {
			return fmt.Errorf("acquire lock for recurring booking %s failed: %w", id, err)
		}
		return fn(ctx)
	})
}

type mutexLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedMutex
}

type keyedMutex struct {
	sync.Mutex
	refs int
}

// NewMutexLocker serializes per id within a single process. There is no
// surrounding transaction, so writes made before a failure inside fn stay.
func NewMutexLocker() Locker {
	return &mutexLocker{locks: make(map[string]*keyedMutex)}
}

func (l *mutexLocker) WithLock(ctx context.Context, id string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &keyedMutex{}
		l.locks[id] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	defer func() {
		m.Unlock()
		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}
