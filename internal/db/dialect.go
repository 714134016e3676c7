package db

import (
	"context"
	"database/sql"
	"hash/fnv"
	"strconv"
	"strings"

	"aura/internal/models"
)

// Dialect hides the differences between the supported SQL engines.
type Dialect interface {
	Name() string
	// Rebind rewrites '?' placeholders into the engine's syntax.
	Rebind(query string) string
	// TxOptions are used for every WithTx transaction.
	TxOptions() *sql.TxOptions
	// LockSlot serializes writers of one (date, time) pair until the
	// surrounding transaction ends.
	LockSlot(ctx context.Context, q queryer, date models.Date, at models.ClockTime) error
	Schema() []string
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite3" }
func (sqliteDialect) Rebind(query string) string { return query }
func (sqliteDialect) TxOptions() *sql.TxOptions { return nil }

// LockSlot is a no-op: connections are opened with _txlock=immediate, so
// every transaction already holds the database write lock from BEGIN.
func (sqliteDialect) LockSlot(context.Context, queryer, models.Date, models.ClockTime) error {
	return nil
}

func (sqliteDialect) Schema() []string { return sqliteSchema }

type postgresDialect struct{}

func (postgresDialect) Name() string { return "pgx" }

func (postgresDialect) Rebind(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Read committed is enough: the advisory lock is taken before the recount,
// and each statement sees rows committed by the previous lock holder.
func (postgresDialect) TxOptions() *sql.TxOptions {
	return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
}

func (postgresDialect) LockSlot(ctx context.Context, q queryer, date models.Date, at models.ClockTime) error {
	_, err := q.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, SlotLockKey(date, at))
	return err
}

func (postgresDialect) Schema() []string { return postgresSchema }

// SlotLockKey derives a stable 64-bit lock id for a (date, time) pair.
func SlotLockKey(date models.Date, at models.ClockTime) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("reservation-slot|" + date.String() + "|" + string(at)))
	return int64(h.Sum64())
}

func dialectFor(driver string) (Dialect, bool) {
	switch driver {
	case "sqlite3":
		return sqliteDialect{}, true
	case "pgx":
		return postgresDialect{}, true
	}
	return nil, false
}
