package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"aura/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrOverrideExists means the date already carries an override.
	ErrOverrideExists = errors.New("date override already exists")
)

// Options selects and tunes the store.
type Options struct {
	Driver          string // sqlite3 | pgx
	Path            string // sqlite file
	DSN             string // postgres connection string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnectAttempts int
	RetryDelay      time.Duration
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn carries the query methods shared by DB and Tx.
type conn struct {
	q       queryer
	dialect Dialect
}

func (c conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.q.ExecContext(ctx, c.dialect.Rebind(query), args...)
}

func (c conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, c.dialect.Rebind(query), args...)
}

func (c conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, c.dialect.Rebind(query), args...)
}

type DB struct {
	*sql.DB
	conn
	logger *zerolog.Logger
}

// Tx is a store transaction opened by WithTx.
type Tx struct {
	conn
	tx *sql.Tx
}

func Open(ctx context.Context, opts Options, logger *zerolog.Logger) (*DB, error) {
	dialect, ok := dialectFor(opts.Driver)
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	dsn := opts.DSN
	if dialect.Name() == "sqlite3" {
		dsn = sqliteDSN(opts.Path)
	}

	sqlDB, err := sql.Open(dialect.Name(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	maxOpen, maxIdle := opts.MaxOpenConns, opts.MaxIdleConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	if maxIdle <= 0 {
		maxIdle = 5
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := pingWithRetry(ctx, sqlDB, dialect, opts, logger); err != nil {
		sqlDB.Close()
		return nil, err
	}

	db := &DB{
		DB:     sqlDB,
		conn:   conn{q: sqlDB, dialect: dialect},
		logger: logger,
	}

	if err := db.Migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}

	logger.Info().Str("driver", dialect.Name()).Str("target", logTarget(dialect, opts)).Msg("Database initialized")
	return db, nil
}

// logTarget names what was opened without leaking credentials: the file path
// for sqlite, host:port/database for postgres.
func logTarget(d Dialect, opts Options) string {
	if d.Name() != "pgx" {
		return opts.Path
	}
	pc, err := pgx.ParseConfig(opts.DSN)
	if err != nil {
		return "postgres"
	}
	return fmt.Sprintf("%s:%d/%s", pc.Host, pc.Port, pc.Database)
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate"
}

// pingWithRetry gives a networked server time to come up. SQLite fails fast.
func pingWithRetry(ctx context.Context, sqlDB *sql.DB, dialect Dialect, opts Options, logger *zerolog.Logger) error {
	attempts := opts.ConnectAttempts
	if attempts <= 0 || dialect.Name() == "sqlite3" {
		attempts = 1
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}

	var err error
	for i := 1; i <= attempts; i++ {
		if err = sqlDB.PingContext(ctx); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		logger.Warn().Err(err).Int("attempt", i).Msg("Database not reachable, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("ping database: %w", err)
}

// Migrate creates missing tables and indexes.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range db.dialect.Schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", trimSQL(stmt), err)
		}
	}
	return nil
}

func trimSQL(stmt string) string {
	stmt = strings.Join(strings.Fields(stmt), " ")
	if len(stmt) > 60 {
		return stmt[:60] + "..."
	}
	return stmt
}

// Dialect reports the active SQL dialect.
func (db *DB) Dialect() Dialect { return db.dialect }

// WithTx runs fn inside a transaction, committing when fn returns nil.
func (db *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	sqlTx, err := db.BeginTx(ctx, db.dialect.TxOptions())
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	if err = fn(&Tx{conn: conn{q: sqlTx, dialect: db.dialect}, tx: sqlTx}); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// LockSlot serializes bookings of one (date, time) pair for the rest of tx.
func (tx *Tx) LockSlot(ctx context.Context, date models.Date, at models.ClockTime) error {
	if err := tx.dialect.LockSlot(ctx, tx.tx, date, at); err != nil {
		return fmt.Errorf("lock slot %s %s: %w", date, at, err)
	}
	return nil
}

func rowsAffectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nowUTC() time.Time { return time.Now().UTC() }
