package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported SQL dialects.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Options configures the SQL database connection.
type Options struct {
	Dialect         string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	Logger          *slog.Logger
	PingTimeout     time.Duration
}

const (
	defaultPingTimeout = 5 * time.Second
	sqliteBusyTimeout  = 5000
)

// DB wraps *sql.DB to centralize lifecycle management.
type DB struct {
	*sql.DB
	dialect string
	logger  *slog.Logger
}

// DriverName maps a dialect to the database/sql driver registered for it.
func DriverName(dialect string) (string, error) {
	switch dialect {
	case DialectPostgres:
		return "pgx", nil
	case DialectSQLite:
		return "sqlite", nil
	}
	return "", fmt.Errorf("unsupported database dialect %q", dialect)
}

// sqliteDSN appends the pragmas every connection needs. The driver applies
// _pragma parameters on each new connection in the pool.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", dsn, sep, sqliteBusyTimeout)
}

// Connect initializes a pooled SQL connection using the provided options.
func Connect(ctx context.Context, opts Options) (*DB, error) {
	driver, err := DriverName(opts.Dialect)
	if err != nil {
		return nil, err
	}
	if opts.DSN == "" {
		return nil, errors.New("database DSN is required")
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	dsn := opts.DSN
	if opts.Dialect == DialectSQLite {
		dsn = sqliteDSN(dsn)
	}

	pool, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if opts.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		pool.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		pool.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime > 0 {
		pool.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = defaultPingTimeout
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.PingContext(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info("database connected", "dialect", opts.Dialect)

	return &DB{DB: pool, dialect: opts.Dialect, logger: log}, nil
}

// Dialect reports which SQL dialect the connection speaks.
func (db *DB) Dialect() string {
	return db.dialect
}

// Close releases database resources.
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	return db.DB.Close()
}

// Migrate applies the compiled-in schema for the connection's dialect.
func (db *DB) Migrate(ctx context.Context) error {
	fsys, err := MigrationsFS(db.dialect)
	if err != nil {
		return err
	}
	return db.RunMigrations(ctx, NewSQLMigrator(db.DB, fsys, ".", db.logger))
}

// RunMigrations applies the given migrator, logging progress.
func (db *DB) RunMigrations(ctx context.Context, migrator Migrator) error {
	if migrator == nil {
		db.logger.Info("no migrator configured; skipping migrations")
		return nil
	}

	db.logger.Info("running migrations", "dialect", db.dialect)
	if err := migrator.Up(ctx); err != nil {
		return err
	}

	db.logger.Info("migrations completed")
	return nil
}
