// Package db is the persistence layer for the CMDB inventory and the CI/CD
// integration settings. It runs on SQLite, MySQL or PostgreSQL through bun.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	TypeSQLite   = "sqlite"
	TypeMySQL    = "mysql"
	TypePostgres = "postgres"
)

// Options configures Open.
type Options struct {
	Type            string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB owns the connection pool and hands out the stores.
type DB struct {
	bun  *bun.DB
	Type string
}

// sqlOpenFunc allows tests to override database opening behavior.
var sqlOpenFunc = sql.Open

// Open connects, tunes the pool and creates missing tables.
func Open(ctx context.Context, opts Options) (*DB, error) {
	dbType := strings.ToLower(strings.TrimSpace(opts.Type))
	driverName := dbType
	// The pgx stdlib registers driver name "pgx".
	if dbType == TypePostgres {
		driverName = "pgx"
	}
	switch dbType {
	case TypeSQLite, TypeMySQL, TypePostgres:
	default:
		return nil, fmt.Errorf("unsupported database type %q", opts.Type)
	}
	if dbType == TypeSQLite && opts.DSN != ":memory:" && !strings.HasPrefix(opts.DSN, "file:") {
		if err := os.MkdirAll(filepath.Dir(opts.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	sqlDB, err := sqlOpenFunc(driverName, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen, maxIdle := opts.MaxOpenConns, opts.MaxIdleConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	if maxIdle <= 0 {
		maxIdle = maxOpen
	}
	// Each connection to ":memory:" is a separate database.
	if dbType == TypeSQLite && opts.DSN == ":memory:" {
		maxOpen, maxIdle = 1, 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	d := &DB{bun: createBunDB(sqlDB, dbType), Type: dbType}
	if err := d.migrate(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

func createBunDB(sqlDB *sql.DB, dbType string) *bun.DB {
	switch dbType {
	case TypePostgres:
		return bun.NewDB(sqlDB, pgdialect.New())
	case TypeMySQL:
		return bun.NewDB(sqlDB, mysqldialect.New())
	default:
		return bun.NewDB(sqlDB, sqlitedialect.New())
	}
}

func (d *DB) migrate(ctx context.Context) error {
	for _, model := range []any{(*hostRow)(nil), (*settingRow)(nil)} {
		if _, err := d.bun.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}
	}
	// MySQL has no CREATE INDEX IF NOT EXISTS.
	if d.Type != TypeMySQL {
		if _, err := d.bun.NewCreateIndex().
			Model((*hostRow)(nil)).
			Index("idx_hosts_host_ip").
			Column("host_ip").
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("migrate host index: %w", err)
		}
	}
	return nil
}

// Ping verifies the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.bun.PingContext(ctx)
}

func (d *DB) Close() error {
	if d == nil || d.bun == nil {
		return nil
	}
	return d.bun.Close()
}

func (d *DB) Hosts() *HostStore {
	return &HostStore{db: d.bun}
}

func (d *DB) Settings() *SettingsStore {
	return &SettingsStore{db: d.bun}
}
