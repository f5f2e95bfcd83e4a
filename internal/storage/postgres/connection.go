package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"runtime"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver used only for running migrations
	"github.com/pressly/goose/v3"
	"github.com/ternarybob/arbor"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// DB wraps the pgx connection pool backing the Crawl Queue Store, Job
// Store, Exclusion Rule Store and Job Log Store. Postgres is the system's
// single contended resource (spec.md §5): it is the only storage layer
// that can provide the row-level SELECT ... FOR UPDATE SKIP LOCKED
// semantics claim_next_ready requires.
type DB struct {
	Pool   *pgxpool.Pool
	logger arbor.ILogger
}

// Config configures the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MigrationsOnRun bool
}

// Connect opens a pgx connection pool, optionally running goose migrations
// first, and verifies connectivity.
func Connect(ctx context.Context, cfg Config, logger arbor.ILogger) (*DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}

	if cfg.MigrationsOnRun {
		if err := runMigrations(ctx, cfg.DSN); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = int32(runtime.GOMAXPROCS(0) * 4)
	}
	minConns := cfg.MinConns
	if minConns <= 0 {
		minConns = int32(runtime.GOMAXPROCS(0))
	}
	poolConfig.MaxConns = maxConns
	poolConfig.MinConns = minConns
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute

	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET TIMEZONE='UTC'")
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	logger.Info().Int32("max_conns", maxConns).Int32("min_conns", minConns).Msg("Postgres connection pool established")

	return &DB{Pool: pool, logger: logger}, nil
}

// Close closes the underlying connection pool.
func (d *DB) Close() {
	if d.Pool != nil {
		d.Pool.Close()
	}
}

func runMigrations(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping migration connection: %w", err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	goose.SetBaseFS(embedMigrations)

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
