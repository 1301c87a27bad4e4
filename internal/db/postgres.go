package db

import (
	"context"
	"fmt"
	"time"

	"backend-fitquest/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx used by services; *pgxpool.Pool and pgxmock pools satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	newPoolFn  = pgxpool.New
	pingPoolFn = func(ctx context.Context, pool *pgxpool.Pool) error { return pool.Ping(ctx) }
)

func ConnectPostgres(cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := newPoolFn(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if err := pingPoolFn(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS workouts (
	id                      TEXT PRIMARY KEY,
	session_id              TEXT NOT NULL UNIQUE,
	user_id                 TEXT NOT NULL,
	workout_type            TEXT NOT NULL,
	start_time              TIMESTAMPTZ NOT NULL,
	end_time                TIMESTAMPTZ NOT NULL,
	timezone                TEXT NOT NULL DEFAULT 'UTC',
	timezone_offset_minutes INTEGER NOT NULL DEFAULT 0,
	distance_m              DOUBLE PRECISION NOT NULL DEFAULT 0,
	duration_sec            BIGINT NOT NULL DEFAULT 0,
	calories                INTEGER NOT NULL DEFAULT 0,
	gps_points              JSONB NOT NULL DEFAULT '[]',
	calculated_metrics      JSONB NOT NULL DEFAULT '{}',
	created_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS workouts_user_start_idx ON workouts (user_id, start_time DESC);
`

// Migrate creates the tables this service owns when they are missing.
func Migrate(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
