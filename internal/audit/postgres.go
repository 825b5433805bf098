package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"
)

// Repository is a PostgreSQL-backed Recorder.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a Repository with a connection pool.
func NewRepository(ctx context.Context, databaseURL string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 5
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{pool: pool}, nil
}

// Record inserts one workflow entry.
func (r *Repository) Record(ctx context.Context, e Entry) error {
	query := `
		INSERT INTO subscription_log (id, email, username, status, detail, steps, poll_attempts, duration_ms, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		ulid.Make().String(),
		e.Email,
		e.Username,
		e.Status,
		e.Detail,
		pq.Array(e.Steps),
		e.PollAttempts,
		e.Duration.Milliseconds(),
		e.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record subscription entry: %w", err)
	}

	return nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}
