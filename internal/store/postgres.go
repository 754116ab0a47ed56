package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/ratelog/internal/ratelimit"
)

// DefaultSnapshotName names the snapshot row when none is configured.
const DefaultSnapshotName = "default"

// PostgresStore keeps the snapshot in one row of a PostgreSQL table.
type PostgresStore struct {
	pool *pgxpool.Pool
	name string
}

// NewPostgresStore creates a PostgreSQL-backed snapshot store. An empty name
// selects DefaultSnapshotName.
func NewPostgresStore(pool *pgxpool.Pool, name string) *PostgresStore {
	if name == "" {
		name = DefaultSnapshotName
	}

	return &PostgresStore{pool: pool, name: name}
}

// EnsureSchema creates the snapshot table if it does not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS rate_limit_snapshots (
			name       TEXT PRIMARY KEY,
			data       TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)

	return err
}

func (p *PostgresStore) Load(ctx context.Context) (ratelimit.Snapshot, error) {
	var raw string

	err := p.pool.QueryRow(ctx,
		`SELECT data FROM rate_limit_snapshots WHERE name = $1`, p.name,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ratelimit.Snapshot{}, nil
		}

		return nil, err
	}

	return decodeSnapshot([]byte(raw))
}

func (p *PostgresStore) Persist(ctx context.Context, data ratelimit.Snapshot) error {
	raw, err := encodeSnapshot(data)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO rate_limit_snapshots (name, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`

	_, err = p.pool.Exec(ctx, query, p.name, string(raw))

	return err
}

func (p *PostgresStore) Reset(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM rate_limit_snapshots WHERE name = $1`, p.name)

	return err
}

// Ping checks PostgreSQL connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Shutdown closes the connection pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

// Compile-time check.
var _ ratelimit.Store = (*PostgresStore)(nil)
