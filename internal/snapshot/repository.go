// Package snapshot stores the result of aggregation runs in PostgreSQL so
// serve mode can answer history queries without re-fetching balances.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that the requested snapshot was not found.
var ErrNotFound = errors.New("snapshot not found")

// DefaultScope labels snapshots covering the whole address book. Filtered
// runs store under their organization label instead.
const DefaultScope = "all"

// Snapshot is one stored aggregation run.
type Snapshot struct {
	ID           int             `json:"id"`
	Scope        string          `json:"scope"`
	SnapshotDate time.Time       `json:"snapshotDate"`
	Data         json.RawMessage `json:"data"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Repository defines persistent storage for snapshots.
type Repository interface {
	Save(ctx context.Context, scope string, date time.Time, data json.RawMessage) error
	GetLatest(ctx context.Context, scope string) (*Snapshot, error)
	GetByDate(ctx context.Context, scope string, date time.Time) (*Snapshot, error)
	List(ctx context.Context, scope string, limit int) ([]Snapshot, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL snapshot repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Save upserts a snapshot; a rerun on the same date replaces the stored data.
func (r *PgRepository) Save(ctx context.Context, scope string, date time.Time, data json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO portfolio_snapshots (scope, snapshot_date, data)
		 VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (scope, snapshot_date)
		 DO UPDATE SET data = $3::jsonb`,
		scope, date, data)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (r *PgRepository) GetLatest(ctx context.Context, scope string) (*Snapshot, error) {
	var s Snapshot
	err := r.pool.QueryRow(ctx,
		`SELECT id, scope, snapshot_date, data, created_at
		 FROM portfolio_snapshots
		 WHERE scope = $1
		 ORDER BY snapshot_date DESC
		 LIMIT 1`, scope).Scan(&s.ID, &s.Scope, &s.SnapshotDate, &s.Data, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting latest snapshot: %w", err)
	}
	return &s, nil
}

func (r *PgRepository) GetByDate(ctx context.Context, scope string, date time.Time) (*Snapshot, error) {
	var s Snapshot
	err := r.pool.QueryRow(ctx,
		`SELECT id, scope, snapshot_date, data, created_at
		 FROM portfolio_snapshots
		 WHERE scope = $1 AND snapshot_date = $2`,
		scope, date).Scan(&s.ID, &s.Scope, &s.SnapshotDate, &s.Data, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting snapshot by date: %w", err)
	}
	return &s, nil
}

func (r *PgRepository) List(ctx context.Context, scope string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, scope, snapshot_date, data, created_at
		 FROM portfolio_snapshots
		 WHERE scope = $1
		 ORDER BY snapshot_date DESC
		 LIMIT $2`, scope, limit)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.Scope, &s.SnapshotDate, &s.Data, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return snapshots, nil
}
