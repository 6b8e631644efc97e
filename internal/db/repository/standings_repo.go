package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StandingsSnapshot is a persisted top-N standings capture for one window.
// Entries is the raw JSONB entry list as served to clients.
type StandingsSnapshot struct {
	ID         int64
	Window     string
	Entries    []byte
	SourceHash string
	CapturedAt time.Time
}

// StandingsRepository persists periodic standings snapshots so reads survive
// a cold Redis.
type StandingsRepository struct {
	pool *pgxpool.Pool
}

// NewStandingsRepository creates a StandingsRepository on the shared pool.
func NewStandingsRepository(pool *pgxpool.Pool) *StandingsRepository {
	return &StandingsRepository{pool: pool}
}

// Insert stores one snapshot.
func (r *StandingsRepository) Insert(ctx context.Context, s *StandingsSnapshot) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO standings_snapshots (time_window, entries, source_hash, captured_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING snapshot_id`,
		s.Window, s.Entries, s.SourceHash, s.CapturedAt,
	).Scan(&s.ID)
}

// Latest returns the most recent snapshot for a window.
func (r *StandingsRepository) Latest(ctx context.Context, window string) (*StandingsSnapshot, error) {
	s := &StandingsSnapshot{}
	err := r.pool.QueryRow(ctx,
		`SELECT snapshot_id, time_window, entries, source_hash, captured_at
		 FROM standings_snapshots
		 WHERE time_window = $1
		 ORDER BY captured_at DESC LIMIT 1`, window,
	).Scan(&s.ID, &s.Window, &s.Entries, &s.SourceHash, &s.CapturedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}
