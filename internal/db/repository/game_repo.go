package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GameRow is an archived quiz session. Participants is the raw JSONB result
// list, one element per player.
type GameRow struct {
	ID           uuid.UUID
	RoomCode     string
	QuizID       uuid.UUID
	QuizTitle    string
	Participants []byte
	StartedAt    time.Time
	CompletedAt  time.Time
	DurationMs   int64
}

// GameRepository persists completed games for history queries.
type GameRepository struct {
	pool *pgxpool.Pool
}

// NewGameRepository creates a GameRepository on the shared pool.
func NewGameRepository(pool *pgxpool.Pool) *GameRepository {
	return &GameRepository{pool: pool}
}

// Insert archives a completed game. The session id comes from the room, not
// the database.
func (r *GameRepository) Insert(ctx context.Context, g *GameRow) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO games (game_session_id, room_code, quiz_id, quiz_title, participants, started_at, completed_at, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		g.ID, g.RoomCode, g.QuizID, g.QuizTitle, g.Participants, g.StartedAt, g.CompletedAt, g.DurationMs)
	return err
}

// GetByID fetches one archived game.
func (r *GameRepository) GetByID(ctx context.Context, id uuid.UUID) (*GameRow, error) {
	g := &GameRow{}
	err := r.pool.QueryRow(ctx,
		`SELECT game_session_id, room_code, quiz_id, quiz_title, participants, started_at, completed_at, duration_ms
		 FROM games WHERE game_session_id = $1`, id,
	).Scan(&g.ID, &g.RoomCode, &g.QuizID, &g.QuizTitle, &g.Participants, &g.StartedAt, &g.CompletedAt, &g.DurationMs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

// ListRecent returns the most recently completed games.
func (r *GameRepository) ListRecent(ctx context.Context, limit int) ([]GameRow, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx,
		`SELECT game_session_id, room_code, quiz_id, quiz_title, participants, started_at, completed_at, duration_ms
		 FROM games ORDER BY completed_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []GameRow
	for rows.Next() {
		var g GameRow
		if err := rows.Scan(&g.ID, &g.RoomCode, &g.QuizID, &g.QuizTitle, &g.Participants, &g.StartedAt, &g.CompletedAt, &g.DurationMs); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}
