package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuizRow is a stored quiz. Questions is the raw JSONB question list.
type QuizRow struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Title     string
	Questions []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// QuizRepository persists quiz definitions.
type QuizRepository struct {
	pool *pgxpool.Pool
}

// NewQuizRepository creates a QuizRepository on the shared pool.
func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

// Create inserts a quiz and fills in the generated id and timestamps.
func (r *QuizRepository) Create(ctx context.Context, q *QuizRow) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO quizzes (owner_id, title, questions)
		 VALUES ($1, $2, $3)
		 RETURNING quiz_id, created_at, updated_at`,
		q.OwnerID, q.Title, q.Questions,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// GetByID fetches one quiz.
func (r *QuizRepository) GetByID(ctx context.Context, id uuid.UUID) (*QuizRow, error) {
	q := &QuizRow{}
	err := r.pool.QueryRow(ctx,
		`SELECT quiz_id, owner_id, title, questions, created_at, updated_at
		 FROM quizzes WHERE quiz_id = $1`, id,
	).Scan(&q.ID, &q.OwnerID, &q.Title, &q.Questions, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return q, nil
}

// ListByOwner returns an owner's quizzes, newest first.
func (r *QuizRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]QuizRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT quiz_id, owner_id, title, questions, created_at, updated_at
		 FROM quizzes WHERE owner_id = $1
		 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []QuizRow
	for rows.Next() {
		var q QuizRow
		if err := rows.Scan(&q.ID, &q.OwnerID, &q.Title, &q.Questions, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

// Update replaces the title and question list. Only the owner's row matches.
func (r *QuizRepository) Update(ctx context.Context, q *QuizRow) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE quizzes SET title = $3, questions = $4, updated_at = NOW()
		 WHERE quiz_id = $1 AND owner_id = $2
		 RETURNING created_at, updated_at`,
		q.ID, q.OwnerID, q.Title, q.Questions,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Delete removes a quiz owned by ownerID.
func (r *QuizRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM quizzes WHERE quiz_id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
