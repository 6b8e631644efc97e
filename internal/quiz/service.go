package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/db/repository"
)

var (
	ErrNotFound = errors.New("quiz not found")
	ErrNotOwner = errors.New("quiz belongs to another user")
)

// quizStore is the persistence surface the service needs.
type quizStore interface {
	Create(ctx context.Context, q *repository.QuizRow) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.QuizRow, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]repository.QuizRow, error)
	Update(ctx context.Context, q *repository.QuizRow) error
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
}

// SnapshotCache caches play-ready snapshots (implemented by the Redis Cache).
type SnapshotCache interface {
	Get(ctx context.Context, quizID uuid.UUID) (*Snapshot, error)
	Set(ctx context.Context, snap *Snapshot) error
	Invalidate(ctx context.Context, quizID uuid.UUID) error
}

// Service owns the quiz catalog and hands immutable snapshots to live rooms.
type Service struct {
	store  quizStore
	cache  SnapshotCache
	logger zerolog.Logger
}

func NewService(store quizStore, cache SnapshotCache, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		logger: logger.With().Str("component", "quiz").Logger(),
	}
}

// Create stores a new quiz owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req SaveQuizRequest) (*Quiz, error) {
	data, err := json.Marshal(req.Questions)
	if err != nil {
		return nil, fmt.Errorf("encode questions: %w", err)
	}

	row := &repository.QuizRow{
		OwnerID:   ownerID,
		Title:     req.Title,
		Questions: data,
	}
	if err := s.store.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}
	return toQuiz(row)
}

// Get fetches one quiz with its full question list.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Quiz, error) {
	row, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch quiz: %w", err)
	}
	return toQuiz(row)
}

// ListByOwner returns the owner's quizzes, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Quiz, error) {
	rows, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}

	quizzes := make([]Quiz, 0, len(rows))
	for i := range rows {
		q, err := toQuiz(&rows[i])
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, *q)
	}
	return quizzes, nil
}

// Update replaces the quiz title and question list and drops any cached
// snapshot. Rooms created before the update keep playing their old copy.
func (s *Service) Update(ctx context.Context, id, ownerID uuid.UUID, req SaveQuizRequest) (*Quiz, error) {
	data, err := json.Marshal(req.Questions)
	if err != nil {
		return nil, fmt.Errorf("encode questions: %w", err)
	}

	row := &repository.QuizRow{
		ID:        id,
		OwnerID:   ownerID,
		Title:     req.Title,
		Questions: data,
	}
	if err := s.store.Update(ctx, row); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, s.classifyMissing(ctx, id)
		}
		return nil, fmt.Errorf("update quiz: %w", err)
	}

	s.invalidate(ctx, id)
	return toQuiz(row)
}

// Delete removes a quiz owned by ownerID and drops any cached snapshot.
func (s *Service) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	if err := s.store.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.classifyMissing(ctx, id)
		}
		return fmt.Errorf("delete quiz: %w", err)
	}

	s.invalidate(ctx, id)
	return nil
}

// Snapshot returns a play-ready copy of the quiz, served from Redis when
// warm. A room never reads the catalog again after this call.
func (s *Service) Snapshot(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	snap, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("quiz_id", id.String()).Msg("snapshot cache read failed")
	}
	if snap != nil {
		return snap.Clone(), nil
	}

	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	snap = &Snapshot{
		QuizID:    q.ID,
		Title:     q.Title,
		Questions: q.Questions,
		TakenAt:   time.Now().UTC(),
	}
	if err := s.cache.Set(ctx, snap); err != nil {
		s.logger.Warn().Err(err).Str("quiz_id", id.String()).Msg("snapshot cache write failed")
	}
	return snap, nil
}

// classifyMissing distinguishes a missing quiz from one owned by someone
// else after an owner-scoped write matched no rows.
func (s *Service) classifyMissing(ctx context.Context, id uuid.UUID) error {
	_, err := s.store.GetByID(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case err != nil:
		return fmt.Errorf("fetch quiz: %w", err)
	default:
		return ErrNotOwner
	}
}

func (s *Service) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("quiz_id", id.String()).Msg("snapshot cache invalidate failed")
	}
}

func toQuiz(row *repository.QuizRow) (*Quiz, error) {
	var questions []Question
	if err := json.Unmarshal(row.Questions, &questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return &Quiz{
		ID:        row.ID,
		OwnerID:   row.OwnerID,
		Title:     row.Title,
		Questions: questions,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
