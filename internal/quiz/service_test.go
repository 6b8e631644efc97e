package quiz

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/db/repository"
)

// fakeQuizStore backs the service with an in-memory map.
type fakeQuizStore struct {
	rows map[uuid.UUID]*repository.QuizRow
	gets int
}

func newFakeQuizStore() *fakeQuizStore {
	return &fakeQuizStore{rows: make(map[uuid.UUID]*repository.QuizRow)}
}

func (f *fakeQuizStore) Create(_ context.Context, q *repository.QuizRow) error {
	q.ID = uuid.New()
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	clone := *q
	f.rows[q.ID] = &clone
	return nil
}

func (f *fakeQuizStore) GetByID(_ context.Context, id uuid.UUID) (*repository.QuizRow, error) {
	f.gets++
	row, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *row
	return &clone, nil
}

func (f *fakeQuizStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]repository.QuizRow, error) {
	var out []repository.QuizRow
	for _, row := range f.rows {
		if row.OwnerID == ownerID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeQuizStore) Update(_ context.Context, q *repository.QuizRow) error {
	row, ok := f.rows[q.ID]
	if !ok || row.OwnerID != q.OwnerID {
		return repository.ErrNotFound
	}
	row.Title = q.Title
	row.Questions = q.Questions
	row.UpdatedAt = time.Now()
	q.CreatedAt = row.CreatedAt
	q.UpdatedAt = row.UpdatedAt
	return nil
}

func (f *fakeQuizStore) Delete(_ context.Context, id, ownerID uuid.UUID) error {
	row, ok := f.rows[id]
	if !ok || row.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

// memorySnapshotCache mirrors the Redis cache without a server.
type memorySnapshotCache struct {
	store map[uuid.UUID]*Snapshot
}

func newMemorySnapshotCache() *memorySnapshotCache {
	return &memorySnapshotCache{store: make(map[uuid.UUID]*Snapshot)}
}

func (c *memorySnapshotCache) Get(_ context.Context, quizID uuid.UUID) (*Snapshot, error) {
	return c.store[quizID], nil
}

func (c *memorySnapshotCache) Set(_ context.Context, snap *Snapshot) error {
	c.store[snap.QuizID] = snap.Clone()
	return nil
}

func (c *memorySnapshotCache) Invalidate(_ context.Context, quizID uuid.UUID) error {
	delete(c.store, quizID)
	return nil
}

func newTestQuizService() (*Service, *fakeQuizStore, *memorySnapshotCache) {
	store := newFakeQuizStore()
	cache := newMemorySnapshotCache()
	return NewService(store, cache, zerolog.Nop()), store, cache
}

func sampleRequest() SaveQuizRequest {
	return SaveQuizRequest{
		Title: "Capitals",
		Questions: []Question{
			{Text: "Capital of France?", Options: []string{"Paris", "Rome", "Berlin", "Madrid"}, CorrectIndex: 0},
			{Text: "Capital of Italy?", Options: []string{"Milan", "Rome", "Naples", "Turin"}, CorrectIndex: 1},
		},
	}
}

func TestCreateAndGet(t *testing.T) {
	svc, _, _ := newTestQuizService()
	ctx := context.Background()
	owner := uuid.New()

	created, err := svc.Create(ctx, owner, sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, owner, created.OwnerID)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Capitals", got.Title)
	require.Len(t, got.Questions, 2)
	assert.Equal(t, 1, got.Questions[1].CorrectIndex)
}

func TestGetMissing(t *testing.T) {
	svc, _, _ := newTestQuizService()

	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListByOwner(t *testing.T) {
	svc, _, _ := newTestQuizService()
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	_, err := svc.Create(ctx, alice, sampleRequest())
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice, sampleRequest())
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob, sampleRequest())
	require.NoError(t, err)

	quizzes, err := svc.ListByOwner(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, quizzes, 2)
}

func TestSnapshotServedFromCache(t *testing.T) {
	svc, store, _ := newTestQuizService()
	ctx := context.Background()

	created, err := svc.Create(ctx, uuid.New(), sampleRequest())
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, snap.QuizID)
	assert.Len(t, snap.Questions, 2)
	assert.Equal(t, 1, store.gets)

	_, err = svc.Snapshot(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, store.gets, "second snapshot should hit the cache")
}

func TestSnapshotCopiesAreIndependent(t *testing.T) {
	svc, _, _ := newTestQuizService()
	ctx := context.Background()

	created, err := svc.Create(ctx, uuid.New(), sampleRequest())
	require.NoError(t, err)

	first, err := svc.Snapshot(ctx, created.ID)
	require.NoError(t, err)
	first.Questions[0].Options[0] = "mutated"

	second, err := svc.Snapshot(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Paris", second.Questions[0].Options[0])
}

func TestUpdateDropsCachedSnapshot(t *testing.T) {
	svc, store, _ := newTestQuizService()
	ctx := context.Background()
	owner := uuid.New()

	created, err := svc.Create(ctx, owner, sampleRequest())
	require.NoError(t, err)

	_, err = svc.Snapshot(ctx, created.ID)
	require.NoError(t, err)
	gets := store.gets

	req := sampleRequest()
	req.Title = "Renamed"
	updated, err := svc.Update(ctx, created.ID, owner, req)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	snap, err := svc.Snapshot(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", snap.Title)
	assert.Greater(t, store.gets, gets, "update should evict the cached snapshot")
}

func TestUpdateOwnerChecks(t *testing.T) {
	svc, _, _ := newTestQuizService()
	ctx := context.Background()
	owner := uuid.New()

	created, err := svc.Create(ctx, owner, sampleRequest())
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, uuid.New(), sampleRequest())
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = svc.Update(ctx, uuid.New(), owner, sampleRequest())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, _, _ := newTestQuizService()
	ctx := context.Background()
	owner := uuid.New()

	created, err := svc.Create(ctx, owner, sampleRequest())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, created.ID, uuid.New()), ErrNotOwner)
	require.NoError(t, svc.Delete(ctx, created.ID, owner))

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, created.ID, owner), ErrNotFound)
}
