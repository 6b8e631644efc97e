package standings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/db/repository"
)

// snapshotStore is the persistence surface for standings snapshots.
type snapshotStore interface {
	Insert(ctx context.Context, s *repository.StandingsSnapshot) error
}

// SnapshotWorker periodically copies the Redis boards into Postgres so
// standings reads survive a cold Redis.
type SnapshotWorker struct {
	svc      *Service
	store    snapshotStore
	logger   zerolog.Logger
	interval time.Duration
}

func NewSnapshotWorker(svc *Service, store snapshotStore, interval time.Duration, logger zerolog.Logger) *SnapshotWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SnapshotWorker{
		svc:      svc,
		store:    store,
		logger:   logger.With().Str("component", "standings_snapshot_worker").Logger(),
		interval: interval,
	}
}

// Run blocks until context cancellation.
func (w *SnapshotWorker) Run(ctx context.Context) error {
	if w.svc == nil || w.store == nil {
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// run immediately
	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *SnapshotWorker) tick(ctx context.Context) {
	for _, window := range Windows {
		if err := w.snapshotWindow(ctx, window); err != nil {
			w.logger.Warn().Err(err).Str("window", window).Msg("standings snapshot failed")
		}
	}
}

func (w *SnapshotWorker) snapshotWindow(ctx context.Context, window string) error {
	entries, err := w.svc.SnapshotTop(ctx, window)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	data, err := json.Marshal(toWireEntries(entries))
	if err != nil {
		return err
	}
	sourceHash := sha256.Sum256(data)

	snap := &repository.StandingsSnapshot{
		Window:     window,
		Entries:    data,
		SourceHash: hex.EncodeToString(sourceHash[:]),
		CapturedAt: time.Now().UTC(),
	}
	if err := w.store.Insert(ctx, snap); err != nil {
		return err
	}

	w.logger.Info().
		Str("window", window).
		Int("entries", len(entries)).
		Time("captured_at", snap.CapturedAt).
		Msg("standings snapshot persisted")
	return nil
}
