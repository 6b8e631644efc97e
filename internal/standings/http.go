package standings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/db/repository"
	httperrors "github.com/PhunnMoc/multiple-choice-quizzes-BE/pkg/http/errors"
	ws "github.com/PhunnMoc/multiple-choice-quizzes-BE/pkg/http/ws"
)

// snapshotReader serves the Postgres fallback when Redis has nothing.
type snapshotReader interface {
	Latest(ctx context.Context, window string) (*repository.StandingsSnapshot, error)
}

// HTTPHandler exposes the standings REST endpoint.
type HTTPHandler struct {
	svc    *Service
	snaps  snapshotReader
	logger zerolog.Logger
}

func NewHTTPHandler(svc *Service, snaps snapshotReader, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		snaps:  snaps,
		logger: logger.With().Str("component", "standings_http").Logger(),
	}
}

// HandleGet serves GET /v1/standings/{window}?limit=10.
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	window := r.PathValue("window")
	if !ValidWindow(window) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeUnknownWindow, "Unknown standings window")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	ctx := r.Context()
	var (
		top    []ws.StandingsEntry
		source = "redis"
	)

	if entries, err := h.svc.Top(ctx, window, limit); err == nil {
		top = toWireEntries(entries)
	} else {
		h.logger.Warn().Err(err).Str("window", window).Msg("redis standings fetch failed")
	}

	if len(top) == 0 {
		source = "snapshot"
		top = h.snapshotFallback(ctx, window, limit)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"window":      window,
		"top":         top,
		"source":      source,
		"retrievedAt": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HTTPHandler) snapshotFallback(ctx context.Context, window string, limit int) []ws.StandingsEntry {
	if h.snaps == nil {
		return nil
	}

	snap, err := h.snaps.Latest(ctx, window)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			h.logger.Warn().Err(err).Str("window", window).Msg("standings snapshot fetch failed")
		}
		return nil
	}

	var entries []ws.StandingsEntry
	if err := json.Unmarshal(snap.Entries, &entries); err != nil {
		h.logger.Warn().Err(err).Msg("standings snapshot decode failed")
		return nil
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
