package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/auth"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/db/repository"
	httperrors "github.com/PhunnMoc/multiple-choice-quizzes-BE/pkg/http/errors"
)

type gameReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*repository.GameRow, error)
	ListRecent(ctx context.Context, limit int) ([]repository.GameRow, error)
}

// HTTPHandlers serves archived game lookups.
type HTTPHandlers struct {
	store  gameReader
	logger zerolog.Logger
}

func NewHTTPHandlers(store gameReader, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		store:  store,
		logger: logger.With().Str("component", "game_http").Logger(),
	}
}

// GetGame handles GET /v1/games/{id}.
func (h *HTTPHandlers) GetGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}
	if auth.ClaimsFromContext(r.Context()) == nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid game id")
		return
	}

	row, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeGameNotFound, "Game not found")
			return
		}
		h.logger.Error().Err(err).Str("game_id", id.String()).Msg("game fetch failed")
		httperrors.RespondInternalError(w, "Something went wrong")
		return
	}

	rec, err := toRecord(row)
	if err != nil {
		h.logger.Error().Err(err).Str("game_id", id.String()).Msg("game decode failed")
		httperrors.RespondInternalError(w, "Something went wrong")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// ListGames handles GET /v1/games?limit=20.
func (h *HTTPHandlers) ListGames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}
	if auth.ClaimsFromContext(r.Context()) == nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	rows, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("game list failed")
		httperrors.RespondInternalError(w, "Something went wrong")
		return
	}

	records := make([]Record, 0, len(rows))
	for i := range rows {
		rec, err := toRecord(&rows[i])
		if err != nil {
			h.logger.Warn().Err(err).Str("game_id", rows[i].ID.String()).Msg("game decode failed")
			continue
		}
		records = append(records, *rec)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"games": records})
}

func toRecord(row *repository.GameRow) (*Record, error) {
	var participants []ParticipantRecord
	if err := json.Unmarshal(row.Participants, &participants); err != nil {
		return nil, fmt.Errorf("decode participants: %w", err)
	}
	return &Record{
		ID:           row.ID,
		RoomCode:     row.RoomCode,
		QuizID:       row.QuizID,
		QuizTitle:    row.QuizTitle,
		Participants: participants,
		StartedAt:    row.StartedAt,
		CompletedAt:  row.CompletedAt,
		DurationMs:   row.DurationMs,
	}, nil
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
