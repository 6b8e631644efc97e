package quiz

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/auth"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/auth/jwt"
	"github.com/PhunnMoc/multiple-choice-quizzes-BE/internal/validation"
	httperrors "github.com/PhunnMoc/multiple-choice-quizzes-BE/pkg/http/errors"
)

// HTTPHandlers serves the quiz catalog REST endpoints.
type HTTPHandlers struct {
	service  *Service
	validate *validation.Validator
	logger   zerolog.Logger
}

func NewHTTPHandlers(service *Service, validate *validation.Validator, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service:  service,
		validate: validate,
		logger:   logger.With().Str("component", "quiz_http").Logger(),
	}
}

// Collection handles /v1/quizzes: GET lists the caller's quizzes, POST
// creates one.
func (h *HTTPHandlers) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
	}
}

// Item handles /v1/quizzes/{id}: GET, PUT, DELETE.
func (h *HTTPHandlers) Item(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid quiz id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
	}
}

func (h *HTTPHandlers) create(w http.ResponseWriter, r *http.Request) {
	claims := h.requireRegistered(w, r)
	if claims == nil {
		return
	}

	var req SaveQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if fields := h.validate.Struct(req); fields != nil {
		h.respondInvalid(w, fields)
		return
	}

	q, err := h.service.Create(r.Context(), claims.UserID, req)
	if err != nil {
		h.respondQuizError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, q)
}

func (h *HTTPHandlers) list(w http.ResponseWriter, r *http.Request) {
	claims := h.requireRegistered(w, r)
	if claims == nil {
		return
	}

	quizzes, err := h.service.ListByOwner(r.Context(), claims.UserID)
	if err != nil {
		h.respondQuizError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"quizzes": quizzes})
}

func (h *HTTPHandlers) get(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	q, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondQuizError(w, err)
		return
	}

	if q.OwnerID != claims.UserID {
		h.respondJSON(w, http.StatusOK, publicView(q))
		return
	}
	h.respondJSON(w, http.StatusOK, q)
}

func (h *HTTPHandlers) update(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	claims := h.requireRegistered(w, r)
	if claims == nil {
		return
	}

	var req SaveQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if fields := h.validate.Struct(req); fields != nil {
		h.respondInvalid(w, fields)
		return
	}

	q, err := h.service.Update(r.Context(), id, claims.UserID, req)
	if err != nil {
		h.respondQuizError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, q)
}

func (h *HTTPHandlers) delete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	claims := h.requireRegistered(w, r)
	if claims == nil {
		return
	}

	if err := h.service.Delete(r.Context(), id, claims.UserID); err != nil {
		h.respondQuizError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireRegistered gates quiz management to registered accounts.
func (h *HTTPHandlers) requireRegistered(w http.ResponseWriter, r *http.Request) *jwt.Claims {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return nil
	}
	if claims.IsGuest {
		httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, "Guests cannot manage quizzes")
		return nil
	}
	return claims
}

func (h *HTTPHandlers) respondQuizError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeQuizNotFound, "Quiz not found")
	case errors.Is(err, ErrNotOwner):
		httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, "Quiz belongs to another user")
	default:
		h.logger.Error().Err(err).Msg("quiz request failed")
		httperrors.RespondInternalError(w, "Something went wrong")
	}
}

func (h *HTTPHandlers) respondInvalid(w http.ResponseWriter, fields map[string]string) {
	for field, msg := range fields {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, msg, field)
		return
	}
	httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, "Validation failed")
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// publicQuiz hides the correct answers from everyone but the owner.
type publicQuiz struct {
	ID        uuid.UUID        `json:"id"`
	Title     string           `json:"title"`
	Questions []publicQuestion `json:"questions"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type publicQuestion struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

func publicView(q *Quiz) publicQuiz {
	questions := make([]publicQuestion, len(q.Questions))
	for i, question := range q.Questions {
		questions[i] = publicQuestion{Text: question.Text, Options: question.Options}
	}
	return publicQuiz{
		ID:        q.ID,
		Title:     q.Title,
		Questions: questions,
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
}
