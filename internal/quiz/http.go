package quiz

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quizforge/quizforge/internal/auth"
	"github.com/quizforge/quizforge/internal/config"
	"github.com/quizforge/quizforge/internal/db/repository"
	httperrors "github.com/quizforge/quizforge/pkg/http/errors"
)

// HTTPHandler exposes quiz metadata and library endpoints.
type HTTPHandler struct {
	svc     *Service
	library config.Library
	logger  zerolog.Logger
}

// NewHTTPHandler constructs the quiz HTTP handler.
func NewHTTPHandler(svc *Service, library config.Library, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, library: library, logger: logger}
}

type quizPayload struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Visibility  string    `json:"visibility"`
	ImageURL    *string   `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type createQuizRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Visibility  string  `json:"visibility"`
	ImageURL    *string `json:"image_url"`
}

type updateQuizRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Visibility  *string `json:"visibility"`
	ImageURL    *string `json:"image_url"`
}

// Create handles POST /v1/quizzes.
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	var req createQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}
	if req.Title == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeMissingField, "Quiz title is required")
		return
	}
	if req.Visibility != "" && req.Visibility != VisibilityPublic && req.Visibility != VisibilityPrivate {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Visibility must be public or private")
		return
	}

	created, err := h.svc.Create(r.Context(), claims.UserID, CreateRequest{
		Title:       req.Title,
		Description: req.Description,
		Visibility:  req.Visibility,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toPayload(created))
}

// Get handles GET /v1/quizzes/{quizID}.
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	quizID, err := uuid.Parse(r.PathValue("quizID"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid quiz id")
		return
	}

	var callerID *uuid.UUID
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		callerID = &claims.UserID
	}

	quiz, err := h.svc.Get(r.Context(), quizID, callerID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toPayload(quiz))
}

// Update handles PUT /v1/quizzes/{quizID}.
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	quizID, err := uuid.Parse(r.PathValue("quizID"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid quiz id")
		return
	}

	var req updateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	updated, err := h.svc.Update(r.Context(), claims.UserID, quizID, UpdateRequest{
		Title:       req.Title,
		Description: req.Description,
		Visibility:  req.Visibility,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toPayload(updated))
}

// Delete handles DELETE /v1/quizzes/{quizID}.
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	quizID, err := uuid.Parse(r.PathValue("quizID"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid quiz id")
		return
	}

	if err := h.svc.Delete(r.Context(), claims.UserID, quizID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// List handles GET /v1/quizzes: the public library, or the caller's own
// quizzes with ?mine=true.
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	var callerID *uuid.UUID
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		callerID = &claims.UserID
	}

	query := r.URL.Query()
	req := ListRequest{
		OwnerOnly: query.Get("mine") == "true",
		Search:    query.Get("search"),
		Limit:     h.library.DefaultPageSize,
	}
	if req.OwnerOnly && callerID == nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid limit")
			return
		}
		if limit > h.library.MaxPageSize {
			limit = h.library.MaxPageSize
		}
		req.Limit = limit
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid offset")
			return
		}
		req.Offset = offset
	}

	quizzes, err := h.svc.List(r.Context(), callerID, req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	payloads := make([]quizPayload, 0, len(quizzes))
	for _, q := range quizzes {
		payloads = append(payloads, toPayload(q))
	}
	respondJSON(w, http.StatusOK, payloads)
}

func (h *HTTPHandler) respondServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, repository.ErrQuizNotFound) {
		httperrors.RespondNotFound(w, "Quiz not found")
		return
	}
	h.logger.Error().Err(err).Msg("quiz store failure")
	httperrors.RespondUpstreamError(w, "Quiz store unavailable")
}

func toPayload(q repository.Quiz) quizPayload {
	return quizPayload{
		ID:          q.QuizID,
		OwnerID:     q.OwnerID,
		Title:       q.Title,
		Description: q.Description,
		Visibility:  q.Visibility,
		ImageURL:    q.ImageURL,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
