package answer

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quizforge/quizforge/internal/auth"
	"github.com/quizforge/quizforge/internal/db/repository"
	httperrors "github.com/quizforge/quizforge/pkg/http/errors"
)

// HTTPHandler exposes the answer mutation endpoints. Every rejection from the
// engine maps to a 400 validation_error with the engine's reason; the store
// is left unchanged on any rejection.
type HTTPHandler struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandler constructs the answer HTTP handler.
func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, logger: logger}
}

type answerPayload struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Body       string    `json:"body"`
	IsCorrect  bool      `json:"is_correct"`
	OrderIndex int       `json:"order_index"`
	ImageURL   *string   `json:"image_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type createAnswerRequest struct {
	Body       string  `json:"body"`
	IsCorrect  bool    `json:"is_correct"`
	OrderIndex int     `json:"order_index"`
	ImageURL   *string `json:"image_url"`
}

type updateAnswerRequest struct {
	Body       *string `json:"body"`
	IsCorrect  *bool   `json:"is_correct"`
	OrderIndex *int    `json:"order_index"`
	ImageURL   *string `json:"image_url"`
}

// List handles GET /v1/questions/{questionID}/answers.
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	questionID, err := uuid.Parse(r.PathValue("questionID"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid question id")
		return
	}

	answers, err := h.svc.List(r.Context(), questionID, claims.UserID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toPayloads(answers))
}

// Create handles POST /v1/questions/{questionID}/answers.
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	questionID, err := uuid.Parse(r.PathValue("questionID"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid question id")
		return
	}

	var req createAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}
	if req.Body == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeMissingField, "Answer body is required")
		return
	}

	created, err := h.svc.Create(r.Context(), claims.UserID, CreateRequest{
		QuestionID: questionID,
		Body:       req.Body,
		IsCorrect:  req.IsCorrect,
		OrderIndex: req.OrderIndex,
		ImageURL:   req.ImageURL,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toPayload(created))
}

// Update handles PUT /v1/answers/{answerID}.
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	answerID, err := uuid.Parse(r.PathValue("answerID"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid answer id")
		return
	}

	var req updateAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	updated, err := h.svc.Update(r.Context(), claims.UserID, answerID, UpdateRequest{
		Body:       req.Body,
		IsCorrect:  req.IsCorrect,
		OrderIndex: req.OrderIndex,
		ImageURL:   req.ImageURL,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toPayload(updated))
}

// Replace handles PUT /v1/questions/{questionID}/answers: the batch
// replace-all path.
func (h *HTTPHandler) Replace(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	questionID, err := uuid.Parse(r.PathValue("questionID"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid question id")
		return
	}

	var req struct {
		Answers []createAnswerRequest `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}
	if len(req.Answers) < MinAnswers {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationError, "A question needs at least two answers")
		return
	}

	proposed := make([]Proposed, 0, len(req.Answers))
	for _, a := range req.Answers {
		if a.Body == "" {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeMissingField, "Answer body is required")
			return
		}
		proposed = append(proposed, Proposed{
			Body:       a.Body,
			IsCorrect:  a.IsCorrect,
			OrderIndex: a.OrderIndex,
			ImageURL:   a.ImageURL,
		})
	}

	replaced, err := h.svc.Replace(r.Context(), claims.UserID, questionID, proposed)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toPayloads(replaced))
}

// Delete handles DELETE /v1/answers/{answerID}.
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	answerID, err := uuid.Parse(r.PathValue("answerID"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid answer id")
		return
	}

	if err := h.svc.Delete(r.Context(), claims.UserID, answerID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *HTTPHandler) respondServiceError(w http.ResponseWriter, err error) {
	if ce, ok := IsConstraintViolation(err); ok {
		httperrors.RespondValidationError(w, ce.Reason)
		return
	}
	switch {
	case errors.Is(err, repository.ErrQuestionNotFound):
		httperrors.RespondNotFound(w, "Question not found")
	case errors.Is(err, repository.ErrAnswerNotFound):
		httperrors.RespondNotFound(w, "Answer not found")
	default:
		h.logger.Error().Err(err).Msg("answer store failure")
		httperrors.RespondUpstreamError(w, "Answer store unavailable")
	}
}

func toPayload(a repository.Answer) answerPayload {
	return answerPayload{
		ID:         a.AnswerID,
		QuestionID: a.QuestionID,
		Body:       a.Body,
		IsCorrect:  a.IsCorrect,
		OrderIndex: a.OrderIndex,
		ImageURL:   a.ImageURL,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func toPayloads(answers []repository.Answer) []answerPayload {
	payloads := make([]answerPayload, 0, len(answers))
	for _, a := range answers {
		payloads = append(payloads, toPayload(a))
	}
	return payloads
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
