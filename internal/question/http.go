package question

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quizforge/quizforge/internal/answer"
	"github.com/quizforge/quizforge/internal/auth"
	"github.com/quizforge/quizforge/internal/db/repository"
	httperrors "github.com/quizforge/quizforge/pkg/http/errors"
)

// HTTPHandler exposes question authoring endpoints.
type HTTPHandler struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandler constructs the question HTTP handler.
func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, logger: logger}
}

type answerBody struct {
	Body       string  `json:"body"`
	IsCorrect  bool    `json:"is_correct"`
	OrderIndex int     `json:"order_index"`
	ImageURL   *string `json:"image_url"`
}

type createQuestionRequest struct {
	QuestionType string       `json:"question_type"`
	Prompt       string       `json:"prompt"`
	OrderIndex   int          `json:"order_index"`
	ImageURL     *string      `json:"image_url"`
	Answers      []answerBody `json:"answers"`
}

type updateQuestionRequest struct {
	QuestionType *string      `json:"question_type"`
	Prompt       *string      `json:"prompt"`
	OrderIndex   *int         `json:"order_index"`
	ImageURL     *string      `json:"image_url"`
	Answers      []answerBody `json:"answers"`
}

type questionPayload struct {
	ID           uuid.UUID       `json:"id"`
	QuizID       uuid.UUID       `json:"quiz_id"`
	QuestionType string          `json:"question_type"`
	Prompt       string          `json:"prompt"`
	OrderIndex   int             `json:"order_index"`
	ImageURL     *string         `json:"image_url,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Answers      []answerPayload `json:"answers,omitempty"`
}

type answerPayload struct {
	ID         uuid.UUID `json:"id"`
	Body       string    `json:"body"`
	IsCorrect  bool      `json:"is_correct"`
	OrderIndex int       `json:"order_index"`
	ImageURL   *string   `json:"image_url,omitempty"`
}

// Create handles POST /v1/quizzes/{quizID}/questions.
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req createQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}
	if req.Prompt == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeMissingField, "Question prompt is required")
		return
	}

	created, err := h.svc.Create(r.Context(), claims.UserID, CreateRequest{
		QuizID:       quizID,
		QuestionType: req.QuestionType,
		Prompt:       req.Prompt,
		OrderIndex:   req.OrderIndex,
		ImageURL:     req.ImageURL,
		Answers:      toProposed(req.Answers),
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toQuestionPayload(created, nil))
}

// Update handles PUT /v1/questions/{questionID}.
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req updateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid request body")
		return
	}

	update := UpdateRequest{
		QuestionType: req.QuestionType,
		Prompt:       req.Prompt,
		OrderIndex:   req.OrderIndex,
		ImageURL:     req.ImageURL,
	}
	if req.Answers != nil {
		update.Answers = toProposed(req.Answers)
	}

	updated, err := h.svc.Update(r.Context(), claims.UserID, questionID, update)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toQuestionPayload(updated, nil))
}

// Delete handles DELETE /v1/questions/{questionID}.
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.svc.Delete(r.Context(), claims.UserID, questionID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// ListByQuiz handles GET /v1/quizzes/{quizID}/questions.
func (h *HTTPHandler) ListByQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := uuid.Parse(r.PathValue("quizID"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid quiz id")
		return
	}

	var callerID *uuid.UUID
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		callerID = &claims.UserID
	}

	listed, err := h.svc.ListByQuiz(r.Context(), quizID, callerID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	payloads := make([]questionPayload, 0, len(listed))
	for _, item := range listed {
		payloads = append(payloads, toQuestionPayload(item.Question, item.Answers))
	}
	respondJSON(w, http.StatusOK, payloads)
}

func (h *HTTPHandler) respondServiceError(w http.ResponseWriter, err error) {
	if ce, ok := answer.IsConstraintViolation(err); ok {
		httperrors.RespondValidationError(w, ce.Reason)
		return
	}
	switch {
	case errors.Is(err, ErrUnknownQuestionType),
		errors.Is(err, ErrNotEnoughAnswers),
		errors.Is(err, ErrTypeChangeNeedsAnswers):
		httperrors.RespondValidationError(w, err.Error())
	case errors.Is(err, repository.ErrQuizNotFound):
		httperrors.RespondNotFound(w, "Quiz not found")
	case errors.Is(err, repository.ErrQuestionNotFound):
		httperrors.RespondNotFound(w, "Question not found")
	default:
		h.logger.Error().Err(err).Msg("question store failure")
		httperrors.RespondUpstreamError(w, "Question store unavailable")
	}
}

func toProposed(answers []answerBody) []answer.Proposed {
	proposed := make([]answer.Proposed, 0, len(answers))
	for _, a := range answers {
		proposed = append(proposed, answer.Proposed{
			Body:       a.Body,
			IsCorrect:  a.IsCorrect,
			OrderIndex: a.OrderIndex,
			ImageURL:   a.ImageURL,
		})
	}
	return proposed
}

func toQuestionPayload(q repository.Question, answers []repository.Answer) questionPayload {
	payload := questionPayload{
		ID:           q.QuestionID,
		QuizID:       q.QuizID,
		QuestionType: q.QuestionType,
		Prompt:       q.Prompt,
		OrderIndex:   q.OrderIndex,
		ImageURL:     q.ImageURL,
		CreatedAt:    q.CreatedAt,
		UpdatedAt:    q.UpdatedAt,
	}
	for _, a := range answers {
		payload.Answers = append(payload.Answers, answerPayload{
			ID:         a.AnswerID,
			Body:       a.Body,
			IsCorrect:  a.IsCorrect,
			OrderIndex: a.OrderIndex,
			ImageURL:   a.ImageURL,
		})
	}
	return payload
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
