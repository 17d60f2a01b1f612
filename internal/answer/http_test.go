package answer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizforge/quizforge/internal/auth"
	"github.com/quizforge/quizforge/internal/auth/jwt"
)

func authedRequest(t *testing.T, method, path, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	claims := &jwt.Claims{UserID: uuid.New()}
	return req.WithContext(auth.ContextWithClaims(context.Background(), claims))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var payload map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&payload))
	return payload
}

func TestHTTPCreateRejectionIsValidationError(t *testing.T) {
	answers := &stubAnswerStore{}
	svc, questionID := newTestService(TypeTrueFalse, answers)
	answers.rows = answerRows(questionID, 0, 2)
	handler := NewHTTPHandler(svc, zerolog.Nop())

	req := authedRequest(t, http.MethodPost, "/v1/questions/"+questionID.String()+"/answers", `{"body":"maybe"}`)
	req.SetPathValue("questionID", questionID.String())
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "validation_error", payload["error"])
	assert.Equal(t, "too many answers for this question type", payload["message"])
}

func TestHTTPCreateSuccess(t *testing.T) {
	answers := &stubAnswerStore{}
	svc, questionID := newTestService(TypeMultipleChoice, answers)
	answers.rows = answerRows(questionID, 0, 2)
	handler := NewHTTPHandler(svc, zerolog.Nop())

	req := authedRequest(t, http.MethodPost, "/v1/questions/"+questionID.String()+"/answers", `{"body":"third","order_index":2}`)
	req.SetPathValue("questionID", questionID.String())
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var payload answerPayload
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&payload))
	assert.Equal(t, "third", payload.Body)
	assert.False(t, payload.IsCorrect)
}

func TestHTTPCreateUnauthenticated(t *testing.T) {
	svc, questionID := newTestService(TypeMultipleChoice, &stubAnswerStore{})
	handler := NewHTTPHandler(svc, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/v1/questions/"+questionID.String()+"/answers", strings.NewReader(`{"body":"x"}`))
	req.SetPathValue("questionID", questionID.String())
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHTTPUpdateConstraintRejection(t *testing.T) {
	answers := &stubAnswerStore{}
	svc, questionID := newTestService(TypeMultipleChoice, answers)
	answers.rows = answerRows(questionID, 0, 3)
	target := answers.rows[0].AnswerID
	handler := NewHTTPHandler(svc, zerolog.Nop())

	req := authedRequest(t, http.MethodPut, "/v1/answers/"+target.String(), `{"is_correct":false}`)
	req.SetPathValue("answerID", target.String())
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "validation_error", payload["error"])
	assert.Equal(t, "must have exactly one correct answer", payload["message"])
}

func TestHTTPUpdateUnknownAnswerIs404(t *testing.T) {
	answers := &stubAnswerStore{}
	svc, questionID := newTestService(TypeMultipleChoice, answers)
	answers.rows = answerRows(questionID, 0, 2)
	handler := NewHTTPHandler(svc, zerolog.Nop())

	stranger := uuid.New()
	req := authedRequest(t, http.MethodPut, "/v1/answers/"+stranger.String(), `{"body":"renamed"}`)
	req.SetPathValue("answerID", stranger.String())
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPReplaceRequiresMinimumAnswers(t *testing.T) {
	answers := &stubAnswerStore{}
	svc, questionID := newTestService(TypeMultipleChoice, answers)
	answers.rows = answerRows(questionID, 0, 2)
	handler := NewHTTPHandler(svc, zerolog.Nop())

	req := authedRequest(t, http.MethodPut, "/v1/questions/"+questionID.String()+"/answers", `{"answers":[{"body":"only","is_correct":true}]}`)
	req.SetPathValue("questionID", questionID.String())
	rec := httptest.NewRecorder()
	handler.Replace(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, answers.replaced)
}

func TestHTTPDeleteLastAnswerRejection(t *testing.T) {
	answers := &stubAnswerStore{}
	svc, questionID := newTestService(TypeMultipleChoice, answers)
	answers.rows = answerRows(questionID, 0, 1)
	target := answers.rows[0].AnswerID
	handler := NewHTTPHandler(svc, zerolog.Nop())

	req := authedRequest(t, http.MethodDelete, "/v1/answers/"+target.String(), "")
	req.SetPathValue("answerID", target.String())
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "validation_error", payload["error"])
	assert.Equal(t, "cannot delete the last answer", payload["message"])
	assert.Len(t, answers.rows, 1)
}

func TestHTTPDeleteSuccess(t *testing.T) {
	answers := &stubAnswerStore{}
	svc, questionID := newTestService(TypeMultipleChoice, answers)
	answers.rows = answerRows(questionID, 0, 3)
	target := answers.rows[1].AnswerID
	handler := NewHTTPHandler(svc, zerolog.Nop())

	req := authedRequest(t, http.MethodDelete, "/v1/answers/"+target.String(), "")
	req.SetPathValue("answerID", target.String())
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, answers.rows, 2)
}
