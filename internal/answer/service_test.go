package answer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizforge/quizforge/internal/db/repository"
)

type stubQuestionStore struct {
	resolve func(ctx context.Context, questionID, ownerID uuid.UUID) (repository.Question, error)
}

func (s *stubQuestionStore) ResolveOwned(ctx context.Context, questionID, ownerID uuid.UUID) (repository.Question, error) {
	return s.resolve(ctx, questionID, ownerID)
}

// stubAnswerStore mimics the repository's locked check-then-write contract in
// memory: the check callback sees the current set, and writes apply only when
// the check passes.
type stubAnswerStore struct {
	rows []repository.Answer

	resolveErr error
	writeErr   error
	deleteErr  error
	replaced   [][]repository.CreateAnswerParams
}

func (s *stubAnswerStore) states() []repository.AnswerState {
	out := make([]repository.AnswerState, 0, len(s.rows))
	for _, a := range s.rows {
		out = append(out, repository.AnswerState{AnswerID: a.AnswerID, IsCorrect: a.IsCorrect})
	}
	return out
}

func (s *stubAnswerStore) ListByQuestion(_ context.Context, questionID uuid.UUID) ([]repository.Answer, error) {
	return s.rows, nil
}

func (s *stubAnswerStore) ResolveOwned(_ context.Context, answerID, _ uuid.UUID) (repository.Answer, error) {
	if s.resolveErr != nil {
		return repository.Answer{}, s.resolveErr
	}
	for _, a := range s.rows {
		if a.AnswerID == answerID {
			return a, nil
		}
	}
	return repository.Answer{}, repository.ErrAnswerNotFound
}

func (s *stubAnswerStore) InsertChecked(_ context.Context, params repository.CreateAnswerParams, check repository.CheckFunc) (repository.Answer, error) {
	if err := check(s.states()); err != nil {
		return repository.Answer{}, err
	}
	if s.writeErr != nil {
		return repository.Answer{}, s.writeErr
	}
	row := repository.Answer{
		AnswerID:   uuid.New(),
		QuestionID: params.QuestionID,
		Body:       params.Body,
		IsCorrect:  params.IsCorrect,
		OrderIndex: params.OrderIndex,
		ImageURL:   params.ImageURL,
	}
	s.rows = append(s.rows, row)
	return row, nil
}

func (s *stubAnswerStore) UpdateChecked(_ context.Context, _ uuid.UUID, params repository.UpdateAnswerParams, check repository.CheckFunc) (repository.Answer, error) {
	if err := check(s.states()); err != nil {
		return repository.Answer{}, err
	}
	if s.writeErr != nil {
		return repository.Answer{}, s.writeErr
	}
	for i, a := range s.rows {
		if a.AnswerID == params.AnswerID {
			s.rows[i].Body = params.Body
			s.rows[i].IsCorrect = params.IsCorrect
			s.rows[i].OrderIndex = params.OrderIndex
			s.rows[i].ImageURL = params.ImageURL
			return s.rows[i], nil
		}
	}
	return repository.Answer{}, repository.ErrAnswerNotFound
}

func (s *stubAnswerStore) ReplaceSet(_ context.Context, questionID uuid.UUID, proposed []repository.CreateAnswerParams) ([]repository.Answer, error) {
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	s.replaced = append(s.replaced, proposed)
	s.rows = s.rows[:0]
	for _, p := range proposed {
		s.rows = append(s.rows, repository.Answer{
			AnswerID:   uuid.New(),
			QuestionID: questionID,
			Body:       p.Body,
			IsCorrect:  p.IsCorrect,
			OrderIndex: p.OrderIndex,
			ImageURL:   p.ImageURL,
		})
	}
	return s.rows, nil
}

func (s *stubAnswerStore) DeleteGuarded(_ context.Context, answerID, _ uuid.UUID) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if len(s.rows) <= 1 {
		return repository.ErrLastAnswer
	}
	for i, a := range s.rows {
		if a.AnswerID == answerID {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrAnswerNotFound
}

func answerRows(questionID uuid.UUID, correctIdx, n int) []repository.Answer {
	rows := make([]repository.Answer, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, repository.Answer{
			AnswerID:   uuid.New(),
			QuestionID: questionID,
			Body:       "option",
			IsCorrect:  i == correctIdx,
			OrderIndex: i,
		})
	}
	return rows
}

func newTestService(questionType string, answers *stubAnswerStore) (*Service, uuid.UUID) {
	questionID := uuid.New()
	questions := &stubQuestionStore{
		resolve: func(_ context.Context, _, _ uuid.UUID) (repository.Question, error) {
			return repository.Question{QuestionID: questionID, QuestionType: questionType}, nil
		},
	}
	return NewService(questions, answers, zerolog.Nop()), questionID
}

func TestServiceCreateAppendsWithinPolicy(t *testing.T) {
	answers := &stubAnswerStore{}
	svc, questionID := newTestService(TypeMultipleChoice, answers)
	answers.rows = answerRows(questionID, 0, 2)

	created, err := svc.Create(context.Background(), uuid.New(), CreateRequest{
		QuestionID: questionID,
		Body:       "third option",
	})
	require.NoError(t, err)
	assert.Equal(t, "third option", created.Body)
	assert.Len(t, answers.rows, 3)
}

func TestServiceCreateRejectsFullSet(t *testing.T) {
	answers := &stubAnswerStore{}
	svc, questionID := newTestService(TypeTrueFalse, answers)
	answers.rows = answerRows(questionID, 0, 2)

	_, err := svc.Create(context.Background(), uuid.New(), CreateRequest{
		QuestionID: questionID,
		Body:       "maybe",
	})
	ce, ok := IsConstraintViolation(err)
	require.True(t, ok)
	assert.Equal(t, KindTooManyAnswers, ce.Kind)
	assert.Len(t, answers.rows, 2, "rejected create must not write")
}

func TestServiceCreateRejectsSecondCorrect(t *testing.T) {
	answers := &stubAnswerStore{}
	svc, questionID := newTestService(TypeMultipleChoice, answers)
	answers.rows = answerRows(questionID, 0, 2)

	_, err := svc.Create(context.Background(), uuid.New(), CreateRequest{
		QuestionID: questionID,
		Body:       "also right",
		IsCorrect:  true,
	})
	ce, ok := IsConstraintViolation(err)
	require.True(t, ok)
	assert.Equal(t, KindMustHaveExactlyOneCorrect, ce.Kind)
}

func TestServiceCreatePropagatesQuestionNotFound(t *testing.T) {
	questions := &stubQuestionStore{
		resolve: func(_ context.Context, _, _ uuid.UUID) (repository.Question, error) {
			return repository.Question{}, repository.ErrQuestionNotFound
		},
	}
	svc := NewService(questions, &stubAnswerStore{}, zerolog.Nop())

	_, err := svc.Create(context.Background(), uuid.New(), CreateRequest{QuestionID: uuid.New()})
	assert.ErrorIs(t, err, repository.ErrQuestionNotFound)
}

func TestServiceCreatePropagatesStoreFailure(t *testing.T) {
	storeErr := errors.New("connection reset")
	answers := &stubAnswerStore{writeErr: storeErr}
	svc, questionID := newTestService(TypeMultipleChoice, answers)
	answers.rows = answerRows(questionID, 0, 2)

	_, err := svc.Create(context.Background(), uuid.New(), CreateRequest{QuestionID: questionID})
	require.Error(t, err)
	_, isConstraint := IsConstraintViolation(err)
	assert.False(t, isConstraint, "store failures are not constraint violations")
}

func TestServiceUpdateMergesAndExcludesSelf(t *testing.T) {
	answers := &stubAnswerStore{}
	svc, questionID := newTestService(TypeMultipleChoice, answers)
	answers.rows = answerRows(questionID, 0, 4)
	target := answers.rows[2].AnswerID

	body := "renamed"
	updated, err := svc.Update(context.Background(), uuid.New(), target, UpdateRequest{Body: &body})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Body)
	assert.False(t, updated.IsCorrect, "unset fields keep stored values")
	assert.Len(t, answers.rows, 4)
}

func TestServiceUpdateRejectsDroppingSoleCorrect(t *testing.T) {
	answers := &stubAnswerStore{}
	svc, questionID := newTestService(TypeMultipleChoice, answers)
	answers.rows = answerRows(questionID, 0, 3)
	target := answers.rows[0].AnswerID

	wrong := false
	_, err := svc.Update(context.Background(), uuid.New(), target, UpdateRequest{IsCorrect: &wrong})
	ce, ok := IsConstraintViolation(err)
	require.True(t, ok)
	assert.Equal(t, KindMustHaveExactlyOneCorrect, ce.Kind)
	assert.True(t, answers.rows[0].IsCorrect, "rejected update must not write")
}

func TestServiceUpdateAnswerNotFound(t *testing.T) {
	answers := &stubAnswerStore{resolveErr: repository.ErrAnswerNotFound}
	svc, _ := newTestService(TypeMultipleChoice, answers)

	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), UpdateRequest{})
	assert.ErrorIs(t, err, repository.ErrAnswerNotFound)
}

func TestServiceReplaceSwapsWholeSet(t *testing.T) {
	answers := &stubAnswerStore{}
	svc, questionID := newTestService(TypeMultipleChoice, answers)
	answers.rows = answerRows(questionID, 0, 2)

	replaced, err := svc.Replace(context.Background(), uuid.New(), questionID, []Proposed{
		{Body: "north", IsCorrect: true},
		{Body: "south"},
		{Body: "east"},
		{Body: "west"},
	})
	require.NoError(t, err)
	assert.Len(t, replaced, 4)
	assert.Len(t, answers.rows, 4)
}

func TestServiceReplaceInvalidSetLeavesStoreUntouched(t *testing.T) {
	answers := &stubAnswerStore{}
	svc, questionID := newTestService(TypeMultipleChoice, answers)
	answers.rows = answerRows(questionID, 0, 2)

	_, err := svc.Replace(context.Background(), uuid.New(), questionID, []Proposed{
		{Body: "a", IsCorrect: true},
		{Body: "b", IsCorrect: true},
	})
	ce, ok := IsConstraintViolation(err)
	require.True(t, ok)
	assert.Equal(t, KindMustHaveExactlyOneCorrect, ce.Kind)
	assert.Empty(t, answers.replaced, "rejected replace must never reach the store")
	assert.Len(t, answers.rows, 2)
}

func TestServiceDeleteRemovesAnswer(t *testing.T) {
	answers := &stubAnswerStore{}
	svc, questionID := newTestService(TypeMultipleChoice, answers)
	answers.rows = answerRows(questionID, 0, 3)
	target := answers.rows[2].AnswerID

	err := svc.Delete(context.Background(), uuid.New(), target)
	require.NoError(t, err)
	assert.Len(t, answers.rows, 2)
}

func TestServiceDeleteSoleCorrectOfManyAllowed(t *testing.T) {
	answers := &stubAnswerStore{}
	svc, questionID := newTestService(TypeMultipleChoice, answers)
	answers.rows = answerRows(questionID, 0, 3)
	correct := answers.rows[0].AnswerID

	// Only the count floor is guarded; correctness repair is the caller's job.
	err := svc.Delete(context.Background(), uuid.New(), correct)
	require.NoError(t, err)
	assert.Len(t, answers.rows, 2)
}

func TestServiceDeleteLastAnswerRejected(t *testing.T) {
	answers := &stubAnswerStore{}
	svc, questionID := newTestService(TypeMultipleChoice, answers)
	answers.rows = answerRows(questionID, 0, 1)

	err := svc.Delete(context.Background(), uuid.New(), answers.rows[0].AnswerID)
	ce, ok := IsConstraintViolation(err)
	require.True(t, ok)
	assert.Equal(t, KindCannotDeleteLastAnswer, ce.Kind)
	assert.Len(t, answers.rows, 1)
}

func TestServiceDeleteStoreFailureWrapped(t *testing.T) {
	storeErr := errors.New("tx aborted")
	answers := &stubAnswerStore{deleteErr: storeErr}
	svc, questionID := newTestService(TypeMultipleChoice, answers)
	answers.rows = answerRows(questionID, 0, 2)

	err := svc.Delete(context.Background(), uuid.New(), answers.rows[0].AnswerID)
	assert.ErrorIs(t, err, storeErr)
}
