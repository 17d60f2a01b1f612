package answer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quizforge/quizforge/internal/db/repository"
)

type questionStore interface {
	ResolveOwned(ctx context.Context, questionID, ownerID uuid.UUID) (repository.Question, error)
}

type answerStore interface {
	ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]repository.Answer, error)
	ResolveOwned(ctx context.Context, answerID, ownerID uuid.UUID) (repository.Answer, error)
	InsertChecked(ctx context.Context, params repository.CreateAnswerParams, check repository.CheckFunc) (repository.Answer, error)
	UpdateChecked(ctx context.Context, questionID uuid.UUID, params repository.UpdateAnswerParams, check repository.CheckFunc) (repository.Answer, error)
	ReplaceSet(ctx context.Context, questionID uuid.UUID, proposed []repository.CreateAnswerParams) ([]repository.Answer, error)
	DeleteGuarded(ctx context.Context, answerID, questionID uuid.UUID) error
}

// Service gates every answer mutation through the constraint engine. Answer
// rows are mutated only through this gate; writes that bypass it can silently
// violate the set invariants.
type Service struct {
	questions questionStore
	answers   answerStore
	logger    zerolog.Logger
}

// NewService constructs the answer service.
func NewService(questions questionStore, answers answerStore, logger zerolog.Logger) *Service {
	return &Service{
		questions: questions,
		answers:   answers,
		logger:    logger,
	}
}

// CreateRequest is an individual "add answer" mutation.
type CreateRequest struct {
	QuestionID uuid.UUID
	Body       string
	IsCorrect  bool
	OrderIndex int
	ImageURL   *string
}

// UpdateRequest carries new field values for an answer; nil fields keep the
// stored value.
type UpdateRequest struct {
	Body       *string
	IsCorrect  *bool
	OrderIndex *int
	ImageURL   *string
}

// List returns the answer set of a question owned by the caller.
func (s *Service) List(ctx context.Context, questionID, ownerID uuid.UUID) ([]repository.Answer, error) {
	if _, err := s.questions.ResolveOwned(ctx, questionID, ownerID); err != nil {
		return nil, err
	}
	return s.answers.ListByQuestion(ctx, questionID)
}

// Create adds one answer to a question's set. The question type is resolved
// first, then the constraint check and the insert run as one atomic unit
// against the store.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req CreateRequest) (created repository.Answer, err error) {
	defer func() { observeOutcome("create", err) }()

	q, err := s.questions.ResolveOwned(ctx, req.QuestionID, ownerID)
	if err != nil {
		return repository.Answer{}, err
	}

	created, err = s.answers.InsertChecked(ctx, repository.CreateAnswerParams{
		QuestionID: req.QuestionID,
		Body:       req.Body,
		IsCorrect:  req.IsCorrect,
		OrderIndex: req.OrderIndex,
		ImageURL:   req.ImageURL,
	}, func(existing []repository.AnswerState) error {
		return CheckConstraints(q.QuestionType, toStates(existing), Candidate{IsCorrect: req.IsCorrect}, nil)
	})
	if err != nil {
		return repository.Answer{}, err
	}
	return created, nil
}

// Update replaces an answer's field values in place, re-validating the
// projected set with the row under update excluded from the base counts.
func (s *Service) Update(ctx context.Context, ownerID, answerID uuid.UUID, req UpdateRequest) (updated repository.Answer, err error) {
	defer func() { observeOutcome("update", err) }()

	current, err := s.answers.ResolveOwned(ctx, answerID, ownerID)
	if err != nil {
		return repository.Answer{}, err
	}
	q, err := s.questions.ResolveOwned(ctx, current.QuestionID, ownerID)
	if err != nil {
		return repository.Answer{}, err
	}

	params := repository.UpdateAnswerParams{
		AnswerID:   answerID,
		Body:       current.Body,
		IsCorrect:  current.IsCorrect,
		OrderIndex: current.OrderIndex,
		ImageURL:   current.ImageURL,
	}
	if req.Body != nil {
		params.Body = *req.Body
	}
	if req.IsCorrect != nil {
		params.IsCorrect = *req.IsCorrect
	}
	if req.OrderIndex != nil {
		params.OrderIndex = *req.OrderIndex
	}
	if req.ImageURL != nil {
		params.ImageURL = req.ImageURL
	}

	updated, err = s.answers.UpdateChecked(ctx, current.QuestionID, params, func(existing []repository.AnswerState) error {
		return CheckConstraints(q.QuestionType, toStates(existing), Candidate{IsCorrect: params.IsCorrect}, &answerID)
	})
	if err != nil {
		return repository.Answer{}, err
	}
	return updated, nil
}

// Replace swaps a question's entire answer set. The complete proposed set is
// validated before any row is touched; an invalid set leaves the original
// intact.
func (s *Service) Replace(ctx context.Context, ownerID, questionID uuid.UUID, proposed []Proposed) (replaced []repository.Answer, err error) {
	defer func() { observeOutcome("replace", err) }()

	q, err := s.questions.ResolveOwned(ctx, questionID, ownerID)
	if err != nil {
		return nil, err
	}
	if err = ValidateSet(q.QuestionType, proposed); err != nil {
		return nil, err
	}

	params := make([]repository.CreateAnswerParams, 0, len(proposed))
	for _, p := range proposed {
		params = append(params, repository.CreateAnswerParams{
			QuestionID: questionID,
			Body:       p.Body,
			IsCorrect:  p.IsCorrect,
			OrderIndex: p.OrderIndex,
			ImageURL:   p.ImageURL,
		})
	}
	replaced, err = s.answers.ReplaceSet(ctx, questionID, params)
	if err != nil {
		return nil, err
	}
	return replaced, nil
}

// Delete removes one answer through the atomic delete-guard. Deleting the
// sole correct answer of a multi-answer question is allowed; only the count
// floor is guarded, and the engine never promotes another answer on the
// caller's behalf.
func (s *Service) Delete(ctx context.Context, ownerID, answerID uuid.UUID) (err error) {
	defer func() { observeOutcome("delete", err) }()

	current, err := s.answers.ResolveOwned(ctx, answerID, ownerID)
	if err != nil {
		return err
	}

	err = s.answers.DeleteGuarded(ctx, answerID, current.QuestionID)
	if errors.Is(err, repository.ErrLastAnswer) {
		return ErrCannotDeleteLastAnswer
	}
	if err != nil {
		return fmt.Errorf("delete answer %s: %w", answerID, err)
	}
	return nil
}

func toStates(existing []repository.AnswerState) []State {
	states := make([]State, 0, len(existing))
	for _, a := range existing {
		states = append(states, State{ID: a.AnswerID, IsCorrect: a.IsCorrect})
	}
	return states
}
