package question

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quizforge/quizforge/internal/answer"
	"github.com/quizforge/quizforge/internal/db/repository"
)

// ErrTypeChangeNeedsAnswers rejects a question-type change that does not
// replace the answer set in the same update; the old set cannot be assumed
// valid under the new type's policy bound.
var ErrTypeChangeNeedsAnswers = errors.New("changing the question type requires replacing its answers in the same update")

// ErrUnknownQuestionType rejects unsupported question types.
var ErrUnknownQuestionType = errors.New("unknown question type")

// ErrNotEnoughAnswers rejects a proposed answer set below the creation-time
// floor of two.
var ErrNotEnoughAnswers = errors.New("a question needs at least two answers")

type questionStore interface {
	Create(ctx context.Context, ownerID uuid.UUID, params repository.CreateQuestionParams) (repository.Question, error)
	ResolveOwned(ctx context.Context, questionID, ownerID uuid.UUID) (repository.Question, error)
	ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]repository.Question, error)
	Update(ctx context.Context, ownerID uuid.UUID, params repository.UpdateQuestionParams) (repository.Question, error)
	Delete(ctx context.Context, questionID, ownerID uuid.UUID) ([]string, error)
}

type answerLister interface {
	ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]repository.Answer, error)
}

type quizResolver interface {
	GetByID(ctx context.Context, quizID uuid.UUID) (repository.Quiz, error)
}

type imageCleaner interface {
	Remove(ctx context.Context, url string) error
}

// Service handles question authoring. Whole-set answer writes go through the
// same validation the per-answer engine applies, evaluated over the complete
// proposed set.
type Service struct {
	questions questionStore
	answers   answerLister
	quizzes   quizResolver
	images    imageCleaner
	logger    zerolog.Logger
}

// NewService constructs the question service.
func NewService(questions questionStore, answers answerLister, quizzes quizResolver, images imageCleaner, logger zerolog.Logger) *Service {
	return &Service{
		questions: questions,
		answers:   answers,
		quizzes:   quizzes,
		images:    images,
		logger:    logger,
	}
}

// CreateRequest carries a new question and its initial answer set.
type CreateRequest struct {
	QuizID       uuid.UUID
	QuestionType string
	Prompt       string
	OrderIndex   int
	ImageURL     *string
	Answers      []answer.Proposed
}

// UpdateRequest carries new question field values; nil fields keep the stored
// value. A non-nil Answers replaces the entire answer set atomically.
type UpdateRequest struct {
	QuestionType *string
	Prompt       *string
	OrderIndex   *int
	ImageURL     *string
	Answers      []answer.Proposed
}

// WithAnswers pairs a question with its answer set for reads.
type WithAnswers struct {
	Question repository.Question
	Answers  []repository.Answer
}

// Create inserts a question with its initial answers, validating the whole
// proposed set against the type's policy before anything is written.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req CreateRequest) (repository.Question, error) {
	if !answer.KnownType(req.QuestionType) {
		return repository.Question{}, ErrUnknownQuestionType
	}
	if err := validateProposedSet(req.QuestionType, req.Answers); err != nil {
		return repository.Question{}, err
	}

	return s.questions.Create(ctx, ownerID, repository.CreateQuestionParams{
		QuizID:       req.QuizID,
		QuestionType: req.QuestionType,
		Prompt:       req.Prompt,
		OrderIndex:   req.OrderIndex,
		ImageURL:     req.ImageURL,
		Answers:      toAnswerParams(req.Answers),
	})
}

// Update rewrites a question. Changing the type is only allowed when the same
// update replaces the answer set, because the old set may not satisfy the new
// type's bound.
func (s *Service) Update(ctx context.Context, ownerID, questionID uuid.UUID, req UpdateRequest) (repository.Question, error) {
	current, err := s.questions.ResolveOwned(ctx, questionID, ownerID)
	if err != nil {
		return repository.Question{}, err
	}

	params := repository.UpdateQuestionParams{
		QuestionID:   questionID,
		QuestionType: current.QuestionType,
		Prompt:       current.Prompt,
		OrderIndex:   current.OrderIndex,
		ImageURL:     current.ImageURL,
	}
	if req.QuestionType != nil {
		if !answer.KnownType(*req.QuestionType) {
			return repository.Question{}, ErrUnknownQuestionType
		}
		params.QuestionType = *req.QuestionType
	}
	if req.Prompt != nil {
		params.Prompt = *req.Prompt
	}
	if req.OrderIndex != nil {
		params.OrderIndex = *req.OrderIndex
	}
	if req.ImageURL != nil {
		params.ImageURL = req.ImageURL
	}

	if params.QuestionType != current.QuestionType && req.Answers == nil {
		return repository.Question{}, ErrTypeChangeNeedsAnswers
	}
	if req.Answers != nil {
		// Validate against the type the question will have after the update.
		if err := validateProposedSet(params.QuestionType, req.Answers); err != nil {
			return repository.Question{}, err
		}
		params.Answers = toAnswerParams(req.Answers)
	}

	return s.questions.Update(ctx, ownerID, params)
}

// Delete removes a question and its answers, then clears referenced images
// from blob storage. Image cleanup failures are logged, not surfaced; the row
// delete has already committed.
func (s *Service) Delete(ctx context.Context, ownerID, questionID uuid.UUID) error {
	images, err := s.questions.Delete(ctx, questionID, ownerID)
	if err != nil {
		return err
	}
	for _, url := range images {
		if err := s.images.Remove(ctx, url); err != nil {
			s.logger.Warn().Err(err).Str("url", url).Msg("image cleanup failed")
		}
	}
	return nil
}

// ListByQuiz returns a quiz's questions with their answer sets. Private
// quizzes are only readable by their owner.
func (s *Service) ListByQuiz(ctx context.Context, quizID uuid.UUID, callerID *uuid.UUID) ([]WithAnswers, error) {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.Visibility != "public" && (callerID == nil || *callerID != quiz.OwnerID) {
		return nil, repository.ErrQuizNotFound
	}

	questions, err := s.questions.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	out := make([]WithAnswers, 0, len(questions))
	for _, q := range questions {
		answers, err := s.answers.ListByQuestion(ctx, q.QuestionID)
		if err != nil {
			return nil, fmt.Errorf("load answers for %s: %w", q.QuestionID, err)
		}
		out = append(out, WithAnswers{Question: q, Answers: answers})
	}
	return out, nil
}

func validateProposedSet(questionType string, proposed []answer.Proposed) error {
	if len(proposed) < answer.MinAnswers {
		return ErrNotEnoughAnswers
	}
	return answer.ValidateSet(questionType, proposed)
}

func toAnswerParams(proposed []answer.Proposed) []repository.CreateAnswerParams {
	params := make([]repository.CreateAnswerParams, 0, len(proposed))
	for _, p := range proposed {
		params = append(params, repository.CreateAnswerParams{
			Body:       p.Body,
			IsCorrect:  p.IsCorrect,
			OrderIndex: p.OrderIndex,
			ImageURL:   p.ImageURL,
		})
	}
	return params
}
