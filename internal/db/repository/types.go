package repository

import (
	"time"

	"github.com/google/uuid"
)

// Quiz is a stored quiz row.
type Quiz struct {
	QuizID      uuid.UUID
	OwnerID     uuid.UUID
	Title       string
	Description string
	Visibility  string
	ImageURL    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Question is a stored question row. QuestionType drives the answer-count
// policy applied to its answer set.
type Question struct {
	QuestionID   uuid.UUID
	QuizID       uuid.UUID
	QuestionType string
	Prompt       string
	OrderIndex   int
	ImageURL     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Answer is a stored answer row.
type Answer struct {
	AnswerID   uuid.UUID
	QuestionID uuid.UUID
	Body       string
	IsCorrect  bool
	OrderIndex int
	ImageURL   *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AnswerState is the projection of an answer row the constraint engine
// decides on. Text and images are irrelevant to the decision.
type AnswerState struct {
	AnswerID  uuid.UUID
	IsCorrect bool
}

// CheckFunc decides, given the current answer set of a question, whether a
// pending write may proceed. It runs while the set's rows are locked.
type CheckFunc func(existing []AnswerState) error

// CreateQuizParams carries fields for a quiz insert.
type CreateQuizParams struct {
	OwnerID     uuid.UUID
	Title       string
	Description string
	Visibility  string
	ImageURL    *string
}

// UpdateQuizParams carries fields for a quiz metadata update.
type UpdateQuizParams struct {
	QuizID      uuid.UUID
	OwnerID     uuid.UUID
	Title       string
	Description string
	Visibility  string
	ImageURL    *string
}

// QuizFilter narrows library listings.
type QuizFilter struct {
	Visibility string
	OwnerID    *uuid.UUID
	Search     string
	Limit      int
	Offset     int
}

// CreateQuestionParams carries fields for a question insert together with its
// initial answer set.
type CreateQuestionParams struct {
	QuizID       uuid.UUID
	QuestionType string
	Prompt       string
	OrderIndex   int
	ImageURL     *string
	Answers      []CreateAnswerParams
}

// UpdateQuestionParams carries fields for a question update. When Answers is
// non-nil the full answer set is replaced in the same transaction.
type UpdateQuestionParams struct {
	QuestionID   uuid.UUID
	QuestionType string
	Prompt       string
	OrderIndex   int
	ImageURL     *string
	Answers      []CreateAnswerParams
}

// CreateAnswerParams carries fields for an answer insert.
type CreateAnswerParams struct {
	QuestionID uuid.UUID
	Body       string
	IsCorrect  bool
	OrderIndex int
	ImageURL   *string
}

// UpdateAnswerParams carries the new field values of an answer being updated
// in place.
type UpdateAnswerParams struct {
	AnswerID   uuid.UUID
	Body       string
	IsCorrect  bool
	OrderIndex int
	ImageURL   *string
}
