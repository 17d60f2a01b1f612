package repository

import "errors"

var (
	// ErrQuizNotFound is returned when a quiz does not exist or is not
	// visible to the caller.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound is returned when a question does not exist or does
	// not belong to a quiz owned by the caller.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAnswerNotFound is returned when an answer does not exist or does not
	// belong to the stated question.
	ErrAnswerNotFound = errors.New("answer not found")
	// ErrLastAnswer is the distinguished failure signal of the atomic
	// delete-guard: the question is already at the one-answer floor.
	ErrLastAnswer = errors.New("question is at the minimum answer count")
)
