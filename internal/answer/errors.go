package answer

import "errors"

// Constraint violation kinds.
const (
	KindTooManyAnswers            = "too_many_answers"
	KindMustHaveExactlyOneCorrect = "must_have_exactly_one_correct"
	KindCannotDeleteLastAnswer    = "cannot_delete_last_answer"
)

// ConstraintError is the engine's structured rejection: a machine-readable
// kind plus a plain-language reason the editing client can display directly.
// Rejections are never retried automatically and never auto-corrected.
type ConstraintError struct {
	Kind   string
	Reason string
}

func (e *ConstraintError) Error() string {
	return e.Reason
}

var (
	// ErrTooManyAnswers rejects a mutation whose projected total exceeds the
	// question type's policy bound.
	ErrTooManyAnswers = &ConstraintError{
		Kind:   KindTooManyAnswers,
		Reason: "too many answers for this question type",
	}
	// ErrMustHaveExactlyOneCorrect rejects a mutation whose projected set
	// does not contain exactly one correct answer.
	ErrMustHaveExactlyOneCorrect = &ConstraintError{
		Kind:   KindMustHaveExactlyOneCorrect,
		Reason: "must have exactly one correct answer",
	}
	// ErrCannotDeleteLastAnswer rejects deleting the sole remaining answer of
	// a question.
	ErrCannotDeleteLastAnswer = &ConstraintError{
		Kind:   KindCannotDeleteLastAnswer,
		Reason: "cannot delete the last answer",
	}
)

// IsConstraintViolation reports whether err is one of the engine's
// structured rejections.
func IsConstraintViolation(err error) (*ConstraintError, bool) {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
