package answer

import "github.com/google/uuid"

// State is an existing answer reduced to the fields the constraint decision
// needs. Text and images are irrelevant to it.
type State struct {
	ID        uuid.UUID
	IsCorrect bool
}

// Candidate is the answer being added, or the new field values of the answer
// being updated in place.
type Candidate struct {
	IsCorrect bool
}

// Proposed is one answer of a batch-replace set.
type Proposed struct {
	Body       string
	IsCorrect  bool
	OrderIndex int
	ImageURL   *string
}

// CheckConstraints decides whether the answer set of a question would still
// satisfy its invariants after applying the proposed mutation. excludeID, when
// non-nil, marks an update: the existing answer with that id is replaced in
// place rather than added alongside, so neither its presence nor its old
// correctness is double counted.
//
// Checks run in fixed order: count bound first, then correctness bound. Only
// the first failing reason is reported. The function is pure; calling it
// twice with identical inputs yields identical outcomes.
func CheckConstraints(questionType string, existing []State, candidate Candidate, excludeID *uuid.UUID) error {
	total := 0
	correct := 0
	for _, a := range existing {
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		total++
		if a.IsCorrect {
			correct++
		}
	}

	// The candidate participates in both projections: it is the added row on
	// the create path and the replacement row on the update path.
	projectedTotal := total + 1
	projectedCorrect := correct
	if candidate.IsCorrect {
		projectedCorrect++
	}

	if projectedTotal > MaxAnswers(questionType) {
		return ErrTooManyAnswers
	}
	if projectedCorrect != 1 {
		return ErrMustHaveExactlyOneCorrect
	}
	return nil
}

// ValidateSet checks a complete proposed answer set, used by the batch
// replace path where incremental accounting does not apply: the whole set is
// validated against the same two invariants before any row is touched.
func ValidateSet(questionType string, proposed []Proposed) error {
	if len(proposed) > MaxAnswers(questionType) {
		return ErrTooManyAnswers
	}
	correct := 0
	for _, p := range proposed {
		if p.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return ErrMustHaveExactlyOneCorrect
	}
	return nil
}
