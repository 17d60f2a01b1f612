package answer

// Question type constants. A question's type determines the answer-count
// policy applied to its answer set.
const (
	TypeMultipleChoice = "multiple_choice"
	TypeTrueFalse      = "true_false"
)

// MinAnswers is the creation-time floor for a question's answer set. The
// per-answer engine does not enforce it; the delete-guard enforces a floor
// of one.
const MinAnswers = 2

// MaxAnswers returns the policy bound for a question type: 2 for true/false,
// 4 for multiple choice.
func MaxAnswers(questionType string) int {
	if questionType == TypeTrueFalse {
		return 2
	}
	return 4
}

// KnownType reports whether t is a supported question type.
func KnownType(t string) bool {
	return t == TypeMultipleChoice || t == TypeTrueFalse
}
