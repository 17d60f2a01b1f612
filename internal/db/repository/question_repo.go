package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository exposes typed DB operations for questions and their
// answer sets. Whole-set writes (create, replace) happen in one transaction
// so the answer-set invariants are suspended only inside it.
type QuestionRepository struct {
	db *pgxpool.Pool
}

// NewQuestionRepository constructs a question repository over a pgx pool.
func NewQuestionRepository(db *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = "question_id, quiz_id, question_type, prompt, order_index, image_url, created_at, updated_at"

// Create inserts a question together with its initial answer set.
func (r *QuestionRepository) Create(ctx context.Context, ownerID uuid.UUID, params CreateQuestionParams) (Question, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Question{}, fmt.Errorf("begin create question: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO questions (quiz_id, question_type, prompt, order_index, image_url)
		SELECT $1, $2, $3, $4, $5
		WHERE EXISTS (SELECT 1 FROM quizzes WHERE quiz_id = $1 AND owner_id = $6)
		RETURNING `+questionColumns,
		params.QuizID, params.QuestionType, params.Prompt, params.OrderIndex, params.ImageURL, ownerID)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Question{}, ErrQuizNotFound
	}
	if err != nil {
		return Question{}, fmt.Errorf("insert question: %w", err)
	}

	if err := insertAnswers(ctx, tx, q.QuestionID, params.Answers); err != nil {
		return Question{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Question{}, fmt.Errorf("commit create question: %w", err)
	}
	return q, nil
}

// ResolveOwned fetches a question only if the caller owns its parent quiz.
// The answer constraint engine uses this to resolve the question type before
// gating a mutation.
func (r *QuestionRepository) ResolveOwned(ctx context.Context, questionID, ownerID uuid.UUID) (Question, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+qualified(questionColumns, "q")+`
		FROM questions q
		JOIN quizzes z ON z.quiz_id = q.quiz_id
		WHERE q.question_id = $1 AND z.owner_id = $2`,
		questionID, ownerID)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Question{}, ErrQuestionNotFound
	}
	if err != nil {
		return Question{}, fmt.Errorf("resolve question: %w", err)
	}
	return q, nil
}

// ListByQuiz returns a quiz's questions in display order.
func (r *QuestionRepository) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]Question, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+questionColumns+` FROM questions
		WHERE quiz_id = $1
		ORDER BY order_index, created_at`, quizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return questions, nil
}

// Update rewrites a question owned by the caller. When params.Answers is
// non-nil the entire answer set is replaced in the same transaction
// (delete-all then insert-all); the caller validates the proposed set first.
func (r *QuestionRepository) Update(ctx context.Context, ownerID uuid.UUID, params UpdateQuestionParams) (Question, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Question{}, fmt.Errorf("begin update question: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE questions q
		SET question_type = $3, prompt = $4, order_index = $5, image_url = $6, updated_at = now()
		FROM quizzes z
		WHERE q.question_id = $1 AND z.quiz_id = q.quiz_id AND z.owner_id = $2
		RETURNING `+qualified(questionColumns, "q"),
		params.QuestionID, ownerID, params.QuestionType, params.Prompt, params.OrderIndex, params.ImageURL)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Question{}, ErrQuestionNotFound
	}
	if err != nil {
		return Question{}, fmt.Errorf("update question: %w", err)
	}

	if params.Answers != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM answers WHERE question_id = $1`, q.QuestionID); err != nil {
			return Question{}, fmt.Errorf("clear answer set: %w", err)
		}
		if err := insertAnswers(ctx, tx, q.QuestionID, params.Answers); err != nil {
			return Question{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Question{}, fmt.Errorf("commit update question: %w", err)
	}
	return q, nil
}

// Delete removes a question owned by the caller; answers cascade. Returns the
// image URLs of the question and its answers for blob cleanup.
func (r *QuestionRepository) Delete(ctx context.Context, questionID, ownerID uuid.UUID) ([]string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin delete question: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT q.image_url FROM questions q
		JOIN quizzes z ON z.quiz_id = q.quiz_id
		WHERE q.question_id = $1 AND z.owner_id = $2 AND q.image_url IS NOT NULL
		UNION ALL
		SELECT a.image_url FROM answers a
		JOIN questions q ON q.question_id = a.question_id
		JOIN quizzes z ON z.quiz_id = q.quiz_id
		WHERE q.question_id = $1 AND z.owner_id = $2 AND a.image_url IS NOT NULL`,
		questionID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("collect question images: %w", err)
	}
	var images []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan image url: %w", err)
		}
		images = append(images, url)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate image urls: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM questions q
		USING quizzes z
		WHERE q.question_id = $1 AND z.quiz_id = q.quiz_id AND z.owner_id = $2`,
		questionID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrQuestionNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit delete question: %w", err)
	}
	return images, nil
}

func insertAnswers(ctx context.Context, tx pgx.Tx, questionID uuid.UUID, answers []CreateAnswerParams) error {
	for _, a := range answers {
		if _, err := tx.Exec(ctx, `
			INSERT INTO answers (question_id, body, is_correct, order_index, image_url)
			VALUES ($1, $2, $3, $4, $5)`,
			questionID, a.Body, a.IsCorrect, a.OrderIndex, a.ImageURL); err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
	}
	return nil
}

func scanQuestion(row pgx.Row) (Question, error) {
	var q Question
	err := row.Scan(&q.QuestionID, &q.QuizID, &q.QuestionType, &q.Prompt, &q.OrderIndex, &q.ImageURL, &q.CreatedAt, &q.UpdatedAt)
	return q, err
}

// qualified prefixes each column in a comma-separated list with a table alias.
func qualified(columns, alias string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}
