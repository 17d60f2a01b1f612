package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnswerRepository exposes typed DB operations for answer rows. All mutations
// run with the owning question's answer rows locked, so the constraint check
// and the write see the same visibility point.
type AnswerRepository struct {
	db *pgxpool.Pool
}

// NewAnswerRepository constructs an answer repository over a pgx pool.
func NewAnswerRepository(db *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{db: db}
}

const answerColumns = "answer_id, question_id, body, is_correct, order_index, image_url, created_at, updated_at"

// ListByQuestion returns a question's answers in display order.
func (r *AnswerRepository) ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]Answer, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+answerColumns+` FROM answers
		WHERE question_id = $1
		ORDER BY order_index, created_at`, questionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	var answers []Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return answers, nil
}

// ResolveOwned fetches an answer only if the caller owns the quiz it belongs to.
func (r *AnswerRepository) ResolveOwned(ctx context.Context, answerID, ownerID uuid.UUID) (Answer, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+qualified(answerColumns, "a")+`
		FROM answers a
		JOIN questions q ON q.question_id = a.question_id
		JOIN quizzes z ON z.quiz_id = q.quiz_id
		WHERE a.answer_id = $1 AND z.owner_id = $2`,
		answerID, ownerID)
	a, err := scanAnswer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Answer{}, ErrAnswerNotFound
	}
	if err != nil {
		return Answer{}, fmt.Errorf("resolve answer: %w", err)
	}
	return a, nil
}

// InsertChecked locks the question's answer set, runs check against the
// current states, and inserts only when check passes. A check rejection
// leaves storage untouched.
func (r *AnswerRepository) InsertChecked(ctx context.Context, params CreateAnswerParams, check CheckFunc) (Answer, error) {
	var inserted Answer
	err := r.withAnswerSetLock(ctx, params.QuestionID, func(tx pgx.Tx, existing []AnswerState) error {
		if err := check(existing); err != nil {
			return err
		}
		row := tx.QueryRow(ctx, `
			INSERT INTO answers (question_id, body, is_correct, order_index, image_url)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+answerColumns,
			params.QuestionID, params.Body, params.IsCorrect, params.OrderIndex, params.ImageURL)
		a, err := scanAnswer(row)
		if err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
		inserted = a
		return nil
	})
	if err != nil {
		return Answer{}, err
	}
	return inserted, nil
}

// UpdateChecked locks the answer set of the question owning params.AnswerID,
// runs check (the row under update included in the states handed to it), and
// applies the new field values only when check passes.
func (r *AnswerRepository) UpdateChecked(ctx context.Context, questionID uuid.UUID, params UpdateAnswerParams, check CheckFunc) (Answer, error) {
	var updated Answer
	err := r.withAnswerSetLock(ctx, questionID, func(tx pgx.Tx, existing []AnswerState) error {
		if err := check(existing); err != nil {
			return err
		}
		row := tx.QueryRow(ctx, `
			UPDATE answers
			SET body = $2, is_correct = $3, order_index = $4, image_url = $5, updated_at = now()
			WHERE answer_id = $1
			RETURNING `+answerColumns,
			params.AnswerID, params.Body, params.IsCorrect, params.OrderIndex, params.ImageURL)
		a, err := scanAnswer(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAnswerNotFound
		}
		if err != nil {
			return fmt.Errorf("update answer: %w", err)
		}
		updated = a
		return nil
	})
	if err != nil {
		return Answer{}, err
	}
	return updated, nil
}

// DeleteGuarded is the atomic check-and-delete primitive: the count check and
// the delete execute against the same locked snapshot, so concurrent deletes
// cannot leave a question with zero answers. Returns ErrLastAnswer when the
// question is already at the one-answer floor.
func (r *AnswerRepository) DeleteGuarded(ctx context.Context, answerID, questionID uuid.UUID) error {
	return r.withAnswerSetLock(ctx, questionID, func(tx pgx.Tx, existing []AnswerState) error {
		found := false
		for _, a := range existing {
			if a.AnswerID == answerID {
				found = true
				break
			}
		}
		if !found {
			return ErrAnswerNotFound
		}
		if len(existing) <= 1 {
			return ErrLastAnswer
		}
		if _, err := tx.Exec(ctx, `DELETE FROM answers WHERE answer_id = $1 AND question_id = $2`, answerID, questionID); err != nil {
			return fmt.Errorf("delete answer: %w", err)
		}
		return nil
	})
}

// ReplaceSet swaps a question's entire answer set in one transaction
// (delete-all then insert-all). The caller validates the proposed set before
// calling; the set invariants are suspended only inside this operation.
func (r *AnswerRepository) ReplaceSet(ctx context.Context, questionID uuid.UUID, proposed []CreateAnswerParams) ([]Answer, error) {
	var replaced []Answer
	err := r.withAnswerSetLock(ctx, questionID, func(tx pgx.Tx, _ []AnswerState) error {
		if _, err := tx.Exec(ctx, `DELETE FROM answers WHERE question_id = $1`, questionID); err != nil {
			return fmt.Errorf("clear answer set: %w", err)
		}
		for _, p := range proposed {
			row := tx.QueryRow(ctx, `
				INSERT INTO answers (question_id, body, is_correct, order_index, image_url)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING `+answerColumns,
				questionID, p.Body, p.IsCorrect, p.OrderIndex, p.ImageURL)
			a, err := scanAnswer(row)
			if err != nil {
				return fmt.Errorf("insert replacement answer: %w", err)
			}
			replaced = append(replaced, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return replaced, nil
}

// withAnswerSetLock opens a transaction, takes a row lock on the owning
// question, and hands the then-current answer states to fn. Every answer-set
// mutation serializes on the question row, so the states fn sees cannot be
// changed underneath it; locking answer rows directly would miss inserts
// committed by a concurrent writer.
func (r *AnswerRepository) withAnswerSetLock(ctx context.Context, questionID uuid.UUID, fn func(tx pgx.Tx, existing []AnswerState) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin answer mutation: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT question_id FROM questions WHERE question_id = $1 FOR UPDATE`, questionID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrQuestionNotFound
	}
	if err != nil {
		return fmt.Errorf("lock question: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT answer_id, is_correct FROM answers
		WHERE question_id = $1`, questionID)
	if err != nil {
		return fmt.Errorf("read answer set: %w", err)
	}
	var existing []AnswerState
	for rows.Next() {
		var s AnswerState
		if err := rows.Scan(&s.AnswerID, &s.IsCorrect); err != nil {
			rows.Close()
			return fmt.Errorf("scan answer state: %w", err)
		}
		existing = append(existing, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate answer states: %w", err)
	}

	if err := fn(tx, existing); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit answer mutation: %w", err)
	}
	return nil
}

func scanAnswer(row pgx.Row) (Answer, error) {
	var a Answer
	err := row.Scan(&a.AnswerID, &a.QuestionID, &a.Body, &a.IsCorrect, &a.OrderIndex, &a.ImageURL, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
